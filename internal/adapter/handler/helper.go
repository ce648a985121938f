package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/errors"
	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

// Response shapes
type success struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response
func HandleSuccess(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}
	return c.JSON(status, success{Message: "success", Data: data})
}

// HandleError centralizes error handling and logging. Domain sentinel
// errors are mapped to their application error first, so callers can
// return them directly.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	err = mapDomainError(c, err)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", getRequestID(c)),
				zap.String("path", c.Path()),
				zap.String("app_code", appErr.Code.String()),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}
		return c.JSON(appErr.HTTPCode, errs{
			Code:    appErr.Code.String(),
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		})
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(http.StatusInternalServerError, errs{
		Code:    errors.ErrorCode_INTERNAL.String(),
		Message: "Internal server error",
		Info:    err.Error(),
	})
}

// mapDomainError lifts domain sentinels into application errors so they
// carry the right HTTP status.
func mapDomainError(c echo.Context, err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrJobNotFound):
		return errors.ErrJobNotFound(c.Param("id"))
	case stdErrors.Is(err, entities.ErrTranscriptNotFound):
		return errors.ErrNotFound("transcript")
	case stdErrors.Is(err, entities.ErrJobNotCompleted):
		return errors.ErrJobInvalidState(c.Param("id"), "", string(entities.JobStatusCompleted))
	case stdErrors.Is(err, entities.ErrInvalidConfiguration):
		return errors.ErrInvalidConfiguration(err.Error())
	case stdErrors.Is(err, entities.ErrInvalidDuration),
		stdErrors.Is(err, entities.ErrInvalidRequest):
		return errors.ErrInvalidArgument(err.Error())
	default:
		return err
	}
}
