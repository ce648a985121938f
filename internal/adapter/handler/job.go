package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	jobDTO "github.com/karlis-benefelds/forum-transcriber/internal/adapter/dto/job"
	"github.com/karlis-benefelds/forum-transcriber/internal/adapter/presenter"
	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/transcription"
)

// Job handles transcription job HTTP requests
type Job struct {
	jobService *transcription.Service
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *transcription.Service, logger *zap.Logger) *Job {
	return &Job{
		jobService: jobService,
		logger:     logger,
	}
}

// CreateJob handles POST /jobs
func (h *Job) CreateJob(c echo.Context) error {
	var req jobDTO.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	}

	cfg := entities.JobConfig{
		ModelSize:            req.ModelSize,
		SegmentLengthSeconds: req.SegmentLengthSeconds,
		MaxWorkers:           req.MaxWorkers,
		Parallel:             req.Parallel == nil || *req.Parallel,
		WordLevelTimestamps:  req.WordLevelTimestamps,
		PrivacyMode:          req.PrivacyMode,
		TargetQuality:        req.TargetQuality,
		LanguageHint:         req.LanguageHint,
	}

	job, err := h.jobService.CreateJob(c.Request().Context(), req.ClassID, req.RecordingURL, cfg)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	response := &jobDTO.CreateJobResponse{Job: *presenter.ToJobResponse(job, nil)}
	return c.JSON(http.StatusCreated, response)
}

// GetJob handles GET /jobs/:id
func (h *Job) GetJob(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_job_id",
			"message": "job id must be a valid UUID",
		})
	}

	job, progress, err := h.jobService.GetJob(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, presenter.ToJobResponse(job, progress))
}

// ListJobs handles GET /jobs
func (h *Job) ListJobs(c echo.Context) error {
	var req jobDTO.ListJobsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	}

	jobs, err := h.jobService.ListJobs(c.Request().Context(), req.ClassID, entities.JobStatus(req.Status))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	response := jobDTO.ListJobsResponse{Jobs: make([]jobDTO.JobResponse, 0, len(jobs))}
	for i := range jobs {
		response.Jobs = append(response.Jobs, *presenter.ToJobResponse(&jobs[i], nil))
	}
	return c.JSON(http.StatusOK, response)
}

// GetTranscript handles GET /jobs/:id/transcript
func (h *Job) GetTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_job_id",
			"message": "job id must be a valid UUID",
		})
	}

	transcript, turns, err := h.jobService.GetTranscript(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	includeSegments := c.QueryParam("include_segments") == "true"
	return c.JSON(http.StatusOK, presenter.ToTranscriptResponse(transcript, turns, includeSegments))
}

// GetReport handles GET /jobs/:id/report.csv
func (h *Job) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_job_id",
			"message": "job id must be a valid UUID",
		})
	}

	data, err := h.jobService.GetReportCSV(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="transcript_report.csv"`)
	return c.Blob(http.StatusOK, "text/csv", data)
}
