package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("model_size", validateModelSize)
	_ = v.RegisterValidation("privacy_mode", validatePrivacyMode)
	_ = v.RegisterValidation("target_quality", validateTargetQuality)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

func validateModelSize(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "tiny", "base", "small", "medium", "large":
		return true
	}
	return false
}

func validatePrivacyMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "names", "ids":
		return true
	}
	return false
}

func validateTargetQuality(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "fastest", "balanced", "highest":
		return true
	}
	return false
}
