package errors

// ErrorCode identifies an application error category
type ErrorCode int32

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED

	// Pipeline errors
	ErrorCode_INVALID_CONFIGURATION
	ErrorCode_INVALID_DURATION
	ErrorCode_SUBRANGE_TRANSCRIPTION_FAILED
	ErrorCode_EMPTY_TRANSCRIPT
	ErrorCode_ATTRIBUTION_INPUT

	// Job errors
	ErrorCode_JOB_NOT_FOUND
	ErrorCode_JOB_INVALID_STATE
	ErrorCode_JOB_PROCESSING_FAILED

	// Integration errors
	ErrorCode_INTEGRATION_FORUM_FAILED
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED
	ErrorCode_INTEGRATION_LLM_FAILED

	// Media errors
	ErrorCode_MEDIA_DECODE_FAILED
	ErrorCode_ENGINE_LOAD_FAILED

	// Report errors
	ErrorCode_REPORT_GENERATION_FAILED

	// Database errors
	ErrorCode_DB_CONNECTION_FAILED
	ErrorCode_DB_QUERY_FAILED
)

var codeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                       "UNKNOWN",
	ErrorCode_INTERNAL:                      "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:              "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                     "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:                "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:             "PERMISSION_DENIED",
	ErrorCode_INVALID_CONFIGURATION:         "INVALID_CONFIGURATION",
	ErrorCode_INVALID_DURATION:              "INVALID_DURATION",
	ErrorCode_SUBRANGE_TRANSCRIPTION_FAILED: "SUBRANGE_TRANSCRIPTION_FAILED",
	ErrorCode_EMPTY_TRANSCRIPT:              "EMPTY_TRANSCRIPT",
	ErrorCode_ATTRIBUTION_INPUT:             "ATTRIBUTION_INPUT",
	ErrorCode_JOB_NOT_FOUND:                 "JOB_NOT_FOUND",
	ErrorCode_JOB_INVALID_STATE:             "JOB_INVALID_STATE",
	ErrorCode_JOB_PROCESSING_FAILED:         "JOB_PROCESSING_FAILED",
	ErrorCode_INTEGRATION_FORUM_FAILED:      "INTEGRATION_FORUM_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:    "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:      "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_LLM_FAILED:        "INTEGRATION_LLM_FAILED",
	ErrorCode_MEDIA_DECODE_FAILED:           "MEDIA_DECODE_FAILED",
	ErrorCode_ENGINE_LOAD_FAILED:            "ENGINE_LOAD_FAILED",
	ErrorCode_REPORT_GENERATION_FAILED:      "REPORT_GENERATION_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:          "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:               "DB_QUERY_FAILED",
}

// String returns the symbolic name of the error code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
