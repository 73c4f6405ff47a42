package inference

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	// ErrInference is returned when the model could not produce a label.
	// The caller decides how to present it; the service never retries.
	ErrInference = errors.ErrorCode("inference_failed")

	// ErrSchemaMismatch is returned by New when the model's declared
	// columns cannot be bound to telemetry fields.
	ErrSchemaMismatch = errors.ErrorCode("inference_schema_mismatch")

	ErrNoModel = errors.ErrorCode("inference_no_model")
)

func init() {
	errors.Register(map[errors.ErrorCode]string{
		ErrInference:      "Fault inference failed",
		ErrSchemaMismatch: "Model columns do not match telemetry fields",
		ErrNoModel:        "Fault model not loaded",
	})
}

// IsInferenceError reports whether err came from a failed model call.
func IsInferenceError(err error) bool {
	return errors.HasCode(err, ErrInference)
}
