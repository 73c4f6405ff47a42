package model

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig  = errors.ErrorCode("model_invalid_config")
	ErrInvalidBackend = errors.ErrInvalidBackend

	// Artifact Errors
	ErrArtifactRead    = errors.ErrorCode("model_artifact_read_failed")
	ErrArtifactDecode  = errors.ErrorCode("model_artifact_decode_failed")
	ErrInvalidArtifact = errors.ErrorCode("model_invalid_artifact")

	// Inference Errors
	ErrShapeMismatch  = errors.ErrorCode("model_shape_mismatch")
	ErrInvokeEndpoint = errors.ErrorCode("model_invoke_endpoint_failed")
	ErrBadResponse    = errors.ErrorCode("model_bad_response")
	ErrCanceled       = errors.ErrorCode("model_canceled")
)

func init() {
	errors.Register(map[errors.ErrorCode]string{
		ErrInvalidConfig:   "Invalid model configuration",
		ErrArtifactRead:    "Failed to read model artifact",
		ErrArtifactDecode:  "Failed to decode model artifact",
		ErrInvalidArtifact: "Invalid model artifact",
		ErrShapeMismatch:   "Feature row does not match model schema",
		ErrInvokeEndpoint:  "Failed to invoke model endpoint",
		ErrBadResponse:     "Unexpected model endpoint response",
		ErrCanceled:        "Inference canceled",
	})
}
