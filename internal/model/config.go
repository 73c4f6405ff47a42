package model

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	BackendForest    = "forest"
	BackendSageMaker = "sagemaker"

	defaultPath   = "/var/lib/faultwatch/model.json"
	defaultRegion = "eu-west-1"
)

type Config struct {
	Backend  string
	Path     string
	S3Bucket string
	S3Key    string
	Endpoint string
	Region   string
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendForest,
		Path:    defaultPath,
		Region:  defaultRegion,
	}
}

// FromS3 reports whether the artifact is fetched from S3 instead of disk.
func (c Config) FromS3() bool {
	return c.S3Bucket != ""
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Backend {
	case BackendForest:
	case BackendSageMaker:
		if c.Endpoint == "" {
			return errFactory.WithMessage(ErrInvalidConfig, "sagemaker backend requires an endpoint name")
		}
	default:
		return errFactory.WithData(ErrInvalidBackend, c.Backend)
	}

	if c.FromS3() {
		if c.S3Key == "" {
			return errFactory.WithMessage(ErrInvalidConfig, "s3 bucket set without an object key")
		}
	} else if c.Path == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "model artifact path is empty")
	}

	if (c.FromS3() || c.Backend == BackendSageMaker) && c.Region == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "aws region is required")
	}

	return nil
}
