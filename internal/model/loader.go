package model

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime/sagemakerruntimeiface"
)

// maxArtifactSize bounds how much of an artifact is read into memory.
const maxArtifactSize = 64 << 20

// Loader reads a model artifact and builds the configured backend.
type Loader struct {
	cfg     Config
	log     logger.Logger
	s3      s3iface.S3API
	runtime sagemakerruntimeiface.SageMakerRuntimeAPI

	sessOnce sync.Once
	sess     *session.Session
	sessErr  error
}

type LoaderOption func(*Loader)

// WithS3 injects the S3 client used for artifact downloads.
func WithS3(api s3iface.S3API) LoaderOption {
	return func(l *Loader) { l.s3 = api }
}

// WithRuntime injects the SageMaker runtime client.
func WithRuntime(api sagemakerruntimeiface.SageMakerRuntimeAPI) LoaderOption {
	return func(l *Loader) { l.runtime = api }
}

// WithLogger sets the loader's logger.
func WithLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

func NewLoader(cfg Config, opts ...LoaderOption) *Loader {
	l := &Loader{cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, validates and builds the model. It is called once at
// startup; the returned Model is never mutated.
func (l *Loader) Load(ctx context.Context) (*Model, error) {
	errFactory := errors.New()

	if err := l.cfg.Validate(); err != nil {
		return nil, err
	}

	artifact, err := l.readArtifact(ctx)
	if err != nil {
		return nil, err
	}

	var classifier Classifier
	switch l.cfg.Backend {
	case BackendForest:
		forest, err := NewForest(artifact)
		if err != nil {
			return nil, err
		}
		classifier = forest
	case BackendSageMaker:
		if err := artifact.Validate(false); err != nil {
			return nil, err
		}
		runtime, err := l.runtimeClient()
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidConfig, err)
		}
		classifier = NewEndpoint(runtime, l.cfg.Endpoint, artifact.Features)
	default:
		return nil, errFactory.WithData(ErrInvalidBackend, l.cfg.Backend)
	}

	if missing := artifact.UnmappedClasses(); len(missing) > 0 {
		l.log.Warn().
			Strs("classes", missing).
			Msg("Model classes without a mapped cause")
	}

	l.log.Info().
		Str("name", artifact.Name).
		Str("version", artifact.Version).
		Str("backend", l.cfg.Backend).
		Strs("features", artifact.Features).
		Int("trees", len(artifact.Trees)).
		Int("causes", len(artifact.FaultCauseMapping)).
		Msg("Fault model loaded")

	return &Model{
		Name:       artifact.Name,
		Version:    artifact.Version,
		Classifier: classifier,
		Causes:     NewCauseMapping(artifact.FaultCauseMapping),
	}, nil
}

func (l *Loader) readArtifact(ctx context.Context) (*Artifact, error) {
	errFactory := errors.New()

	if !l.cfg.FromS3() {
		f, err := os.Open(l.cfg.Path)
		if err != nil {
			return nil, errFactory.Wrap(ErrArtifactRead, err)
		}
		defer f.Close()
		return DecodeArtifact(io.LimitReader(f, maxArtifactSize))
	}

	api, err := l.s3Client()
	if err != nil {
		return nil, errFactory.Wrap(ErrArtifactRead, err)
	}

	out, err := api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.cfg.S3Bucket),
		Key:    aws.String(l.cfg.S3Key),
	})
	if err != nil {
		return nil, errFactory.WithData(ErrArtifactRead, struct {
			Bucket string
			Key    string
			Error  string
		}{
			Bucket: l.cfg.S3Bucket,
			Key:    l.cfg.S3Key,
			Error:  err.Error(),
		})
	}
	defer out.Body.Close()

	content, err := io.ReadAll(io.LimitReader(out.Body, maxArtifactSize))
	if err != nil {
		return nil, errFactory.Wrap(ErrArtifactRead, err)
	}

	l.log.Debug().
		Str("bucket", l.cfg.S3Bucket).
		Str("key", l.cfg.S3Key).
		Int("bytes", len(content)).
		Msg("Downloaded model artifact")

	return DecodeArtifact(bytes.NewReader(content))
}

func (l *Loader) session() (*session.Session, error) {
	l.sessOnce.Do(func() {
		l.sess, l.sessErr = session.NewSession(&aws.Config{Region: aws.String(l.cfg.Region)})
	})
	return l.sess, l.sessErr
}

func (l *Loader) s3Client() (s3iface.S3API, error) {
	if l.s3 != nil {
		return l.s3, nil
	}
	sess, err := l.session()
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

func (l *Loader) runtimeClient() (sagemakerruntimeiface.SageMakerRuntimeAPI, error) {
	if l.runtime != nil {
		return l.runtime, nil
	}
	sess, err := l.session()
	if err != nil {
		return nil, err
	}
	return sagemakerruntime.New(sess), nil
}
