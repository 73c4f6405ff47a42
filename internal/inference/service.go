package inference

import (
	"context"
	"fmt"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/model"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

// UnknownCause is the cause reported for labels missing from the mapping.
const UnknownCause = "Unknown Cause"

// Prediction is the outcome of one inference call.
type Prediction struct {
	Label string `json:"predicted_label"`
	Cause string `json:"cause"`
}

// Service turns a normalized reading into a Prediction. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	classifier model.Classifier
	causes     model.CauseMapping
	columns    []telemetry.Field
}

// New binds the model's declared columns to telemetry fields. A model
// without a declared schema is fed the canonical field order.
func New(m *model.Model) (*Service, error) {
	errFactory := errors.New()

	if m == nil || m.Classifier == nil {
		return nil, errFactory.New(ErrNoModel)
	}

	columns, err := Bind(m.Classifier.Features())
	if err != nil {
		return nil, err
	}

	return &Service{
		classifier: m.Classifier,
		causes:     m.Causes,
		columns:    columns,
	}, nil
}

// Bind maps model column names onto telemetry fields. Every field must be
// bound exactly once and no unknown column is allowed.
func Bind(features []string) ([]telemetry.Field, error) {
	if features == nil {
		return append([]telemetry.Field(nil), telemetry.Schema...), nil
	}

	errFactory := errors.New()
	columns := make([]telemetry.Field, 0, len(features))
	bound := make(map[telemetry.Field]string, len(features))

	for _, name := range features {
		f, ok := telemetry.LookupField(name)
		if !ok {
			return nil, errFactory.WithData(ErrSchemaMismatch, fmt.Sprintf("unknown column %q", name))
		}
		if prev, dup := bound[f]; dup {
			return nil, errFactory.WithData(ErrSchemaMismatch,
				fmt.Sprintf("columns %q and %q both bind to %s", prev, name, f))
		}
		bound[f] = name
		columns = append(columns, f)
	}

	for _, f := range telemetry.Schema {
		if _, ok := bound[f]; !ok {
			return nil, errFactory.WithData(ErrSchemaMismatch, fmt.Sprintf("no column for field %s", f))
		}
	}

	return columns, nil
}

// Columns returns the bound column order.
func (s *Service) Columns() []telemetry.Field {
	return append([]telemetry.Field(nil), s.columns...)
}

// Predict runs the model on reading and resolves the label to a cause.
// A label without a mapped cause resolves to UnknownCause; that is not an
// error. Any model failure is returned as ErrInference.
func (s *Service) Predict(ctx context.Context, reading telemetry.Reading) (Prediction, error) {
	errFactory := errors.New()

	row := reading.Vector(s.columns)
	labels, err := s.classifier.Predict(ctx, [][]float64{row})
	if err != nil {
		return Prediction{}, errFactory.Wrap(ErrInference, err)
	}
	if len(labels) == 0 {
		return Prediction{}, errFactory.WithMessage(ErrInference, "model returned no label")
	}

	return Resolve(labels[0], s.causes), nil
}

// Resolve builds a Prediction for label using causes.
func Resolve(label string, causes model.CauseMapping) Prediction {
	cause, ok := causes.Lookup(label)
	if !ok {
		cause = UnknownCause
	}
	return Prediction{Label: label, Cause: cause}
}
