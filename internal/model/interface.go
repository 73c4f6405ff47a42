package model

import "context"

// Classifier is a pre-trained fault classifier.
type Classifier interface {
	// Predict returns one label per input row.
	Predict(ctx context.Context, rows [][]float64) ([]string, error)

	// Features returns the column names the classifier expects, in order.
	// A nil result means the classifier does not declare a schema.
	Features() []string
}

// Model is a loaded classifier together with the label to cause mapping
// shipped in the same artifact. It is immutable after Load.
type Model struct {
	Name       string
	Version    string
	Classifier Classifier
	Causes     CauseMapping
}

// CauseMapping maps a predicted label to a human-readable cause.
// The zero value is an empty mapping.
type CauseMapping struct {
	causes map[string]string
}

// NewCauseMapping copies m so later writes to m are not observed.
func NewCauseMapping(m map[string]string) CauseMapping {
	causes := make(map[string]string, len(m))
	for label, cause := range m {
		causes[label] = cause
	}
	return CauseMapping{causes: causes}
}

// Lookup returns the cause for label.
func (c CauseMapping) Lookup(label string) (string, bool) {
	cause, ok := c.causes[label]
	return cause, ok
}

// Len returns the number of mapped labels.
func (c CauseMapping) Len() int {
	return len(c.causes)
}
