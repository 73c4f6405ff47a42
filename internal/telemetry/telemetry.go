package telemetry

import (
	"math"
	"strconv"
	"strings"
)

// Normalized is the result of Normalize: a fully populated reading plus
// the fields that had to fall back to their default.
type Normalized struct {
	Reading   Reading
	Defaulted []Field
}

// Degraded reports whether any field was defaulted.
func (n Normalized) Degraded() bool {
	return len(n.Defaulted) > 0
}

// Normalize converts a raw record into a Reading. Absent keys, nil or
// empty values, unparseable numbers and non-finite numbers are replaced by
// the field default. It never fails.
func Normalize(raw map[string]*string) Normalized {
	var n Normalized
	for _, f := range Schema {
		v, ok := parse(raw[f.String()])
		if !ok {
			v = f.Default()
			n.Defaulted = append(n.Defaulted, f)
		}
		n.Reading.set(f, v)
	}
	return n
}

func parse(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Raw encodes r back into raw string form. Normalize(Raw(r)) == r.
func Raw(r Reading) map[string]*string {
	raw := make(map[string]*string, len(Schema))
	for _, f := range Schema {
		s := strconv.FormatFloat(r.Get(f), 'g', -1, 64)
		raw[f.String()] = &s
	}
	return raw
}
