package telemetry

import "math"

// Field identifies one of the seven sensor channels of a reading.
type Field int

const (
	Voltage Field = iota
	Current
	Power
	Energy
	Frequency
	PowerFactor
	Temperature
)

// Schema is the canonical field order. The fault model was trained on
// this column order.
var Schema = []Field{Voltage, Current, Power, Energy, Frequency, PowerFactor, Temperature}

var fieldNames = [...]string{
	Voltage:     "voltage",
	Current:     "current",
	Power:       "power",
	Energy:      "energy",
	Frequency:   "frequency",
	PowerFactor: "power_factor",
	Temperature: "temperature",
}

var fieldDefaults = [...]float64{
	Voltage:     0.0,
	Current:     0.0,
	Power:       0.0,
	Energy:      0.0,
	Frequency:   50.0,
	PowerFactor: 1.0,
	Temperature: 25.0,
}

// String returns the canonical raw key of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Default returns the value substituted when the field is missing.
func (f Field) Default() float64 {
	return fieldDefaults[f]
}

// Reading is a normalized telemetry snapshot. Every field is finite.
type Reading struct {
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	Power       float64 `json:"power"`
	Energy      float64 `json:"energy"`
	Frequency   float64 `json:"frequency"`
	PowerFactor float64 `json:"power_factor"`
	Temperature float64 `json:"temperature"`
}

// Defaults returns the all-defaults reading used when a source has no data.
func Defaults() Reading {
	var r Reading
	for _, f := range Schema {
		r.set(f, f.Default())
	}
	return r
}

// Get returns the value of field f.
func (r Reading) Get(f Field) float64 {
	switch f {
	case Voltage:
		return r.Voltage
	case Current:
		return r.Current
	case Power:
		return r.Power
	case Energy:
		return r.Energy
	case Frequency:
		return r.Frequency
	case PowerFactor:
		return r.PowerFactor
	case Temperature:
		return r.Temperature
	default:
		return math.NaN()
	}
}

func (r *Reading) set(f Field, v float64) {
	switch f {
	case Voltage:
		r.Voltage = v
	case Current:
		r.Current = v
	case Power:
		r.Power = v
	case Energy:
		r.Energy = v
	case Frequency:
		r.Frequency = v
	case PowerFactor:
		r.PowerFactor = v
	case Temperature:
		r.Temperature = v
	}
}

// Vector returns the values of r in the given field order.
func (r Reading) Vector(order []Field) []float64 {
	row := make([]float64, len(order))
	for i, f := range order {
		row[i] = r.Get(f)
	}
	return row
}
