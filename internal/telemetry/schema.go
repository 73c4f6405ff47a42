package telemetry

import "strings"

// aliases are column names used by exported model artifacts that do not
// match the canonical raw keys.
var aliases = map[string]Field{
	"power factor": PowerFactor,
	"powerfactor":  PowerFactor,
	"pf":           PowerFactor,
	"temp":         Temperature,
}

// LookupField resolves a canonical field name or a known alias.
// Matching ignores case and surrounding whitespace.
func LookupField(name string) (Field, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, f := range Schema {
		if f.String() == key {
			return f, true
		}
	}
	f, ok := aliases[key]
	return f, ok
}

// Names returns the canonical names of fields in order.
func Names(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return names
}
