package source

import "context"

// Source supplies the raw record for one poll cycle. Keys are canonical
// telemetry field names; a nil value means the source sent null.
type Source interface {
	Fetch(ctx context.Context) (map[string]*string, error)
}
