package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

const maxFeedSize = 4 << 20

// feedPayload is the channel feed document; only the entries are used.
type feedPayload struct {
	Feeds []map[string]json.RawMessage `json:"feeds"`
}

// Feed polls an HTTP JSON channel feed and returns its latest entry.
type Feed struct {
	url    string
	client *http.Client
	fields map[string]string
}

// NewFeed builds a Feed from cfg. Field names in cfg are resolved to
// canonical names, so aliases such as "temp" are accepted.
func NewFeed(cfg Config) (*Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(cfg.Fields))
	for name, key := range cfg.Fields {
		f, _ := telemetry.LookupField(name)
		fields[f.String()] = key
	}

	return &Feed{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		fields: fields,
	}, nil
}

func (f *Feed) Fetch(ctx context.Context) (map[string]*string, error) {
	errFactory := errors.New()
	unavailable := func(phase string, err error) error {
		return errFactory.Wrap(ErrUnavailable, fmt.Errorf("%s: %w", phase, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, unavailable("build_request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, unavailable("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable("status", fmt.Errorf("unexpected status %s", resp.Status))
	}

	var payload feedPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedSize)).Decode(&payload); err != nil {
		return nil, unavailable("decode", err)
	}
	if len(payload.Feeds) == 0 {
		return nil, unavailable("decode", fmt.Errorf("feed has no entries"))
	}

	latest := payload.Feeds[len(payload.Feeds)-1]
	raw := make(map[string]*string, len(f.fields))
	for name, key := range f.fields {
		if value, ok := latest[key]; ok {
			raw[name] = rawValue(value)
		}
	}

	return raw, nil
}

// rawValue turns a JSON value into the raw string form Normalize expects.
// Strings are passed through, numbers keep their literal text, null and
// anything else become nil.
func rawValue(msg json.RawMessage) *string {
	if string(bytes.TrimSpace(msg)) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return &s
	}

	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		text := n.String()
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			return &text
		}
	}

	return nil
}
