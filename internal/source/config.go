package source

import (
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

const (
	defaultURL     = "https://thingspeak.mathworks.com/channels/2815931/feed.json"
	defaultTimeout = 10 * time.Second
)

type Config struct {
	URL     string
	Timeout time.Duration
	// Fields maps canonical telemetry names to keys in a feed entry.
	Fields map[string]string
}

// DefaultFields is the channel layout of the transformer feed:
// field1..field7 in schema order.
func DefaultFields() map[string]string {
	return map[string]string{
		telemetry.Voltage.String():     "field1",
		telemetry.Current.String():     "field2",
		telemetry.Power.String():       "field3",
		telemetry.Energy.String():      "field4",
		telemetry.Frequency.String():   "field5",
		telemetry.PowerFactor.String(): "field6",
		telemetry.Temperature.String(): "field7",
	}
}

func DefaultConfig() Config {
	return Config{
		URL:     defaultURL,
		Timeout: defaultTimeout,
		Fields:  DefaultFields(),
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.URL == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "source url is empty")
	}
	if c.Timeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidTimeout, c.Timeout.String())
	}
	for name := range c.Fields {
		if _, ok := telemetry.LookupField(name); !ok {
			return errFactory.WithData(ErrInvalidConfig, "unknown telemetry field "+name)
		}
	}
	return nil
}
