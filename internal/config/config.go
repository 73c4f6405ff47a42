package config

import (
	"strings"
	"time"

	"codeberg.org/mutker/faultwatch/internal/cache"
	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/model"
	"codeberg.org/mutker/faultwatch/internal/source"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "FAULTWATCH"
	DefaultLogLevel  = LogLevelInfo
	DefaultInterval  = 30
	DefaultListen    = ":9108"

	configName       = "faultwatch"
	configType       = "toml"
	defaultConfigDir = "/etc/faultwatch"
)

type Config struct {
	Interval int // seconds
	LogLevel LogLevel
	// Listen is the status API address. Empty disables the API.
	Listen  string
	PIDFile string
	// Once runs a single cycle and exits.
	Once bool

	Source  source.Config
	Model   model.Config
	History history.Config
	Cache   cache.Config
}

// Load builds the configuration from defaults, the config file, the
// environment and args, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		envPrefix:   DefaultEnvPrefix,
		searchPaths: []string{defaultConfigDir},
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, flags, o); err != nil {
		return nil, err
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	flags.String("config", "", "Path to the configuration file")
	flags.Int("interval", DefaultInterval, "Seconds between poll cycles")
	flags.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	flags.String("listen", DefaultListen, "Status API listen address, empty to disable")
	flags.Bool("once", false, "Run a single cycle and exit")
	return flags
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	errFactory := errors.New()

	bindings := map[string]string{
		"interval":  "interval",
		"log_level": "log-level",
		"listen":    "listen",
		"once":      "once",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errFactory.WithData(errors.ErrBindFlags, struct {
				Flag  string
				Error string
			}{
				Flag:  name,
				Error: err.Error(),
			})
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	src := source.DefaultConfig()
	mdl := model.DefaultConfig()
	hist := history.DefaultConfig()
	cch := cache.DefaultConfig()

	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("pid_file", "")
	v.SetDefault("once", false)

	v.SetDefault("source.url", src.URL)
	v.SetDefault("source.timeout", int(src.Timeout/time.Second))

	v.SetDefault("model.backend", mdl.Backend)
	v.SetDefault("model.path", mdl.Path)
	v.SetDefault("model.s3_bucket", mdl.S3Bucket)
	v.SetDefault("model.s3_key", mdl.S3Key)
	v.SetDefault("model.endpoint", mdl.Endpoint)
	v.SetDefault("aws.region", mdl.Region)

	v.SetDefault("history.enabled", hist.Enabled)
	v.SetDefault("history.db_path", hist.DBPath)
	v.SetDefault("history.backup_dir", hist.BackupDir)
	v.SetDefault("history.backup_on_migrate", hist.BackupOnMigrate)
	v.SetDefault("history.batch_size", hist.BatchSize)
	v.SetDefault("history.batch_timeout", hist.BatchTimeout)

	v.SetDefault("cache.enabled", cch.Enabled)
	v.SetDefault("cache.addr", cch.Addr)
	v.SetDefault("cache.password", cch.Password)
	v.SetDefault("cache.db", cch.DB)
	v.SetDefault("cache.ttl", cch.TTL)
	v.SetDefault("cache.recent_size", cch.RecentSize)
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet, o options) error {
	errFactory := errors.New()

	path, _ := flags.GetString("config")
	if path == "" {
		path = o.configPath
	}
	if path == "" {
		path = v.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	for _, dir := range o.searchPaths {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	fields := source.DefaultFields()
	for name, key := range v.GetStringMapString("source.fields") {
		if f, ok := telemetry.LookupField(name); ok {
			name = f.String()
		}
		fields[name] = key
	}

	return &Config{
		Interval: v.GetInt("interval"),
		LogLevel: LogLevel(strings.ToLower(v.GetString("log_level"))),
		Listen:   v.GetString("listen"),
		PIDFile:  v.GetString("pid_file"),
		Once:     v.GetBool("once"),

		Source: source.Config{
			URL:     v.GetString("source.url"),
			Timeout: time.Duration(v.GetInt("source.timeout")) * time.Second,
			Fields:  fields,
		},
		Model: model.Config{
			Backend:  strings.ToLower(v.GetString("model.backend")),
			Path:     v.GetString("model.path"),
			S3Bucket: v.GetString("model.s3_bucket"),
			S3Key:    v.GetString("model.s3_key"),
			Endpoint: v.GetString("model.endpoint"),
			Region:   v.GetString("aws.region"),
		},
		History: history.Config{
			Enabled:         v.GetBool("history.enabled"),
			DBPath:          v.GetString("history.db_path"),
			BackupDir:       v.GetString("history.backup_dir"),
			BackupOnMigrate: v.GetBool("history.backup_on_migrate"),
			BatchSize:       v.GetInt("history.batch_size"),
			BatchTimeout:    v.GetInt("history.batch_timeout"),
		},
		Cache: cache.Config{
			Enabled:    v.GetBool("cache.enabled"),
			Addr:       v.GetString("cache.addr"),
			Password:   v.GetString("cache.password"),
			DB:         v.GetInt("cache.db"),
			TTL:        v.GetInt("cache.ttl"),
			RecentSize: v.GetInt("cache.recent_size"),
		},
	}
}

// Validate checks the top-level values and every component section.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	sections := []func() error{
		c.Source.Validate,
		c.Model.Validate,
		c.History.Validate,
		c.Cache.Validate,
	}
	for _, validate := range sections {
		if err := validate(); err != nil {
			return errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	return nil
}
