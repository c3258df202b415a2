package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Frontlines FrontlinesConfig `mapstructure:"frontlines"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Server     ServerConfig     `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// FrontlinesConfig drives the front-line build.
type FrontlinesConfig struct {
	SourceDir     string         `mapstructure:"source_dir" validate:"required"`
	OutputDir     string         `mapstructure:"output_dir" validate:"required"`
	Theater       string         `mapstructure:"theater" validate:"required"`
	Interpolation string         `mapstructure:"interpolation" validate:"oneof=linear"`
	Resolution    int            `mapstructure:"resolution" validate:"gte=0"` // 0: max(m, n) vertices
	Workers       int            `mapstructure:"workers" validate:"gte=0"`
	Formats       []string       `mapstructure:"formats" validate:"min=1,dive,oneof=geojson cfs3"`
	OutputPeriods []PeriodConfig `mapstructure:"output_periods"`
	ReportFile    string         `mapstructure:"report_file"`
}

// PeriodConfig is one requested output period. In YAML it is either a bare
// label ("1917", "1917-04", "1916-07-01", "1917-04-09/1917-05-16") or a
// mapping with label plus date, or label plus start and end.
type PeriodConfig struct {
	Label string `mapstructure:"label"`
	Date  string `mapstructure:"date"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// Period resolves the entry to an OutputPeriod.
func (p PeriodConfig) Period() (domain.OutputPeriod, error) {
	switch {
	case p.Start != "" || p.End != "":
		start, err := domain.ParseDate(p.Start)
		if err != nil {
			return domain.OutputPeriod{}, fmt.Errorf("period %s: start: %w", p.Label, err)
		}
		end, err := domain.ParseDate(p.End)
		if err != nil {
			return domain.OutputPeriod{}, fmt.Errorf("period %s: end: %w", p.Label, err)
		}
		label := p.Label
		if label == "" {
			label = p.Start + "/" + p.End
		}
		return domain.DateRange(label, start, end)
	case p.Date != "":
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			return domain.OutputPeriod{}, fmt.Errorf("period %s: %w", p.Label, err)
		}
		label := p.Label
		if label == "" {
			label = p.Date
		}
		return domain.SingleDate(label, d), nil
	default:
		return domain.ParsePeriod(p.Label)
	}
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type MetricsConfig struct {
	// Textfile is written after a CLI build for node_exporter.
	Textfile string `mapstructure:"textfile"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type CacheConfig struct {
	Stores     int `mapstructure:"stores" validate:"gte=1"`
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gte=0"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	Enabled     bool    `mapstructure:"enabled"`
}

// Option customises Load.
type Option func(*viper.Viper) error

// WithFile reads the given config file instead of searching for config.yaml.
func WithFile(path string) Option {
	return func(v *viper.Viper) error {
		if path != "" {
			v.SetConfigFile(path)
		}
		return nil
	}
}

// WithFlags binds command-line flags to config keys, e.g.
// {"output-dir": "frontlines.output_dir"}. Only flags set on the command
// line override file and environment values.
func WithFlags(fs *pflag.FlagSet, bindings map[string]string) Option {
	return func(v *viper.Viper) error {
		for name, key := range bindings {
			f := fs.Lookup(name)
			if f == nil {
				return fmt.Errorf("bind flag %s: no such flag", name)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
		return nil
	}
}

// Load reads configuration from file and environment variables. Unknown
// keys in the file are rejected.
func Load(service string, opts ...Option) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("frontlines.source_dir", "src/frontlines")
	v.SetDefault("frontlines.output_dir", "build/frontlines")
	v.SetDefault("frontlines.theater", "western")
	v.SetDefault("frontlines.interpolation", "linear")
	v.SetDefault("frontlines.resolution", 0)
	v.SetDefault("frontlines.workers", 0)
	v.SetDefault("frontlines.formats", []string{"geojson", "cfs3"})
	v.SetDefault("frontlines.output_periods", []string{})
	v.SetDefault("frontlines.report_file", "build-report.yaml")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 64)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("cache.stores", 16)
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "frontlines")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "frontlines")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "frontlines-build")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "tempo:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional unless given explicitly)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: FRONTLINES_FRONTLINES_OUTPUT_DIR → frontlines.output_dir
	v.SetEnvPrefix("FRONTLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		periodHook,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalExact(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// periodHook lets output_periods entries be written as bare labels.
func periodHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(PeriodConfig{}) {
		return data, nil
	}
	return PeriodConfig{Label: data.(string)}, nil
}

// Periods resolves every configured output period.
func (c *Config) Periods() ([]domain.OutputPeriod, error) {
	periods := make([]domain.OutputPeriod, 0, len(c.Frontlines.OutputPeriods))
	for _, pc := range c.Frontlines.OutputPeriods {
		p, err := pc.Period()
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range verrs {
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			errs = append(errs, fmt.Sprintf("%s must satisfy %s, got %v", field, rule, fe.Value()))
		}
	}

	if c.Frontlines.Theater != "" {
		if err := domain.ValidateTheater(c.Frontlines.Theater); err != nil {
			errs = append(errs, "frontlines.theater must be a single directory name of letters, digits, _ or -")
		}
	}
	if c.Frontlines.Resolution == 1 {
		errs = append(errs, "frontlines.resolution must be 0 (automatic) or at least 2")
	}
	seen := map[string]bool{}
	for i, pc := range c.Frontlines.OutputPeriods {
		p, err := pc.Period()
		if err != nil {
			errs = append(errs, fmt.Sprintf("frontlines.output_periods[%d]: %v", i, err))
			continue
		}
		if seen[p.Label] {
			errs = append(errs, fmt.Sprintf("frontlines.output_periods[%d]: duplicate label %s", i, p.Label))
		}
		seen[p.Label] = true
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
