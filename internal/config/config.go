package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gpa-calculator/internal/course"
	"gpa-calculator/internal/logging"
	"gpa-calculator/internal/visitor"
)

const (
	VisitsLocal  = "local"
	VisitsRemote = "remote"
	VisitsOff    = "off"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Sheets struct {
		Max     int           `yaml:"max"`
		IdleTTL time.Duration `yaml:"idle_ttl"`
	} `yaml:"sheets"`

	Visits struct {
		Mode      string        `yaml:"mode"`
		RemoteURL string        `yaml:"remote_url"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"visits"`

	Visitor struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"visitor"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Database.Path = "gpa.db"
	cfg.Sheets.Max = course.DefaultMaxSheets
	cfg.Sheets.IdleTTL = course.DefaultIdleTTL
	cfg.Visits.Mode = VisitsLocal
	cfg.Visits.Timeout = 3 * time.Second
	cfg.Visitor.TTL = visitor.DefaultTTL
	cfg.Log.Level = "info"
	cfg.Log.Format = "logfmt"
	return &cfg
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// GPA_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GPA_ADDR":           &c.Server.Addr,
		"GPA_DB_PATH":        &c.Database.Path,
		"GPA_VISITS_MODE":    &c.Visits.Mode,
		"GPA_VISITS_URL":     &c.Visits.RemoteURL,
		"GPA_VISITOR_SECRET": &c.Visitor.Secret,
		"GPA_LOG_LEVEL":      &c.Log.Level,
		"GPA_LOG_FORMAT":     &c.Log.Format,
		"GPA_LOG_FILE":       &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"GPA_VISITS_TIMEOUT":  &c.Visits.Timeout,
		"GPA_VISITOR_TTL":     &c.Visitor.TTL,
		"GPA_SHEETS_IDLE_TTL": &c.Sheets.IdleTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Visits.Mode {
	case VisitsLocal:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for local visit counting"))
		}
	case VisitsRemote:
		if c.Visits.RemoteURL == "" {
			errs = append(errs, errors.New("visits.remote_url is required for remote visit counting"))
		}
	case VisitsOff:
	default:
		errs = append(errs, fmt.Errorf("visits.mode %q must be local, remote or off", c.Visits.Mode))
	}
	if c.Sheets.Max < 0 {
		errs = append(errs, errors.New("sheets.max must not be negative"))
	}
	if c.Visitor.TTL <= 0 {
		errs = append(errs, errors.New("visitor.ttl must be positive"))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not recognised", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
