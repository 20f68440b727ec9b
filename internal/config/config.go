package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath  = "config/config.yaml"
	HomeFileName = ".trainingcrm.yaml"
)

type ServerConfig struct {
	Port        int      `yaml:"port" env:"PORT"`
	Mode        string   `yaml:"mode" env:"MODE"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
}

// TableConfig selects the remote opportunity table.
type TableConfig struct {
	Driver        string        `yaml:"driver" env:"DRIVER"` // postgres | sqlite | rest
	DSN           string        `yaml:"dsn" env:"DSN"`
	RESTURL       string        `yaml:"rest_url" env:"REST_URL"`
	APIKey        string        `yaml:"api_key" env:"API_KEY"`
	Name          string        `yaml:"name" env:"NAME"`
	SelectRetries int           `yaml:"select_retries" env:"SELECT_RETRIES"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	EnsureSchema  bool          `yaml:"ensure_schema" env:"ENSURE_SCHEMA"`
}

type StaleConfig struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Notify   bool          `yaml:"notify" env:"NOTIFY"`
}

type EmailConfig struct {
	SMTPHost     string   `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int      `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUser     string   `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string   `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string   `yaml:"from_email" env:"FROM_EMAIL"`
	To           []string `yaml:"to" env:"TO"`
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.FromEmail != "" && len(e.To) > 0
}

type TelegramConfig struct {
	Token   string  `yaml:"token" env:"TOKEN"`
	ChatIDs []int64 `yaml:"chat_ids" env:"CHAT_IDS"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && len(t.ChatIDs) > 0
}

type FilesConfig struct {
	RootDir  string `yaml:"root_dir" env:"ROOT_DIR"`
	FontPath string `yaml:"font_path" env:"FONT_PATH"`
	Company  string `yaml:"company" env:"COMPANY"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	JSON  bool   `yaml:"json" env:"JSON"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Table    TableConfig    `yaml:"table" envPrefix:"TABLE_"`
	Stale    StaleConfig    `yaml:"stale" envPrefix:"STALE_"`
	Email    EmailConfig    `yaml:"email" envPrefix:"EMAIL_"`
	Telegram TelegramConfig `yaml:"telegram" envPrefix:"TELEGRAM_"`
	Files    FilesConfig    `yaml:"files" envPrefix:"FILES_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Location string         `yaml:"location" env:"LOCATION"`

	// Path is the file the config was read from, empty when none was found.
	Path string `yaml:"-"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CRM_"

// ResolvePath picks the config file: the explicit path, then
// config/config.yaml, then ~/.trainingcrm.yaml. It returns "" when none of
// the defaults exists.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	p := filepath.Join(home, HomeFileName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// Load reads the YAML file (if any), overlays CRM_* environment variables,
// fills defaults and validates the result.
func Load(explicit string) (*Config, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Path = path
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	c.Table.Driver = strings.ToLower(strings.TrimSpace(c.Table.Driver))
	if c.Table.Driver == "" {
		c.Table.Driver = "sqlite"
	}
	if c.Table.Driver == "sqlite" && c.Table.DSN == "" {
		c.Table.DSN = "trainingcrm.db"
	}
	if c.Table.Name == "" {
		c.Table.Name = "opportunities"
	}
	if c.Table.SelectRetries == 0 {
		c.Table.SelectRetries = 3
	}
	if c.Table.Timeout == 0 {
		c.Table.Timeout = 15 * time.Second
	}
	if c.Stale.Interval == 0 {
		c.Stale.Interval = time.Minute
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Files.Company == "" {
		c.Files.Company = "Eğitim CRM"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Location == "" {
		c.Location = "Europe/Istanbul"
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Table.Driver) {
	case "postgres", "sqlite":
		if c.Table.DSN == "" {
			errs = append(errs, fmt.Errorf("table.dsn is required for driver %s", c.Table.Driver))
		}
	case "rest":
		if c.Table.RESTURL == "" {
			errs = append(errs, errors.New("table.rest_url is required for driver rest"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown table.driver %q", c.Table.Driver))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Stale.Interval < time.Second {
		errs = append(errs, fmt.Errorf("stale.interval %s is too short", c.Stale.Interval))
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		errs = append(errs, fmt.Errorf("location %q: %w", c.Location, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Loc returns the configured time zone, falling back to the local one.
func (c *Config) Loc() *time.Location {
	if loc, err := time.LoadLocation(c.Location); err == nil {
		return loc
	}
	return time.Local
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
