package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Workbook WorkbookConfig `yaml:"workbook" envconfig:"WORKBOOK"`
	Shares   SharesConfig   `yaml:"shares" envconfig:"SHARES"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// WorkbookConfig describes where the purchases/sales workbook lives and how
// its sheets are laid out. HeaderScanRows bounds the search for the header
// row; the source file carries two banner rows above the real headers.
type WorkbookConfig struct {
	Path              string   `yaml:"path" envconfig:"PATH" default:"data/purchases_sales.xlsx"`
	PurchasesSheet    string   `yaml:"purchases_sheet" envconfig:"PURCHASES_SHEET" default:"Purchases"`
	SalesSheet        string   `yaml:"sales_sheet" envconfig:"SALES_SHEET" default:"Sales"`
	HeaderScanRows    int      `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" default:"10" validate:"min=1"`
	IncludeCategories []string `yaml:"include_categories" envconfig:"INCLUDE_CATEGORIES" default:"FG,TR"`
	ReportsDir        string   `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
}

// ShareSplit is one segment's SZ/GZ profit split in whole percent.
type ShareSplit struct {
	SZ int `yaml:"sz" json:"sz"`
	GZ int `yaml:"gz" json:"gz"`
}

// SharesConfig maps sale segments to profit splits. Segments not listed fall
// back to Default.
type SharesConfig struct {
	Default  ShareSplit            `yaml:"default"`
	Segments map[string]ShareSplit `yaml:"segments"`
}

// ForSegment returns the split for a segment, falling back to the default.
func (s SharesConfig) ForSegment(segment string) ShareSplit {
	if split, ok := s.Segments[segment]; ok {
		return split
	}
	return s.Default
}

// Load loads configuration from the optional YAML config file, then overlays
// environment variables. envconfig applies its defaults only to fields the
// file left at zero, so precedence is env > file > defaults.
func Load() (*Config, error) {
	var cfg Config

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = *fileConfig
	}

	if err := envconfig.Process("PROFIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyShareDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// getConfigFilePath returns the config file path, honoring PROFIT_CONFIG_FILE
func getConfigFilePath() string {
	if path := os.Getenv("PROFIT_CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(".", "config.yaml")
}

// applyShareDefaults fills the built-in segment split table when the config
// file did not define one. The splits mirror the distributor agreement the
// dashboard reports against.
func (c *Config) applyShareDefaults() {
	if c.Shares.Default == (ShareSplit{}) {
		c.Shares.Default = ShareSplit{SZ: 50, GZ: 50}
	}
	if c.Shares.Segments == nil {
		c.Shares.Segments = map[string]ShareSplit{
			"PCD":         {SZ: 67, GZ: 33},
			"THIRD PARTY": {SZ: 97, GZ: 3},
			"Internal":    {SZ: 50, GZ: 50},
			"EXPORT":      {SZ: 97, GZ: 3},
		}
	}
}

// Validate checks structural validity and that every share split sums to
// 100 percent.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Workbook.Path == "" {
		return fmt.Errorf("workbook path must not be empty")
	}

	if total := c.Shares.Default.SZ + c.Shares.Default.GZ; total != 100 {
		return fmt.Errorf("default profit share sums to %d%%, want 100%%", total)
	}
	for segment, split := range c.Shares.Segments {
		if total := split.SZ + split.GZ; total != 100 {
			return fmt.Errorf("profit share for segment %q sums to %d%%, want 100%%", segment, total)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
