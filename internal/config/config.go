// Package config builds the runtime configuration passed into the store,
// backups and servers. Nothing here is global: callers hold the Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir    string `yaml:"data_dir"`
	CSVPath    string `yaml:"csv_path"`
	ExportsDir string `yaml:"exports_dir"`

	BackupRetain int `yaml:"backup_retain"`

	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	AMQPURL       string `yaml:"amqp_url"`
	CreationQueue string `yaml:"creation_queue"`
	DatabaseURL   string `yaml:"database_url"`
	SentryDSN     string `yaml:"sentry_dsn"`

	Automation AutomationConfig `yaml:"automation"`
	Campaign   CampaignDefaults `yaml:"campaign"`
}

type AutomationConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CampaignDefaults struct {
	Category     string  `yaml:"default_category"`
	TargetAmount float64 `yaml:"default_target"`
}

func Default() *Config {
	return &Config{
		DataDir:       "data",
		BackupRetain:  5,
		Port:          "8080",
		LogLevel:      "info",
		CreationQueue: "campaign_creations",
		Automation: AutomationConfig{
			Timeout: 2 * time.Minute,
		},
		Campaign: CampaignDefaults{
			Category:     "General",
			TargetAmount: 1000,
		},
	}
}

// Load reads defaults, then the YAML file named by DESKAGENT_CONFIG (if
// any), then .env, then the process environment. Later sources win.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("DESKAGENT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.CSVPath, "CSV_PATH")
	setString(&c.ExportsDir, "EXPORTS_DIR")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.AMQPURL, "AMQP_URL")
	setString(&c.CreationQueue, "CREATION_QUEUE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.SentryDSN, "SENTRY_DSN")
	setString(&c.Automation.URL, "AUTOMATION_URL")
	setString(&c.Campaign.Category, "DEFAULT_CATEGORY")

	if v, ok := os.LookupEnv("BACKUP_RETAIN"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("BACKUP_RETAIN must be a positive integer, got %q", v)
		}
		c.BackupRetain = n
	}
	if v, ok := os.LookupEnv("AUTOMATION_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AUTOMATION_TIMEOUT: %w", err)
		}
		c.Automation.Timeout = d
	}
	if v, ok := os.LookupEnv("DEFAULT_TARGET"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("DEFAULT_TARGET must be a non-negative number, got %q", v)
		}
		c.Campaign.TargetAmount = f
	}
	return nil
}

// resolvePaths derives file locations that were not set explicitly from
// DataDir, using the layout data/.csv/campaigns_master.csv.
func (c *Config) resolvePaths() {
	if c.CSVPath == "" {
		c.CSVPath = filepath.Join(c.DataDir, ".csv", "campaigns_master.csv")
	}
	if c.ExportsDir == "" {
		c.ExportsDir = filepath.Join(c.DataDir, "exports")
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
