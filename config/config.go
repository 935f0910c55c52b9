// Package config loads service configuration from the environment with an
// optional YAML file underneath.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs for one deployment.
type Config struct {
	HTTPPort       string // ":8080" form
	UploadsDir     string
	ReportsDir     string
	WatchDir       string // non-empty enables the drop-folder batch mode
	CountryCode    string
	Language       string // "mk" or "en" default for reports
	OperatorDB     string // path to the prefix lookup; empty disables it
	NotEnteredOnly bool   // default report filter: only not-entered rows
}

type fileConfig struct {
	HTTPPort    string `yaml:"http_port"`
	UploadsDir  string `yaml:"uploads_dir"`
	ReportsDir  string `yaml:"reports_dir"`
	WatchDir    string `yaml:"watch_dir"`
	CountryCode string `yaml:"country_code"`
	Language    string `yaml:"language"`
	OperatorDB  string `yaml:"operator_db"`
}

const (
	defaultPort        = ":8080"
	defaultUploadsDir  = "uploads"
	defaultReportsDir  = "filtered"
	defaultCountryCode = "389"
	defaultLanguage    = "mk"
)

// Load reads the optional YAML file named by CONFIG_PATH, then lets
// environment variables override it, then applies defaults.
func Load() (Config, error) {
	cfg := Config{}

	if path := getEnv("CONFIG_PATH", "config.yaml"); path != "" {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg.HTTPPort = fileCfg.HTTPPort
		cfg.UploadsDir = fileCfg.UploadsDir
		cfg.ReportsDir = fileCfg.ReportsDir
		cfg.WatchDir = fileCfg.WatchDir
		cfg.CountryCode = fileCfg.CountryCode
		cfg.Language = fileCfg.Language
		cfg.OperatorDB = fileCfg.OperatorDB
	}

	override(&cfg.HTTPPort, "HTTP_PORT")
	override(&cfg.UploadsDir, "UPLOADS_DIR")
	override(&cfg.ReportsDir, "REPORTS_DIR")
	override(&cfg.WatchDir, "WATCH_DIR")
	override(&cfg.CountryCode, "COUNTRY_CODE")
	override(&cfg.Language, "REPORT_LANGUAGE")
	override(&cfg.OperatorDB, "OPERATOR_DB")
	cfg.NotEnteredOnly = parseBoolEnv("NOT_ENTERED_ONLY")

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = defaultPort
	}
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = defaultUploadsDir
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = defaultReportsDir
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = defaultCountryCode
	}
	switch cfg.Language {
	case "":
		cfg.Language = defaultLanguage
	case "mk", "en":
	default:
		return Config{}, fmt.Errorf("unsupported report language %q", cfg.Language)
	}

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func parseBoolEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
