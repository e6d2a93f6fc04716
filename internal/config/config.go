package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Project string        `yaml:"project"`
	Run     RunConfig     `yaml:"run"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	Fixture bool          `yaml:"fixture"`
	Demo    DemoConfig    `yaml:"-"`
}

type ServerConfig struct {
	URL            string `yaml:"url"`
	Prefix         string `yaml:"prefix"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RunConfig struct {
	Workers     int `yaml:"workers"`
	WeightTotal int `yaml:"weight_total"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DemoConfig seeds a run when no interactive frontend drives the session.
// Set from environment only, matching the developer defaults the original
// tool honored.
type DemoConfig struct {
	Regions []string
	Targets []string
	Budget  int64
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		Run: RunConfig{
			Workers:     4,
			WeightTotal: 100,
		},
		History: HistoryConfig{
			Path: ":memory:",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("GATEOPT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if url := os.Getenv("GATEOPT_SERVER_URL"); url != "" {
		cfg.Server.URL = url
	}
	if prefix := os.Getenv("GATEOPT_SERVER_PREFIX"); prefix != "" {
		cfg.Server.Prefix = prefix
	}
	if project := os.Getenv("GATEOPT_PROJECT"); project != "" {
		cfg.Project = project
	}
	if path := os.Getenv("GATEOPT_HISTORY_PATH"); path != "" {
		cfg.History.Path = path
	}
	if level := os.Getenv("GATEOPT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if fixture := os.Getenv("GATEOPT_FIXTURE"); fixture != "" {
		cfg.Fixture = true
	}

	cfg.Demo.Regions = splitList(os.Getenv("GATEOPT_REGIONS"))
	cfg.Demo.Targets = splitList(os.Getenv("GATEOPT_TARGETS"))
	if budgetStr := os.Getenv("GATEOPT_BUDGET"); budgetStr != "" {
		budget, err := strconv.ParseInt(budgetStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GATEOPT_BUDGET: %w", err)
		}
		cfg.Demo.Budget = budget
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ":")
}
