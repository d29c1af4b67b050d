package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Cache struct {
		// ResponseTTL bounds cached answer verdicts; defaults to 48h.
		ResponseTTL string `yaml:"response_ttl"`
		// QuizTTL bounds cached quiz content; defaults to 10m.
		QuizTTL string `yaml:"quiz_ttl"`
	} `yaml:"cache"`
	Sweep struct {
		// Interval between overdue sweeps; empty disables the in-server sweep.
		Interval string `yaml:"interval"`
	} `yaml:"sweep"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
