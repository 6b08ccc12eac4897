package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		PublicURL   string   `yaml:"publicURL"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL      string `yaml:"ttl"`
		BankFile string `yaml:"bankFile"`
		// AutoStart begins the timer as soon as an attempt is created.
		AutoStart bool `yaml:"autoStart"`
		// CorrectAnswerFallback treats option D as the answer when no row is flagged.
		CorrectAnswerFallback *bool  `yaml:"correctAnswerFallback"`
		SearchDebounce        string `yaml:"searchDebounce"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret          string   `yaml:"jwtSecret"`
		GoogleClientID     string   `yaml:"googleClientID"`
		GoogleClientSecret string   `yaml:"googleClientSecret"`
		GoogleRedirectURL  string   `yaml:"googleRedirectURL"`
		AdminEmails        []string `yaml:"adminEmails"`
		TokenTTL           string   `yaml:"tokenTTL"`
	} `yaml:"auth"`
}

// Load reads YAML config from path. ${VAR} references are expanded from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FallbackEnabled reports whether the option-D answer fallback is on (default true).
func (c Config) FallbackEnabled() bool {
	return c.Quiz.CorrectAnswerFallback == nil || *c.Quiz.CorrectAnswerFallback
}

// GoogleEnabled reports whether server-side Google verification is configured.
func (c Config) GoogleEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
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
