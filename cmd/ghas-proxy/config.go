package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProxyConfig holds non-secret proxy settings. Values may come from an
// optional YAML file; environment variables override it. The token itself is
// only ever read from the environment.
type ProxyConfig struct {
	Port      string        `yaml:"port"`
	RedisAddr string        `yaml:"redis_addr"`
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	LogLevel  string        `yaml:"log_level"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// defaultProxyConfig is the configuration used when nothing else is set.
func defaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		Port:      "8080",
		RedisAddr: "localhost:6379",
		BaseURL:   "https://api.github.com",
		UserAgent: "ghas-proxy/1.0",
		LogLevel:  "info",
		CacheTTL:  60 * time.Second,
	}
}

// loadProxyConfig reads the optional YAML file at path (when non-empty) and
// applies environment overrides.
func loadProxyConfig(path string) (ProxyConfig, error) {
	cfg := defaultProxyConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg.Port, "PORT")
	applyEnv(&cfg.RedisAddr, "REDIS_URL")
	applyEnv(&cfg.BaseURL, "GITHUB_API_URL")
	applyEnv(&cfg.UserAgent, "USER_AGENT")
	applyEnv(&cfg.LogLevel, "LOG_LEVEL")

	return cfg, nil
}

func applyEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
