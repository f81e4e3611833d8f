package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Sync    SyncConfig    `yaml:"sync"`
	NATS    NATSConfig    `yaml:"nats"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Secret       string        `yaml:"secret"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite3, mysql
	DSN    string `yaml:"dsn"`
}

type SyncConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

type NATSConfig struct {
	URL           string        `yaml:"url"` // empty disables notifications
	Subject       string        `yaml:"subject"`
	MaxReconnect  int           `yaml:"max_reconnect"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 60 * time.Second
	}
	if config.Store.Driver == "" {
		config.Store.Driver = "sqlite3"
	}
	if config.Store.DSN == "" {
		config.Store.DSN = "sheet-sync.db"
	}
	if config.Sync.DefaultLimit == 0 {
		config.Sync.DefaultLimit = 200
	}
	if config.NATS.Subject == "" {
		config.NATS.Subject = "sheetsync.changes"
	}
	if config.NATS.ReconnectWait == 0 {
		config.NATS.ReconnectWait = 2 * time.Second
	}

	// The secret never lives in the config file in production
	if secret := os.Getenv("SHEETSYNC_SECRET"); secret != "" {
		config.Server.Secret = secret
	}
	if config.Server.Secret == "" {
		return nil, fmt.Errorf("no shared secret configured, set server.secret or SHEETSYNC_SECRET")
	}

	return &config, nil
}
