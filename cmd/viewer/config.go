package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DeskAddr string `envconfig:"DESK_ADDR" default:"localhost:8080"`
	// DESK_TOKEN is minted by cmd/token for DESK_EMAIL
	Token           string        `envconfig:"DESK_TOKEN" required:"true"`
	Email           string        `envconfig:"DESK_EMAIL" required:"true"`
	ListInterval    time.Duration `envconfig:"LIST_INTERVAL" default:"3s"`
	MessageInterval time.Duration `envconfig:"MESSAGE_INTERVAL" default:"3s"`
	WatchRetry      time.Duration `envconfig:"WATCH_RETRY" default:"5s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"WARN"`
	// VIEWER_COLOURS highlights unread conversations
	Colours bool `envconfig:"VIEWER_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
