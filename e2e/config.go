package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config targets a running desk seeded by cmd/seed.
type Config struct {
	DeskAddr  string `envconfig:"DESK_ADDR"`
	JWTSecret string `envconfig:"JWT_SECRET"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours      bool   `envconfig:"E2E_COLOURS" default:"true"`
	PropertyID   string `envconfig:"E2E_PROPERTY_ID" default:"LOFT-11"`
	AgentEmail   string `envconfig:"E2E_AGENT_EMAIL" default:"adam.agent@example.com"`
	VisitorEmail string `envconfig:"E2E_VISITOR_EMAIL" default:"vera.visitor@example.com"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
