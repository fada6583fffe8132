package observability

import (
	"strings"

	"github.com/smallbiznis/authgate/internal/config"
)

// Config is the slice of application configuration the telemetry providers need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
	PIIFields []string

	Otel config.OtelConfig
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "authgate"
	}

	otel := cfg.Otel
	if otel.Protocol == "" {
		otel.Protocol = "grpc"
	}
	if otel.SamplingRatio < 0 || otel.SamplingRatio > 1 {
		otel.SamplingRatio = 1
	}

	return Config{
		ServiceName: name,
		Environment: strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:     strings.TrimSpace(cfg.AppVersion),
		LogLevel:    strings.ToLower(strings.TrimSpace(cfg.Logger.Level)),
		LogFormat:   strings.ToLower(strings.TrimSpace(cfg.Logger.Format)),
		PIIFields:   append([]string(nil), cfg.Logger.PIIFields...),
		Otel:        otel,
	}
}

// Debug enables development logging and gin debug mode.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
