// Package housegate parses service flags and launches the service.
package housegate

import (
	"context"
	"flag"

	"github.com/sundayfest/housegate/internal/app"
	entrypoint "github.com/sundayfest/housegate/internal/platform/cmd"
)

// Config holds housegate command configuration.
type Config struct {
	Port int `env:"HOUSEGATE_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP API port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the housegate HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, "housegate", func(ctx context.Context) error {
		return app.Run(ctx, cfg.Port)
	})
}
