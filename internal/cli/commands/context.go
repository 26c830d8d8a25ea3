package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/jobflow/internal/config"
	"github.com/leapstack-labs/jobflow/internal/store"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// ContextWithConfig stores the loaded config in the context.
func ContextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext retrieves the config from the command context.
func ConfigFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg := &config.Config{
		BatchSize: config.DefaultBatchSize,
		Workers:   config.DefaultWorkers,
		Target:    &config.TargetConfig{},
	}
	cfg.Target.ApplyDefaults()
	return cfg
}

// ContextWithLogger stores the logger in the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext retrieves the logger from the command context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// openStore opens and migrates the target database from the current config.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg := ConfigFromContext(ctx)
	logger := LoggerFromContext(ctx)

	st, err := store.Open(ctx, store.Config{
		Type:     cfg.Target.Type,
		Path:     cfg.Target.Database,
		Host:     cfg.Target.Host,
		Port:     cfg.Target.Port,
		Database: cfg.Target.Database,
		Username: cfg.Target.User,
		Password: cfg.Target.Password,
		Options:  cfg.Target.Options,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return st, nil
}
