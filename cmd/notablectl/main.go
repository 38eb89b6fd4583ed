// Command notablectl queries providers, runs the parsers offline and mints
// API keys.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/internal/llm"
	"github.com/kiranshivaraju/notable/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// defaultDeps builds clients from the environment on first use so commands
// that need neither vendors nor a database run without configuration.
func defaultDeps() deps {
	return deps{
		querier: func(ctx context.Context) (querier, error) {
			cfg, err := config.LoadLLM()
			if err != nil {
				return nil, err
			}
			providers, err := llm.NewProviders(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return llm.NewOrchestrator(cfg.Timeout, providers...), nil
		},
		keyStore: func(ctx context.Context) (keyStore, func(), error) {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return nil, nil, err
			}
			pool, err := store.Connect(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return store.NewPostgresStore(pool), pool.Close, nil
		},
	}
}
