// cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"expense-tracker/internal/config"
	"expense-tracker/internal/storage/backend"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	cfg := config.MustLoad()
	slog.SetDefault(cfg.NewLogger())

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(context.Background(), cfg, cmd); err != nil {
		slog.Error("migration failed", "error", err, "command", cmd, "backend", cfg.DataBackend)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string) error {
	provider, db, err := backend.Migrator(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			slog.Info("migration applied", "source", r.Source.Path, "duration", r.Duration)
		}
		if len(results) == 0 {
			slog.Info("schema already up to date")
		}
	case "down":
		r, err := provider.Down(ctx)
		if err != nil {
			return err
		}
		slog.Info("migration rolled back", "source", r.Source.Path, "duration", r.Duration)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			fmt.Printf("%-8d %-10s %s\n", s.Source.Version, s.State, s.Source.Path)
		}
	default:
		return fmt.Errorf("unknown command %q, %s", cmd, usage)
	}
	return nil
}
