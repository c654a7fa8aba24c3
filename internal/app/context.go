package app

import (
	"context"
	"fmt"
	"log/slog"

	"goaltrack/internal/config"
	"goaltrack/internal/db"
	"goaltrack/internal/engine"
	"goaltrack/internal/migrate"
)

// ResolveConfig loads goaltrack.yml from the workspace, falling back to the
// built-in defaults when the file does not exist.
func ResolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config.Path(workspace), err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// OpenEngine builds an engine for the workspace. The journal database is only
// opened and migrated when the journal is enabled; the returned close func
// must always be called.
func OpenEngine(ctx context.Context, workspace string, cfg *config.Config, logger *slog.Logger) (engine.Engine, func(), error) {
	if cfg == nil {
		var err error
		if cfg, err = ResolveConfig(workspace); err != nil {
			return engine.Engine{}, func() {}, err
		}
	}
	if !cfg.Journal.Enabled {
		e := engine.New(nil, cfg)
		e.Logger = logger
		return e, func() {}, nil
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, func() {}, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return engine.Engine{}, func() {}, fmt.Errorf("migrate journal: %w", err)
	}
	e := engine.New(conn, cfg)
	if logger != nil {
		e.Logger = logger
	}
	return e, func() { conn.Close() }, nil
}
