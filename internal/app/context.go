// Package app wires the process together: workspace, database, templates,
// config. Both the CLI and the server bootstrap through here.
package app

import (
	"fmt"

	"caseflow/internal/config"
	"caseflow/internal/db"
	"caseflow/internal/engine"
	"caseflow/internal/migrate"
	"caseflow/internal/templates"
)

// Context is everything a command needs to run against a workspace.
type Context struct {
	Workspace string
	Config    *config.Config
	Engine    engine.Engine
}

// Bootstrap opens the workspace database, applies migrations and builds an
// engine over the built-in template registry.
func Bootstrap(workspace string) (*Context, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Context{
		Workspace: workspace,
		Config:    cfg,
		Engine:    engine.New(conn, templates.Builtin()),
	}, nil
}

// Close releases the workspace database.
func (c *Context) Close() error {
	if c == nil || c.Engine.DB == nil {
		return nil
	}
	return c.Engine.DB.Close()
}
