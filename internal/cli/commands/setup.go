package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/squint/internal/cli/config"
	"github.com/leapstack-labs/squint/internal/cli/output"
	"github.com/leapstack-labs/squint/internal/inspect"
	"github.com/leapstack-labs/squint/pkg/schema"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrent()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// LoadModel introspects the configured SQLite schema database.
func (c *CommandContext) LoadModel(cmd *cobra.Command) (*schema.MapModel, error) {
	if c.Cfg.SchemaPath == "" {
		return nil, fmt.Errorf("no schema database configured; set schema in squint.yaml or pass --schema")
	}
	inspector := inspect.NewInspector(c.Logger)
	model, err := inspector.Load(cmd.Context(), c.Cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return model, nil
}
