package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/cli/config"
	"github.com/leapstack-labs/leapmap/internal/cli/output"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/lineage"
	"github.com/leapstack-labs/leapmap/internal/metadata"
	"github.com/leapstack-labs/leapmap/internal/state"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Catalog  *metadata.Catalog
	// Store is nil when run history is disabled.
	Store state.Store
}

// NewCommandContext loads the configured metadata export and opens the
// history store. Returns the context and a cleanup function that must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutCatalog(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdCtx.loadCatalog(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if cmdCtx.Cfg.History {
		store, err := openStore(cmdCtx.Cfg.StatePath)
		if err != nil {
			// History is best effort; analysis still runs.
			cmdCtx.Logger.Warn("run history disabled", slog.String("state_path", cmdCtx.Cfg.StatePath), slog.Any("error", err))
		} else {
			cmdCtx.Store = store
			cleanup = func() { _ = store.Close() }
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutCatalog creates a CommandContext without metadata.
// Useful for commands that only read stored history.
func NewCommandContextWithoutCatalog(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// getConfig returns the configuration loaded by the root command, or loads it
// from the command's flags when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	cfg, err := config.LoadConfig("", cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(path string) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

func (c *CommandContext) loadCatalog() error {
	if err := c.Cfg.ValidateInput(); err != nil {
		return err
	}
	cat, err := metadata.Load(c.Cfg.Input)
	if err != nil {
		return err
	}
	c.Catalog = cat
	c.Logger.Debug("metadata loaded",
		slog.String("input", c.Cfg.Input),
		slog.Int("mappings", len(cat.Mappings())))
	return nil
}

// Mappings returns the configured mapping, or every mapping when none is selected.
func (c *CommandContext) Mappings() ([]*core.Mapping, error) {
	if c.Cfg.Mapping != "" {
		m, err := c.Catalog.FindMapping(c.Cfg.Mapping)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(c.Catalog.MappingNames(), ", "))
		}
		return []*core.Mapping{m}, nil
	}
	all := c.Catalog.Mappings()
	if len(all) == 0 {
		return nil, core.ErrMappingNotFound("no mappings found in %s", c.Cfg.Input)
	}
	return all, nil
}

// Mapping returns the single mapping a command works on. Without --mapping
// the export must contain exactly one.
func (c *CommandContext) Mapping() (*core.Mapping, error) {
	all, err := c.Mappings()
	if err != nil {
		return nil, err
	}
	if len(all) > 1 {
		return nil, fmt.Errorf("%d mappings found; select one with --mapping (available: %s)",
			len(all), strings.Join(c.Catalog.MappingNames(), ", "))
	}
	return all[0], nil
}

// MappingNumber returns the 1-based position of m in the export.
func (c *CommandContext) MappingNumber(m *core.Mapping) int {
	for i, candidate := range c.Catalog.Mappings() {
		if candidate == m {
			return i + 1
		}
	}
	return 0
}

// Analyze orders a mapping, warning when the ordering is degraded.
func (c *CommandContext) Analyze(m *core.Mapping) *analysis.Result {
	res := analysis.Analyze(m, analysis.Options{MappingNumber: c.MappingNumber(m), Logger: c.Logger})
	if res.Degraded {
		c.Renderer.Warning(fmt.Sprintf("%s: ordering degraded, %d edge(s) removed to break cycles", m.Name, len(res.RemovedEdges)))
	}
	return res
}

// TracerOptions builds lineage options from the trace configuration.
func (c *CommandContext) TracerOptions(m *core.Mapping) lineage.Options {
	tc := c.Cfg.GetTraceConfig()
	return lineage.Options{
		MaxDepth:  tc.MaxDepth,
		MatchMode: lineage.MatchMode(tc.MatchMode),
		Folder:    c.Catalog.FolderOf(m),
		Logger:    c.Logger,
	}
}

// BatchOptions builds batch tracing options from the trace configuration.
func (c *CommandContext) BatchOptions(m *core.Mapping) analysis.BatchOptions {
	tc := c.Cfg.GetTraceConfig()
	return analysis.BatchOptions{
		Workers:            tc.Workers,
		MaxFieldsPerTarget: tc.MaxFieldsPerTarget,
		Tracer:             c.TracerOptions(m),
	}
}

// Record stores an analysis in the run history. Failures are logged, not returned.
func (c *CommandContext) Record(ctx context.Context, started time.Time, res *analysis.Result, records []core.LineageRecord) {
	if c.Store == nil {
		return
	}
	run, err := c.Store.SaveRun(ctx, &state.Snapshot{
		Input:     c.Cfg.Input,
		StartedAt: started,
		Result:    res,
		Records:   records,
	})
	if err != nil {
		c.Logger.Warn("failed to record run", slog.String("mapping", res.Mapping.Name), slog.Any("error", err))
		return
	}
	c.Logger.Debug("run recorded", slog.String("id", run.ID), slog.String("mapping", run.Mapping))
}

// Emit writes a result in the effective output mode: tables for text,
// markdown and CSV, v itself for JSON and YAML.
func (c *CommandContext) Emit(t *export.Table, v any) error {
	return emit(c.Renderer, t, v)
}

func emit(r *output.Renderer, t *export.Table, v any) error {
	w := r.Writer()
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return export.JSON(w, v)
	case output.ModeYAML:
		return export.YAML(w, v)
	case output.ModeCSV:
		return export.RenderCSV(w, t)
	case output.ModeMarkdown:
		return export.RenderMarkdown(w, t)
	default:
		return export.RenderText(w, t)
	}
}

// structured reports whether the output mode is a machine format with one document per run.
func structured(r *output.Renderer) bool {
	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML, output.ModeCSV:
		return true
	default:
		return false
	}
}
