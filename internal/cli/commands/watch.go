package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run ordering whenever the export changes",
		Long: `Watch the input export and re-run the complete ordering each time it
is written. Bursts of writes are collapsed into one run (--debounce).
Every run is recorded in the history. Stop with Ctrl+C.`,
		Example: `  leapmap watch --input exports/sales.xml
  leapmap watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().Duration("debounce", 0, "Quiet period before re-running (default 200ms)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmdCtx.rebuild(ctx); err != nil {
		return fmt.Errorf("initial analysis failed: %w", err)
	}

	path, err := filepath.Abs(cmdCtx.Cfg.Input)
	if err != nil {
		return err
	}
	w := &fileWatcher{
		path:     path,
		debounce: cmdCtx.Cfg.GetWatchConfig().Debounce,
		logger:   cmdCtx.Logger,
		onChange: func() {
			if err := cmdCtx.rebuild(ctx); err != nil {
				cmdCtx.Renderer.Error(fmt.Sprintf("rebuild failed: %v", err))
			}
		},
	}

	cmdCtx.Renderer.Println(cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", path)))
	return w.Run(ctx)
}

// rebuild reloads the export and orders every selected mapping.
func (c *CommandContext) rebuild(ctx context.Context) error {
	if err := c.loadCatalog(); err != nil {
		return err
	}
	mappings, err := c.Mappings()
	if err != nil {
		return err
	}

	outputs := make([]OrderOutput, 0, len(mappings))
	for _, m := range mappings {
		started := time.Now()
		res := c.Analyze(m)
		c.Record(ctx, started, res, nil)
		outputs = append(outputs, orderOutput(res, false))
	}

	r := c.Renderer
	if structured(r) {
		return emit(r, &export.Table{}, outputs)
	}
	stamp := time.Now().Format(time.TimeOnly)
	for _, o := range outputs {
		r.Printf("[%s] %s: %d levels, %d parallel groups, %d instances\n",
			stamp, o.Mapping, o.MaxLevel, o.GroupCount, len(o.Levels))
	}
	return nil
}

// fileWatcher calls onChange after writes to one file settle.
type fileWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onChange func()
}

// Run blocks until ctx is done. The parent directory is watched so that
// editors replacing the file are still noticed.
func (w *fileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.logger.Debug("change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			w.onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}
