package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapmap/internal/cli/output"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/state"
	"github.com/spf13/cobra"
)

// RunDetail is the structured form of "history <run-id>".
type RunDetail struct {
	state.Run `yaml:",inline"`
	Levels    []state.InstanceLevel `json:"levels" yaml:"levels"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored analysis runs",
		Long: `List analysis runs recorded in the state database, newest first.

With a run id, show that run with the level and group of every instance.
Runs are recorded by order, summary and lineage unless history is disabled
(--history=false or history: false in leapmap.yaml).`,
		Example: `  # Last 10 runs
  leapmap history

  # Runs of one mapping
  leapmap history --mapping m_load_orders --limit 50

  # One run in detail
  leapmap history 3f1c...

  # Delete a run
  leapmap history 3f1c... --delete`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "Maximum runs to list, 0 for all")
	cmd.Flags().Bool("delete", false, "Delete the given run")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContextWithoutCatalog(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmdCtx.Cfg.StatePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	r := cmdCtx.Renderer

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(ctx, cmdCtx.Cfg.Mapping, limit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []*state.Run{}
		}
		return emit(r, runsTable(runs), runs)
	}

	id := args[0]
	if del, _ := cmd.Flags().GetBool("delete"); del {
		if err := store.DeleteRun(ctx, id); err != nil {
			return err
		}
		r.Success("deleted run " + id)
		return nil
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	levels, err := store.RunLevels(ctx, id)
	if err != nil {
		return err
	}

	if structured(r) {
		return emit(r, levelsTable(levels), RunDetail{Run: *run, Levels: levels})
	}
	runText(r, run)
	r.Println("")
	return emit(r, levelsTable(levels), nil)
}

func runsTable(runs []*state.Run) *export.Table {
	t := &export.Table{Columns: []string{"ID", "Mapping", "Started", "Nodes", "Max Level", "Groups", "Records", "Degraded"}}
	for _, run := range runs {
		t.Append(run.ID, run.Mapping, run.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(run.NodeCount), strconv.Itoa(run.MaxLevel), strconv.Itoa(run.GroupCount),
			strconv.Itoa(run.RecordCount), strconv.FormatBool(run.Degraded))
	}
	return t
}

func levelsTable(levels []state.InstanceLevel) *export.Table {
	t := &export.Table{Columns: []string{"Level", "Node", "Instance", "Parallel Group"}}
	for _, l := range levels {
		t.Append(strconv.Itoa(l.Level), l.Node, l.Instance, l.GroupLabel)
	}
	return t
}

func runText(r *output.Renderer, run *state.Run) {
	r.Header(2, "Run "+run.ID)
	r.StatusLine("Mapping", run.Mapping)
	r.StatusLine("Input", run.Input)
	r.StatusLine("Started", run.StartedAt.Local().Format(time.DateTime))
	if run.CompletedAt != nil {
		r.StatusLine("Duration", run.CompletedAt.Sub(run.StartedAt).String())
	}
	r.StatusLine("Nodes", strconv.Itoa(run.NodeCount))
	r.StatusLine("Edges", strconv.Itoa(run.EdgeCount))
	r.StatusLine("Connectors", strconv.Itoa(run.ConnectorCount))
	r.StatusLine("Max level", strconv.Itoa(run.MaxLevel))
	r.StatusLine("Parallel groups", strconv.Itoa(run.GroupCount))
	r.StatusLine("Lineage records", strconv.Itoa(run.RecordCount))
	r.StatusLine("Degraded", strconv.FormatBool(run.Degraded))
}
