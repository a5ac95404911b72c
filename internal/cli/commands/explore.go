package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/cli/output"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/lineage"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

const explorePrompt = "leapmap> "

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore one mapping interactively",
		Long: `Start an interactive session over a single mapping. The mapping is
analyzed once; levels, groups, logic and field traces are then answered
from memory. Type .help for commands.`,
		Example: `  leapmap explore --mapping m_load_orders`,
		Args:    cobra.NoArgs,
		RunE:    runExplore,
	}

	addTraceFlags(cmd)
	return cmd
}

func runExplore(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	m, err := cmdCtx.Mapping()
	if err != nil {
		return err
	}

	ex := newExplorer(cmdCtx.Analyze(m), lineage.NewTracer(m, cmdCtx.TracerOptions(m)), cmdCtx.Renderer)

	var historyFile string
	if cmdCtx.Cfg.History {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "explore_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          explorePrompt,
		HistoryFile:     historyFile,
		AutoComplete:    ex.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exploring %s (%d instances, %d connectors)\n", m.Name, len(m.Instances), len(m.Connectors))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if ex.exec(cmd.Context(), line) {
			break
		}
	}
	return nil
}

// explorer answers REPL commands against one analyzed mapping.
type explorer struct {
	res    *analysis.Result
	tracer *lineage.Tracer
	r      *output.Renderer
}

func newExplorer(res *analysis.Result, tracer *lineage.Tracer, r *output.Renderer) *explorer {
	return &explorer{res: res, tracer: tracer, r: r}
}

// exec runs one input line and reports whether the session should end.
func (e *explorer) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printExploreHelp(e.r.Writer())
	case ".levels":
		err = emit(e.r, export.LevelTable(export.LevelRows(e.res)), nil)
	case ".groups":
		err = e.groups()
	case ".summary":
		err = emit(e.r, export.SummaryTable(e.res.Summary()), nil)
	case ".logic":
		err = e.logic(args)
	case ".fields":
		err = e.fields(args)
	case ".sources":
		e.sources()
	case ".trace":
		err = e.trace(ctx, args)
	default:
		err = fmt.Errorf("unknown command: %s (type .help for commands)", command)
	}

	if err != nil {
		e.r.Error(err.Error())
	}
	return false
}

func (e *explorer) groups() error {
	t := &export.Table{Columns: []string{"Group", "Level", "Members"}}
	for id, members := range e.res.Groups.Members {
		if len(members) == 0 {
			continue
		}
		t.Append(e.res.Groups.Labels[members[0]],
			fmt.Sprint(e.res.Groups.GroupLevel(e.res.Levels, id)),
			strings.Join(members, ", "))
	}
	return emit(e.r, t, nil)
}

func (e *explorer) logic(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: .logic <instance>")
	}
	if _, ok := e.res.Mapping.Instance(args[0]); !ok {
		return fmt.Errorf("instance %q not found", args[0])
	}
	text := e.res.Logic[args[0]]
	if text == "" {
		text = "(no logic)"
	}
	e.r.Println(text)
	return nil
}

func (e *explorer) fields(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: .fields <instance>")
	}
	fields := e.tracer.TargetFields(args[0])
	if len(fields) == 0 {
		e.r.Println(e.r.Muted("no connected fields"))
		return nil
	}
	t := &export.Table{Columns: []string{"Field", "Data Type"}}
	for _, f := range fields {
		t.Append(f, e.tracer.FieldDataType(args[0], f))
	}
	return emit(e.r, t, nil)
}

func (e *explorer) sources() {
	for _, inst := range e.res.Mapping.Instances {
		if reason := e.tracer.SourceReason(inst.Name); reason != "" {
			e.r.Printf("%s (%s)\n", inst.Name, reason)
		}
	}
}

func (e *explorer) trace(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: .trace <instance> <field>")
	}
	res, err := e.tracer.Trace(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return traceText(e.r, res)
}

func (e *explorer) completer() *readline.PrefixCompleter {
	instances := make([]readline.PrefixCompleterInterface, 0, len(e.res.Mapping.Instances))
	for _, inst := range e.res.Mapping.Instances {
		instances = append(instances, readline.PcItem(inst.Name))
	}
	targets := make([]readline.PrefixCompleterInterface, 0)
	for _, inst := range e.res.Mapping.InstancesOfType(core.InstanceTypeTarget) {
		fields := make([]readline.PrefixCompleterInterface, 0)
		for _, f := range e.tracer.TargetFields(inst.Name) {
			fields = append(fields, readline.PcItem(f))
		}
		targets = append(targets, readline.PcItem(inst.Name, fields...))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".levels"),
		readline.PcItem(".groups"),
		readline.PcItem(".summary"),
		readline.PcItem(".sources"),
		readline.PcItem(".logic", instances...),
		readline.PcItem(".fields", instances...),
		readline.PcItem(".trace", targets...),
		readline.PcItem(".quit"),
	)
}

func printExploreHelp(w io.Writer) {
	help := `
Commands:
  .levels                   Execution level of every instance
  .groups                   Parallel groups with their members
  .summary                  Headline numbers for the mapping
  .sources                  Instances treated as lineage sources
  .logic <instance>         Transformation logic of an instance
  .fields <instance>        Connected input fields of an instance
  .trace <instance> <field> Trace a field back to its sources
  .quit / .exit             Exit

Tips:
  - Tab completion works for commands, instances and target fields
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}
