package lineage

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmap/internal/logic"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// DefaultMaxDepth bounds a trace when Options.MaxDepth is zero.
const DefaultMaxDepth = 20

// MatchMode selects how field names are matched inside expression text.
type MatchMode string

// Match modes.
const (
	MatchSubstring MatchMode = "substring"
	MatchWord      MatchMode = "word"
)

// Options configures a Tracer.
type Options struct {
	MaxDepth  int
	MatchMode MatchMode
	// Folder supplies reusable transformations and source/target definitions. Optional.
	Folder *core.Folder
	Logger *slog.Logger
}

// FieldRef identifies a port reached during a trace.
type FieldRef struct {
	Instance string `json:"instance" yaml:"instance"`
	Field    string `json:"field" yaml:"field"`
	Depth    int    `json:"depth" yaml:"depth"`
}

// TraceResult holds everything a single trace discovered.
type TraceResult struct {
	TargetInstance string               `json:"target_instance" yaml:"target_instance"`
	TargetField    string               `json:"target_field" yaml:"target_field"`
	Records        []core.LineageRecord `json:"records" yaml:"records"`
	// DeadEnds are ports with no way further upstream that are not sources.
	DeadEnds []FieldRef `json:"dead_ends,omitempty" yaml:"dead_ends,omitempty"`
	// DepthExceeded are branches abandoned at the depth limit.
	DepthExceeded []FieldRef `json:"depth_exceeded,omitempty" yaml:"depth_exceeded,omitempty"`
	// Expansions counts the work items processed.
	Expansions int `json:"expansions" yaml:"expansions"`
}

// Tracer answers lineage questions for one mapping. It is safe for concurrent use.
type Tracer struct {
	mapping         *core.Mapping
	instances       map[string]*core.Instance
	transformations map[string]*core.Transformation
	sources         map[string]bool
	reverse         map[string]map[string][]*core.Connector // to instance -> to field -> connectors
	inbound         map[string][]*core.Connector            // to instance -> connectors
	folder          *core.Folder
	maxDepth        int
	matchMode       MatchMode
	logger          *slog.Logger
}

// NewTracer indexes a mapping for tracing.
func NewTracer(m *core.Mapping, opts Options) *Tracer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	mode := opts.MatchMode
	if mode == "" {
		mode = MatchSubstring
	}

	t := &Tracer{
		mapping:         m,
		instances:       make(map[string]*core.Instance, len(m.Instances)),
		transformations: make(map[string]*core.Transformation, len(m.Transformations)),
		sources:         make(map[string]bool),
		reverse:         make(map[string]map[string][]*core.Connector),
		inbound:         make(map[string][]*core.Connector),
		folder:          opts.Folder,
		maxDepth:        maxDepth,
		matchMode:       mode,
		logger:          logger,
	}

	for _, inst := range m.Instances {
		t.instances[inst.Name] = inst
		if inst.Type == core.InstanceTypeSource {
			t.sources[inst.Name] = true
		}
	}
	for _, tr := range m.Transformations {
		t.transformations[tr.Name] = tr
	}
	for _, c := range m.Connectors {
		if t.reverse[c.ToInstance] == nil {
			t.reverse[c.ToInstance] = make(map[string][]*core.Connector)
		}
		t.reverse[c.ToInstance][c.ToField] = append(t.reverse[c.ToInstance][c.ToField], c)
		t.inbound[c.ToInstance] = append(t.inbound[c.ToInstance], c)
	}

	return t
}

// MaxDepth returns the depth bound in effect.
func (t *Tracer) MaxDepth() int {
	return t.maxDepth
}

// HasInstance reports whether name is declared in the mapping or named by any
// connector. Connector-only instances trace like declared ones.
func (t *Tracer) HasInstance(name string) bool {
	if _, ok := t.instances[name]; ok {
		return true
	}
	if _, ok := t.inbound[name]; ok {
		return true
	}
	for _, c := range t.mapping.Connectors {
		if c.FromInstance == name {
			return true
		}
	}
	return false
}

// Transformation resolves the transformation behind an instance name.
// The instance's TRANSFORMATION_NAME is tried first, then the instance name,
// then folder-level reusable transformations.
func (t *Tracer) Transformation(instance string) *core.Transformation {
	names := []string{instance}
	if inst, ok := t.instances[instance]; ok && inst.TransformationName != "" && inst.TransformationName != instance {
		names = []string{inst.TransformationName, instance}
	}
	for _, n := range names {
		if tr, ok := t.transformations[n]; ok {
			return tr
		}
	}
	if t.folder != nil {
		for _, n := range names {
			for _, tr := range t.folder.Transformations {
				if tr.Name == n {
					return tr
				}
			}
		}
	}
	return nil
}

// SourceReason reports why an instance ends a trace, or "" when it does not.
func (t *Tracer) SourceReason(instance string) string {
	if t.sources[instance] {
		return "declared source"
	}
	if strings.HasPrefix(instance, "SQ_") {
		return "source qualifier"
	}
	if strings.Contains(instance, "SEQ_") || strings.Contains(instance, "Sequence") {
		return "sequence generator"
	}
	if inst, ok := t.instances[instance]; ok {
		if strings.Contains(inst.TransformationType, "Source") || strings.Contains(inst.TransformationType, "Sequence") {
			return "source-like instance type"
		}
	}
	if tr := t.Transformation(instance); tr != nil {
		switch tr.Type {
		case "Source Qualifier", "Sequence Generator":
			return "source-like transformation type"
		case "Expression":
			if len(t.inbound[instance]) == 0 {
				return "expression with no incoming connectors"
			}
		}
	}
	return ""
}

// IsSource reports whether an instance is a lineage end point.
func (t *Tracer) IsSource(instance string) bool {
	return t.SourceReason(instance) != ""
}

// TargetFields returns the distinct fields fed into an instance, sorted.
func (t *Tracer) TargetFields(instance string) []string {
	fields := make([]string, 0, len(t.reverse[instance]))
	for f := range t.reverse[instance] {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// FieldDataType returns the formatted datatype of an instance port, or "Unknown".
func (t *Tracer) FieldDataType(instance, field string) string {
	if tr := t.Transformation(instance); tr != nil {
		if f, ok := tr.Field(field); ok {
			return f.FormattedDataType()
		}
	}
	if t.folder == nil {
		return "Unknown"
	}
	def := instance
	if inst, ok := t.instances[instance]; ok && inst.TransformationName != "" {
		def = inst.TransformationName
	}
	for _, s := range t.folder.Sources {
		if s.Name == def {
			for _, f := range s.Fields {
				if f.Name == field {
					return f.FormattedDataType()
				}
			}
		}
	}
	for _, tg := range t.folder.Targets {
		if tg.Name == def {
			for _, f := range tg.Fields {
				if f.Name == field {
					return f.FormattedDataType()
				}
			}
		}
	}
	return "Unknown"
}

type workItem struct {
	instance string
	field    string
	path     []string // instances walked so far, target first
	logic    []string
	depth    int
}

// Trace walks backwards from targetInstance.targetField and returns every source reached.
// Dead ends and depth overruns are reported on the result, never as errors;
// the only error is ctx cancellation.
func (t *Tracer) Trace(ctx context.Context, targetInstance, targetField string) (*TraceResult, error) {
	result := &TraceResult{TargetInstance: targetInstance, TargetField: targetField}
	log := t.logger.With(slog.String("target", targetInstance+"."+targetField))
	log.Debug("tracing field")

	queue := []workItem{{instance: targetInstance, field: targetField}}
	visited := make(map[FieldRef]bool)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := queue[0]
		queue = queue[1:]
		ref := FieldRef{Instance: item.instance, Field: item.field, Depth: item.depth}

		if item.depth > t.maxDepth {
			log.Debug("max depth reached", slog.String("instance", item.instance), slog.String("field", item.field))
			result.DepthExceeded = append(result.DepthExceeded, ref)
			continue
		}
		if visited[ref] {
			continue
		}
		visited[ref] = true
		result.Expansions++

		if reason := t.SourceReason(item.instance); reason != "" {
			rec := t.record(targetInstance, targetField, item)
			log.Debug("source found",
				slog.String("source", item.instance+"."+item.field),
				slog.String("reason", reason),
				slog.Int("hops", rec.HopCount))
			result.Records = append(result.Records, rec)
			continue
		}

		next := t.expand(item)
		if len(next) == 0 {
			log.Debug("dead end", slog.String("instance", item.instance), slog.String("field", item.field))
			result.DeadEnds = append(result.DeadEnds, ref)
			continue
		}
		queue = append(queue, next...)
	}

	return result, nil
}

// expand applies the three upstream rules to a work item.
func (t *Tracer) expand(item workItem) []workItem {
	var next []workItem
	path := appendCopy(item.path, item.instance)
	tr := t.Transformation(item.instance)

	// Direct connectors into this exact port
	if conns := t.reverse[item.instance][item.field]; len(conns) > 0 {
		hop := logic.ForField(tr, item.instance, item.field)
		for _, c := range conns {
			next = append(next, workItem{
				instance: c.FromInstance,
				field:    c.FromField,
				path:     path,
				logic:    appendCopy(item.logic, hop),
				depth:    item.depth + 1,
			})
		}
	}

	if tr == nil || tr.Type != "Expression" {
		return next
	}

	// Sibling ports whose expression mentions this field
	for _, f := range tr.Fields {
		if f.Expression != "" && t.references(f.Expression, item.field) {
			next = append(next, workItem{
				instance: item.instance,
				field:    f.Name,
				path:     path,
				logic:    appendCopy(item.logic, "Expression: "+f.Expression),
				depth:    item.depth + 1,
			})
		}
	}

	// Inbound connectors whose field appears in this port's expression
	for _, c := range t.inbound[item.instance] {
		for _, f := range tr.Fields {
			if f.Name != item.field || f.Expression == "" {
				continue
			}
			if t.references(f.Expression, c.FromField) {
				next = append(next, workItem{
					instance: c.FromInstance,
					field:    c.FromField,
					path:     path,
					logic:    appendCopy(item.logic, "Expression: "+f.Expression),
					depth:    item.depth + 1,
				})
			}
		}
	}

	return next
}

// record builds the lineage record for a source reached by item.
func (t *Tracer) record(targetInstance, targetField string, item workItem) core.LineageRecord {
	full := appendCopy(item.path, item.instance)
	path := make([]string, len(full))
	for i, p := range full {
		path[len(full)-1-i] = p
	}
	logicPath := make([]string, len(item.logic))
	for i, l := range item.logic {
		logicPath[len(item.logic)-1-i] = l
	}

	hops := len(item.path) - 1
	if hops < 0 {
		hops = 0
	}

	return core.LineageRecord{
		TargetInstance: targetInstance,
		TargetField:    targetField,
		TargetTable:    core.TargetTableName(targetInstance),
		TargetDataType: t.FieldDataType(targetInstance, targetField),
		SourceInstance: item.instance,
		SourceField:    item.field,
		SourceTable:    core.SourceTableName(item.instance),
		SourceDataType: t.FieldDataType(item.instance, item.field),
		Path:           path,
		Logic:          logicPath,
		HopCount:       hops,
		Direct:         hops == 0,
	}
}

// references reports whether expr mentions name under the tracer's match mode.
func (t *Tracer) references(expr, name string) bool {
	if name == "" {
		return false
	}
	if t.matchMode == MatchWord {
		return containsWord(expr, name)
	}
	return strings.Contains(expr, name)
}

// containsWord finds name in s where it is not part of a longer identifier.
func containsWord(s, name string) bool {
	for start := 0; start <= len(s)-len(name); {
		i := strings.Index(s[start:], name)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(name)
		if (i == 0 || !isIdentByte(s[i-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b == '#' ||
		('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func appendCopy(s []string, v string) []string {
	out := make([]string, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
