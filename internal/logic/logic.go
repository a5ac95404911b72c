// Package logic renders the business logic of a transformation as plain text.
//
// Extract produces the per-transformation summary used by ordering output.
// ForField produces the shorter per-hop description accumulated by lineage traces.
package logic

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"golang.org/x/text/cases"
)

// MaxLength is the longest expression or condition ForField keeps before truncating.
const MaxLength = 100

// Transformation kinds recognized by the dispatcher.
const (
	kindExpression = "expression"
	kindFilter     = "filter"
	kindLookup     = "lookup"
	kindAggregator = "aggregator"
	kindSorter     = "sorter"
	kindSourceQual = "source qualifier"
	kindOther      = ""
)

// metadataAttributes are skipped when listing table attributes.
var metadataAttributes = []string{"version", "creation_date", "modified_date", "uuid", "description"}

// kind normalizes a transformation type for dispatch.
func kind(typ string) string {
	// Casers keep state, so each call gets its own
	k := strings.TrimSpace(cases.Fold().String(typ))
	k = strings.TrimSuffix(k, " transformation")
	switch k {
	case kindExpression, kindFilter, kindAggregator, kindSorter, kindSourceQual:
		return k
	case "lookup", "lookup procedure":
		return kindLookup
	}
	return kindOther
}

// Extract returns a normalized description of a transformation's logic.
// Parts are joined with "; ". When nothing is found the result is "<type> transformation".
func Extract(t *core.Transformation) (text string) {
	if t == nil {
		return "Unknown transformation"
	}
	fallback := t.Type + " transformation"
	defer func() {
		if r := recover(); r != nil {
			text = fallback
		}
	}()

	var parts []string
	switch kind(t.Type) {
	case kindExpression:
		for _, f := range t.Fields {
			if strings.TrimSpace(f.Expression) != "" {
				parts = append(parts, fmt.Sprintf("%s = %s", f.Name, f.Expression))
			}
		}

	case kindFilter:
		if cond := filterCondition(t); cond != "" {
			parts = append(parts, "Filter: "+cond)
		}

	case kindLookup:
		if cond := lookupCondition(t); cond != "" {
			parts = append(parts, "Lookup: "+cond)
		}
		if table, ok := t.Attribute("Lookup table name"); ok && strings.TrimSpace(table) != "" {
			parts = append(parts, "Table: "+table)
		}

	case kindAggregator:
		for _, f := range t.Fields {
			if f.GroupBy {
				parts = append(parts, "GROUP BY: "+f.Name)
			} else if strings.TrimSpace(f.Expression) != "" {
				parts = append(parts, fmt.Sprintf("%s = %s", f.Name, f.Expression))
			}
		}

	case kindSorter:
		for _, f := range t.Fields {
			if f.SortKey {
				parts = append(parts, "SORT BY: "+f.Name)
			}
		}

	default:
		// Source qualifiers and everything else list their ports and settings
		for _, f := range t.Fields {
			if f.Name != "" {
				parts = append(parts, "Field: "+f.Name)
			}
		}
		parts = append(parts, meaningfulAttributes(t)...)
	}

	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "; ")
}

// ForField describes one hop of a lineage trace through t for the given port.
// A nil transformation yields "Type: Unknown (<name>)".
func ForField(t *core.Transformation, name, field string) string {
	if t == nil {
		return fmt.Sprintf("Type: Unknown (%s)", name)
	}

	parts := []string{"Type: " + t.Type}
	switch kind(t.Type) {
	case kindExpression:
		if field == "" {
			break
		}
		if f, ok := t.Field(field); ok && f.Expression != "" {
			parts = append(parts, "Expression: "+Truncate(f.Expression))
		}

	case kindLookup:
		if table, ok := t.Attribute("Lookup table name"); ok {
			parts = append(parts, "Table: "+table)
		}
		if cond := lookupCondition(t); cond != "" {
			parts = append(parts, "Condition: "+Truncate(cond))
		}

	case kindFilter:
		if cond := filterCondition(t); cond != "" {
			parts = append(parts, "Condition: "+Truncate(cond))
		}
	}
	return strings.Join(parts, " | ")
}

// Truncate shortens s to MaxLength characters, ending in "..." when cut.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxLength {
		return s
	}
	return string(r[:MaxLength-3]) + "..."
}

// filterCondition reads the direct filter property, then any attribute naming a filter.
func filterCondition(t *core.Transformation) string {
	if cond := t.Property("FILTERCONDITION"); cond != "" {
		return cond
	}
	for _, a := range t.Attributes {
		if a.Name != "" && strings.Contains(strings.ToLower(a.Name), "filter") && a.Value != "" {
			return a.Value
		}
	}
	return ""
}

func lookupCondition(t *core.Transformation) string {
	if cond := t.Property("CONDITION"); cond != "" {
		return cond
	}
	if cond, ok := t.Attribute("Lookup condition"); ok {
		return cond
	}
	return ""
}

// meaningfulAttributes lists non-blank attributes that are not repository metadata.
func meaningfulAttributes(t *core.Transformation) []string {
	var out []string
	for _, a := range t.Attributes {
		if a.Name == "" || strings.TrimSpace(a.Value) == "" {
			continue
		}
		lower := strings.ToLower(a.Name)
		skip := false
		for _, m := range metadataAttributes {
			if strings.Contains(lower, m) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, fmt.Sprintf("%s: %s", a.Name, a.Value))
		}
	}
	return out
}
