package analysis

import (
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Filter selects enriched connectors. Zero-valued fields match everything.
type Filter struct {
	// Mapping matches mapping names case-insensitively by substring.
	Mapping string
	// InstanceType matches the from or to instance type case-insensitively by substring.
	InstanceType string
	// Order matches the transformation order exactly when set.
	Order *int
}

// Match reports whether a connector passes every set criterion.
func (f Filter) Match(c core.EnrichedConnector) bool {
	if f.Mapping != "" && !containsFold(c.MappingName, f.Mapping) {
		return false
	}
	if f.InstanceType != "" && !containsFold(c.FromInstanceType, f.InstanceType) && !containsFold(c.ToInstanceType, f.InstanceType) {
		return false
	}
	if f.Order != nil && c.Order != *f.Order {
		return false
	}
	return true
}

// Apply returns the connectors that match, preserving order.
func (f Filter) Apply(connectors []core.EnrichedConnector) []core.EnrichedConnector {
	var out []core.EnrichedConnector
	for _, c := range connectors {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
