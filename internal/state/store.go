// Package state keeps the history of analysis runs in SQLite.
// Each run stores the instance levels, enriched connectors and lineage
// records it produced, so earlier results can be listed and compared.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Run is one stored analysis.
type Run struct {
	ID             string     `json:"id" yaml:"id"`
	Mapping        string     `json:"mapping" yaml:"mapping"`
	Input          string     `json:"input" yaml:"input"`
	StartedAt      time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Degraded       bool       `json:"degraded" yaml:"degraded"`
	NodeCount      int        `json:"node_count" yaml:"node_count"`
	EdgeCount      int        `json:"edge_count" yaml:"edge_count"`
	ConnectorCount int        `json:"connector_count" yaml:"connector_count"`
	MaxLevel       int        `json:"max_level" yaml:"max_level"`
	GroupCount     int        `json:"group_count" yaml:"group_count"`
	RecordCount    int        `json:"record_count" yaml:"record_count"`
}

// InstanceLevel is the stored level and group of one graph node.
type InstanceLevel struct {
	Node       string `json:"node" yaml:"node"`
	Instance   string `json:"instance" yaml:"instance"`
	Level      int    `json:"level" yaml:"level"`
	GroupID    int    `json:"group_id" yaml:"group_id"`
	GroupLabel string `json:"group_label" yaml:"group_label"`
}

// Snapshot is what SaveRun persists.
type Snapshot struct {
	Input     string
	StartedAt time.Time
	Result    *analysis.Result
	Records   []core.LineageRecord
}

// Store persists analysis runs.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	SaveRun(ctx context.Context, snap *Snapshot) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context, mapping string) (*Run, error)
	ListRuns(ctx context.Context, mapping string, limit int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	RunLevels(ctx context.Context, runID string) ([]InstanceLevel, error)
	RunConnectors(ctx context.Context, runID string) ([]core.EnrichedConnector, error)
	RunRecords(ctx context.Context, runID string) ([]core.LineageRecord, error)
}
