package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/leapmap/internal/ordering"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database, creating its directory if needed.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Single writer; also keeps one shared in-memory database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

func generateID() string {
	return uuid.New().String()
}

// SaveRun stores an analysis and its optional lineage records in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, snap *Snapshot) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if snap == nil || snap.Result == nil {
		return nil, fmt.Errorf("nothing to save: snapshot has no analysis result")
	}

	res := snap.Result
	started := snap.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	completed := time.Now().UTC()

	run := &Run{
		ID:             generateID(),
		Mapping:        res.Mapping.Name,
		Input:          snap.Input,
		StartedAt:      started.UTC(),
		CompletedAt:    &completed,
		Degraded:       res.Degraded,
		NodeCount:      res.Graph.NodeCount(),
		EdgeCount:      res.Graph.EdgeCount(),
		ConnectorCount: len(res.Connectors),
		MaxLevel:       res.Levels.Max(),
		GroupCount:     len(res.Groups.Members),
		RecordCount:    len(snap.Records),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, mapping, input, started_at, completed_at, degraded,
			node_count, edge_count, connector_count, max_level, group_count, record_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mapping, run.Input, run.StartedAt, completed, run.Degraded,
		run.NodeCount, run.EdgeCount, run.ConnectorCount, run.MaxLevel, run.GroupCount, run.RecordCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	for i, id := range res.Graph.NodeIDs() {
		name := id
		if inst, ok := ordering.InstanceOf(res.Graph, id); ok {
			name = inst.Name
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO instance_levels (run_id, node, instance, level, group_id, group_label, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, id, name, res.Levels.ByNode[id], res.Groups.ByNode[id], res.Groups.Labels[id], i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert instance level: %w", err)
		}
	}

	for i, c := range res.Connectors {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO enriched_connectors (run_id, position, mapping_number, mapping_name,
				from_instance, from_field, from_instance_type, to_instance, to_field, to_instance_type,
				transformation_order, execution_level, parallel_group, group_label, logic)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, c.MappingNumber, c.MappingName,
			c.FromInstance, c.FromField, c.FromInstanceType, c.ToInstance, c.ToField, c.ToInstanceType,
			c.Order, c.ExecutionLevel, c.ParallelGroup, c.GroupLabel, c.Logic,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert connector: %w", err)
		}
	}

	for i, r := range snap.Records {
		path, err := json.Marshal(r.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to encode path: %w", err)
		}
		logicPath, err := json.Marshal(r.Logic)
		if err != nil {
			return nil, fmt.Errorf("failed to encode logic: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lineage_records (run_id, position, target_instance, target_field, target_table, target_datatype,
				source_instance, source_field, source_table, source_datatype, path, logic, hop_count, direct_source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.TargetInstance, r.TargetField, r.TargetTable, r.TargetDataType,
			r.SourceInstance, r.SourceField, r.SourceTable, r.SourceDataType, string(path), string(logicPath), r.HopCount, r.Direct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert lineage record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return run, nil
}

const runColumns = `id, mapping, input, started_at, completed_at, degraded,
	node_count, edge_count, connector_count, max_level, group_count, record_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Mapping, &run.Input, &run.StartedAt, &completedAt, &run.Degraded,
		&run.NodeCount, &run.EdgeCount, &run.ConnectorCount, &run.MaxLevel, &run.GroupCount, &run.RecordCount)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun retrieves the most recent run for a mapping, or nil if there is none.
func (s *SQLiteStore) LatestRun(ctx context.Context, mapping string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE mapping = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		mapping,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first. An empty mapping lists all mappings;
// a limit of 0 or less returns everything.
func (s *SQLiteStore) ListRuns(ctx context.Context, mapping string, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs
		 WHERE (? = '' OR mapping = ?)
		 ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		mapping, mapping, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RunLevels returns the stored node levels of a run in graph order.
func (s *SQLiteStore) RunLevels(ctx context.Context, runID string) ([]InstanceLevel, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT node, instance, level, group_id, group_label FROM instance_levels WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get levels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var levels []InstanceLevel
	for rows.Next() {
		var l InstanceLevel
		if err := rows.Scan(&l.Node, &l.Instance, &l.Level, &l.GroupID, &l.GroupLabel); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// RunConnectors returns the stored enriched connectors of a run in original order.
func (s *SQLiteStore) RunConnectors(ctx context.Context, runID string) ([]core.EnrichedConnector, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT mapping_number, mapping_name, from_instance, from_field, from_instance_type,
			to_instance, to_field, to_instance_type, transformation_order, execution_level,
			parallel_group, group_label, logic
		 FROM enriched_connectors WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get connectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.EnrichedConnector
	for rows.Next() {
		var c core.EnrichedConnector
		err := rows.Scan(&c.MappingNumber, &c.MappingName, &c.FromInstance, &c.FromField, &c.FromInstanceType,
			&c.ToInstance, &c.ToField, &c.ToInstanceType, &c.Order, &c.ExecutionLevel,
			&c.ParallelGroup, &c.GroupLabel, &c.Logic)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connector: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RunRecords returns the stored lineage records of a run in original order.
func (s *SQLiteStore) RunRecords(ctx context.Context, runID string) ([]core.LineageRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_instance, target_field, target_table, target_datatype,
			source_instance, source_field, source_table, source_datatype,
			path, logic, hop_count, direct_source
		 FROM lineage_records WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get lineage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.LineageRecord
	for rows.Next() {
		var (
			r         core.LineageRecord
			path      string
			logicPath string
		)
		err := rows.Scan(&r.TargetInstance, &r.TargetField, &r.TargetTable, &r.TargetDataType,
			&r.SourceInstance, &r.SourceField, &r.SourceTable, &r.SourceDataType,
			&path, &logicPath, &r.HopCount, &r.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lineage record: %w", err)
		}
		if err := json.Unmarshal([]byte(path), &r.Path); err != nil {
			return nil, fmt.Errorf("failed to decode path: %w", err)
		}
		if err := json.Unmarshal([]byte(logicPath), &r.Logic); err != nil {
			return nil, fmt.Errorf("failed to decode logic: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
