package state

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

func emptySnapshot() *Snapshot {
	return &Snapshot{Result: analysis.Analyze(&core.Mapping{Name: "m_empty"}, analysis.Options{})}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"migrate", store.Migrate},
		{"save", func() error { _, err := store.SaveRun(ctx, emptySnapshot()); return err }},
		{"get", func() error { _, err := store.GetRun(ctx, "x"); return err }},
		{"latest", func() error { _, err := store.LatestRun(ctx, "m"); return err }},
		{"list", func() error { _, err := store.ListRuns(ctx, "", 0); return err }},
		{"delete", func() error { return store.DeleteRun(ctx, "x") }},
		{"levels", func() error { _, err := store.RunLevels(ctx, "x"); return err }},
		{"connectors", func() error { _, err := store.RunConnectors(ctx, "x"); return err }},
		{"records", func() error { _, err := store.RunRecords(ctx, "x"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "database not opened")
		})
	}

	assert.NoError(t, store.Close())
}

func TestSQLiteStore_SaveRunErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "begin fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(assert.AnError)
			},
			errMsg: "failed to begin transaction",
		},
		{
			name: "insert rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO analysis_runs").WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			errMsg: "failed to insert run",
		},
		{
			name: "commit fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO analysis_runs").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit().WillReturnError(assert.AnError)
			},
			errMsg: "failed to commit transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			store := &SQLiteStore{db: db}
			_, err = store.SaveRun(context.Background(), emptySnapshot())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStore_SaveRunRejectsEmptySnapshot(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := &SQLiteStore{db: db}
	_, err = store.SaveRun(context.Background(), &Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis result")
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM analysis_runs WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := &SQLiteStore{db: db}
	_, err = store.GetRun(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListRunsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM analysis_runs").WillReturnError(assert.AnError)

	store := &SQLiteStore{db: db}
	_, err = store.ListRuns(context.Background(), "", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list runs")
}
