// Package history stores one record per configuration load in the
// load_history table.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/xmlruntime"
)

// ErrNotFound is returned by Latest when a path has no recorded loads.
var ErrNotFound = errors.New("history: no load recorded")

// Page size limits for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeFormat is fixed-width so loaded_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// Record is a single load attempt.
type Record struct {
	ID              string                  `json:"id" yaml:"id"`
	Path            string                  `json:"path" yaml:"path"`
	ConfigurationID string                  `json:"configuration_id,omitempty" yaml:"configuration_id,omitempty"`
	Outcome         string                  `json:"outcome" yaml:"outcome"`
	Error           string                  `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCount      int                     `json:"error_count" yaml:"error_count"`
	WarningCount    int                     `json:"warning_count" yaml:"warning_count"`
	Diagnostics     []xmlruntime.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Stats           configtree.Stats        `json:"stats" yaml:"stats"`
	Snapshot        *configtree.Snapshot    `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Duration        time.Duration           `json:"duration" yaml:"duration"`
	LoadedAt        time.Time               `json:"loaded_at" yaml:"loaded_at"`
}

// Filter controls which records to return.
type Filter struct {
	Path    string // optional: only loads of this document
	Outcome string // optional: loaded, invalid, duplicate_key, unreadable, failed
	Limit   int    // default 50, max 200
	Offset  int    // pagination offset
}

// ListResult contains the paginated records.
type ListResult struct {
	Records []Record `json:"records" yaml:"records"`
	Total   int      `json:"total" yaml:"total"`
	Limit   int      `json:"limit" yaml:"limit"`
	Offset  int      `json:"offset" yaml:"offset"`
}

// Repository defines the load history operations.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Latest(ctx context.Context, path string) (*Record, error)
}

// SQLiteRepository stores records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new load history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a record. The ID and LoadedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = "load-" + uuid.NewString()
	}
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now().UTC()
	}

	var snapshotJSON *string
	if rec.Snapshot != nil {
		b, err := json.Marshal(rec.Snapshot)
		if err != nil {
			return fmt.Errorf("marshalling snapshot: %w", err)
		}
		s := string(b)
		snapshotJSON = &s
	}

	diagnostics := rec.Diagnostics
	if diagnostics == nil {
		diagnostics = []xmlruntime.Diagnostic{}
	}
	diagnosticsJSON, err := json.Marshal(diagnostics)
	if err != nil {
		return fmt.Errorf("marshalling diagnostics: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO load_history (id, path, configuration_id, outcome, error,
		     error_count, warning_count, diagnostics, settings, plugins, instances,
		     client_endpoints, server_endpoints, snapshot, duration_us, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, nullableString(rec.ConfigurationID), rec.Outcome, nullableString(rec.Error),
		rec.ErrorCount, rec.WarningCount, string(diagnosticsJSON),
		rec.Stats.Settings, rec.Stats.Plugins, rec.Stats.Instances,
		rec.Stats.ClientEndPoints, rec.Stats.ServerEndPoints,
		snapshotJSON, rec.Duration.Microseconds(),
		rec.LoadedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting load record: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so they are stored as NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const selectColumns = `SELECT id, path, configuration_id, outcome, error,
	error_count, warning_count, diagnostics, settings, plugins, instances,
	client_endpoints, server_endpoints, snapshot, duration_us, loaded_at
	FROM load_history`

// List returns records matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Path != "" {
		conditions = append(conditions, "path = ?")
		args = append(args, filter.Path)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM load_history %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting load records: %w", err)
	}

	query := fmt.Sprintf("%s %s ORDER BY loaded_at DESC, rowid DESC LIMIT ? OFFSET ?", selectColumns, where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying load records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating load records: %w", err)
	}

	return &ListResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Latest returns the most recent record for path, or ErrNotFound.
func (r *SQLiteRepository) Latest(ctx context.Context, path string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		selectColumns+" WHERE path = ? ORDER BY loaded_at DESC, rowid DESC LIMIT 1", path)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, path)
	}
	return rec, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var configID, errText, snapshotJSON sql.NullString
	var diagnosticsJSON string
	var durationUS int64
	var loadedAt string

	err := s.Scan(&rec.ID, &rec.Path, &configID, &rec.Outcome, &errText,
		&rec.ErrorCount, &rec.WarningCount, &diagnosticsJSON,
		&rec.Stats.Settings, &rec.Stats.Plugins, &rec.Stats.Instances,
		&rec.Stats.ClientEndPoints, &rec.Stats.ServerEndPoints,
		&snapshotJSON, &durationUS, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning load record: %w", err)
	}

	rec.ConfigurationID = configID.String
	rec.Error = errText.String
	rec.Duration = time.Duration(durationUS) * time.Microsecond

	if err := json.Unmarshal([]byte(diagnosticsJSON), &rec.Diagnostics); err != nil {
		return nil, fmt.Errorf("decoding diagnostics of %s: %w", rec.ID, err)
	}
	if len(rec.Diagnostics) == 0 {
		rec.Diagnostics = nil
	}

	if snapshotJSON.Valid && snapshotJSON.String != "" {
		var snap configtree.Snapshot
		if err := json.Unmarshal([]byte(snapshotJSON.String), &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot of %s: %w", rec.ID, err)
		}
		rec.Snapshot = &snap
	}

	t, err := time.Parse(timeFormat, loadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing load timestamp %q: %w", loadedAt, err)
	}
	rec.LoadedAt = t

	return &rec, nil
}
