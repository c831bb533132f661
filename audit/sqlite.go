package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging for concurrent readers.
	// Default: true
	WALMode bool

	// BusyTimeout bounds how long a writer waits for a lock.
	// Default: 5s
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite storage configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage on top of modernc.org/sqlite, a
// cgo-free driver.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	mu     sync.RWMutex
}

// NewSQLiteStorage opens (creating if absent) the audit database at
// config.Path and verifies its schema.
func NewSQLiteStorage(cfg *SQLiteConfig) (*SQLiteStorage, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, storageErr("open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{db: db, config: cfg}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return storageErr("enable_wal", err)
		}
	}

	busyMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyMs)); err != nil {
		return storageErr("set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return storageErr("create_schema", err)
	}

	if _, err := s.db.Exec(insertSchemaVersion, schemaVersion); err != nil {
		return storageErr("insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return storageErr("get_schema_version", err)
	}
	if version != schemaVersion {
		return storageErr("schema_version_mismatch", fmt.Errorf("expected %d, got %d", schemaVersion, version))
	}

	return nil
}

// Store persists a single audit record.
func (s *SQLiteStorage) Store(ctx context.Context, r *Record) error {
	const q = `
		INSERT INTO audit_records (
			id, request_id,
			request_time, dispatch_time, response_time, recorded_time,
			method, path, target,
			status, error_kind, error, retry_count, rate_limited,
			request_bytes, response_bytes, duration_ms,
			user_id, team_id, api_key, client_ip
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.RequestID,
		r.RequestTime, nullTime(r.DispatchTime), nullTime(r.ResponseTime), r.RecordedTime,
		r.Method, r.Path, r.Target,
		r.Status, nullString(r.ErrorKind), nullString(r.Error), r.RetryCount, r.RateLimited,
		r.RequestBytes, r.ResponseBytes, r.Duration.Milliseconds(),
		nullString(r.UserID), nullString(r.TeamID), nullString(r.APIKey), nullString(r.ClientIP),
	)
	if err != nil {
		return storageErr("store", err)
	}
	return nil
}

// Query returns records matching q, most recent first.
func (s *SQLiteStorage) Query(ctx context.Context, q *Query) ([]*Record, error) {
	where, args := buildWhere(q)
	sqlText := "SELECT " + selectColumns + " FROM audit_records" + where + " ORDER BY request_time DESC"
	if q != nil && q.Limit > 0 {
		sqlText += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query", err)
	}
	return records, nil
}

// Count returns the number of records matching q.
func (s *SQLiteStorage) Count(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhere(q)
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records"+where, args...).Scan(&count)
	if err != nil {
		return 0, storageErr("count", err)
	}
	return count, nil
}

// Delete removes records matching q and returns how many were deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhere(q)
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_records"+where, args...)
	if err != nil {
		return 0, storageErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("rows_affected", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return storageErr("close", err)
	}
	return nil
}

const selectColumns = `id, request_id,
	request_time, dispatch_time, response_time, recorded_time,
	method, path, target,
	status, error_kind, error, retry_count, rate_limited,
	request_bytes, response_bytes, duration_ms,
	user_id, team_id, api_key, client_ip`

func scanRecord(rows *sql.Rows) (*Record, error) {
	var r Record
	var dispatchTime, responseTime sql.NullTime
	var errorKind, errVal, userID, teamID, apiKey, clientIP sql.NullString
	var durationMs int64

	err := rows.Scan(
		&r.ID, &r.RequestID,
		&r.RequestTime, &dispatchTime, &responseTime, &r.RecordedTime,
		&r.Method, &r.Path, &r.Target,
		&r.Status, &errorKind, &errVal, &r.RetryCount, &r.RateLimited,
		&r.RequestBytes, &r.ResponseBytes, &durationMs,
		&userID, &teamID, &apiKey, &clientIP,
	)
	if err != nil {
		return nil, err
	}

	r.DispatchTime = dispatchTime.Time
	r.ResponseTime = responseTime.Time
	r.ErrorKind = errorKind.String
	r.Error = errVal.String
	r.UserID = userID.String
	r.TeamID = teamID.String
	r.APIKey = apiKey.String
	r.ClientIP = clientIP.String
	r.Duration = time.Duration(durationMs) * time.Millisecond

	return &r, nil
}

func buildWhere(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var clauses []string
	var args []any

	if q.StartTime != nil {
		clauses = append(clauses, "request_time >= ?")
		args = append(args, *q.StartTime)
	}
	if q.EndTime != nil {
		clauses = append(clauses, "request_time <= ?")
		args = append(args, *q.EndTime)
	}
	if q.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.TeamID != "" {
		clauses = append(clauses, "team_id = ?")
		args = append(args, q.TeamID)
	}
	if q.Target != "" {
		clauses = append(clauses, "target = ?")
		args = append(args, q.Target)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
