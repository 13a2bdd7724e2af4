// ABOUTME: Request journal operations for failed API calls
// ABOUTME: Records, lists, and prunes request_log rows keyed by ULID
package db

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/salesdesk/api"
)

// RequestRecord is one journaled API request.
type RequestRecord struct {
	ID        string
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	Error     string
	CreatedAt time.Time
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

// RecordRequest stores rec, filling in the ID and timestamp when unset.
func RecordRequest(db *sql.DB, rec *RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.ID == "" {
		rec.ID = newID(rec.CreatedAt)
	}

	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO request_log (id, request_id, method, path, status, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RequestID, rec.Method, rec.Path, rec.Status, rec.Duration.Milliseconds(), errText, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// RecentFailures returns the newest records first.
func RecentFailures(db *sql.DB, limit int) ([]RequestRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, request_id, method, path, status, duration_ms, error, created_at
		FROM request_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query request log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []RequestRecord
	for rows.Next() {
		var rec RequestRecord
		var durationMS int64
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Method, &rec.Path, &rec.Status, &durationMS, &errText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneBefore deletes records older than cutoff and reports how many went.
func PruneBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM request_log WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune request log: %w", err)
	}
	return res.RowsAffected()
}

// Observer returns an api observer that journals every failed request.
// Journal write errors are logged and otherwise ignored.
func Observer(db *sql.DB, logger *log.Logger) func(api.RequestInfo) {
	return func(info api.RequestInfo) {
		if !info.Failed() {
			return
		}
		rec := &RequestRecord{
			RequestID: info.RequestID,
			Method:    info.Method,
			Path:      info.Path,
			Status:    info.Status,
			Duration:  info.Duration,
			Error:     info.Err.Error(),
		}
		if err := RecordRequest(db, rec); err != nil {
			logger.Warn("failed to journal request", "path", info.Path, "err", err)
		}
	}
}
