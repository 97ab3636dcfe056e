package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lintdock/lintdock/models"
	"github.com/samber/lo"
)

// ViolationStore persists the current violation snapshot per workspace in
// SQLite. All writes are serialized by the DB wrapper, so concurrent callers
// never need external locking.
type ViolationStore struct {
	db *DB
}

// NewViolationStore opens a store at the given database path, creating the
// schema idempotently. Use ":memory:" for tests.
func NewViolationStore(dbPath string) (*ViolationStore, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open violation database: %v", models.ErrIOFailure, err)
	}

	s := &ViolationStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize violation schema: %v", models.ErrIOFailure, err)
	}
	return s, nil
}

// OpenDefaultStore opens the per-installation store under the user cache
// directory.
func OpenDefaultStore() (*ViolationStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: resolve home directory: %v", models.ErrIOFailure, err)
	}

	cacheDir := filepath.Join(homeDir, ".cache", "lintdock")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %v", models.ErrIOFailure, err)
	}

	return NewViolationStore(filepath.Join(cacheDir, "violations.db"))
}

func (s *ViolationStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS violations (
		id TEXT PRIMARY KEY,
		workspace TEXT NOT NULL,
		rule TEXT NOT NULL,
		file_path TEXT NOT NULL,
		line INTEGER NOT NULL,
		character INTEGER NOT NULL DEFAULT 0,
		severity TEXT NOT NULL CHECK (severity IN ('warning', 'error')),
		message TEXT NOT NULL,
		detected_at INTEGER NOT NULL,
		resolved_at INTEGER,
		suppressed INTEGER NOT NULL DEFAULT 0,
		suppression_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_violations_workspace ON violations(workspace);
	CREATE INDEX IF NOT EXISTS idx_violations_rule ON violations(rule);
	CREATE INDEX IF NOT EXISTS idx_violations_file ON violations(file_path);
	CREATE INDEX IF NOT EXISTS idx_violations_detected_at ON violations(detected_at);
	CREATE INDEX IF NOT EXISTS idx_violations_workspace_rule ON violations(workspace, rule);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Store atomically replaces the workspace's snapshot with the given set.
// Either every violation is stored and the previous snapshot is gone, or the
// previous snapshot survives untouched.
func (s *ViolationStore) Store(workspace string, violations []models.Violation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin store transaction: %v", models.ErrIOFailure, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM violations WHERE workspace = ?", workspace); err != nil {
		return fmt.Errorf("%w: clear previous snapshot: %v", models.ErrIOFailure, err)
	}

	if err := insertViolations(tx, workspace, violations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit snapshot: %v", models.ErrIOFailure, err)
	}
	return nil
}

// StoreForFiles replaces violations only for the given workspace-relative
// file paths, leaving the rest of the snapshot intact. Incremental batches
// commit through here so a cancelled run keeps its completed batches.
func (s *ViolationStore) StoreForFiles(workspace string, files []string, violations []models.Violation) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin batch transaction: %v", models.ErrIOFailure, err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("DELETE FROM violations WHERE workspace = ? AND file_path IN (%s)", placeholders(len(files)))
	args := append([]any{workspace}, lo.ToAnySlice(files)...)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: clear batch files: %v", models.ErrIOFailure, err)
	}

	if err := insertViolations(tx, workspace, violations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %v", models.ErrIOFailure, err)
	}
	return nil
}

func insertViolations(tx *Tx, workspace string, violations []models.Violation) error {
	stmt, err := tx.Prepare(`
		INSERT INTO violations (
			id, workspace, rule, file_path, line, character,
			severity, message, detected_at, resolved_at, suppressed, suppression_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", models.ErrIOFailure, err)
	}
	defer stmt.Close()

	for _, v := range violations {
		var resolvedAt sql.NullInt64
		if v.ResolvedAt != nil {
			resolvedAt = sql.NullInt64{Int64: v.ResolvedAt.UnixNano(), Valid: true}
		}
		reason := sql.NullString{String: v.SuppressionReason, Valid: v.SuppressionReason != ""}

		_, err := stmt.Exec(
			v.ID, workspace, v.Rule, v.File, v.Line, v.Column,
			string(v.Severity), v.Message, v.DetectedAt.UnixNano(),
			resolvedAt, v.Suppressed, reason,
		)
		if err != nil {
			return fmt.Errorf("%w: insert violation %s: %v", models.ErrIOFailure, v.ID, err)
		}
	}
	return nil
}

// Fetch returns the violations matching the filter, most recently detected
// first. All filter fields combine conjunctively.
func (s *ViolationStore) Fetch(workspace string, filter models.ViolationFilter) ([]models.Violation, error) {
	where, args := buildWhere(workspace, filter)
	query := `
		SELECT id, workspace, rule, file_path, line, character,
		       severity, message, detected_at, resolved_at, suppressed, suppression_reason
		FROM violations
		WHERE ` + where + `
		ORDER BY detected_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch violations: %v", models.ErrIOFailure, err)
	}
	defer rows.Close()

	var violations []models.Violation
	for rows.Next() {
		var v models.Violation
		var severity string
		var detectedAt int64
		var resolvedAt sql.NullInt64
		var reason sql.NullString

		err := rows.Scan(
			&v.ID, &v.Workspace, &v.Rule, &v.File, &v.Line, &v.Column,
			&severity, &v.Message, &detectedAt, &resolvedAt, &v.Suppressed, &reason,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan violation: %v", models.ErrIOFailure, err)
		}

		v.Severity = models.Severity(severity)
		v.DetectedAt = time.Unix(0, detectedAt)
		if resolvedAt.Valid {
			t := time.Unix(0, resolvedAt.Int64)
			v.ResolvedAt = &t
		}
		if reason.Valid {
			v.SuppressionReason = reason.String
		}

		violations = append(violations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate violations: %v", models.ErrIOFailure, err)
	}
	return violations, nil
}

// Count returns the number of violations matching the filter.
func (s *ViolationStore) Count(workspace string, filter models.ViolationFilter) (int, error) {
	where, args := buildWhere(workspace, filter)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM violations WHERE "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count violations: %v", models.ErrIOFailure, err)
	}
	return count, nil
}

// Suppress marks the given violations suppressed with an audit reason.
// Unknown identifiers are ignored; repeating the call is a no-op.
func (s *ViolationStore) Suppress(ids []string, reason string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE violations SET suppressed = 1, suppression_reason = ? WHERE id IN (%s)",
		placeholders(len(ids)),
	)
	args := append([]any{reason}, lo.ToAnySlice(ids)...)
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: suppress violations: %v", models.ErrIOFailure, err)
	}
	return nil
}

// Resolve stamps resolved_at on the given violations. Already-resolved rows
// keep their original timestamp.
func (s *ViolationStore) Resolve(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE violations SET resolved_at = ? WHERE resolved_at IS NULL AND id IN (%s)",
		placeholders(len(ids)),
	)
	args := append([]any{time.Now().UnixNano()}, lo.ToAnySlice(ids)...)
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: resolve violations: %v", models.ErrIOFailure, err)
	}
	return nil
}

// DeleteAll removes every violation for a workspace.
func (s *ViolationStore) DeleteAll(workspace string) error {
	if _, err := s.db.Exec("DELETE FROM violations WHERE workspace = ?", workspace); err != nil {
		return fmt.Errorf("%w: delete workspace violations: %v", models.ErrIOFailure, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *ViolationStore) Close() error {
	return s.db.Close()
}

func buildWhere(workspace string, filter models.ViolationFilter) (string, []any) {
	conditions := []string{"workspace = ?"}
	args := []any{workspace}

	if len(filter.Rules) > 0 {
		conditions = append(conditions, fmt.Sprintf("rule IN (%s)", placeholders(len(filter.Rules))))
		args = append(args, lo.ToAnySlice(filter.Rules)...)
	}
	if len(filter.Files) > 0 {
		conditions = append(conditions, fmt.Sprintf("file_path IN (%s)", placeholders(len(filter.Files))))
		args = append(args, lo.ToAnySlice(filter.Files)...)
	}
	if len(filter.Severities) > 0 {
		severities := lo.Map(filter.Severities, func(s models.Severity, _ int) any { return string(s) })
		conditions = append(conditions, fmt.Sprintf("severity IN (%s)", placeholders(len(filter.Severities))))
		args = append(args, severities...)
	}
	if filter.SuppressedOnly {
		conditions = append(conditions, "suppressed = 1")
	}
	if !filter.DetectedAfter.IsZero() {
		conditions = append(conditions, "detected_at >= ?")
		args = append(args, filter.DetectedAfter.UnixNano())
	}
	if !filter.DetectedBefore.IsZero() {
		conditions = append(conditions, "detected_at <= ?")
		args = append(args, filter.DetectedBefore.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.Join(lo.Times(n, func(int) string { return "?" }), ", ")
}
