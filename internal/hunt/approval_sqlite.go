package hunt

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver, pure Go, no cgo
)

// SQLiteStore is a modernc.org/sqlite-backed ApprovalStore, the alternative
// to JSONStore named in SPEC_FULL.md's resolved Open Question: "both a
// JSON-file-backed and a SQLite-backed TokenApprovalStore are implemented
// behind one interface."
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite database at dsn
// and ensures its schema exists.
func OpenSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("hunt: open sqlite approval store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS token_approvals (
			token_name     TEXT PRIMARY KEY,
			source_rule    TEXT NOT NULL,
			value_hash     TEXT NOT NULL,
			last_confirmed TEXT NOT NULL,
			approved_by    TEXT NOT NULL,
			sensitivity    TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("hunt: create token_approvals table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(tokenName string) (TokenApproval, bool, error) {
	row := s.db.QueryRow(`
		SELECT token_name, source_rule, value_hash, last_confirmed, approved_by, sensitivity
		FROM token_approvals WHERE token_name = ?`, tokenName)

	var a TokenApproval
	var lastConfirmed string
	var sensitivity string
	err := row.Scan(&a.TokenName, &a.SourceRule, &a.ValueHash, &lastConfirmed, &a.ApprovedBy, &sensitivity)
	if err == sql.ErrNoRows {
		return TokenApproval{}, false, nil
	}
	if err != nil {
		return TokenApproval{}, false, err
	}
	a.Sensitivity = Sensitivity(sensitivity)
	a.LastConfirmed, err = time.Parse(time.RFC3339Nano, lastConfirmed)
	if err != nil {
		return TokenApproval{}, false, fmt.Errorf("hunt: parse last_confirmed for %q: %w", tokenName, err)
	}
	return a, true, nil
}

func (s *SQLiteStore) Put(approval TokenApproval) error {
	_, err := s.db.Exec(`
		INSERT INTO token_approvals (token_name, source_rule, value_hash, last_confirmed, approved_by, sensitivity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token_name) DO UPDATE SET
			source_rule = excluded.source_rule,
			value_hash = excluded.value_hash,
			last_confirmed = excluded.last_confirmed,
			approved_by = excluded.approved_by,
			sensitivity = excluded.sensitivity`,
		approval.TokenName, approval.SourceRule, approval.ValueHash,
		approval.LastConfirmed.Format(time.RFC3339Nano), approval.ApprovedBy, string(approval.Sensitivity))
	return err
}

func (s *SQLiteStore) List() ([]TokenApproval, error) {
	rows, err := s.db.Query(`
		SELECT token_name, source_rule, value_hash, last_confirmed, approved_by, sensitivity
		FROM token_approvals ORDER BY token_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TokenApproval
	for rows.Next() {
		var a TokenApproval
		var lastConfirmed, sensitivity string
		if err := rows.Scan(&a.TokenName, &a.SourceRule, &a.ValueHash, &lastConfirmed, &a.ApprovedBy, &sensitivity); err != nil {
			return nil, err
		}
		a.Sensitivity = Sensitivity(sensitivity)
		a.LastConfirmed, err = time.Parse(time.RFC3339Nano, lastConfirmed)
		if err != nil {
			return nil, fmt.Errorf("hunt: parse last_confirmed for %q: %w", a.TokenName, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
