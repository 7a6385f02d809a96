package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/zoebot/internal/domain"
)

const sessionColumns = `identity, login_token, account_id, vin, committed_at, created_at, updated_at,
	bootstrap_phase, bootstrap_turns_left, bootstrap_deadline`

// SQLiteSessionStore implements auth.SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db  *DB
	now func() time.Time
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db, now: time.Now}
}

// GetOrCreate returns the session for identity, creating an empty one on
// first contact.
func (s *SQLiteSessionStore) GetOrCreate(ctx context.Context, identity string) (*domain.Session, error) {
	sess, err := s.Get(ctx, identity)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (identity, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (identity) DO NOTHING`,
		identity, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session %q: %w", identity, err)
	}

	s.db.log.Debug().Str("identity", identity).Msg("session created")
	return s.Get(ctx, identity)
}

// Get returns the session for identity or domain.ErrSessionNotFound.
func (s *SQLiteSessionStore) Get(ctx context.Context, identity string) (*domain.Session, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE identity = ?`, identity)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", identity, err)
	}
	return sess, nil
}

// SaveBootstrap persists the bootstrap state machine. Credentials are left
// as they are.
func (s *SQLiteSessionStore) SaveBootstrap(ctx context.Context, identity string, state domain.BootstrapState) error {
	now := formatTime(s.now().UTC())
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (identity, created_at, updated_at, bootstrap_phase, bootstrap_turns_left, bootstrap_deadline)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (identity) DO UPDATE SET
			bootstrap_phase = excluded.bootstrap_phase,
			bootstrap_turns_left = excluded.bootstrap_turns_left,
			bootstrap_deadline = excluded.bootstrap_deadline,
			updated_at = excluded.updated_at`,
		identity, now, now, string(state.Phase), state.TurnsLeft, nullTime(state.Deadline),
	)
	if err != nil {
		return fmt.Errorf("saving bootstrap state for %q: %w", identity, err)
	}
	return nil
}

// Commit writes the credential triple and the committed phase in a single
// statement. Invalid credentials are rejected before touching the database.
func (s *SQLiteSessionStore) Commit(ctx context.Context, identity string, creds domain.Credentials, at time.Time) error {
	if err := creds.Valid(); err != nil {
		return err
	}

	ts := formatTime(at.UTC())
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (identity, login_token, account_id, vin, committed_at, created_at, updated_at,
			bootstrap_phase, bootstrap_turns_left, bootstrap_deadline)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL)
		 ON CONFLICT (identity) DO UPDATE SET
			login_token = excluded.login_token,
			account_id = excluded.account_id,
			vin = excluded.vin,
			committed_at = excluded.committed_at,
			updated_at = excluded.updated_at,
			bootstrap_phase = excluded.bootstrap_phase,
			bootstrap_turns_left = 0,
			bootstrap_deadline = NULL`,
		identity, creds.LoginToken, nullString(creds.AccountID), nullString(creds.VIN),
		ts, ts, ts, string(domain.PhaseCommitted),
	)
	if err != nil {
		return fmt.Errorf("committing credentials for %q: %w", identity, err)
	}

	s.db.log.Info().Str("identity", identity).Str("vin", creds.VIN).Msg("credentials committed")
	return nil
}

// List returns all sessions, most recently updated first.
func (s *SQLiteSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC, identity`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		sess                        domain.Session
		token, account, vin         sql.NullString
		committedAt, deadline       sql.NullString
		createdAt, updatedAt, phase string
	)
	err := row.Scan(
		&sess.Identity, &token, &account, &vin, &committedAt, &createdAt, &updatedAt,
		&phase, &sess.Bootstrap.TurnsLeft, &deadline,
	)
	if err != nil {
		return nil, err
	}

	sess.LoginToken = token.String
	sess.AccountID = account.String
	sess.VIN = vin.String
	sess.Bootstrap.Phase = domain.BootstrapPhase(phase)
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	if deadline.Valid {
		sess.Bootstrap.Deadline = parseTime(deadline.String)
	}
	if committedAt.Valid {
		t := parseTime(committedAt.String)
		sess.CommittedAt = &t
	}
	return &sess, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t.UTC()), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
