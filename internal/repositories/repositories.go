package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

// SessionRepository persists [models.Session] records.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves the session of username on service.
//
// Returns an error wrapping [shared.ErrNoSession] when none is stored.
func (r *SessionRepository) Get(ctx context.Context, service, username string) (*models.Session, error) {
	query := `
		SELECT id, service, username, session_key, created_at, updated_at
		FROM sessions
		WHERE service = ? AND username = ?
	`

	var session models.Session
	err := r.db.QueryRowContext(ctx, query, service, username).Scan(
		&session.ID, &session.Service, &session.Username, &session.SessionKey, &session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrNoSession, service, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// Upsert stores session, replacing the key of an existing (service, username) row.
//
// A new row gets a generated ID. session is updated with the stored values.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.Session) error {
	if session.Service == "" || session.Username == "" || session.SessionKey == "" {
		return fmt.Errorf("%w: session requires service, username and key", shared.ErrInvalidInput)
	}

	now := time.Now().UTC()
	id := shared.GenerateID()

	query := `
		INSERT INTO sessions (id, service, username, session_key, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (service, username) DO UPDATE SET session_key = excluded.session_key, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, id, session.Service, session.Username, session.SessionKey, now, now); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	stored, err := r.Get(ctx, session.Service, session.Username)
	if err != nil {
		return err
	}
	*session = *stored
	return nil
}

// Delete removes the session of username on service.
func (r *SessionRepository) Delete(ctx context.Context, service, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE service = ? AND username = ?`, service, username)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", shared.ErrNoSession, service, username)
	}

	return nil
}

// List retrieves every stored session ordered by service and username.
func (r *SessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT id, service, username, session_key, created_at, updated_at
		FROM sessions
		ORDER BY service ASC, username ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(&session.ID, &session.Service, &session.Username, &session.SessionKey, &session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}
