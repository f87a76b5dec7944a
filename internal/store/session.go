package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aerofans/apiserver/types"
)

// SessionRepository handles persistence for login sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session types.Session) error {
	const query = `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, session.Token, session.UserID, session.ExpiresAt)
	return err
}

// GetByToken returns the session for the token, expired or not. Expiry is
// the caller's judgement against an injected clock.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (types.Session, error) {
	const query = `
		SELECT token, user_id, expires_at
		FROM sessions
		WHERE token = $1`
	var session types.Session
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, ErrNotFound
		}
		return types.Session{}, err
	}
	return session, nil
}

// DeleteExpired reaps sessions dead at the given instant. Expiry itself is
// lazy; this is housekeeping only.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
