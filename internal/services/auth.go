package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aerofans/apiserver/apperror"
	"github.com/aerofans/apiserver/internal/store"
	"github.com/aerofans/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the fixed work factor for password hashes.
	bcryptCost = 12
	// sessionTTL is the validity window of a session from issuance.
	sessionTTL = time.Hour
	// tokenBytes is the entropy of a session token before encoding.
	tokenBytes = 16
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) error
	GetByToken(ctx context.Context, token string) (types.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService handles registration, login, and token authentication.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository

	// now and newToken are swappable for tests.
	now      func() time.Time
	newToken func() (string, error)
}

func NewAuthService(users UserRepository, sessions SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		now:      time.Now,
		newToken: generateToken,
	}
}

// Register creates a new user with a bcrypt-hashed password. A taken
// username comes back as a conflict, not a server fault.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return apperror.New(apperror.InternalError, "failed to hash password", err)
	}

	_, err = s.users.Create(ctx, types.User{
		Username:     username,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apperror.NewConflictError("username is taken", nil)
		}
		return apperror.NewDatabaseError("failed to create user", err)
	}
	return nil
}

// Login verifies credentials and mints a session valid for one hour. An
// unknown username and a wrong password produce the same error so callers
// cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Session{}, apperror.NewAuthError("incorrect login info", nil)
		}
		return types.Session{}, apperror.NewDatabaseError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.Session{}, apperror.NewAuthError("incorrect login info", nil)
	}

	token, err := s.newToken()
	if err != nil {
		return types.Session{}, apperror.New(apperror.InternalError, "failed to generate token", err)
	}

	session := types.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return types.Session{}, apperror.NewDatabaseError("failed to create session", err)
	}
	return session, nil
}

// Authenticate resolves a token to a user id. A missing session and an
// expired one are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, apperror.NewBadRequestError("missing token", nil)
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, apperror.NewAuthError("invalid or expired token", nil)
		}
		return 0, apperror.NewDatabaseError("failed to look up session", err)
	}

	if session.Expired(s.now()) {
		return 0, apperror.NewAuthError("invalid or expired token", nil)
	}

	return session.UserID, nil
}

// SweepExpiredSessions deletes sessions past their expiry. Housekeeping
// only; authentication never depends on it.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to sweep sessions", err)
	}
	return deleted, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
