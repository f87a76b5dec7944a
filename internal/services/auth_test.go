package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aerofans/apiserver/apperror"
	"github.com/aerofans/apiserver/internal/store"
	"github.com/aerofans/apiserver/types"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.Username] = user
	return user, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]types.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]types.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = session
	return nil
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for token, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func newTestAuthService(users *fakeUserRepo, sessions *fakeSessionRepo, now *time.Time) *AuthService {
	svc := NewAuthService(users, sessions)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), &now)

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := svc.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
	if want := now.Add(time.Hour); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", session.ExpiresAt, want)
	}

	userID, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != session.UserID {
		t.Fatalf("authenticate returned user %d, want %d", userID, session.UserID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := newFakeUserRepo()
	svc := newTestAuthService(users, newFakeSessionRepo(), &now)

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	stored, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	err = svc.Register(ctx, "alice", "other")
	if !apperror.IsConflict(err) {
		t.Fatalf("second register = %v, want conflict", err)
	}

	after, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup after conflict: %v", err)
	}
	if after.PasswordHash != stored.PasswordHash {
		t.Fatal("stored credential changed on duplicate register")
	}

	// The original credential still works.
	if _, err := svc.Login(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("login after conflict: %v", err)
	}
}

func TestLoginCollapsesFailureCauses(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), &now)

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := svc.Login(ctx, "nobody", "secret1")
	_, wrongErr := svc.Login(ctx, "alice", "wrong")

	if !apperror.IsAuthError(unknownErr) {
		t.Fatalf("unknown user error = %v, want auth error", unknownErr)
	}
	if !apperror.IsAuthError(wrongErr) {
		t.Fatalf("wrong password error = %v, want auth error", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("error messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthenticateExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issued := now
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), &now)

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := svc.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	now = issued.Add(30 * time.Minute)
	userID, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate at +30m: %v", err)
	}
	if userID != session.UserID {
		t.Fatalf("authenticate returned user %d, want %d", userID, session.UserID)
	}

	now = issued.Add(61 * time.Minute)
	if _, err := svc.Authenticate(ctx, session.Token); !apperror.IsAuthError(err) {
		t.Fatalf("authenticate at +61m = %v, want auth error", err)
	}
}

func TestAuthenticateRejectsMissingAndUnknownTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), &now)

	if _, err := svc.Authenticate(ctx, ""); !apperror.IsBadRequest(err) {
		t.Fatalf("empty token = %v, want bad request", err)
	}
	if _, err := svc.Authenticate(ctx, "no-such-token"); !apperror.IsAuthError(err) {
		t.Fatalf("unknown token = %v, want auth error", err)
	}
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		token, err := generateToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(newFakeUserRepo(), sessions, &now)

	_ = sessions.Create(ctx, types.Session{Token: "live", UserID: 1, ExpiresAt: now.Add(30 * time.Minute)})
	_ = sessions.Create(ctx, types.Session{Token: "dead", UserID: 1, ExpiresAt: now.Add(-time.Minute)})

	deleted, err := svc.SweepExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("sweep deleted %d sessions, want 1", deleted)
	}
	if _, err := sessions.GetByToken(ctx, "live"); err != nil {
		t.Fatalf("live session was swept: %v", err)
	}
	if _, err := sessions.GetByToken(ctx, "dead"); err == nil {
		t.Fatal("dead session survived the sweep")
	}
}
