package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0)

// ---- metadata repo ----

type memRepo struct {
	mu sync.Mutex
	m  map[string][]byte

	GetErr error
	SetErr error
}

func newMemRepo() *memRepo { return &memRepo{m: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	v, ok := r.m[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetErr != nil {
		return r.SetErr
	}
	r.m[key] = append([]byte(nil), value...)
	return nil
}

func (r *memRepo) SetMany(_ context.Context, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetErr != nil {
		return r.SetErr
	}
	for k, v := range values {
		r.m[k] = append([]byte(nil), v...)
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

// ---- auth client ----

type fakeClient struct {
	mu sync.Mutex

	SignInRet *models.Session
	SignInErr error

	SignUpSession *models.Session
	SignUpUser    *models.User
	SignUpErr     error

	RefreshRet *models.Session
	RefreshErr error

	GetUserRet *models.User
	GetUserErr error

	UpdateUserErr error

	SignOutErr error
	HealthErr  error

	SignInCalls  int
	RefreshCalls int
	SignOutCalls int
	GetUserCalls int

	LastRefreshToken string
	LastRedirect     string
	LastUpdateData   map[string]any
	LastAccessToken  string
}

func (f *fakeClient) SignInWithPassword(_ context.Context, email string, password []byte) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignInCalls++
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	return cloneSession(f.SignInRet), nil
}

func (f *fakeClient) SignUp(_ context.Context, email string, password []byte, redirectTo string) (*models.Session, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastRedirect = redirectTo
	return cloneSession(f.SignUpSession), f.SignUpUser, f.SignUpErr
}

func (f *fakeClient) RefreshSession(_ context.Context, refreshToken string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefreshCalls++
	f.LastRefreshToken = refreshToken
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	return cloneSession(f.RefreshRet), nil
}

func (f *fakeClient) GetUser(_ context.Context, accessToken string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetUserCalls++
	f.LastAccessToken = accessToken
	return f.GetUserRet, f.GetUserErr
}

func (f *fakeClient) UpdateUser(_ context.Context, accessToken string, data map[string]any) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastAccessToken = accessToken
	f.LastUpdateData = data
	if f.UpdateUserErr != nil {
		return nil, f.UpdateUserErr
	}
	return &models.User{ID: "user-1", Email: "ada@example.com", UserMetadata: data}, nil
}

func (f *fakeClient) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignOutCalls++
	return f.SignOutErr
}

func (f *fakeClient) AuthorizeURL(provider, redirectTo string) string {
	return "https://backend/auth/v1/authorize?provider=" + provider + "&redirect_to=" + redirectTo
}

func (f *fakeClient) Health(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HealthErr
}

func (f *fakeClient) setHealth(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HealthErr = err
}

func cloneSession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

var _ client.Client = (*fakeClient)(nil)

// ---- helpers ----

func testUser() *models.User {
	return &models.User{ID: "user-1", Email: "ada@example.com"}
}

func validSession(access, refresh string) *models.Session {
	return &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    testNow.Add(time.Hour).Unix(),
		User:         testUser(),
	}
}

func expiredSession(access, refresh string) *models.Session {
	s := validSession(access, refresh)
	s.ExpiresAt = testNow.Add(-time.Minute).Unix()
	return s
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

type eventLog struct {
	mu     sync.Mutex
	events []AuthEvent
}

func (e *eventLog) listener(ev AuthEvent, _ *models.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) get() []AuthEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]AuthEvent(nil), e.events...)
}

func newTestAuth(t *testing.T, fc *fakeClient) (*authService, *memRepo, *eventLog) {
	t.Helper()
	repo := newMemRepo()
	store := NewSessionStore(repo, "", logging.Nop())
	svc := NewAuthService(fc, store, AuthOptions{
		RedirectURL:   "gophstash://auth/callback",
		RefreshMargin: time.Minute,
		Now:           func() time.Time { return testNow },
	}, logging.Nop()).(*authService)

	events := &eventLog{}
	svc.OnAuthStateChange(events.listener)
	return svc, repo, events
}
