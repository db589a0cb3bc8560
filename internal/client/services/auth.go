// Package services contains the application services behind the terminal
// screens: the auth state holder, the file list, profile helpers and the
// theme preference.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/deeplink"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/common"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

// DefaultOAuthProvider is used when SignInWithOAuth gets no provider.
const DefaultOAuthProvider = "google"

// ErrOAuthTimeout is returned by WaitForSignIn when no session arrived.
var ErrOAuthTimeout = errors.New("sign in was not completed")

// AuthService holds the signed-in session and user and tells subscribers
// when they change.
//
// Contract:
//   - Restore must run once before the state is read; Loading is true
//     until then.
//   - Listeners run synchronously on the goroutine that changed the
//     state, after the internal lock is released.
//   - AccessToken refreshes the session when it is close to expiry.
type AuthService interface {
	Restore(ctx context.Context) error
	Loading() bool
	Session() *models.Session
	User() *models.User
	Mode() Mode
	OnAuthStateChange(fn Listener) (unsubscribe func())

	SignIn(ctx context.Context, email string, password []byte) error
	SignUp(ctx context.Context, email string, password []byte) (confirmationRequired bool, err error)
	SignInWithOAuth(provider string) string
	WaitForSignIn(ctx context.Context, timeout time.Duration) error
	SetSession(ctx context.Context, accessToken, refreshToken string) error
	Refresh(ctx context.Context) error
	AccessToken(ctx context.Context) (string, error)
	UpdateUserMetadata(ctx context.Context, data map[string]any) error
	SignOut(ctx context.Context) error
	HandleURL(ctx context.Context, rawURL string) error

	StartAutoRefresh(ctx context.Context, interval time.Duration)
	StartOnlineStatusWatcher(ctx context.Context, interval time.Duration)
}

// AuthOptions configure NewAuthService.
type AuthOptions struct {
	RedirectURL   string
	RefreshMargin time.Duration
	Now           func() time.Time
}

type authService struct {
	client      client.Client
	store       *SessionStore
	logger      logging.Logger
	redirectURL string
	margin      time.Duration
	now         func() time.Time

	// refreshMu serialises refreshes; refresh tokens are single use.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	session   *models.Session
	loading   bool
	mode      Mode
	listeners map[int]Listener
	nextID    int
}

func NewAuthService(c client.Client, store *SessionStore, opts AuthOptions, l logging.Logger) AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &authService{
		client:      c,
		store:       store,
		logger:      l.With("module", "auth"),
		redirectURL: opts.RedirectURL,
		margin:      opts.RefreshMargin,
		now:         opts.Now,
		loading:     true,
		mode:        ModeDisabled,
		listeners:   map[int]Listener{},
	}
}

func (a *authService) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Session returns a copy of the current session, or nil.
func (a *authService) Session() *models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

func (a *authService) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil
	}
	return a.session.User
}

func (a *authService) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *authService) OnAuthStateChange(fn Listener) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// setState swaps the session and notifies listeners outside the lock.
func (a *authService) setState(ev AuthEvent, s *models.Session) {
	a.mu.Lock()
	a.session = s
	if ev == EventInitialSession {
		a.loading = false
	}
	listeners := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	a.logger.Debug(context.Background(), "Auth state changed", "event", string(ev))
	for _, l := range listeners {
		var cp *models.Session
		if s != nil {
			c := *s
			cp = &c
		}
		l(ev, cp)
	}
}

func (a *authService) persist(ctx context.Context, s *models.Session) {
	if err := a.store.Save(ctx, s); err != nil {
		a.logger.Warn(ctx, "Failed to persist session", "error", err)
	}
}

func (a *authService) forget(ctx context.Context) {
	if err := a.store.Clear(ctx); err != nil {
		a.logger.Warn(ctx, "Failed to clear stored session", "error", err)
	}
}

// Restore loads the persisted session, refreshing it when it is about to
// expire. A session the backend rejects is dropped; one that cannot be
// refreshed for lack of connectivity is kept.
func (a *authService) Restore(ctx context.Context) error {
	s, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn(ctx, "Failed to load stored session", "error", err)
		s = nil
	}

	if s != nil && s.Expired(a.now(), a.margin) {
		refreshed, err := a.client.RefreshSession(ctx, s.RefreshToken)
		switch {
		case err == nil:
			if refreshed.User == nil {
				refreshed.User = s.User
			}
			s = refreshed
			a.persist(ctx, s)
		case errors.Is(err, client.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
			a.logger.Warn(ctx, "Cannot refresh stored session, backend unavailable", "error", err)
		default:
			a.logger.Info(ctx, "Stored session is no longer valid", "error", err)
			a.forget(ctx)
			s = nil
		}
	}

	a.setState(EventInitialSession, s)
	return nil
}

func validateCredentials(email string, password []byte) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return "", common.ErrInvalidInput
	}
	return email, nil
}

func (a *authService) signedIn(ctx context.Context, s *models.Session) {
	a.persist(ctx, s)
	a.setState(EventSignedIn, s)
	if s.User != nil {
		a.logger.Info(ctx, "Signed in", "user", s.User.Email)
	}
}

func (a *authService) SignIn(ctx context.Context, email string, password []byte) error {
	email, err := validateCredentials(email, password)
	if err != nil {
		return err
	}

	s, err := a.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	a.signedIn(ctx, s)
	return nil
}

// SignUp creates the account. When the project requires email
// confirmation no session is issued and confirmationRequired is true.
func (a *authService) SignUp(ctx context.Context, email string, password []byte) (bool, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return false, err
	}

	s, _, err := a.client.SignUp(ctx, email, password, a.redirectURL)
	if err != nil {
		return false, err
	}
	if s == nil {
		return true, nil
	}
	a.signedIn(ctx, s)
	return false, nil
}

// SignInWithOAuth returns the provider authorization URL. The session
// arrives later through HandleURL.
func (a *authService) SignInWithOAuth(provider string) string {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = DefaultOAuthProvider
	}
	return a.client.AuthorizeURL(provider, a.redirectURL)
}

// WaitForSignIn blocks until a SIGNED_IN event, ctx cancellation or the
// timeout. On timeout it looks for a session stored by another instance
// and validates it with one refresh.
func (a *authService) WaitForSignIn(ctx context.Context, timeout time.Duration) error {
	done := make(chan struct{}, 1)
	unsubscribe := a.OnAuthStateChange(func(ev AuthEvent, _ *models.Session) {
		if ev == EventSignedIn {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	// Checked after subscribing so a sign-in in between is not lost.
	if a.User() != nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if a.User() != nil {
		return nil
	}

	stored, err := a.store.Load(ctx)
	if err != nil || stored == nil {
		return ErrOAuthTimeout
	}
	s, err := a.client.RefreshSession(ctx, stored.RefreshToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOAuthTimeout, err)
	}
	if s.User == nil {
		s.User = stored.User
	}
	a.signedIn(ctx, s)
	return nil
}

// SetSession installs a session received out of band (OAuth callback). An
// access token that already expired is exchanged with the refresh token.
func (a *authService) SetSession(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return common.ErrInvalidInput
	}

	claims, err := client.ParseClaims(accessToken)
	if err != nil {
		return err
	}

	var s *models.Session
	if claims.ExpiresAt != nil && !a.now().Before(claims.ExpiresAt.Time) {
		s, err = a.client.RefreshSession(ctx, refreshToken)
		if err != nil {
			return err
		}
	} else {
		user, err := a.client.GetUser(ctx, accessToken)
		if err != nil {
			return err
		}
		s = &models.Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			User:         user,
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Unix()
		}
	}

	a.signedIn(ctx, s)
	return nil
}

func (a *authService) Refresh(ctx context.Context) error {
	return a.refresh(ctx, true)
}

// refresh exchanges the refresh token. Without force it returns early when
// another caller refreshed while this one waited for the lock.
func (a *authService) refresh(ctx context.Context, force bool) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	cur := a.Session()
	if cur == nil {
		return client.ErrNoSession
	}
	if !force && !cur.Expired(a.now(), a.margin) {
		return nil
	}

	s, err := a.client.RefreshSession(ctx, cur.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			a.logger.Info(ctx, "Session expired, signing out")
			a.forget(ctx)
			a.setState(EventSignedOut, nil)
		}
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ctx, ModeOffline)
		}
		return err
	}
	if s.User == nil {
		s.User = cur.User
	}

	a.persist(ctx, s)
	a.setState(EventTokenRefreshed, s)
	return nil
}

func (a *authService) AccessToken(ctx context.Context) (string, error) {
	s := a.Session()
	if s == nil {
		return "", client.ErrNoSession
	}
	if !s.Expired(a.now(), a.margin) {
		return s.AccessToken, nil
	}

	if err := a.refresh(ctx, false); err != nil {
		return "", err
	}
	s = a.Session()
	if s == nil {
		return "", client.ErrNoSession
	}
	return s.AccessToken, nil
}

func (a *authService) UpdateUserMetadata(ctx context.Context, data map[string]any) error {
	token, err := a.AccessToken(ctx)
	if err != nil {
		return err
	}

	user, err := a.client.UpdateUser(ctx, token, data)
	if err != nil {
		return err
	}

	s := a.Session()
	if s == nil {
		return client.ErrNoSession
	}
	s.User = user
	a.persist(ctx, s)
	a.setState(EventUserUpdated, s)
	return nil
}

// SignOut revokes the session on the backend when possible and always
// clears it locally.
func (a *authService) SignOut(ctx context.Context) error {
	if s := a.Session(); s != nil {
		if err := a.client.SignOut(ctx, s.AccessToken); err != nil {
			a.logger.Warn(ctx, "Backend sign out failed", "error", err)
		}
	}

	a.forget(ctx)
	a.setState(EventSignedOut, nil)
	a.logger.Info(ctx, "Signed out")
	return nil
}

// HandleURL consumes OAuth callback URLs. Other URLs are ignored.
func (a *authService) HandleURL(ctx context.Context, rawURL string) error {
	tokens, err := deeplink.ParseCallback(rawURL)
	if errors.Is(err, deeplink.ErrNotCallback) {
		a.logger.Debug(ctx, "Ignoring non-callback url")
		return nil
	}
	if err != nil {
		return err
	}
	return a.SetSession(ctx, tokens.AccessToken, tokens.RefreshToken)
}

// StartAutoRefresh refreshes the session whenever it is within the refresh
// margin. It blocks until ctx is done.
func (a *authService) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := a.Session()
			if s == nil || !s.Expired(a.now(), a.margin) {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			if err := a.refresh(rctx, false); err != nil {
				a.logger.Warn(ctx, "Auto refresh failed", "error", err)
			}
			cancel()

		case <-ctx.Done():
			return
		}
	}
}

func (a *authService) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *authService) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.client.Health(pctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher probes the backend every interval and switches
// Mode between online and offline. It blocks until ctx is done.
func (a *authService) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
