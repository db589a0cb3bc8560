package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/deeplink"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, svc *authService, s *models.Session) {
	t.Helper()
	require.NoError(t, svc.store.Save(context.Background(), s))
}

func TestRestore_NoSession(t *testing.T) {
	svc, _, events := newTestAuth(t, &fakeClient{})
	require.True(t, svc.Loading())

	require.NoError(t, svc.Restore(context.Background()))

	assert.False(t, svc.Loading())
	assert.Nil(t, svc.Session())
	assert.Nil(t, svc.User())
	assert.Equal(t, []AuthEvent{EventInitialSession}, events.get())
}

func TestRestore_ValidSessionNoRefresh(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newTestAuth(t, fc)
	seedSession(t, svc, validSession("a1", "r1"))

	require.NoError(t, svc.Restore(context.Background()))

	require.NotNil(t, svc.User())
	assert.Equal(t, "ada@example.com", svc.User().Email)
	assert.Equal(t, 0, fc.RefreshCalls)
}

func TestRestore_ExpiredSessionIsRefreshed(t *testing.T) {
	fc := &fakeClient{RefreshRet: &models.Session{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: testNow.Add(time.Hour).Unix()}}
	svc, _, _ := newTestAuth(t, fc)
	seedSession(t, svc, expiredSession("a1", "r1"))

	require.NoError(t, svc.Restore(context.Background()))

	assert.Equal(t, "r1", fc.LastRefreshToken)
	s := svc.Session()
	require.NotNil(t, s)
	assert.Equal(t, "a2", s.AccessToken)
	require.NotNil(t, s.User, "user is carried over from the stored session")

	stored, err := svc.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", stored.AccessToken)
}

func TestRestore_RejectedSessionIsCleared(t *testing.T) {
	fc := &fakeClient{RefreshErr: fmt.Errorf("%w: gone", client.ErrSessionExpired)}
	svc, _, _ := newTestAuth(t, fc)
	seedSession(t, svc, expiredSession("a1", "r1"))

	require.NoError(t, svc.Restore(context.Background()))

	assert.Nil(t, svc.Session())
	stored, err := svc.store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRestore_OfflineKeepsSession(t *testing.T) {
	fc := &fakeClient{RefreshErr: fmt.Errorf("%w: dial", client.ErrUnavailable)}
	svc, _, _ := newTestAuth(t, fc)
	seedSession(t, svc, expiredSession("a1", "r1"))

	require.NoError(t, svc.Restore(context.Background()))

	require.NotNil(t, svc.Session())
	assert.Equal(t, "a1", svc.Session().AccessToken)
}

func TestRestore_StoreErrorReadsAsSignedOut(t *testing.T) {
	svc, repo, events := newTestAuth(t, &fakeClient{})
	repo.GetErr = errors.New("disk")

	require.NoError(t, svc.Restore(context.Background()))
	assert.Nil(t, svc.Session())
	assert.Equal(t, []AuthEvent{EventInitialSession}, events.get())
}

func TestSignIn_EmptyFields(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newTestAuth(t, fc)

	require.ErrorIs(t, svc.SignIn(context.Background(), "  ", []byte("pw")), common.ErrInvalidInput)
	require.ErrorIs(t, svc.SignIn(context.Background(), "a@b.c", nil), common.ErrInvalidInput)
	assert.Equal(t, 0, fc.SignInCalls)
}

func TestSignIn_Success(t *testing.T) {
	fc := &fakeClient{SignInRet: validSession("a1", "r1")}
	svc, _, events := newTestAuth(t, fc)

	require.NoError(t, svc.SignIn(context.Background(), " ada@example.com ", []byte("pw")))

	assert.Equal(t, "ada@example.com", svc.User().Email)
	assert.Equal(t, []AuthEvent{EventSignedIn}, events.get())

	stored, err := svc.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.AccessToken)
}

func TestSignIn_BackendError(t *testing.T) {
	fc := &fakeClient{SignInErr: &client.APIError{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}}
	svc, _, events := newTestAuth(t, fc)

	err := svc.SignIn(context.Background(), "ada@example.com", []byte("bad"))
	require.ErrorIs(t, err, client.ErrInvalidCredentials)
	assert.Nil(t, svc.Session())
	assert.Empty(t, events.get())
}

func TestSignUp(t *testing.T) {
	fc := &fakeClient{SignUpUser: testUser()}
	svc, _, events := newTestAuth(t, fc)

	confirm, err := svc.SignUp(context.Background(), "ada@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.True(t, confirm)
	assert.Nil(t, svc.Session())
	assert.Equal(t, "gophstash://auth/callback", fc.LastRedirect)

	fc.SignUpSession = validSession("a1", "r1")
	confirm, err = svc.SignUp(context.Background(), "ada@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.False(t, confirm)
	assert.NotNil(t, svc.User())
	assert.Equal(t, []AuthEvent{EventSignedIn}, events.get())

	_, err = svc.SignUp(context.Background(), "", []byte("pw"))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSignInWithOAuth(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	assert.Equal(t, "https://backend/auth/v1/authorize?provider=google&redirect_to=gophstash://auth/callback", svc.SignInWithOAuth(""))
	assert.Contains(t, svc.SignInWithOAuth("github"), "provider=github")
}

func TestSetSession_LoadsUser(t *testing.T) {
	fc := &fakeClient{GetUserRet: testUser()}
	svc, _, events := newTestAuth(t, fc)
	exp := testNow.Add(time.Hour)
	access := signedToken(t, exp)

	require.NoError(t, svc.SetSession(context.Background(), access, "r1"))

	s := svc.Session()
	require.NotNil(t, s)
	assert.Equal(t, access, fc.LastAccessToken)
	assert.Equal(t, exp.Unix(), s.ExpiresAt)
	assert.Equal(t, "r1", s.RefreshToken)
	assert.Equal(t, []AuthEvent{EventSignedIn}, events.get())
	assert.Equal(t, 0, fc.RefreshCalls)
}

func TestSetSession_ExpiredAccessTokenRefreshes(t *testing.T) {
	fc := &fakeClient{RefreshRet: validSession("a2", "r2")}
	svc, _, _ := newTestAuth(t, fc)

	require.NoError(t, svc.SetSession(context.Background(), signedToken(t, testNow.Add(-time.Second)), "r1"))

	assert.Equal(t, 1, fc.RefreshCalls)
	assert.Equal(t, 0, fc.GetUserCalls)
	assert.Equal(t, "a2", svc.Session().AccessToken)
}

func TestSetSession_Invalid(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	require.ErrorIs(t, svc.SetSession(context.Background(), "", "r"), common.ErrInvalidInput)
	require.ErrorIs(t, svc.SetSession(context.Background(), "not-a-jwt", "r"), client.ErrInvalidToken)
}

func TestHandleURL(t *testing.T) {
	fc := &fakeClient{GetUserRet: testUser()}
	svc, _, events := newTestAuth(t, fc)
	ctx := context.Background()

	require.NoError(t, svc.HandleURL(ctx, "gophstash://settings"))
	assert.Empty(t, events.get())

	err := svc.HandleURL(ctx, "gophstash://auth/callback#access_token=x")
	require.ErrorIs(t, err, deeplink.ErrMissingTokens)

	access := signedToken(t, testNow.Add(time.Hour))
	require.NoError(t, svc.HandleURL(ctx, "gophstash://auth/callback#access_token="+access+"&refresh_token=r1&token_type=bearer"))
	assert.Equal(t, []AuthEvent{EventSignedIn}, events.get())
	assert.Equal(t, access, svc.Session().AccessToken)
}

func TestAccessToken(t *testing.T) {
	fc := &fakeClient{RefreshRet: &models.Session{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: testNow.Add(time.Hour).Unix()}}
	svc, _, events := newTestAuth(t, fc)
	ctx := context.Background()

	_, err := svc.AccessToken(ctx)
	require.ErrorIs(t, err, client.ErrNoSession)

	svc.setState(EventSignedIn, validSession("a1", "r1"))
	tok, err := svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", tok)
	assert.Equal(t, 0, fc.RefreshCalls)

	// Within the refresh margin.
	s := validSession("a1", "r1")
	s.ExpiresAt = testNow.Add(30 * time.Second).Unix()
	svc.setState(EventSignedIn, s)

	tok, err = svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", tok)
	assert.Equal(t, 1, fc.RefreshCalls)
	assert.Equal(t, "ada@example.com", svc.User().Email)
	assert.Equal(t, EventTokenRefreshed, events.get()[len(events.get())-1])
}

func TestRefresh_RejectedSignsOut(t *testing.T) {
	fc := &fakeClient{RefreshErr: fmt.Errorf("%w: used", client.ErrSessionExpired)}
	svc, _, events := newTestAuth(t, fc)
	ctx := context.Background()
	svc.setState(EventSignedIn, validSession("a1", "r1"))
	seedSession(t, svc, validSession("a1", "r1"))

	err := svc.Refresh(ctx)
	require.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Nil(t, svc.Session())
	assert.Equal(t, []AuthEvent{EventSignedIn, EventSignedOut}, events.get())

	stored, err := svc.store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRefresh_TransientErrorKeepsSession(t *testing.T) {
	fc := &fakeClient{RefreshErr: client.ErrUnavailable}
	svc, _, _ := newTestAuth(t, fc)
	svc.setState(EventSignedIn, validSession("a1", "r1"))

	svc.setMode(context.Background(), ModeOnline)

	require.ErrorIs(t, svc.Refresh(context.Background()), client.ErrUnavailable)
	assert.NotNil(t, svc.Session())
	assert.Equal(t, ModeOffline, svc.Mode())
}

func TestUpdateUserMetadata(t *testing.T) {
	fc := &fakeClient{}
	svc, _, events := newTestAuth(t, fc)
	ctx := context.Background()

	require.ErrorIs(t, svc.UpdateUserMetadata(ctx, map[string]any{"full_name": "x"}), client.ErrNoSession)

	svc.setState(EventSignedIn, validSession("a1", "r1"))
	require.NoError(t, svc.UpdateUserMetadata(ctx, map[string]any{models.FullNameKey: "Ada Lovelace"}))

	assert.Equal(t, "a1", fc.LastAccessToken)
	assert.Equal(t, "Ada Lovelace", svc.User().FullName())
	assert.Equal(t, EventUserUpdated, events.get()[len(events.get())-1])

	stored, err := svc.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.User.FullName())
}

func TestSignOut_ClearsEvenWhenBackendFails(t *testing.T) {
	fc := &fakeClient{SignOutErr: client.ErrUnavailable}
	svc, _, events := newTestAuth(t, fc)
	ctx := context.Background()
	svc.setState(EventSignedIn, validSession("a1", "r1"))
	seedSession(t, svc, validSession("a1", "r1"))

	require.NoError(t, svc.SignOut(ctx))

	assert.Equal(t, 1, fc.SignOutCalls)
	assert.Nil(t, svc.Session())
	assert.Equal(t, []AuthEvent{EventSignedIn, EventSignedOut}, events.get())
	stored, err := svc.store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestOnAuthStateChange_Unsubscribe(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	calls := 0
	unsubscribe := svc.OnAuthStateChange(func(AuthEvent, *models.Session) { calls++ })

	svc.setState(EventSignedIn, validSession("a", "r"))
	unsubscribe()
	svc.setState(EventSignedOut, nil)

	assert.Equal(t, 1, calls)
}

func TestListenerGetsACopy(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	svc.OnAuthStateChange(func(_ AuthEvent, s *models.Session) {
		if s != nil {
			s.AccessToken = "mutated"
		}
	})
	svc.setState(EventSignedIn, validSession("a", "r"))
	assert.Equal(t, "a", svc.Session().AccessToken)
}

func TestWaitForSignIn_Event(t *testing.T) {
	fc := &fakeClient{GetUserRet: testUser()}
	svc, _, _ := newTestAuth(t, fc)
	access := signedToken(t, testNow.Add(time.Hour))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = svc.SetSession(context.Background(), access, "r1")
	}()

	require.NoError(t, svc.WaitForSignIn(context.Background(), 2*time.Second))
	assert.NotNil(t, svc.User())
}

func TestWaitForSignIn_AlreadySignedIn(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	svc.setState(EventSignedIn, validSession("a1", "r1"))

	require.NoError(t, svc.WaitForSignIn(context.Background(), time.Minute))

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Empty(t, svc.listeners)
}

func TestWaitForSignIn_ConcurrentSignInIsNeverMissed(t *testing.T) {
	for i := 0; i < 50; i++ {
		svc, _, _ := newTestAuth(t, &fakeClient{})

		result := make(chan error, 1)
		go func() { result <- svc.WaitForSignIn(context.Background(), time.Minute) }()
		svc.setState(EventSignedIn, validSession("a1", "r1"))

		select {
		case err := <-result:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: sign-in was missed", i)
		}
	}
}

func TestWaitForSignIn_TimeoutWithoutSession(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	err := svc.WaitForSignIn(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrOAuthTimeout)
}

func TestWaitForSignIn_TimeoutFallsBackToStoredSession(t *testing.T) {
	fc := &fakeClient{RefreshRet: &models.Session{AccessToken: "a2", RefreshToken: "r2"}}
	svc, _, events := newTestAuth(t, fc)
	seedSession(t, svc, validSession("a1", "r1"))

	require.NoError(t, svc.WaitForSignIn(context.Background(), 10*time.Millisecond))
	assert.Equal(t, "r1", fc.LastRefreshToken)
	assert.Equal(t, "ada@example.com", svc.User().Email)
	assert.Equal(t, []AuthEvent{EventSignedIn}, events.get())
}

func TestWaitForSignIn_ContextCanceled(t *testing.T) {
	svc, _, _ := newTestAuth(t, &fakeClient{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.WaitForSignIn(ctx, time.Minute), context.Canceled)
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newTestAuth(t, fc)
	assert.Equal(t, ModeDisabled, svc.Mode())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return svc.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)
	fc.setHealth(client.ErrUnavailable)
	require.Eventually(t, func() bool { return svc.Mode() == ModeOffline }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after context cancel")
	}
}

func TestStartAutoRefresh(t *testing.T) {
	fc := &fakeClient{RefreshRet: validSession("a2", "r2")}
	svc, _, _ := newTestAuth(t, fc)
	svc.setState(EventSignedIn, expiredSession("a1", "r1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartAutoRefresh(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		s := svc.Session()
		return s != nil && s.AccessToken == "a2"
	}, time.Second, 5*time.Millisecond)
}
