package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/config"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

// ---- metadata repo ----

type memRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{m: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[key], nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = append([]byte(nil), value...)
	return nil
}

func (r *memRepo) SetMany(_ context.Context, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

// ---- auth service ----

type fakeAuth struct {
	mu        sync.Mutex
	user      *models.User
	mode      services.Mode
	listeners []services.Listener

	SignInErr   error
	SignUpErr   error
	SignUpNoSes bool
	WaitErr     error
	WaitUser    *models.User
	HandleErr   error
	HandleUser  *models.User
	UpdateErr   error
	OAuthURL    string

	LastEmail    string
	LastPassword string
	LastProvider string
	LastURL      string
	LastMetadata map[string]any
	SignInCalls  int
	SignOutCalls int
}

func (f *fakeAuth) emit(ev services.AuthEvent, u *models.User) {
	f.mu.Lock()
	f.user = u
	listeners := append([]services.Listener(nil), f.listeners...)
	f.mu.Unlock()

	var s *models.Session
	if u != nil {
		s = &models.Session{AccessToken: "a", RefreshToken: "r", User: u}
	}
	for _, l := range listeners {
		l(ev, s)
	}
}

func (f *fakeAuth) Restore(context.Context) error {
	f.emit(services.EventInitialSession, f.User())
	return nil
}
func (f *fakeAuth) Loading() bool { return false }
func (f *fakeAuth) Session() *models.Session {
	if u := f.User(); u != nil {
		return &models.Session{AccessToken: "a", RefreshToken: "r", User: u}
	}
	return nil
}
func (f *fakeAuth) User() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}
func (f *fakeAuth) Mode() services.Mode { return f.mode }
func (f *fakeAuth) OnAuthStateChange(fn services.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeAuth) SignIn(_ context.Context, email string, password []byte) error {
	f.SignInCalls++
	f.LastEmail, f.LastPassword = email, string(password)
	if f.SignInErr != nil {
		return f.SignInErr
	}
	f.emit(services.EventSignedIn, &models.User{ID: "u1", Email: email})
	return nil
}

func (f *fakeAuth) SignUp(_ context.Context, email string, password []byte) (bool, error) {
	f.LastEmail, f.LastPassword = email, string(password)
	if f.SignUpErr != nil {
		return false, f.SignUpErr
	}
	if f.SignUpNoSes {
		return true, nil
	}
	f.emit(services.EventSignedIn, &models.User{ID: "u1", Email: email})
	return false, nil
}

func (f *fakeAuth) SignInWithOAuth(provider string) string {
	f.LastProvider = provider
	return f.OAuthURL
}

func (f *fakeAuth) WaitForSignIn(context.Context, time.Duration) error {
	if f.WaitErr != nil {
		return f.WaitErr
	}
	f.emit(services.EventSignedIn, f.WaitUser)
	return nil
}

func (f *fakeAuth) SetSession(context.Context, string, string) error { return nil }
func (f *fakeAuth) Refresh(context.Context) error                    { return nil }
func (f *fakeAuth) AccessToken(context.Context) (string, error)      { return "a", nil }

func (f *fakeAuth) UpdateUserMetadata(_ context.Context, data map[string]any) error {
	f.LastMetadata = data
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	u := *f.User()
	u.UserMetadata = data
	f.emit(services.EventUserUpdated, &u)
	return nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.SignOutCalls++
	f.emit(services.EventSignedOut, nil)
	return nil
}

func (f *fakeAuth) HandleURL(_ context.Context, rawURL string) error {
	f.LastURL = rawURL
	if f.HandleErr != nil {
		return f.HandleErr
	}
	if f.HandleUser != nil {
		f.emit(services.EventSignedIn, f.HandleUser)
	}
	return nil
}

func (f *fakeAuth) StartAutoRefresh(ctx context.Context, _ time.Duration) { <-ctx.Done() }
func (f *fakeAuth) StartOnlineStatusWatcher(ctx context.Context, _ time.Duration) {
	<-ctx.Done()
}

// ---- file service ----

type fakeFiles struct {
	Items []models.FileItem

	ListErr     error
	UploadErr   error
	RemoveErr   error
	DownloadErr error

	ListCalls      int
	LastUploadPath string
	LastUploadName string
	LastRemoved    string
	LastDownload   models.FileItem
	LastDir        string
}

func (f *fakeFiles) List(context.Context) ([]models.FileItem, error) {
	f.ListCalls++
	if f.ListErr != nil {
		return []models.FileItem{}, f.ListErr
	}
	return f.Items, nil
}

func (f *fakeFiles) Upload(_ context.Context, localPath, name string) error {
	f.LastUploadPath, f.LastUploadName = localPath, name
	return f.UploadErr
}

func (f *fakeFiles) Remove(_ context.Context, name string) error {
	f.LastRemoved = name
	return f.RemoveErr
}

func (f *fakeFiles) Download(_ context.Context, item models.FileItem, dir string) (string, error) {
	f.LastDownload, f.LastDir = item, dir
	if f.DownloadErr != nil {
		return "", f.DownloadErr
	}
	return "/tmp/" + item.Name, nil
}

// ---- app ----

type testApp struct {
	*App
	auth  *fakeAuth
	files *fakeFiles
	repo  *memRepo
	out   *bytes.Buffer
}

// newTestApp builds an App over fakes. input feeds prompts and the REPL.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	origTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origTerm })

	fa := &fakeAuth{mode: services.ModeOnline}
	ff := &fakeFiles{}
	repo := newMemRepo()
	ts := services.NewThemeService(repo, theme.ModeSystem, logging.Nop())
	ts.SetSystemDetector(func() bool { return false })

	var out bytes.Buffer
	a := &App{
		config:  &config.Config{OAuthTimeout: time.Second},
		logger:  logging.Nop(),
		auth:    fa,
		files:   ff,
		profile: services.NewProfileService(fa),
		theme:   ts,
		nav:     NewNavigator(),
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     &out,
	}
	fa.OnAuthStateChange(a.onAuthEvent)
	ts.OnChange(a.onThemeChange)

	return &testApp{App: a, auth: fa, files: ff, repo: repo, out: &out}
}

// signedIn puts the app on the drawer as alice.
func (ta *testApp) signedIn() *testApp {
	ta.auth.emit(services.EventInitialSession, &models.User{ID: "u1", Email: "alice@example.com"})
	ta.out.Reset()
	return ta
}

// signedOut puts the app on the auth stack.
func (ta *testApp) signedOut() *testApp {
	ta.auth.emit(services.EventInitialSession, nil)
	ta.out.Reset()
	return ta
}

func (ta *testApp) run(line string) bool {
	return ta.dispatch(context.Background(), line)
}

// shortTempDir keeps unix socket paths under the platform length limit.
func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "gscli")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// newPipeReader returns a reader fed by the returned writer.
func newPipeReader(t *testing.T) (*bufio.Reader, *io.PipeWriter) {
	t.Helper()
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	return bufio.NewReader(pr), pw
}
