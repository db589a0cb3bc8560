package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/config"
	"github.com/dmitrijs2005/gophstash/internal/client/deeplink"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/client/storage"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

// autoRefreshInterval is how often the session expiry is checked.
const autoRefreshInterval = 15 * time.Second

// App is the root shell: it owns the services, the background servers and
// the REPL.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	auth    services.AuthService
	files   services.FileService
	profile *services.ProfileService
	theme   *services.ThemeService

	deeplink *deeplink.Server
	callback *deeplink.CallbackServer

	nav    *Navigator
	reader *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	itemsMu sync.Mutex
	items   []models.FileItem
}

// NewApp opens the local database and builds the clients and services.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		l.Error(ctx, "Error initializing database", "error", err)
		return nil, err
	}

	st, err := storage.New(ctx, c.StorageOptions())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mode, err := theme.ParseMode(c.ThemeMode)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api := client.NewRESTClient(c.BackendURL, c.AnonKey, c.RequestTimeout)
	repo := metadata.NewSQLiteRepository(db)
	store := services.NewSessionStore(repo, c.SessionPassphrase, l)
	auth := services.NewAuthService(api, store, services.AuthOptions{
		RedirectURL:   c.RedirectURL(),
		RefreshMargin: c.RefreshMargin,
	}, l)

	a := &App{
		config:  c,
		logger:  l.With("module", "cli"),
		db:      db,
		auth:    auth,
		files:   services.NewFileService(auth, st, &http.Client{}, l),
		profile: services.NewProfileService(auth),
		theme:   services.NewThemeService(repo, mode, l),
		nav:     NewNavigator(),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	a.deeplink = deeplink.NewServer(c.DeepLinkAddr, deeplink.HandlerFunc(a.handleURL), l)
	if c.CallbackAddr != "" {
		a.callback = deeplink.NewCallbackServer(c.CallbackAddr, deeplink.HandlerFunc(a.handleURL), l)
	}
	return a, nil
}

// Run restores the session, starts the background workers and blocks in
// the REPL until the user exits or ctx is done. initialURL is the callback
// URL the program was launched with, if any.
func (a *App) Run(ctx context.Context, initialURL string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.db != nil {
		defer a.db.Close()
	}

	a.auth.OnAuthStateChange(a.onAuthEvent)
	a.theme.OnChange(a.onThemeChange)

	if err := a.theme.Load(ctx); err != nil {
		a.logger.Warn(ctx, "Failed to load theme preference", "error", err)
	}
	if err := a.auth.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var wg sync.WaitGroup
	a.startBackground(ctx, &wg)

	if initialURL != "" {
		if err := a.handleURL(ctx, initialURL); err != nil {
			a.alert(err)
		}
	}

	a.println(a.styles().Title.Render("Welcome to gophstash") + " (type 'help' for commands)")
	if a.auth.User() != nil {
		if err := a.showHome(ctx); err != nil {
			a.alert(err)
		}
	}

	runREPL(ctx, a, a.reader, a.out)

	cancel()
	wg.Wait()
	return nil
}

func (a *App) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	if a.deeplink != nil {
		if err := a.deeplink.Listen(); err != nil {
			if errors.Is(err, deeplink.ErrAlreadyRunning) {
				a.logger.Warn(ctx, "Another instance owns the deep link socket; callbacks will go there")
			} else {
				a.logger.Warn(ctx, "Deep link listener disabled", "error", err)
			}
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := a.deeplink.Serve(ctx); err != nil {
					a.logger.Error(ctx, "Deep link server failed", "error", err)
				}
			}()
		}
	}

	if a.callback != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.callback.Run(ctx); err != nil {
				a.logger.Error(ctx, "Callback server failed", "error", err)
			}
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.auth.StartAutoRefresh(ctx, autoRefreshInterval)
	}()
	go func() {
		defer wg.Done()
		a.auth.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()
}

// handleURL is the deep-link entry point for forwarded, loopback and
// initial URLs.
func (a *App) handleURL(ctx context.Context, rawURL string) error {
	a.logger.Debug(ctx, "Handling url")
	return a.auth.HandleURL(ctx, rawURL)
}

// onAuthEvent rebuilds the navigator. It may run on a background goroutine.
func (a *App) onAuthEvent(ev services.AuthEvent, s *models.Session) {
	signedIn := s != nil && s.User != nil
	a.nav.Rebuild(ev, signedIn)

	switch ev {
	case services.EventSignedIn:
		a.setItems(nil)
		if signedIn {
			a.println(a.styles().Success.Render("Signed in as " + s.User.Email))
		}
	case services.EventSignedOut:
		a.setItems(nil)
		a.println("Signed out")
	}
}

func (a *App) prompt() string {
	who := "guest"
	if u := a.auth.User(); u != nil && u.Email != "" {
		who = u.Email
	}
	return fmt.Sprintf("gophstash (%s %s) [%s]> ", who, a.auth.Mode(), a.nav.Location())
}

func (a *App) styles() theme.Styles {
	return a.theme.Styles()
}

func (a *App) println(s string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, s)
}

// alert shows err as a blocking error line.
func (a *App) alert(err error) {
	a.println(a.styles().Error.Render("Error:") + " " + userMessage(err))
}

func (a *App) success(msg string) {
	a.println(a.styles().Success.Render(msg))
}

// userMessage turns err into the text shown to the user.
func userMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Unknown error"
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

func (a *App) setItems(items []models.FileItem) {
	a.itemsMu.Lock()
	defer a.itemsMu.Unlock()
	a.items = items
}
