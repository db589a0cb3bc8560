package services

import (
	"context"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/gophstash/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

// ThemeService holds the theme preference and the palette derived from it.
// The preference survives restarts in the metadata table.
type ThemeService struct {
	repo        metadata.Repository
	defaultMode theme.Mode
	logger      logging.Logger

	detectOnce sync.Once
	detect     func() bool
	systemDark bool

	mu        sync.RWMutex
	mode      theme.Mode
	listeners []func(theme.Mode, theme.Scheme)
}

func NewThemeService(repo metadata.Repository, defaultMode theme.Mode, l logging.Logger) *ThemeService {
	if defaultMode == "" {
		defaultMode = theme.ModeSystem
	}
	return &ThemeService{
		repo:        repo,
		defaultMode: defaultMode,
		logger:      l.With("module", "theme"),
		detect:      lipgloss.HasDarkBackground,
		mode:        defaultMode,
	}
}

// SetSystemDetector replaces terminal background detection. Call it before
// the first Scheme lookup.
func (t *ThemeService) SetSystemDetector(fn func() bool) {
	t.detect = fn
}

// Load reads the stored preference. A missing or unreadable value keeps the
// configured default.
func (t *ThemeService) Load(ctx context.Context) error {
	raw, err := t.repo.Get(ctx, metadata.KeyThemeMode)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	mode, err := theme.ParseMode(string(raw))
	if err != nil {
		t.logger.Warn(ctx, "Ignoring stored theme mode", "error", err)
		return nil
	}

	t.mu.Lock()
	t.mode = mode
	t.mu.Unlock()
	return nil
}

func (t *ThemeService) Mode() theme.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func (t *ThemeService) systemIsDark() bool {
	t.detectOnce.Do(func() {
		if t.detect != nil {
			t.systemDark = t.detect()
		}
	})
	return t.systemDark
}

func (t *ThemeService) Scheme() theme.Scheme {
	mode := t.Mode()
	if mode != theme.ModeSystem {
		return theme.Resolve(mode, false)
	}
	return theme.Resolve(mode, t.systemIsDark())
}

func (t *ThemeService) Colors() theme.Palette {
	return theme.Colors(t.Scheme())
}

// Color resolves key for the current scheme; override maps a scheme to an
// explicit color that wins over the palette.
func (t *ThemeService) Color(override map[theme.Scheme]lipgloss.Color, key theme.Key) lipgloss.Color {
	return theme.ThemeColor(t.Scheme(), override, key)
}

func (t *ThemeService) Styles() theme.Styles {
	return theme.NewStyles(t.Colors())
}

// SetMode switches and stores the preference, then notifies subscribers.
func (t *ThemeService) SetMode(ctx context.Context, mode theme.Mode) error {
	if _, err := theme.ParseMode(string(mode)); err != nil {
		return err
	}
	if err := t.repo.Set(ctx, metadata.KeyThemeMode, []byte(mode)); err != nil {
		return err
	}

	t.mu.Lock()
	t.mode = mode
	listeners := append([]func(theme.Mode, theme.Scheme){}, t.listeners...)
	t.mu.Unlock()

	scheme := t.Scheme()
	for _, fn := range listeners {
		fn(mode, scheme)
	}
	t.logger.Debug(ctx, "Theme changed", "mode", string(mode), "scheme", string(scheme))
	return nil
}

// OnChange registers fn to run after every successful SetMode.
func (t *ThemeService) OnChange(fn func(theme.Mode, theme.Scheme)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}
