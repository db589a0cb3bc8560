package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Latte (light) and Mocha (dark).
// https://catppuccin.com/palette
const (
	latteMauve     lipgloss.Color = "#8839ef"
	latteLavender  lipgloss.Color = "#7287fd"
	latteBlue      lipgloss.Color = "#1e66f5"
	lattePink      lipgloss.Color = "#ea76cb"
	latteTeal      lipgloss.Color = "#179299"
	latteGreen     lipgloss.Color = "#40a02b"
	latteYellow    lipgloss.Color = "#df8e1d"
	latteRed       lipgloss.Color = "#d20f39"
	latteSapphire  lipgloss.Color = "#209fb5"
	latteText      lipgloss.Color = "#4c4f69"
	latteSubtext1  lipgloss.Color = "#5c5f77"
	latteOverlay1  lipgloss.Color = "#8c8fa1"
	latteSurface2  lipgloss.Color = "#acb0be"
	latteSurface0  lipgloss.Color = "#ccd0da"
	latteBase      lipgloss.Color = "#eff1f5"
	latteMantle    lipgloss.Color = "#e6e9ef"
	latteCrust     lipgloss.Color = "#dce0e8"
	latteOverlay0  lipgloss.Color = "#9ca0b0"
	latteSurface1  lipgloss.Color = "#bcc0cc"
	latteSubtext0  lipgloss.Color = "#6c6f85"
	latteRosewater lipgloss.Color = "#dc8a78"

	mochaMauve     lipgloss.Color = "#cba6f7"
	mochaLavender  lipgloss.Color = "#b4befe"
	mochaBlue      lipgloss.Color = "#89b4fa"
	mochaPink      lipgloss.Color = "#f5c2e7"
	mochaTeal      lipgloss.Color = "#94e2d5"
	mochaGreen     lipgloss.Color = "#a6e3a1"
	mochaYellow    lipgloss.Color = "#f9e2af"
	mochaRed       lipgloss.Color = "#f38ba8"
	mochaSapphire  lipgloss.Color = "#74c7ec"
	mochaText      lipgloss.Color = "#cdd6f4"
	mochaSubtext1  lipgloss.Color = "#bac2de"
	mochaOverlay1  lipgloss.Color = "#7f849c"
	mochaSurface2  lipgloss.Color = "#585b70"
	mochaSurface0  lipgloss.Color = "#313244"
	mochaBase      lipgloss.Color = "#1e1e2e"
	mochaMantle    lipgloss.Color = "#181825"
	mochaCrust     lipgloss.Color = "#11111b"
	mochaOverlay0  lipgloss.Color = "#6c7086"
	mochaSurface1  lipgloss.Color = "#45475a"
	mochaSubtext0  lipgloss.Color = "#a6adc8"
	mochaRosewater lipgloss.Color = "#f5e0dc"
)

// Palette is the full set of semantic colors for one scheme.
type Palette struct {
	Primary      lipgloss.Color
	PrimaryLight lipgloss.Color
	PrimaryDark  lipgloss.Color
	Secondary    lipgloss.Color
	Accent       lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Text          lipgloss.Color
	TextSecondary lipgloss.Color
	TextTertiary  lipgloss.Color
	TextInverse   lipgloss.Color

	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color
	Surface             lipgloss.Color
	SurfaceElevated     lipgloss.Color

	Border      lipgloss.Color
	BorderLight lipgloss.Color

	Overlay  lipgloss.Color
	Backdrop lipgloss.Color

	Tint lipgloss.Color
	Icon lipgloss.Color
}

func Light() Palette {
	return Palette{
		Primary:      latteMauve,
		PrimaryLight: latteLavender,
		PrimaryDark:  latteBlue,
		Secondary:    lattePink,
		Accent:       latteTeal,

		Success: latteGreen,
		Warning: latteYellow,
		Error:   latteRed,
		Info:    latteSapphire,

		Text:          latteText,
		TextSecondary: latteSubtext1,
		TextTertiary:  latteOverlay1,
		TextInverse:   latteBase,

		Background:          latteBase,
		BackgroundSecondary: latteMantle,
		Surface:             latteMantle,
		SurfaceElevated:     latteCrust,

		Border:      latteSurface2,
		BorderLight: latteSurface0,

		Overlay:  latteOverlay0,
		Backdrop: latteSurface1,

		Tint: latteMauve,
		Icon: latteSubtext0,
	}
}

func Dark() Palette {
	return Palette{
		Primary:      mochaMauve,
		PrimaryLight: mochaLavender,
		PrimaryDark:  mochaBlue,
		Secondary:    mochaPink,
		Accent:       mochaTeal,

		Success: mochaGreen,
		Warning: mochaYellow,
		Error:   mochaRed,
		Info:    mochaSapphire,

		Text:          mochaText,
		TextSecondary: mochaSubtext1,
		TextTertiary:  mochaOverlay1,
		TextInverse:   mochaCrust,

		Background:          mochaBase,
		BackgroundSecondary: mochaMantle,
		Surface:             mochaSurface0,
		SurfaceElevated:     mochaSurface1,

		Border:      mochaSurface2,
		BorderLight: mochaSurface0,

		Overlay:  mochaOverlay0,
		Backdrop: mochaCrust,

		Tint: mochaRosewater,
		Icon: mochaSubtext0,
	}
}

// Colors returns the palette of scheme.
func Colors(s Scheme) Palette {
	if s == SchemeDark {
		return Dark()
	}
	return Light()
}

// Key names a palette entry for ThemeColor lookups.
type Key string

const (
	KeyPrimary       Key = "primary"
	KeySecondary     Key = "secondary"
	KeyBackground    Key = "background"
	KeySurface       Key = "surface"
	KeyText          Key = "text"
	KeyTextSecondary Key = "textSecondary"
	KeyBorder        Key = "border"
	KeyTint          Key = "tint"
	KeyIcon          Key = "icon"
)

// Get returns the color stored under key.
func (p Palette) Get(key Key) (lipgloss.Color, bool) {
	switch key {
	case KeyPrimary:
		return p.Primary, true
	case KeySecondary:
		return p.Secondary, true
	case KeyBackground:
		return p.Background, true
	case KeySurface:
		return p.Surface, true
	case KeyText:
		return p.Text, true
	case KeyTextSecondary:
		return p.TextSecondary, true
	case KeyBorder:
		return p.Border, true
	case KeyTint:
		return p.Tint, true
	case KeyIcon:
		return p.Icon, true
	}
	return "", false
}

// ThemeColor picks the color for key in scheme. A per-scheme override wins
// over the palette.
func ThemeColor(scheme Scheme, override map[Scheme]lipgloss.Color, key Key) lipgloss.Color {
	if c, ok := override[scheme]; ok && c != "" {
		return c
	}
	c, _ := Colors(scheme).Get(key)
	return c
}
