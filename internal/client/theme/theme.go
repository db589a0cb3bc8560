// Package theme holds the light and dark terminal palettes and the styles
// derived from them.
package theme

import (
	"fmt"
	"strings"
)

// Mode is the user's preference.
type Mode string

const (
	ModeLight  Mode = "light"
	ModeDark   Mode = "dark"
	ModeSystem Mode = "system"
)

// Scheme is the effective color scheme once ModeSystem is resolved.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeLight, ModeDark, ModeSystem}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLight, ModeDark, ModeSystem:
		return m, nil
	}
	return "", fmt.Errorf("unknown theme mode %q (want light, dark or system)", s)
}

// Resolve maps mode to a scheme; systemDark is consulted only for ModeSystem.
func Resolve(mode Mode, systemDark bool) Scheme {
	switch mode {
	case ModeLight:
		return SchemeLight
	case ModeDark:
		return SchemeDark
	}
	if systemDark {
		return SchemeDark
	}
	return SchemeLight
}
