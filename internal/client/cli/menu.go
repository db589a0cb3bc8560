package cli

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
)

// showMenu renders the drawer: a header with the user's initials, name and
// email, the routes with the active one marked, and the sign out entry.
func (a *App) showMenu(_ context.Context, _ []string) error {
	u := a.auth.User()
	if u == nil {
		return client.ErrNoSession
	}
	st := a.styles()

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		st.Box.Render(st.Title.Render(services.Initials(u.FullName(), u.Email))),
		" ",
		lipgloss.JoinVertical(lipgloss.Left,
			st.Title.Render(services.DisplayName(u)),
			st.Subtitle.Render(u.Email),
		),
	)
	a.println(header)

	active := a.nav.Route()
	var b strings.Builder
	for _, r := range DrawerRoutes {
		if r == active {
			marker := lipgloss.NewStyle().Foreground(a.theme.Color(nil, theme.KeyTint)).Render("›")
			b.WriteString(marker + st.Selected.Render(" "+r.Title()))
		} else {
			b.WriteString(st.Text.Render("  " + r.Title()))
		}
		b.WriteString("   " + st.Muted.Render(string(r)) + "\n")
	}
	b.WriteString(st.Error.Render("  Sign Out") + "   " + st.Muted.Render("signout"))
	a.println(b.String())
	return nil
}

// openBrowser is a test seam that opens url in the system browser.
var openBrowser = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
