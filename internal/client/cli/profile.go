package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
)

// goTo returns a command that switches the drawer route and renders it.
func (a *App) goTo(r Route) func(context.Context, []string) error {
	return func(ctx context.Context, _ []string) error {
		if err := a.nav.Navigate(r); err != nil {
			return err
		}
		if r == RouteProfile {
			return a.showProfile(ctx, nil)
		}
		return a.showHome(ctx)
	}
}

func (a *App) showProfile(_ context.Context, _ []string) error {
	u := a.auth.User()
	if u == nil {
		return client.ErrNoSession
	}
	st := a.styles()
	full := u.FullName()

	a.println(st.Box.Render(st.Title.Render(services.Initials(full, u.Email))))
	a.println(st.Title.Render(valueOr(full, "User")))
	a.println(st.Subtitle.Render(u.Email))

	a.println("")
	a.println(st.Subtitle.Render("Profile Information"))
	a.println(menuRow(st, "Display Name", valueOr(full, "Not set")))

	a.println("")
	a.println(st.Subtitle.Render("Appearance"))
	current := a.theme.Mode()
	for _, m := range theme.Modes {
		radio := "( )"
		label := st.Text.Render(modeLabel(m))
		if m == current {
			radio = "(•)"
			label = st.Selected.Render(modeLabel(m))
		}
		a.println("  " + st.Primary.Render(radio) + " " + label)
	}

	a.println("")
	a.println(st.Subtitle.Render("Account"))
	a.println(menuRow(st, "Email", u.Email))
	since := "Unknown"
	if u.CreatedAt != nil {
		since = u.CreatedAt.Local().Format(dateLayout)
	}
	a.println(menuRow(st, "Member Since", since))
	return nil
}

func menuRow(st theme.Styles, label, value string) string {
	return fmt.Sprintf("  %s  %s", st.Text.Render(label+":"), st.Muted.Render(value))
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// modeLabel renders "dark" as "Dark Mode".
func modeLabel(m theme.Mode) string {
	s := string(m)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Mode"
}

func (a *App) updateName(ctx context.Context, args []string) error {
	if err := a.profile.UpdateDisplayName(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	a.success("Profile updated successfully")
	return nil
}

// setTheme prints the current mode or switches to the given one.
func (a *App) setTheme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		names := make([]string, 0, len(theme.Modes))
		for _, m := range theme.Modes {
			names = append(names, string(m))
		}
		a.println(fmt.Sprintf("Theme: %s (%s scheme). Available: %s",
			modeLabel(a.theme.Mode()), a.theme.Scheme(), strings.Join(names, ", ")))
		return nil
	}

	mode, err := theme.ParseMode(args[0])
	if err != nil {
		return err
	}
	return a.theme.SetMode(ctx, mode)
}

// onThemeChange confirms a mode switch once it is stored.
func (a *App) onThemeChange(mode theme.Mode, _ theme.Scheme) {
	a.success("Switched to " + modeLabel(mode))
}
