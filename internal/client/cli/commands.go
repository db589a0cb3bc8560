package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
)

// maxSuggestDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestDistance = 2

// errExit stops the REPL.
var errExit = errors.New("exit")

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	minArgs int
	run     func(ctx context.Context, args []string) error
}

func (c command) matches(name string) bool {
	if c.name == name {
		return true
	}
	for _, a := range c.aliases {
		if a == name {
			return true
		}
	}
	return false
}

// commands returns the command set of the active stack and route.
func (a *App) commands() []command {
	var cmds []command

	switch a.nav.Stack() {
	case StackAuth:
		cmds = append(cmds,
			command{name: "signin", usage: "signin", help: "sign in with email and password", run: a.signIn},
			command{name: "signup", usage: "signup", help: "create an account", run: a.signUp},
			command{name: "oauth", usage: "oauth [provider]", help: "continue with an OAuth provider (default google)", run: a.signInWithOAuth},
		)

	case StackDrawer:
		switch a.nav.Route() {
		case RouteHome:
			cmds = append(cmds,
				command{name: "ls", aliases: []string{"refresh"}, usage: "ls", help: "list your files", run: a.listFiles},
				command{name: "upload", usage: "upload <path> [name]", help: "upload a local file", minArgs: 1, run: a.upload},
				command{name: "rm", usage: "rm <name>", help: "delete a file", minArgs: 1, run: a.removeFile},
				command{name: "get", usage: "get <name> [dir]", help: "download a file (default dir: " + services.DefaultDownloadDir + ")", minArgs: 1, run: a.download},
				command{name: "url", usage: "url <name>", help: "print the public URL of a file", minArgs: 1, run: a.publicURL},
			)
		case RouteProfile:
			cmds = append(cmds,
				command{name: "show", usage: "show", help: "show your profile", run: a.showProfile},
				command{name: "name", usage: "name <display name>", help: "change your display name", minArgs: 1, run: a.updateName},
			)
		}
		cmds = append(cmds,
			command{name: "home", usage: "home", help: "go to Home", run: a.goTo(RouteHome)},
			command{name: "profile", usage: "profile", help: "go to Profile", run: a.goTo(RouteProfile)},
			command{name: "menu", usage: "menu", help: "show the drawer menu", run: a.showMenu},
			command{name: "signout", usage: "signout", help: "sign out", run: a.signOut},
		)
	}

	return append(cmds,
		command{name: "theme", usage: "theme [light|dark|system]", help: "show or change the theme", run: a.setTheme},
		command{name: "open", usage: "open <url>", help: "handle a callback URL", minArgs: 1, run: a.openURL},
		command{name: "help", usage: "help", help: "show available commands", run: a.help},
		command{name: "exit", aliases: []string{"quit"}, usage: "exit", help: "leave the program", run: a.exit},
	)
}

// dispatch runs one REPL line and reports whether the REPL should stop.
func (a *App) dispatch(ctx context.Context, line string) bool {
	parts := splitArgs(line)
	if len(parts) == 0 {
		return false
	}
	name, args := parts[0], parts[1:]

	cmds := a.commands()
	cmd, ok := findCommand(cmds, name)
	if !ok {
		msg := "Unknown command: " + name
		if s := suggest(name, cmds); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		a.println(msg)
		return false
	}

	if len(args) < cmd.minArgs {
		a.println("Usage: " + cmd.usage)
		return false
	}

	if err := cmd.run(ctx, args); err != nil {
		if errors.Is(err, errExit) {
			return true
		}
		a.alert(err)
	}
	return false
}

func findCommand(cmds []command, name string) (command, bool) {
	name = strings.ToLower(name)
	for _, c := range cmds {
		if c.matches(name) {
			return c, true
		}
	}
	return command{}, false
}

// suggest returns the closest command name within maxSuggestDistance, or "".
func suggest(name string, cmds []command) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range cmds {
		for _, candidate := range append([]string{c.name}, c.aliases...) {
			if d := levenshtein.ComputeDistance(strings.ToLower(name), candidate); d < bestDist {
				best, bestDist = c.name, d
			}
		}
	}
	return best
}

func (a *App) help(_ context.Context, _ []string) error {
	st := a.styles()
	cmds := a.commands()

	width := 0
	for _, c := range cmds {
		width = max(width, len(c.usage))
	}

	a.println(st.Subtitle.Render("Available commands:"))
	for _, c := range cmds {
		a.println(fmt.Sprintf("  %s  %s", st.Primary.Render(fmt.Sprintf("%-*s", width, c.usage)), st.Muted.Render(c.help)))
	}
	return nil
}

func (a *App) exit(_ context.Context, _ []string) error {
	a.println("Bye!")
	return errExit
}
