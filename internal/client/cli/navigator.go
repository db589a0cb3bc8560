package cli

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophstash/internal/client/services"
)

// Stack is the set of screens available in the current auth state.
type Stack string

const (
	// StackLoading is active until the stored session has been restored.
	StackLoading Stack = "loading"
	StackAuth    Stack = "auth"
	StackDrawer  Stack = "drawer"
)

// Route is a drawer destination.
type Route string

const (
	RouteHome    Route = "home"
	RouteProfile Route = "profile"
)

// DrawerRoutes are listed in the drawer menu in this order.
var DrawerRoutes = []Route{RouteHome, RouteProfile}

// Title is the menu label of the route.
func (r Route) Title() string {
	switch r {
	case RouteHome:
		return "Home"
	case RouteProfile:
		return "Profile"
	}
	return string(r)
}

// Navigator decides which command set the REPL offers. It is rebuilt from
// every auth event: without a user the auth stack is active, with one the
// drawer is, and the drawer remembers its current route.
type Navigator struct {
	mu    sync.RWMutex
	stack Stack
	route Route
}

func NewNavigator() *Navigator {
	return &Navigator{stack: StackLoading, route: RouteHome}
}

// Rebuild applies an auth event and reports whether the stack changed.
func (n *Navigator) Rebuild(ev services.AuthEvent, signedIn bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.stack
	if !signedIn {
		n.stack = StackAuth
		n.route = RouteHome
		return prev != n.stack
	}

	n.stack = StackDrawer
	if ev == services.EventSignedIn || prev != StackDrawer {
		n.route = RouteHome
	}
	return prev != n.stack
}

func (n *Navigator) Stack() Stack {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stack
}

func (n *Navigator) Route() Route {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.route
}

// Navigate switches the drawer route.
func (n *Navigator) Navigate(r Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stack != StackDrawer {
		return fmt.Errorf("cannot open %s before signing in", r)
	}
	switch r {
	case RouteHome, RouteProfile:
		n.route = r
		return nil
	}
	return fmt.Errorf("unknown route %q", r)
}

// Location names the screen shown in the prompt.
func (n *Navigator) Location() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.stack == StackDrawer {
		return string(n.route)
	}
	return string(n.stack)
}
