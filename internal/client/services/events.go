package services

import (
	"github.com/dmitrijs2005/gophstash/internal/client/models"
)

// AuthEvent names a change of the auth state.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// Listener receives auth events. session is nil after sign out.
type Listener func(event AuthEvent, session *models.Session)

// Mode is the backend connectivity state.
type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)
