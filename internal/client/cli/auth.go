package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

// readCredentials prompts for email and password. Empty values yield
// common.ErrInvalidInput before any network call.
func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return "", nil, err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}

	if strings.TrimSpace(email) == "" || len(password) == 0 {
		common.WipeByteArray(password)
		return "", nil, common.ErrInvalidInput
	}
	return email, password, nil
}

// signIn prompts for credentials and signs in. The navigator switches to
// the drawer through the SIGNED_IN event.
func (a *App) signIn(ctx context.Context, _ []string) error {
	st := a.styles()
	a.println(st.Title.Render("Welcome Back"))
	a.println(st.Subtitle.Render("Sign in to your account"))

	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.SignIn(ctx, email, password); err != nil {
		return err
	}
	return a.showHome(ctx)
}

// signUp creates an account. Projects that require email confirmation
// issue no session until the link is followed.
func (a *App) signUp(ctx context.Context, _ []string) error {
	st := a.styles()
	a.println(st.Title.Render("Create Account"))
	a.println(st.Subtitle.Render("Sign up to get started with your account"))

	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirmationRequired, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	if confirmationRequired {
		a.success("Check your email for verification link")
		return nil
	}
	return a.showHome(ctx)
}

// signInWithOAuth prints the provider URL, tries to open the browser and
// waits for the callback to deliver a session.
func (a *App) signInWithOAuth(ctx context.Context, args []string) error {
	provider := services.DefaultOAuthProvider
	if len(args) > 0 {
		provider = strings.ToLower(args[0])
	}

	authURL := a.auth.SignInWithOAuth(provider)
	a.println("Continue with " + provider + " in your browser:")
	a.println(a.styles().Primary.Render(authURL))

	if err := openBrowser(authURL); err != nil {
		a.logger.Debug(ctx, "Could not open browser", "error", err)
		a.println("Open the link above manually.")
	}
	a.println(a.styles().Muted.Render("Waiting for sign in to complete..."))

	if err := a.auth.WaitForSignIn(ctx, a.config.OAuthTimeout); err != nil {
		return fmt.Errorf("failed to sign in with %s: %w", provider, err)
	}
	return a.showHome(ctx)
}

// openURL handles a callback URL pasted by the user.
func (a *App) openURL(ctx context.Context, args []string) error {
	signedIn := a.auth.User() != nil
	if err := a.handleURL(ctx, args[0]); err != nil {
		return err
	}
	if !signedIn && a.auth.User() != nil {
		return a.showHome(ctx)
	}
	return nil
}

func (a *App) signOut(ctx context.Context, _ []string) error {
	ok, err := confirm(a.reader, "Sign Out: Are you sure you want to sign out?", a.out)
	if err != nil || !ok {
		return err
	}
	return a.auth.SignOut(ctx)
}
