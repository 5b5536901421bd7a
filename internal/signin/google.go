// Package signin drives the Google account login form so Meet admits the
// bot as a signed-in user. Sign-in is best effort; callers fall back to
// joining as a guest.
package signin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/browser"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

const (
	SignInURL     = "https://accounts.google.com/signin"
	emailField    = `input[type="email"]`
	passwordField = `input[type="password"]`
)

var errStillOnSignIn = errors.New("still on sign-in page")

// Timings bound every wait in the sign-in flow.
type Timings struct {
	EmailWait    time.Duration
	AfterEmail   time.Duration
	PasswordWait time.Duration
	RedirectWait time.Duration
	PollInterval time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		EmailWait:    30 * time.Second,
		AfterEmail:   3 * time.Second,
		PasswordWait: 30 * time.Second,
		RedirectWait: 30 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}
}

type Snapshotter interface {
	Take(ctx context.Context, page browser.Page, step string)
}

type Google struct {
	Creds   meeting.Credentials
	Logger  *zap.Logger
	Snap    Snapshotter
	Timings Timings
}

func NewGoogle(creds meeting.Credentials, logger *zap.Logger, snap Snapshotter) *Google {
	return &Google{Creds: creds, Logger: logger, Snap: snap, Timings: DefaultTimings()}
}

// SignIn runs the login form and reports whether the browser ended up
// signed in. Failures are logged, never returned.
func (g *Google) SignIn(ctx context.Context, page browser.Page) bool {
	if !g.Creds.Present() {
		return false
	}
	if err := g.run(ctx, page); err != nil {
		g.snap(ctx, page, "signin_failed")
		g.Logger.Warn("google sign-in failed, continuing as guest", zap.Error(err))
		return false
	}
	g.Logger.Info("google sign-in complete")
	return true
}

func (g *Google) run(ctx context.Context, page browser.Page) error {
	if err := page.Navigate(ctx, SignInURL); err != nil {
		return fmt.Errorf("opening sign-in page: %w", err)
	}
	g.snap(ctx, page, "signin_loaded")

	if err := page.WaitVisible(ctx, emailField, g.Timings.EmailWait); err != nil {
		return fmt.Errorf("waiting for email field: %w", err)
	}
	if err := page.Input(ctx, emailField, 0, g.Creds.Email); err != nil {
		return fmt.Errorf("typing email: %w", err)
	}
	if err := page.PressEnter(ctx); err != nil {
		return fmt.Errorf("submitting email: %w", err)
	}
	g.snap(ctx, page, "signin_email")

	// The password step animates in; there is no event to wait on.
	if err := browser.Sleep(ctx, g.Timings.AfterEmail); err != nil {
		return err
	}

	if err := page.WaitVisible(ctx, passwordField, g.Timings.PasswordWait); err != nil {
		return fmt.Errorf("waiting for password field: %w", err)
	}
	if err := page.Input(ctx, passwordField, 0, g.Creds.Password); err != nil {
		return fmt.Errorf("typing password: %w", err)
	}
	if err := page.PressEnter(ctx); err != nil {
		return fmt.Errorf("submitting password: %w", err)
	}
	g.snap(ctx, page, "signin_password")

	if err := g.awaitRedirect(ctx, page); err != nil {
		return err
	}
	g.snap(ctx, page, "signin_done")
	return nil
}

// awaitRedirect polls the page URL until it leaves the sign-in path.
func (g *Google) awaitRedirect(ctx context.Context, page browser.Page) error {
	deadline := time.Now().Add(g.Timings.RedirectWait)
	for {
		u, err := page.URL(ctx)
		if err == nil && !OnSignInPage(u) {
			g.Logger.Debug("left sign-in page", zap.String("url", u))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("waiting for redirect: %w", errStillOnSignIn)
		}
		if err := browser.Sleep(ctx, g.Timings.PollInterval); err != nil {
			return err
		}
	}
}

func (g *Google) snap(ctx context.Context, page browser.Page, step string) {
	if g.Snap != nil {
		g.Snap.Take(ctx, page, step)
	}
}

// OnSignInPage reports whether u still points at the identity provider's
// sign-in flow.
func OnSignInPage(u string) bool {
	u = strings.ToLower(u)
	return strings.Contains(u, "accounts.google.com") && strings.Contains(u, "signin")
}
