package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/crate/internal/forms"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login exchanges credentials for a token and stores the session locally.
//
// Missing flags are prompted for; the password is read without echo on a terminal.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	form := forms.Login{Email: strings.TrimSpace(cmd.String("email")), Password: cmd.String("password")}

	var err error
	if form.Email == "" {
		if form.Email, err = r.prompt("Email", false); err != nil {
			return err
		}
		form.Email = strings.TrimSpace(form.Email)
	}
	if form.Password == "" {
		if form.Password, err = r.prompt("Password", true); err != nil {
			return err
		}
	}

	if err := form.Validate().Err(); err != nil {
		return err
	}

	sessions, err := r.sessionStore()
	if err != nil {
		return err
	}

	r.logger.Debug("logging in", "email", form.Email)
	session, err := r.catalog.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}

	if err := sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	name := session.User.UserName
	if name == "" {
		name = session.User.Email
	}
	return r.writePlain("✓ Logged in as %s\n", name)
}

// Register creates an account. The user logs in separately afterwards.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	form := forms.Register{
		Email:    strings.TrimSpace(cmd.String("email")),
		UserName: strings.TrimSpace(cmd.String("username")),
		Password: cmd.String("password"),
	}

	var err error
	if form.Email == "" {
		if form.Email, err = r.prompt("Email", false); err != nil {
			return err
		}
		form.Email = strings.TrimSpace(form.Email)
	}
	if form.UserName == "" {
		if form.UserName, err = r.prompt("Username", false); err != nil {
			return err
		}
		form.UserName = strings.TrimSpace(form.UserName)
	}
	if form.Password == "" {
		if form.Password, err = r.prompt("Password", true); err != nil {
			return err
		}
	}

	if err := form.Validate().Err(); err != nil {
		return err
	}

	message, err := r.catalog.Register(ctx, form.Registration())
	if err != nil {
		if msg := services.ServerMessage(err); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return fmt.Errorf("%s: %w", forms.RegisterFailedMessage, err)
	}

	if message == "" {
		message = "Registration successful"
	}
	return r.writePlain("✓ %s\nRun 'crate login --email %s' to sign in.\n", message, form.Email)
}

// Logout removes the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.sessionStore()
	if err != nil {
		return err
	}

	if err := sessions.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// whoami is the JSON shape written by [Runner.WhoAmI].
type whoami struct {
	Email     string     `json:"email"`
	UserName  string     `json:"user_name"`
	Subject   string     `json:"subject,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

// WhoAmI prints the stored profile and what the token claims about itself.
//
// The token is decoded without verification; the service remains the authority on validity.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	session := sessions.Session()
	out := whoami{Email: session.User.Email, UserName: session.User.UserName}

	claims, err := sessions.Claims()
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		r.logger.Debug("token carries no readable claims", "err", err)
	case err != nil:
		return err
	default:
		out.Subject = claims.Subject
		if !claims.IssuedAt.IsZero() {
			out.IssuedAt = &claims.IssuedAt
		}
		if !claims.ExpiresAt.IsZero() {
			out.ExpiresAt = &claims.ExpiresAt
		}
		out.Expired = claims.Expired(time.Now())
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlain("User:    %s\n", out.UserName)
	r.writePlain("Email:   %s\n", out.Email)
	if out.ExpiresAt != nil {
		state := "valid"
		if out.Expired {
			state = "expired"
		}
		r.writePlain("Token:   %s until %s\n", state, out.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
