package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/common"
)

// getSimpleText and getPassword point to the interactive input helpers and
// are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, a.out)
}

func (a *App) password(text string) (string, error) {
	pw, err := getPassword(text, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// promptEmail falls back to the email awaiting verification when the user
// just presses Enter.
func (a *App) promptEmail() (string, error) {
	a.mu.Lock()
	pending := a.pendingEmail
	a.mu.Unlock()

	text := "Enter email"
	if pending != "" {
		text = fmt.Sprintf("Enter email [%s]", pending)
	}
	email, err := a.prompt(text)
	if err != nil {
		return "", err
	}
	if email == "" {
		email = pending
	}
	return email, nil
}

func (a *App) setSession(u *client.User) {
	a.mu.Lock()
	a.user = u
	a.pendingEmail = ""
	a.mu.Unlock()
}

// Signup creates an account and remembers the email so verify can default
// to it.
func (a *App) Signup(ctx context.Context) error {
	name, err := a.prompt("Enter name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	pw, err := a.password("Enter password")
	if err != nil {
		return err
	}

	msg, err := a.api.Signup(ctx, name, email, pw)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.pendingEmail = email
	a.mu.Unlock()

	fmt.Fprintln(a.out, msg)
	return nil
}

// Verify redeems an emailed code and logs the user in.
func (a *App) Verify(ctx context.Context) error {
	email, err := a.promptEmail()
	if err != nil {
		return err
	}
	code, err := a.prompt("Enter the 6-digit code")
	if err != nil {
		return err
	}

	u, err := a.api.VerifyCode(ctx, email, code)
	if err != nil {
		return err
	}
	a.setSession(u)

	fmt.Fprintf(a.out, "Email verified. Logged in as %s\n", u.Email)
	return nil
}

// Login authenticates with email and password. An unverified account gets a
// fresh code from the server, and the CLI asks for it right away.
func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	pw, err := a.password("Enter password")
	if err != nil {
		return err
	}

	u, err := a.api.Login(ctx, email, pw)
	if errors.Is(err, client.ErrVerificationRequired) {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Email != "" {
			email = apiErr.Email
		}
		a.mu.Lock()
		a.pendingEmail = email
		a.mu.Unlock()

		fmt.Fprintln(a.out, err.Error())
		return a.Verify(ctx)
	}
	if err != nil {
		return err
	}
	a.setSession(u)

	fmt.Fprintf(a.out, "Login successful. Hello, %s\n", u.Name)
	return nil
}

func (a *App) SendCode(ctx context.Context) error {
	email, err := a.promptEmail()
	if err != nil {
		return err
	}

	ttl, err := a.api.SendCode(ctx, email)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.pendingEmail = email
	a.mu.Unlock()

	fmt.Fprintf(a.out, "Code sent. It expires in %s\n", ttl)
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}

	msg, err := a.api.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Reset sets a new password using the token from the reset link.
func (a *App) Reset(ctx context.Context) error {
	token, err := a.prompt("Enter reset token")
	if err != nil {
		return err
	}
	pw, err := a.password("Enter new password")
	if err != nil {
		return err
	}

	msg, err := a.api.ResetPassword(ctx, token, pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Me prints the logged-in account. An expired session logs the user out.
func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		a.clearSession()
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s <%s>\n  id: %s\n  active: %t  admin: %t\n  member since: %s\n",
		u.Name, u.Email, u.ID, u.IsActive, u.IsAdmin, u.CreatedAt.Format("2006-01-02"))
	return nil
}

// Logout drops the session token. Tokens are stateless, so nothing is sent
// to the server.
func (a *App) Logout(_ context.Context) error {
	a.clearSession()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) clearSession() {
	a.api.SetToken("")
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
}
