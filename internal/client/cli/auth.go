package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/dmitrijs2005/devhabit/internal/client/client"
	"github.com/dmitrijs2005/devhabit/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, password and display name and creates the
// account. The server answers with a token pair, so the user is logged in
// afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Register(ctx, email, string(password), name); err != nil {
		a.report("Registration unsuccessful", err)
		return err
	}

	a.userName = email
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		a.report("Login unsuccessful", err)
		return err
	}

	a.userName = email
	a.setMode(ModeOnline)
	log.Printf("Login successful")
	return nil
}

// Refresh exchanges the stored refresh token for a new pair. A rejected
// refresh token logs the user out.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		a.report("Refresh unsuccessful", err)
		if errors.Is(err, client.ErrUnauthorized) {
			a.forget()
		}
		return err
	}

	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

// Me prints the current user's profile.
func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		a.report("Cannot load profile", err)
		if errors.Is(err, client.ErrUnauthorized) {
			a.forget()
		}
		return err
	}

	fmt.Fprintf(a.out, "ID:      %s\n", u.ID)
	fmt.Fprintf(a.out, "Email:   %s\n", u.Email)
	fmt.Fprintf(a.out, "Name:    %s\n", u.Name)
	fmt.Fprintf(a.out, "Created: %s\n", u.CreatedAtUtc.Format("2006-01-02 15:04:05"))
	if u.UpdatedAtUtc != nil {
		fmt.Fprintf(a.out, "Updated: %s\n", u.UpdatedAtUtc.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Logout forgets the token pair. The server keeps no session to close.
func (a *App) Logout(ctx context.Context) error {
	a.forget()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) forget() {
	a.api.Logout()
	a.userName = ""
}

func (a *App) report(what string, err error) {
	var pe *client.ProblemError
	switch {
	case errors.As(err, &pe) && len(pe.Errors) > 0:
		fmt.Fprintf(a.out, "%s:\n", what)
		codes := make([]string, 0, len(pe.Errors))
		for c := range pe.Errors {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			fmt.Fprintf(a.out, "  %s: %s\n", c, pe.Errors[c])
		}
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
		fmt.Fprintf(a.out, "%s: server unavailable\n", what)
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintf(a.out, "%s: unauthorized\n", what)
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintf(a.out, "%s: not logged in\n", what)
	default:
		fmt.Fprintf(a.out, "%s: %s\n", what, err.Error())
	}
}
