package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipsync/internal/client/client"
	"github.com/dmitrijs2005/tipsync/internal/common"
)

func (a *App) credentials(args []string) (string, []byte, error) {
	userName, err := a.argOrPrompt(args, "Enter username")
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register creates an account. It does not log in.
func (a *App) Register(ctx context.Context, args []string) error {
	userName, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.session.Register(ctx, userName, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registered. Use 'login' to start.")
	return nil
}

// Login tries the server first and falls back to the cached credentials
// when it is unreachable. A successful online login pulls the profile and
// runs a sync pass.
func (a *App) Login(ctx context.Context, args []string) error {
	userName, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	_, err = a.session.OnlineLogin(ctx, userName, password)
	switch {
	case err == nil:
		a.setMode(ModeOnline)
		fmt.Fprintln(a.out, "Logged in.")
		if _, err := a.profile.FetchRemoteProfile(ctx); err != nil {
			a.logger.Warn(ctx, "profile fetch failed", "error", err)
		}
		a.syncNow(ctx)
		return nil

	case errors.Is(err, client.ErrUnavailable):
		a.logger.Info(ctx, "server unavailable, trying offline login")
		if _, err := a.session.OfflineLogin(ctx, userName, password); err != nil {
			a.setMode(ModeDisabled)
			return fmt.Errorf("offline login: %w", err)
		}
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Logged in offline. Changes will sync when the server is back.")
		return nil

	default:
		return err
	}
}

// Logout forgets the session and cached credentials. Local tips stay.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Whoami(ctx context.Context, _ []string) error {
	u, err := a.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s), mode %s\n", u.Name, u.ID, a.Mode())
	return nil
}
