package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
)

var errNotLoggedIn = errors.New("not logged in")

// Profile shows the current profile. "profile edit" changes it and
// "profile pull" replaces it with the server copy.
func (a *App) Profile(ctx context.Context, args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	var (
		u   *models.User
		err error
	)
	switch sub {
	case "":
		u, err = a.session.CurrentUser(ctx)
	case "edit":
		u, err = a.editProfile(ctx)
	case "pull":
		u, err = a.profile.FetchRemoteProfile(ctx)
	default:
		return fmt.Errorf("unknown profile command %q, use edit or pull", sub)
	}
	if err != nil {
		return err
	}
	if u == nil {
		return errNotLoggedIn
	}

	fmt.Fprintln(a.out, "Name:", u.Name)
	if u.Bio != "" {
		fmt.Fprintln(a.out, "Bio:", u.Bio)
	}
	fmt.Fprintln(a.out, "Tips:", u.TipsCount)
	fmt.Fprintln(a.out, "Last sync:", formatMillis(u.LastSyncedAt))
	return nil
}

func (a *App) editProfile(ctx context.Context) (*models.User, error) {
	u, err := a.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotLoggedIn
	}

	name, err := GetSimpleText(a.reader, fmt.Sprintf("Name [%s]", u.Name), a.out)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = u.Name
	}
	bio, err := GetSimpleText(a.reader, fmt.Sprintf("Bio [%s]", u.Bio), a.out)
	if err != nil {
		return nil, err
	}
	if bio == "" {
		bio = u.Bio
	}

	return a.profile.UpdateProfile(ctx, models.ProfileFields{Name: name, Bio: bio, PhotoRef: u.PhotoRef})
}
