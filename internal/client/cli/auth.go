package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/postbox/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Register prompts for email, display name and password and creates the
// account. The password bytes are wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Register(ctx, email, string(password), name)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %s)\n", user.Email, user.ID)
	return nil
}

// Login prompts for credentials and opens a session on success.
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

	if _, err := a.client.Login(ctx, email, string(password)); err != nil {
		return err
	}

	a.setUser(email)
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout forgets the session token and wipes the local cache.
func (a *App) Logout(ctx context.Context) error {
	if err := a.posts.ClearCache(ctx); err != nil {
		return err
	}
	a.client.Logout()
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
