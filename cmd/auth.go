package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// AuthLogin signs in against the Chorus backend and persists the token pair.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	password := cmd.String("password")
	if password == "" {
		r.writePlain("password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return fmt.Errorf("%w: password", shared.ErrMissingCredentials)
	}

	r.logger.Info("signing in", "username", username)

	user, err := r.api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, shared.ErrAuthFailed) {
			return fmt.Errorf("%w: check username and password", shared.ErrAuthFailed)
		}
		return err
	}

	return r.writePlain("✓ Signed in as %s\n", user.Username)
}

// AuthLogout discards the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.api.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	r.logger.Info("session cleared")
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the signed-in user, if any.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	user, err := r.tokens.User()
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not signed in\nRun 'chorus auth login <username>' first\n")
		}
		return err
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("User: %s (%s)\n", user.Username, user.ID)
	return nil
}
