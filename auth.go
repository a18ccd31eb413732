package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/drivedrawers/gdrive-go/internal/identity"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google Drive in your browser",
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and revoke the saved credential",
		RunE:  runLogout,
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable credential is present",
		RunE:  runStatus,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if authed, err := sess.store.IsAuthenticated(ctx); err == nil && authed {
		statusf("Already signed in. Run 'gdrive logout' first to switch accounts.\n")

		return nil
	}

	sess.logger.Info("login started")

	if err := sess.store.Authenticate(ctx); err != nil {
		if errors.Is(err, identity.ErrAuthDenied) {
			return fmt.Errorf("sign-in was denied or canceled")
		}

		return err
	}

	sess.logger.Info("login successful")
	statusf("Login successful.\n")

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.logger.Info("logout started")

	if err := sess.store.SignOut(ctx); err != nil {
		return err
	}

	sess.logger.Info("logout successful")
	statusf("Signed out.\n")

	return nil
}

// statusOutput is the JSON schema for `status --json`.
type statusOutput struct {
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	StateDB       string `json:"state_db"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	authed, err := sess.store.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("checking credential: %w", err)
	}

	expiresAt, hasCred, err := sess.store.Expiry(ctx)
	if err != nil {
		return fmt.Errorf("checking credential: %w", err)
	}

	if flagJSON {
		out := statusOutput{
			Authenticated: authed,
			StateDB:       resolvedCfg.Auth.StateDB,
		}

		if hasCred {
			out.ExpiresAt = expiresAt.Format(time.RFC3339)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	switch {
	case authed:
		fmt.Printf("Signed in. Credential expires %s.\n", expiresAt.Local().Format(time.RFC1123))
	case hasCred:
		fmt.Println("Credential expired. Run 'gdrive login' to sign in again.")
	default:
		fmt.Println("Not signed in. Run 'gdrive login' first.")
	}

	return nil
}
