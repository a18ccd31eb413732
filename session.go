package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/drivedrawers/gdrive-go/internal/credstore"
	"github.com/drivedrawers/gdrive-go/internal/drive"
	"github.com/drivedrawers/gdrive-go/internal/identity"
	"github.com/drivedrawers/gdrive-go/internal/kvstore"
)

// session bundles the wired-up credential store and Drive client for one
// CLI invocation. Close releases the underlying state database.
type session struct {
	store  *credstore.Store
	client *drive.Client
	logger *slog.Logger

	kv *kvstore.Store
}

// newSession opens the state database, loads the persisted credential, and
// builds a Drive client backed by the credential store.
func newSession(ctx context.Context) (*session, error) {
	logger := buildLogger()
	httpc := httpClient()

	kv, err := kvstore.Open(ctx, resolvedCfg.Auth.StateDB, logger)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	idp := identity.NewBrowserProvider(
		resolvedCfg.Auth.ClientID,
		resolvedCfg.Auth.Scopes,
		openBrowser,
		logger,
	)

	store := credstore.New(kv, idp, httpc, logger)
	if err := store.Initialize(ctx); err != nil {
		kv.Close()

		return nil, fmt.Errorf("loading credential: %w", err)
	}

	client := drive.NewClient(drive.DefaultBaseURL, httpc, store, logger,
		drive.WithUserAgent(resolvedCfg.Network.UserAgent),
		drive.WithTokenInViewerURL(resolvedCfg.Preview.AllowTokenInViewerURL),
	)

	return &session{
		store:  store,
		client: client,
		logger: logger,
		kv:     kv,
	}, nil
}

// Close releases the state database.
func (s *session) Close() error {
	return s.kv.Close()
}

// openBrowser launches the platform default browser at url.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
