// Package credstore owns the single Credential: the bearer token plus its
// expiry instant. It is the sole authentication authority for the process.
// Every read re-derives truth from durable storage instead of trusting the
// in-memory copy, so invalidation by another surface (a second process
// clearing the slot) is observed without a push channel.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/drivedrawers/gdrive-go/internal/identity"
)

// credentialKey is the single slot used in the durable KV store.
const credentialKey = "auth_token"

// tokenTTL is the fixed validity window for a freshly granted token. The
// provider does not report an expiry for the grant, so a conservative fixed
// window is used; expiry forces a new interactive login.
const tokenTTL = time.Hour

// defaultRevokeURL is the provider's token-revocation endpoint.
const defaultRevokeURL = "https://accounts.google.com/o/oauth2/revoke"

// Credential is the persisted token-plus-expiry pair. Exactly one may be
// live at a time; it never leaves this package except as a per-call token
// string.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KV is the durable key-value storage the store persists its slot in.
// kvstore.Store provides the real implementation.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store maintains the Credential lifecycle: Unauthenticated -> Authenticated
// (interactive grant) -> Unauthenticated (sign-out or expiry). There is no
// refreshing state.
type Store struct {
	kv         KV
	idp        identity.Provider
	httpClient *http.Client
	revokeURL  string
	logger     *slog.Logger

	// now is the clock used for expiry decisions. Tests override it.
	now func() time.Time

	mu   sync.Mutex
	cred *Credential // in-memory copy, refreshed from kv on every read
}

// New creates a Store over the given durable storage and identity provider.
func New(kv KV, idp identity.Provider, httpClient *http.Client, logger *slog.Logger) *Store {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		kv:         kv,
		idp:        idp,
		httpClient: httpClient,
		revokeURL:  defaultRevokeURL,
		logger:     logger,
		now:        time.Now,
	}
}

// Initialize loads any persisted Credential into memory. A missing slot is
// normal and leaves the store unauthenticated; only storage faults fail.
func (s *Store) Initialize(ctx context.Context) error {
	cred, err := s.reload(ctx)
	if err != nil {
		return err
	}

	if cred == nil {
		s.logger.Debug("no persisted credential")
		return nil
	}

	s.logger.Debug("loaded persisted credential", slog.Time("expires_at", cred.ExpiresAt))

	return nil
}

// reload re-reads the KV slot and replaces the in-memory copy. A corrupt
// slot is indistinguishable from no credential and is treated as absent.
func (s *Store) reload(ctx context.Context) (*Credential, error) {
	raw, ok, err := s.kv.Get(ctx, credentialKey)
	if err != nil {
		return nil, fmt.Errorf("credstore: reading credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.cred = nil
		return nil, nil //nolint:nilnil // sentinel for "no credential"
	}

	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		s.logger.Warn("corrupt credential slot, treating as unauthenticated",
			slog.String("error", err.Error()),
		)

		s.cred = nil

		return nil, nil //nolint:nilnil // sentinel for "no credential"
	}

	s.cred = &cred

	return &cred, nil
}

// IsAuthenticated reports whether a Credential exists with an expiry
// strictly in the future. It re-reads durable storage first so sign-out
// from another surface is picked up.
func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	cred, err := s.reload(ctx)
	if err != nil {
		return false, err
	}

	return cred != nil && cred.ExpiresAt.After(s.now()), nil
}

// Token returns the bearer token for one authorized call. ok is false when
// no usable (present, unexpired) token exists — the ordinary
// unauthenticated case, signaled without an error.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	cred, err := s.reload(ctx)
	if err != nil {
		return "", false, err
	}

	if cred == nil || !cred.ExpiresAt.After(s.now()) {
		return "", false, nil
	}

	return cred.Token, true, nil
}

// Expiry reports the expiry instant of the persisted Credential, whether or
// not it has already passed. ok is false when no credential is stored.
func (s *Store) Expiry(ctx context.Context) (time.Time, bool, error) {
	cred, err := s.reload(ctx)
	if err != nil {
		return time.Time{}, false, err
	}

	if cred == nil {
		return time.Time{}, false, nil
	}

	return cred.ExpiresAt, true, nil
}

// Authenticate triggers the interactive grant and, on success, persists a
// Credential valid for exactly one hour from issuance.
func (s *Store) Authenticate(ctx context.Context) error {
	tok, err := s.idp.GetAuthToken(ctx, true)
	if err != nil {
		return fmt.Errorf("credstore: interactive grant: %w", err)
	}

	if tok == "" {
		return fmt.Errorf("credstore: interactive grant returned no token: %w", identity.ErrAuthDenied)
	}

	cred := &Credential{Token: tok, ExpiresAt: s.now().Add(tokenTTL)}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("credstore: encoding credential: %w", err)
	}

	if err := s.kv.Set(ctx, credentialKey, string(data)); err != nil {
		return fmt.Errorf("credstore: persisting credential: %w", err)
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.logger.Info("authenticated", slog.Time("expires_at", cred.ExpiresAt))

	return nil
}

// SignOut clears the Credential locally, then best-effort invalidates the
// cached grant and revokes the token with the provider. Only local
// invalidation failure is fatal — a clean local session is the priority
// even when the remote side is unreachable, so revocation failures are
// logged and swallowed.
func (s *Store) SignOut(ctx context.Context) error {
	cred, err := s.reload(ctx)
	if err != nil {
		return err
	}

	if err := s.kv.Remove(ctx, credentialKey); err != nil {
		return fmt.Errorf("credstore: clearing credential: %w", err)
	}

	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()

	if cred == nil {
		return nil
	}

	if err := s.idp.RemoveCachedAuthToken(ctx, cred.Token); err != nil {
		s.logger.Warn("removing cached grant failed", slog.String("error", err.Error()))
	}

	s.revoke(ctx, cred.Token)

	s.logger.Info("signed out")

	return nil
}

// revoke tells the provider to invalidate the token. Best-effort: failures
// are logged, never returned.
func (s *Store) revoke(ctx context.Context, token string) {
	revokeURL := s.revokeURL + "?token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, revokeURL, nil)
	if err != nil {
		s.logger.Warn("building revocation request failed", slog.String("error", err.Error()))
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("token revocation failed", slog.String("error", err.Error()))
		return
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Warn("token revocation rejected", slog.Int("status", resp.StatusCode))
		return
	}

	s.logger.Debug("token revoked")
}
