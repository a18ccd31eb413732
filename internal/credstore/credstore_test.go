package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivedrawers/gdrive-go/internal/identity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeKV is an in-memory KV with injectable failures.
type fakeKV struct {
	mu        sync.Mutex
	data      map[string]string
	getErr    error
	setErr    error
	removeErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return "", false, f.getErr
	}

	v, ok := f.data[key]

	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.data[key] = value

	return nil
}

func (f *fakeKV) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}

	delete(f.data, key)

	return nil
}

// fakeProvider returns a canned token (or error) for interactive grants and
// records cache removals.
type fakeProvider struct {
	token     string
	grantErr  error
	removed   []string
	removeErr error
}

func (f *fakeProvider) GetAuthToken(_ context.Context, interactive bool) (string, error) {
	if !interactive {
		return "", identity.ErrAuthDenied
	}

	if f.grantErr != nil {
		return "", f.grantErr
	}

	return f.token, nil
}

func (f *fakeProvider) RemoveCachedAuthToken(_ context.Context, token string) error {
	f.removed = append(f.removed, token)
	return f.removeErr
}

func newTestStore(kv KV, idp identity.Provider, at time.Time) *Store {
	s := New(kv, idp, http.DefaultClient, testLogger())
	s.now = func() time.Time { return at }

	return s
}

func seedCredential(t *testing.T, kv *fakeKV, token string, expiresAt time.Time) {
	t.Helper()

	data, err := json.Marshal(Credential{Token: token, ExpiresAt: expiresAt})
	require.NoError(t, err)

	kv.data[credentialKey] = string(data)
}

func TestInitialize_AbsentCredentialIsNormal(t *testing.T) {
	s := newTestStore(newFakeKV(), &fakeProvider{}, time.Now())

	assert.NoError(t, s.Initialize(context.Background()))

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthenticated_ExpiredCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	seedCredential(t, kv, "tok", now.Add(-time.Minute))

	s := newTestStore(kv, &fakeProvider{}, now)

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	tok, usable, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.False(t, usable)
	assert.Empty(t, tok)
}

func TestIsAuthenticated_ExpiryExactlyNowIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	seedCredential(t, kv, "tok", now)

	s := newTestStore(kv, &fakeProvider{}, now)

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToken_ValidCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	seedCredential(t, kv, "usable-token", now.Add(30*time.Minute))

	s := newTestStore(kv, &fakeProvider{}, now)

	tok, usable, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, usable)
	assert.Equal(t, "usable-token", tok)
}

func TestAuthenticate_FixedOneHourWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	s := newTestStore(kv, &fakeProvider{token: "fresh-token"}, now)

	require.NoError(t, s.Authenticate(context.Background()))

	var cred Credential
	require.NoError(t, json.Unmarshal([]byte(kv.data[credentialKey]), &cred))
	assert.Equal(t, "fresh-token", cred.Token)
	assert.True(t, cred.ExpiresAt.Equal(now.Add(3600*time.Second)))

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthenticate_Denied(t *testing.T) {
	kv := newFakeKV()
	s := newTestStore(kv, &fakeProvider{grantErr: identity.ErrAuthDenied}, time.Now())

	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, identity.ErrAuthDenied)
	assert.Empty(t, kv.data)
}

func TestAuthenticate_EmptyTokenIsDenied(t *testing.T) {
	s := newTestStore(newFakeKV(), &fakeProvider{token: ""}, time.Now())

	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, identity.ErrAuthDenied)
}

func TestAuthenticate_PersistFailure(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("disk full")

	s := newTestStore(kv, &fakeProvider{token: "tok"}, time.Now())

	err := s.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting credential")
}

func TestSignOut_ClearsLocalStateDespiteRevocationFailure(t *testing.T) {
	revokeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer revokeSrv.Close()

	now := time.Now()
	kv := newFakeKV()
	seedCredential(t, kv, "tok", now.Add(time.Hour))

	idp := &fakeProvider{}
	s := newTestStore(kv, idp, now)
	s.revokeURL = revokeSrv.URL

	require.NoError(t, s.SignOut(context.Background()))

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, kv.data)
	assert.Equal(t, []string{"tok"}, idp.removed)
}

func TestSignOut_RevocationCarriesToken(t *testing.T) {
	var gotToken string

	revokeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer revokeSrv.Close()

	now := time.Now()
	kv := newFakeKV()
	seedCredential(t, kv, "revoke-me", now.Add(time.Hour))

	s := newTestStore(kv, &fakeProvider{}, now)
	s.revokeURL = revokeSrv.URL

	require.NoError(t, s.SignOut(context.Background()))
	assert.Equal(t, "revoke-me", gotToken)
}

func TestSignOut_LocalClearFailureIsFatal(t *testing.T) {
	now := time.Now()
	kv := newFakeKV()
	seedCredential(t, kv, "tok", now.Add(time.Hour))
	kv.removeErr = errors.New("storage unavailable")

	s := newTestStore(kv, &fakeProvider{}, now)

	err := s.SignOut(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clearing credential")
}

func TestSignOut_WithoutCredential(t *testing.T) {
	idp := &fakeProvider{}
	s := newTestStore(newFakeKV(), idp, time.Now())

	require.NoError(t, s.SignOut(context.Background()))
	assert.Empty(t, idp.removed)
}

// External invalidation: another surface clears the slot between calls.
// Re-sync-on-read must pick that up without any notification.
func TestIsAuthenticated_ObservesExternalInvalidation(t *testing.T) {
	now := time.Now()
	kv := newFakeKV()
	seedCredential(t, kv, "tok", now.Add(time.Hour))

	s := newTestStore(kv, &fakeProvider{}, now)

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	delete(kv.data, credentialKey)

	ok, err = s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReload_CorruptSlotTreatedAsUnauthenticated(t *testing.T) {
	kv := newFakeKV()
	kv.data[credentialKey] = "{not json"

	s := newTestStore(kv, &fakeProvider{}, time.Now())

	ok, err := s.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReload_StorageFaultSurfaces(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("database locked")

	s := newTestStore(kv, &fakeProvider{}, time.Now())

	_, err := s.IsAuthenticated(context.Background())
	assert.Error(t, err)
}

func TestExpiry_ReportsEvenAfterExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiredAt := now.Add(-time.Minute)
	kv := newFakeKV()
	seedCredential(t, kv, "tok", expiredAt)

	s := newTestStore(kv, &fakeProvider{}, now)

	expiresAt, ok, err := s.Expiry(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, expiresAt.Equal(expiredAt))
}

func TestExpiry_NoCredential(t *testing.T) {
	s := newTestStore(newFakeKV(), &fakeProvider{}, time.Now())

	_, ok, err := s.Expiry(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
