package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// googleEndpoint is the OAuth2 endpoint pair for Google accounts. Set
// directly rather than imported so the package carries no cloud SDK weight.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// stateTokenBytes is the number of random bytes for the OAuth2 state parameter.
const stateTokenBytes = 16

// callbackPath is the HTTP path the OAuth2 redirect hits on the local server.
const callbackPath = "/"

// shutdownTimeout is how long to wait for the callback server to drain.
const shutdownTimeout = 5 * time.Second

// callbackResult carries the authorization code or error from the callback handler.
type callbackResult struct {
	code string
	err  error
}

// BrowserProvider implements Provider with the authorization code + PKCE
// flow: it binds a localhost HTTP server on a random port, opens the
// browser to the authorization endpoint, receives the callback, and
// exchanges the code for a token. The granted access token is cached in
// memory only — persistence and expiry policy belong to the credential
// store, and there is no silent refresh.
type BrowserProvider struct {
	cfg     oauth2.Config
	openURL func(string) error
	logger  *slog.Logger

	mu     sync.Mutex
	cached string
}

// NewBrowserProvider creates a provider for the given public OAuth2 client.
// openURL is called with the authorization URL; the CLI uses it to launch
// the default browser. If openURL returns an error, the URL is printed to
// stderr so the user can open it manually.
func NewBrowserProvider(clientID string, scopes []string, openURL func(string) error, logger *slog.Logger) *BrowserProvider {
	if logger == nil {
		logger = slog.Default()
	}

	return &BrowserProvider{
		cfg: oauth2.Config{
			ClientID: clientID,
			Scopes:   scopes,
			Endpoint: googleEndpoint,
		},
		openURL: openURL,
		logger:  logger,
	}
}

// GetAuthToken returns a bearer token. Non-interactive calls are served
// from the in-memory cache only; there is no silent grant path.
func (p *BrowserProvider) GetAuthToken(ctx context.Context, interactive bool) (string, error) {
	if !interactive {
		p.mu.Lock()
		cached := p.cached
		p.mu.Unlock()

		if cached == "" {
			return "", fmt.Errorf("identity: no cached grant: %w", ErrAuthDenied)
		}

		return cached, nil
	}

	tok, err := p.interactiveGrant(ctx)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.cached = tok
	p.mu.Unlock()

	return tok, nil
}

// RemoveCachedAuthToken drops the cached grant when it matches token.
func (p *BrowserProvider) RemoveCachedAuthToken(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached == token {
		p.cached = ""
	}

	return nil
}

// interactiveGrant runs the authorization code + PKCE flow and returns the
// granted access token.
func (p *BrowserProvider) interactiveGrant(ctx context.Context) (string, error) {
	p.logger.Info("starting browser auth flow (authorization code + PKCE)")

	// Start the localhost callback server.
	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, p.logger)
	if err != nil {
		return "", err
	}

	defer shutdownCallbackServer(srv, p.logger)

	// The redirect URL carries the actual port the listener bound.
	cfg := p.cfg
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d", port)

	verifier := oauth2.GenerateVerifier()

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("identity: generating state token: %w", err)
	}

	// Register the callback handler now that we know the state.
	registerCallbackHandler(mux, state, resultCh)

	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	launchBrowser(authURL, p.openURL, p.logger)

	code, err := waitForCallback(ctx, resultCh)
	if err != nil {
		return "", err
	}

	p.logger.Info("received authorization code, exchanging for token")

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("identity: token exchange failed: %w", err)
	}

	if tok.AccessToken == "" {
		return "", fmt.Errorf("identity: token exchange returned empty token: %w", ErrAuthDenied)
	}

	p.logger.Info("interactive grant successful")

	return tok.AccessToken, nil
}

// startCallbackServer binds to 127.0.0.1:0 and starts an HTTP server with the
// given mux. Returns the server, the port, and any error.
func startCallbackServer(
	ctx context.Context,
	mux *http.ServeMux,
	resultCh chan<- callbackResult,
	logger *slog.Logger,
) (*http.Server, int, error) {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("identity: binding localhost listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, 0, fmt.Errorf("identity: listener address is not TCP")
	}

	port := tcpAddr.Port
	logger.Info("callback server listening", slog.Int("port", port))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			resultCh <- callbackResult{err: fmt.Errorf("identity: callback server error: %w", serveErr)}
		}
	}()

	return srv, port, nil
}

// registerCallbackHandler adds the callback route to the mux.
// Must be called before the browser redirects back.
func registerCallbackHandler(mux *http.ServeMux, state string, resultCh chan<- callbackResult) {
	mux.HandleFunc("GET "+callbackPath, func(w http.ResponseWriter, r *http.Request) {
		handleOAuthCallback(w, r, state, resultCh)
	})
}

// handleOAuthCallback validates the state, extracts the code, and sends the result.
func handleOAuthCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	// Validate state to prevent CSRF.
	if r.URL.Query().Get("state") != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		resultCh <- callbackResult{err: fmt.Errorf("identity: OAuth2 state mismatch (possible CSRF)")}

		return
	}

	// An error from the authorization server means the user declined.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		desc := r.URL.Query().Get("error_description")
		http.Error(w, "Authorization failed: "+errParam, http.StatusBadRequest)
		resultCh <- callbackResult{err: fmt.Errorf("identity: authorization failed: %s: %s: %w", errParam, desc, ErrAuthDenied)}

		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		resultCh <- callbackResult{err: fmt.Errorf("identity: callback missing authorization code: %w", ErrAuthDenied)}

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1>"+
		"<p>You can close this window and return to the terminal.</p></body></html>")
	resultCh <- callbackResult{code: code}
}

// shutdownCallbackServer gracefully shuts down the callback HTTP server.
func shutdownCallbackServer(srv *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Best-effort shutdown — log but don't propagate since we're in a defer.
		logger.Warn("callback server shutdown error", slog.String("error", err.Error()))
	}
}

// launchBrowser attempts to open the auth URL. If it fails, prints the URL
// to stderr as a fallback so the user can copy-paste it.
func launchBrowser(authURL string, openURL func(string) error, logger *slog.Logger) {
	logger.Info("opening browser for authorization")

	if openErr := openURL(authURL); openErr != nil {
		logger.Warn("failed to open browser, printing URL",
			slog.String("error", openErr.Error()),
		)

		fmt.Fprintf(os.Stderr, "Open this URL in your browser:\n%s\n", authURL)
	}
}

// waitForCallback blocks until the callback fires or the context is canceled.
func waitForCallback(ctx context.Context, resultCh <-chan callbackResult) (string, error) {
	select {
	case result := <-resultCh:
		if result.err != nil {
			return "", result.err
		}

		return result.code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("identity: browser auth canceled: %w", ctx.Err())
	}
}

// generateState produces a cryptographically random hex string for the OAuth2
// state parameter. Using crypto/rand prevents CSRF attacks.
func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
