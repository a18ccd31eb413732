// Package identity implements the interactive identity boundary: the
// component that can mint a bearer token through a user-facing OAuth2 grant
// and invalidate its cached copy. The Provider contract mirrors the host
// browser's identity surface (getAuthToken / removeCachedAuthToken) so the
// credential store stays independent of how grants are negotiated.
package identity

import (
	"context"
	"errors"
)

// ErrAuthDenied signals that the interactive flow failed, was cancelled by
// the user, or produced no token. Callers treat it as authentication
// failure, not as a fault in the provider.
var ErrAuthDenied = errors.New("identity: interactive authentication denied")

// Provider negotiates bearer tokens with the identity host.
type Provider interface {
	// GetAuthToken returns a bearer token. When interactive is false, only a
	// previously cached grant may be returned; ErrAuthDenied means no token
	// could be produced without user interaction, or the user declined it.
	GetAuthToken(ctx context.Context, interactive bool) (string, error)

	// RemoveCachedAuthToken drops the provider's cached copy of token so the
	// next grant is negotiated afresh. Unknown tokens are a no-op.
	RemoveCachedAuthToken(ctx context.Context, token string) error
}
