package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

// StarredSource reads the favorites of the local media server.
type StarredSource interface {
	// FetchStarred returns every starred song in server order.
	FetchStarred(ctx context.Context) ([]models.Song, error)

	// Name returns the name of the service (e.g., "Subsonic")
	Name() string
}

// LovedService reads and mutates the loved list of the scrobble service.
//
// Love and Unlove are idempotent on the remote side, so a retried call is safe.
type LovedService interface {
	// FetchLoved returns every loved song of username, all pages flattened.
	FetchLoved(ctx context.Context, username string) ([]models.Song, error)

	// Love marks a song as loved.
	Love(ctx context.Context, artist, title string) error

	// Unlove removes a song from the loved list.
	Unlove(ctx context.Context, artist, title string) error

	// Name returns the name of the service (e.g., "Last.fm")
	Name() string
}

// Authorizer performs the web authorization handshake of the scrobble service.
type Authorizer interface {
	// RequestToken fetches an unauthorized request token.
	RequestToken(ctx context.Context) (string, error)

	// AuthURL is the page where the user approves token.
	AuthURL(token string) string

	// Session exchanges an approved token for a session key.
	// Returns an error wrapping [shared.ErrAuthPending] while the user has not approved it.
	Session(ctx context.Context, token string) (string, error)
}

// classifyTransport maps errors from [http.Client.Do] onto the shared sentinels.
//
// Everything but cancellation is transient: a dropped connection or a per-call timeout is expected to
// clear up on its own.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: request failed: %v", shared.ErrTransient, err)
}

// classifyStatus maps a non-2xx status without an API error body onto the shared sentinels.
func classifyStatus(service string, status int) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrTransient, service, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrInvalidCredentials, service, status)
	default:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, service, status)
	}
}
