// Package services defines the collaborators a reconciliation run talks to and implements them for
// a Subsonic-compatible media server and for Last.fm.
//
// # Interfaces
//
// [StarredSource] reads the local favorites. [LovedService] reads and mutates the remote loved list.
// [Authorizer] exposes the token handshake used by the credentials package to obtain a session.
//
// # Subsonic Implementation
//
// [SubsonicService] wraps github.com/delucks/go-subsonic. Token authentication is used unless legacy
// (plain password) authentication is enabled.
//
// # Last.fm Implementation
//
// [LastFMService] calls the Last.fm 2.0 web service directly. Write methods and the auth handshake are
// signed with the API secret. The loved list is paged internally; callers see one flattened slice.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrTransient] : network failures, timeouts, HTTP 5xx/429 and Last.fm codes 8, 11, 16, 29
//   - [shared.ErrInvalidCredentials] : bad API key, session, signature or password
//   - [shared.ErrAuthPending] : the auth token has not been approved by the user yet
//   - [shared.ErrAPIRequest] : any other API failure
package services
