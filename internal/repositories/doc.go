// Package repositories implements SQLite persistence.
//
// Key Implementations:
//   - [SessionRepository] : cached scrobble service session keys, one per (service, username)
package repositories
