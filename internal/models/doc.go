// Package models defines the song entities that flow through a reconciliation run.
//
// The package contains three categories of types:
//
// 1. Source data: what a collaborator returns, with no normalization applied
//   - [Song] : an (artist, title) pair from the media server or the scrobble service
//
// 2. Keyed data: songs augmented with their identity key
//   - [KeyedSong] : a [Song] plus the key produced by the identity normalizer
//   - [Snapshot] : one source's full favorite list at fetch time, in source order
//
// 3. Results
//   - [Delta] : the missing/extra buckets that describe the remote mutations needed to converge
//
// Songs are never persisted. Every value is created fresh for a run and discarded afterwards.
// The only stored entity is [Session], the cached scrobble service session key.
package models
