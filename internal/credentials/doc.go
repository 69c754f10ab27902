// Package credentials obtains the scrobble service session key a run needs before it can mutate the
// loved list.
//
// [Provider.Resolve] tries, in order:
//  1. a session key set in the configuration or environment
//  2. the cached key in a [Store] ([FileStore] or [SQLiteStore])
//  3. the interactive web authorization flow, whose result is written back to the store
//
// The interactive flow polls until the user approves the token. Every failure while polling is
// retried after the configured delay; only cancellation stops it.
package credentials
