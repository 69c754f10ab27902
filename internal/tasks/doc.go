// Package tasks reconciles the local starred list with the remote loved list, with real-time
// progress reporting.
//
// # Core Operations
//
//  1. [Diff] : pure comparison of two keyed snapshots
//     - Missing: local keys absent remotely, in local order
//     - Extra: remote keys absent locally, in remote order
//
//  2. [Applier.Apply] : converges the remote list
//     - Unloves every extra song, then loves every missing song
//     - Logs each attempt with the action, artist, title and key
//     - Retries each call with [shared.Retrier] and paces calls with a shared rate limiter
//
//  3. [SyncEngine] : full run
//     - [SyncEngine.Plan] fetches both lists (remote fetch retried as a whole), keys them with
//     the configured [identity.Policy] and diffs them
//     - [SyncEngine.Run] applies the plan unless it is a dry run
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates are sent with select/default so a slow reader never blocks a run.
package tasks
