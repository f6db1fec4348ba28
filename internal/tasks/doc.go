// Package tasks keeps service playlists in sync with a list of tracks.
//
// # Sync
//
// [SyncEngine.Run] handles every [Target] in its own goroutine. For each target it:
//
//  1. authenticates the service
//  2. loads the target's cache file (a load failure starts from an empty cache)
//  3. resolves all tracks through [cache.Resolver], pacing searches with the target's rate limiter
//  4. prunes the cache to the current tracks and saves it
//  5. replaces the playlist with the accepted records, unless running dry
//  6. hands a [models.RunRecord] to the optional [RunRecorder]
//
// A target that fails does not affect the others. Cache problems are logged and never fatal.
//
// [SyncEngine.Resolve] performs steps 1 to 3 for one target and saves the cache without pruning it.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct carries the service, phase, step counters and a message.
// Updates use select with default so a slow reader never blocks a run.
package tasks
