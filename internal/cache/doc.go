// Package cache remembers what searching a music service for a track produced, across runs.
//
// # Store
//
// [Store] maps a [models.Track] to a [*Result]. Three states matter:
//   - absent: the track was never searched
//   - nil: the track was searched and the service had nothing
//   - non-nil: the service returned a hit, accepted or rejected by the [Validator]
//
// Rejected hits stay cached so the same bad match is not fetched again; they are only hidden from output.
//
// # Resolver
//
// [Resolver.ResolveAll] fans out one goroutine per track, consults the store first and calls the
// injected [SearchFunc] on a miss. Output order follows input order regardless of completion order.
// A failed search is logged and skipped without being cached, so it is retried on the next run.
//
// # Validator
//
// [Validator.Score] compares lowercased titles (cut at the first parenthesis) and artists using
// normalized Damerau-Levenshtein similarity. Cached decisions are never re-validated.
//
// # Persistence
//
// [FileStore] loads and saves the store as a JSON array of [track, entry] pairs. Callers prune the store
// to the current run's tracks before saving, which keeps the file bounded.
package cache
