// Package repositories implements SQLite persistence for run history.
//
// A run is one batch of tracks resolved against one service. [RunRepository] stores the counters
// produced by the resolver so `ltx history` can show how the cache behaves over time
// (hit rates, rejections, failed searches).
//
// The schema lives in internal/shared/sql and is applied with [shared.RunMigrations].
package repositories
