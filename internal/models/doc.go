// Package models defines the value types passed between the ltx packages.
//
//   - [Track] : an artist/title pair to resolve; the cache key
//   - [Record] : a raw hit returned by a service search
//   - [RunRecord] : per-service statistics of one sync run, persisted by the repositories package
//
// Tracks are compared byte-for-byte. Fuzzy comparison lives in the cache package's validator,
// never in the key itself.
package models
