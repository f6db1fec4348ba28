// package models defines the data model shared by the resolver, services and persistence layers
package models

import (
	"cmp"
	"fmt"
	"time"
)

// Track identifies a song by artist and title as it was written by a human (a post title, a text file).
//
// Track is used as a map key: two tracks are equal only when both fields are byte-equal.
// No normalization is applied here.
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// NewTrack creates a [Track] from an artist and a title.
func NewTrack(artist, title string) Track {
	return Track{Artist: artist, Title: title}
}

// Query returns the free-text search query for the track ("artist title").
func (t Track) Query() string {
	return fmt.Sprintf("%s %s", t.Artist, t.Title)
}

func (t Track) String() string {
	return fmt.Sprintf("'%s' - '%s'", t.Artist, t.Title)
}

// CompareTracks orders tracks by artist, then title.
func CompareTracks(a, b Track) int {
	if c := cmp.Compare(a.Artist, b.Artist); c != 0 {
		return c
	}
	return cmp.Compare(a.Title, b.Title)
}

// Record is a search hit returned by a music service.
//
// ID is opaque: a Spotify URI, a Tidal numeric id or a YouTube video id.
type Record struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// RunRecord captures the outcome of resolving one batch of tracks against one service.
type RunRecord struct {
	ID         string    // ID is a v4 UUID
	Service    string    // Service is the target name (spotify, tidal, youtube)
	PlaylistID string    // PlaylistID is the destination playlist, empty on dry runs
	Total      int       // Total tracks considered
	CacheHits  int       // CacheHits were served without calling search
	Searched   int       // Searched tracks produced a cache write
	NotFound   int       // NotFound tracks had no search result
	Rejected   int       // Rejected results failed the similarity check
	Accepted   int       // Accepted results were sent to the playlist
	Errors     int       // Errors are failed searches, retried next run
	Updated    bool      // Updated reports whether the playlist was replaced
	StartedAt  time.Time // StartedAt is when resolution began
	FinishedAt time.Time // FinishedAt is when the target finished
}

// Duration returns the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
