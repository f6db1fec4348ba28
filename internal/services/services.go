// package services defines the music services tracks are resolved against and the sources tracks come from
//
// Spotify, Tidal, YouTube Music (via proxy), Reddit
package services

import (
	"context"

	"github.com/desertthunder/ltx/internal/models"
)

// Service names double as config section names and cache file names.
const (
	SpotifyName = "spotify"
	TidalName   = "tidal"
	YouTubeName = "youtube"
	RedditName  = "reddit"
)

// Searcher finds the best match for a track on a service.
type Searcher interface {
	// Search returns (nil, nil) when the service has no result for the track.
	// Implementations must be safe for concurrent use.
	Search(ctx context.Context, track models.Track) (*models.Record, error)
}

// PlaylistWriter replaces the contents of a playlist.
type PlaylistWriter interface {
	// ReplacePlaylist makes ids, in order, the complete contents of the playlist.
	ReplacePlaylist(ctx context.Context, playlistID string, ids []string) error
}

// Service is a destination that tracks are resolved against and written to.
type Service interface {
	Searcher
	PlaylistWriter

	// Authenticate obtains the tokens needed by Search and ReplacePlaylist.
	Authenticate(ctx context.Context) error

	// Name returns the lowercase service name (e.g., "spotify")
	Name() string
}

// TrackSource produces the list of tracks to sync.
type TrackSource interface {
	Tracks(ctx context.Context) ([]models.Track, error)
	Name() string
}
