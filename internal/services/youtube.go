// YouTube Music [Service] implementation
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
// The proxy owns YouTube Music authentication, so requests carry no credentials.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ltx/internal/models"
)

const defaultYTBaseURL string = "http://127.0.0.1:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	Duration   string          `json:"duration"`
	SetVideoID string          `json:"setVideoId,omitempty"` // SetVideoID identifies the track's slot in a playlist
}

// YouTubePlaylist represents a playlist from YouTube Music.
type YouTubePlaylist struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	TrackCount int            `json:"trackCount"`
	Tracks     []YouTubeTrack `json:"tracks,omitempty"`
}

type youtubeVideo struct {
	VideoID    string `json:"videoId"`
	SetVideoID string `json:"setVideoId"`
}

// YouTubeService implements [Service] for YouTube Music via the proxy.
type YouTubeService struct {
	api *apiClient
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{api: newAPIClient(baseURL, client)}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return YouTubeName
}

// Authenticate checks that the proxy is reachable.
//
// Calls GET /health on the proxy.
func (y *YouTubeService) Authenticate(ctx context.Context) error {
	if err := y.api.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("youtube music proxy unavailable: %w", err)
	}
	return nil
}

// Search returns the first song result for "artist title".
//
// Calls GET /api/search?q={artist} {title}&filter=songs on the proxy.
func (y *YouTubeService) Search(ctx context.Context, track models.Track) (*models.Record, error) {
	params := url.Values{}
	params.Set("q", track.Query())
	params.Set("filter", "songs")

	var results []YouTubeTrack
	if err := y.api.do(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}

	for _, result := range results {
		if result.VideoID == "" {
			continue
		}

		artists := make([]string, len(result.Artists))
		for i, a := range result.Artists {
			artists[i] = a.Name
		}
		return &models.Record{ID: result.VideoID, Title: result.Title, Artists: artists}, nil
	}

	return nil, nil
}

// Playlist retrieves a playlist with its tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) Playlist(ctx context.Context, playlistID string) (*YouTubePlaylist, error) {
	var playlist YouTubePlaylist
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	if err := y.api.do(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ReplacePlaylist removes the current tracks and adds videoIDs in order.
//
// Calls POST /api/playlists/{id}/items/remove and POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) ReplacePlaylist(ctx context.Context, playlistID string, videoIDs []string) error {
	playlist, err := y.Playlist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to read playlist: %w", err)
	}

	base := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))

	if len(playlist.Tracks) > 0 {
		videos := make([]youtubeVideo, len(playlist.Tracks))
		for i, t := range playlist.Tracks {
			videos[i] = youtubeVideo{VideoID: t.VideoID, SetVideoID: t.SetVideoID}
		}

		body := map[string]any{"videos": videos}
		if err := y.api.do(ctx, http.MethodPost, base+"/remove", body, nil); err != nil {
			return fmt.Errorf("failed to clear playlist: %w", err)
		}
	}

	if len(videoIDs) == 0 {
		return nil
	}

	body := map[string]any{"video_ids": videoIDs}
	if err := y.api.do(ctx, http.MethodPost, base, body, nil); err != nil {
		return fmt.Errorf("failed to add tracks to playlist: %w", err)
	}
	return nil
}
