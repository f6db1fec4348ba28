// Spotify Web API implementation of [Service]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyMaxURIs is the most URIs accepted by one playlist items request.
	spotifyMaxURIs = 100
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyOpts configures a [SpotifyService]. URL fields default to the public Spotify endpoints.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
	BaseURL      string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

// SpotifyService implements [Service] for the Spotify Web API.
//
// Searches use an app token (client credentials). Playlist writes use a user token
// obtained from the configured refresh token. Both are refreshed automatically by [oauth2].
type SpotifyService struct {
	config       *oauth2.Config
	app          *clientcredentials.Config
	refreshToken string
	baseURL      string
	httpClient   *http.Client
	search       *apiClient
	user         *apiClient
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = "http://127.0.0.1:3000/callback"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       []string{"playlist-modify-public", "playlist-modify-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   opts.AuthURL,
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	app := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &SpotifyService{
		config:       config,
		app:          app,
		refreshToken: opts.RefreshToken,
		baseURL:      opts.BaseURL,
		httpClient:   opts.HTTPClient,
	}, nil
}

func (s *SpotifyService) Name() string {
	return SpotifyName
}

// Authenticate fetches an app token and, when a refresh token is configured, a user token.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	tctx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, s.httpClient)

	app := s.app.TokenSource(tctx)
	if _, err := app.Token(); err != nil {
		return fmt.Errorf("%w: spotify app token: %v", shared.ErrAuthFailed, err)
	}
	s.search = newAPIClient(s.baseURL, oauth2.NewClient(tctx, app))

	if s.refreshToken == "" {
		return nil
	}

	user := s.config.TokenSource(tctx, &oauth2.Token{RefreshToken: s.refreshToken})
	if _, err := user.Token(); err != nil {
		return fmt.Errorf("%w: spotify user token: %v", shared.ErrAuthFailed, err)
	}
	s.user = newAPIClient(s.baseURL, oauth2.NewClient(tctx, user))
	return nil
}

// AuthCodeURL returns the authorization URL the user visits to grant playlist access.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token whose RefreshToken belongs in the config.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Search returns the first track for "artist title". The record ID is the track URI.
func (s *SpotifyService) Search(ctx context.Context, track models.Track) (*models.Record, error) {
	if s.search == nil {
		return nil, fmt.Errorf("%w: spotify", shared.ErrNotAuthenticated)
	}

	params := url.Values{}
	params.Set("type", "track")
	params.Set("q", track.Query())
	params.Set("limit", "1")

	var response SpotifySearchResponse
	if err := s.search.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}

	item := response.Tracks.Items[0]
	artists := make([]string, len(item.Artists))
	for i, a := range item.Artists {
		artists[i] = a.Name
	}

	return &models.Record{ID: item.URI, Title: item.Name, Artists: artists}, nil
}

// ReplacePlaylist replaces the playlist with the first 100 URIs, then appends the rest in batches of 100.
func (s *SpotifyService) ReplacePlaylist(ctx context.Context, playlistID string, uris []string) error {
	if s.user == nil {
		return fmt.Errorf("%w: spotify playlist updates need a refresh token", shared.ErrNoRefreshToken)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	batches := chunk(uris, spotifyMaxURIs)

	first := []string{}
	if len(batches) > 0 {
		first = batches[0]
	}

	type body struct {
		URIs []string `json:"uris"`
	}

	if err := s.user.do(ctx, http.MethodPut, endpoint, body{URIs: first}, nil); err != nil {
		return fmt.Errorf("failed to replace playlist items: %w", err)
	}

	for i := 1; i < len(batches); i++ {
		if err := s.user.do(ctx, http.MethodPost, endpoint, body{URIs: batches[i]}, nil); err != nil {
			return fmt.Errorf("failed to append playlist items (batch %d): %w", i, err)
		}
	}

	return nil
}
