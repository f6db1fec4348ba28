// Tidal Open API (JSON:API) implementation of [Service]
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
	"golang.org/x/sync/errgroup"
)

const (
	tidalTokenURL = "https://auth.tidal.com/v1/oauth2/token"
	tidalBaseURL  = "https://openapi.tidal.com/v2"

	// tidalMaxItems is the most items accepted by one playlist relationship request.
	tidalMaxItems = 20

	tidalContentType = "application/vnd.api+json"
)

type tidalLinks struct {
	Self string  `json:"self"`
	Next *string `json:"next"`
}

type tidalSearchResponse struct {
	Included []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Title string `json:"title"`
		} `json:"attributes"`
		Relationships struct {
			Artists struct {
				Links tidalLinks `json:"links"`
			} `json:"artists"`
		} `json:"relationships"`
	} `json:"included"`
}

type tidalResourceIDs struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type tidalArtistResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// TidalPlaylistItem is one entry of a playlist's items relationship.
// Deleting an item requires echoing it back, meta included.
type TidalPlaylistItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Meta struct {
		ItemID string `json:"itemId"`
	} `json:"meta"`
}

type tidalItemsPage struct {
	Data  []TidalPlaylistItem `json:"data"`
	Links tidalLinks          `json:"links"`
}

type tidalResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// TidalOpts configures a [TidalService]. URL fields default to the public Tidal endpoints.
type TidalOpts struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CountryCode  string
	BaseURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

// TidalService implements [Service] for the Tidal Open API.
type TidalService struct {
	config       *oauth2.Config
	app          *clientcredentials.Config
	refreshToken string
	countryCode  string
	baseURL      string
	httpClient   *http.Client
	search       *apiClient
	user         *apiClient
}

// NewTidalService creates a new Tidal service with the given OAuth2 credentials.
func NewTidalService(opts TidalOpts) (*TidalService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: tidal client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "US"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = tidalBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = tidalTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &TidalService{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL, AuthStyle: oauth2.AuthStyleInHeader},
		},
		app: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		refreshToken: opts.RefreshToken,
		countryCode:  opts.CountryCode,
		baseURL:      opts.BaseURL,
		httpClient:   opts.HTTPClient,
	}, nil
}

func (s *TidalService) Name() string {
	return TidalName
}

// Authenticate fetches an app token and, when a refresh token is configured, a user token.
func (s *TidalService) Authenticate(ctx context.Context) error {
	tctx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, s.httpClient)

	app := s.app.TokenSource(tctx)
	if _, err := app.Token(); err != nil {
		return fmt.Errorf("%w: tidal app token: %v", shared.ErrAuthFailed, err)
	}
	s.search = s.client(oauth2.NewClient(tctx, app))

	if s.refreshToken == "" {
		return nil
	}

	user := s.config.TokenSource(tctx, &oauth2.Token{RefreshToken: s.refreshToken})
	if _, err := user.Token(); err != nil {
		return fmt.Errorf("%w: tidal user token: %v", shared.ErrAuthFailed, err)
	}
	s.user = s.client(oauth2.NewClient(tctx, user))
	return nil
}

func (s *TidalService) client(hc *http.Client) *apiClient {
	c := newAPIClient(s.baseURL, hc)
	c.contentType = tidalContentType
	return c
}

// Search returns the first track result for "artist title".
//
// Tidal search results only link to artists, so artist names cost one request for the
// id list and one request per artist, issued concurrently.
func (s *TidalService) Search(ctx context.Context, track models.Track) (*models.Record, error) {
	if s.search == nil {
		return nil, fmt.Errorf("%w: tidal", shared.ErrNotAuthenticated)
	}

	params := url.Values{}
	params.Set("countryCode", s.countryCode)
	params.Set("include", "tracks")
	endpoint := fmt.Sprintf("/searchResults/%s?%s", url.PathEscape(track.Query()), params.Encode())

	var response tidalSearchResponse
	if err := s.search.do(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	for _, inc := range response.Included {
		if inc.Type != "tracks" {
			continue
		}

		artists, err := s.artistNames(ctx, inc.Relationships.Artists.Links.Self)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve artists for track %s: %w", inc.ID, err)
		}
		return &models.Record{ID: inc.ID, Title: inc.Attributes.Title, Artists: artists}, nil
	}

	return nil, nil
}

func (s *TidalService) artistNames(ctx context.Context, link string) ([]string, error) {
	if link == "" {
		return nil, nil
	}

	var ids tidalResourceIDs
	if err := s.search.do(ctx, http.MethodGet, link, nil, &ids); err != nil {
		return nil, err
	}

	names := make([]string, len(ids.Data))
	g, gctx := errgroup.WithContext(ctx)
	for i, datum := range ids.Data {
		g.Go(func() error {
			var artist tidalArtistResponse
			endpoint := fmt.Sprintf("/artists/%s?countryCode=%s", url.PathEscape(datum.ID), url.QueryEscape(s.countryCode))
			if err := s.search.do(gctx, http.MethodGet, endpoint, nil, &artist); err != nil {
				return err
			}
			names[i] = artist.Data.Attributes.Name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

// ReplacePlaylist removes every current item then adds ids, both in batches of 20.
func (s *TidalService) ReplacePlaylist(ctx context.Context, playlistID string, ids []string) error {
	if s.user == nil {
		return fmt.Errorf("%w: tidal playlist updates need a refresh token", shared.ErrNoRefreshToken)
	}

	items, err := s.PlaylistItems(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to read playlist: %w", err)
	}

	endpoint := fmt.Sprintf("/playlists/%s/relationships/items", url.PathEscape(playlistID))

	for i, batch := range chunk(items, tidalMaxItems) {
		body := map[string]any{"data": batch}
		if err := s.user.do(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to clear playlist (batch %d): %w", i, err)
		}
	}

	for i, batch := range chunk(ids, tidalMaxItems) {
		data := make([]tidalResource, len(batch))
		for j, id := range batch {
			data[j] = tidalResource{ID: id, Type: "tracks"}
		}
		if err := s.user.do(ctx, http.MethodPost, endpoint, map[string]any{"data": data}, nil); err != nil {
			return fmt.Errorf("failed to add playlist items (batch %d): %w", i, err)
		}
	}

	return nil
}

// PlaylistItems pages through the playlist's items relationship.
func (s *TidalService) PlaylistItems(ctx context.Context, playlistID string) ([]TidalPlaylistItem, error) {
	client := s.user
	if client == nil {
		client = s.search
	}
	if client == nil {
		return nil, fmt.Errorf("%w: tidal", shared.ErrNotAuthenticated)
	}

	endpoint := fmt.Sprintf("/playlists/%s/relationships/items?countryCode=%s", url.PathEscape(playlistID), url.QueryEscape(s.countryCode))

	var items []TidalPlaylistItem
	for endpoint != "" {
		var page tidalItemsPage
		if err := client.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Data...)

		endpoint = ""
		if page.Links.Next != nil {
			endpoint = *page.Links.Next
		}
	}

	return items, nil
}
