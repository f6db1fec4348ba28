// Reddit [TrackSource] implementation
package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditBaseURL  = "https://oauth.reddit.com"

	// DefaultTitlePattern captures "Artist - Title [genre] (year)" post titles.
	DefaultTitlePattern = `(.*?)\s+[-–—\s]+\s+(.*?)\s*[\(\[]`
)

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditOpts configures a [RedditSource].
type RedditOpts struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Subreddit    string // Subreddit is a listing path such as "r/listentothis" or "r/listentothis/top"
	Limit        int
	Pattern      string
	BaseURL      string
	TokenURL     string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// RedditSource reads tracks from the post titles of a subreddit listing.
type RedditSource struct {
	app        *clientcredentials.Config
	subreddit  string
	limit      int
	pattern    *regexp.Regexp
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// userAgentTransport sets the User-Agent Reddit requires on every request, token requests included.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// NewRedditSource creates a Reddit source. The pattern must have two capture groups: artist, then title.
func NewRedditSource(opts RedditOpts) (*RedditSource, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: reddit client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.Subreddit == "" {
		return nil, fmt.Errorf("%w: reddit subreddit is required", shared.ErrInvalidConfig)
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultTitlePattern
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ltx/0.1"
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.BaseURL == "" {
		opts.BaseURL = redditBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = redditTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	pattern, err := regexp.Compile(opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: reddit pattern: %v", shared.ErrInvalidConfig, err)
	}
	if pattern.NumSubexp() < 2 {
		return nil, fmt.Errorf("%w: reddit pattern needs two capture groups", shared.ErrInvalidConfig)
	}

	base := opts.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client := &http.Client{
		Transport: &userAgentTransport{agent: opts.UserAgent, base: base},
		Timeout:   opts.HTTPClient.Timeout,
	}

	return &RedditSource{
		app: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		subreddit:  strings.Trim(opts.Subreddit, "/"),
		limit:      opts.Limit,
		pattern:    pattern,
		baseURL:    opts.BaseURL,
		httpClient: client,
		logger:     shared.WithLogger(opts.Logger, "source", RedditName),
	}, nil
}

func (r *RedditSource) Name() string {
	return RedditName
}

// Tracks lists posts and extracts (artist, title) from each title.
// Titles the pattern does not match are logged and skipped.
func (r *RedditSource) Tracks(ctx context.Context) ([]models.Track, error) {
	titles, err := r.Titles(ctx)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(titles))
	for _, title := range titles {
		track, ok := r.Parse(title)
		if !ok {
			r.logger.Warn("failed to match", "title", title)
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Titles returns the HTML-unescaped post titles of the listing.
func (r *RedditSource) Titles(ctx context.Context) ([]string, error) {
	tctx := context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	api := newAPIClient(r.baseURL, oauth2.NewClient(tctx, r.app.TokenSource(tctx)))

	endpoint := fmt.Sprintf("/%s?limit=%d", r.subreddit, r.limit)

	var listing redditListing
	if err := api.do(ctx, http.MethodGet, endpoint, nil, &listing); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.subreddit, err)
	}

	titles := make([]string, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		titles[i] = html.UnescapeString(child.Data.Title)
	}
	return titles, nil
}

// Parse extracts a track from a post title.
func (r *RedditSource) Parse(title string) (models.Track, bool) {
	m := r.pattern.FindStringSubmatch(title)
	if m == nil {
		return models.Track{}, false
	}
	return models.NewTrack(m[1], m[2]), true
}
