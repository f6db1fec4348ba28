package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
)

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService("", nil); svc.api.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.api.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(customURL, nil); svc.api.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.api.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService("", nil); svc.Name() != "youtube" {
			t.Errorf("expected name to be 'youtube', got %s", svc.Name())
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("healthy proxy", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("expected path /health, got %s", r.URL.Path)
				}
				w.Write([]byte(`{"status":"ok"}`))
			}))
			defer server.Close()

			if err := NewYouTubeService(server.URL, server.Client()).Authenticate(ctx); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("unhealthy proxy", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			err := NewYouTubeService(server.URL, server.Client()).Authenticate(ctx)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search" {
				t.Errorf("expected path /api/search, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("filter") != "songs" {
				t.Errorf("expected songs filter, got %s", r.URL.Query().Get("filter"))
			}

			var results []map[string]any
			if r.URL.Query().Get("q") == "Radiohead Creep" {
				results = []map[string]any{
					{"videoId": "", "title": "Creep (Live)"},
					{"videoId": "XFkzRNyygfk", "title": "Creep", "artists": []map[string]string{{"name": "Radiohead", "id": "UC1"}}},
				}
			}
			writeJSON(t, w, results)
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, server.Client())

		rec, err := svc.Search(ctx, models.NewTrack("Radiohead", "Creep"))
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if rec == nil || rec.ID != "XFkzRNyygfk" || rec.Artists[0] != "Radiohead" {
			t.Errorf("unexpected record %+v", rec)
		}

		rec, err = svc.Search(ctx, models.NewTrack("Nobody", "Nothing"))
		if err != nil || rec != nil {
			t.Errorf("expected (nil, nil) for empty results, got (%+v, %v)", rec, err)
		}
	})

	t.Run("ReplacePlaylist", func(t *testing.T) {
		rec := &recorder{}
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/playlists/PL1", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{
				"id":    "PL1",
				"title": "Listen",
				"tracks": []map[string]any{
					{"videoId": "old1", "setVideoId": "s1"},
					{"videoId": "old2", "setVideoId": "s2"},
				},
			})
		})
		mux.HandleFunc("POST /api/playlists/PL1/items/remove", func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			writeJSON(t, w, map[string]string{"status": "ok"})
		})
		mux.HandleFunc("POST /api/playlists/PL1/items", func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			writeJSON(t, w, map[string]string{"status": "ok"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		svc := NewYouTubeService(server.URL, server.Client())
		if err := svc.ReplacePlaylist(ctx, "PL1", []string{"new1", "new2", "new3"}); err != nil {
			t.Fatalf("replace failed: %v", err)
		}

		posts := rec.filter(http.MethodPost)
		if len(posts) != 2 {
			t.Fatalf("expected remove and add requests, got %d", len(posts))
		}

		var removed struct {
			Videos []youtubeVideo `json:"videos"`
		}
		if err := json.Unmarshal([]byte(posts[0].Body), &removed); err != nil {
			t.Fatal(err)
		}
		if len(removed.Videos) != 2 || removed.Videos[1].SetVideoID != "s2" {
			t.Errorf("unexpected remove body %s", posts[0].Body)
		}

		if posts[1].Body != `{"video_ids":["new1","new2","new3"]}` {
			t.Errorf("unexpected add body %s", posts[1].Body)
		}
	})
}
