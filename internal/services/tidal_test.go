package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
)

func newTestTidal(t *testing.T, srv *httptest.Server, refreshToken string) *TidalService {
	t.Helper()
	svc, err := NewTidalService(TidalOpts{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RefreshToken: refreshToken,
		CountryCode:  "GB",
		BaseURL:      srv.URL + "/v2",
		TokenURL:     srv.URL + "/token",
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	return svc
}

func TestTidalService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewTidalService", func(t *testing.T) {
		if _, err := NewTidalService(TidalOpts{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		svc, err := NewTidalService(TidalOpts{ClientID: testClientID, ClientSecret: testClientSecret})
		if err != nil {
			t.Fatal(err)
		}
		if svc.countryCode != "US" || svc.Name() != "tidal" {
			t.Errorf("unexpected defaults: country=%s name=%s", svc.countryCode, svc.Name())
		}
	})

	t.Run("Search", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v2/searchResults/{query}", func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer "+appToken {
				t.Errorf("expected app token, got %q", got)
			}
			if r.URL.Query().Get("countryCode") != "GB" || r.URL.Query().Get("include") != "tracks" {
				t.Errorf("unexpected query %v", r.URL.RawQuery)
			}

			switch r.PathValue("query") {
			case "Daft Punk Get Lucky":
				writeJSON(t, w, map[string]any{"included": []map[string]any{
					{"id": "alb1", "type": "albums", "attributes": map[string]any{"title": "RAM"}},
					{
						"id":         "77",
						"type":       "tracks",
						"attributes": map[string]any{"title": "Get Lucky"},
						"relationships": map[string]any{"artists": map[string]any{
							"links": map[string]any{"self": "/tracks/77/relationships/artists?countryCode=GB"},
						}},
					},
				}})
			default:
				writeJSON(t, w, map[string]any{"data": map[string]any{}})
			}
		})
		mux.HandleFunc("GET /v2/tracks/77/relationships/artists", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"data": []map[string]any{{"id": "1"}, {"id": "2"}, {"id": "3"}}})
		})
		names := map[string]string{"1": "Daft Punk", "2": "Pharrell Williams", "3": "Nile Rodgers"}
		mux.HandleFunc("GET /v2/artists/{id}", func(w http.ResponseWriter, r *http.Request) {
			name, ok := names[r.PathValue("id")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			writeJSON(t, w, map[string]any{"data": map[string]any{"id": r.PathValue("id"), "attributes": map[string]any{"name": name}}})
		})
		srv := newTestServer(t, mux)
		svc := newTestTidal(t, srv, "")

		rec, err := svc.Search(ctx, models.NewTrack("Daft Punk", "Get Lucky"))
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if rec == nil || rec.ID != "77" || rec.Title != "Get Lucky" {
			t.Fatalf("unexpected record %+v", rec)
		}
		if strings.Join(rec.Artists, ",") != "Daft Punk,Pharrell Williams,Nile Rodgers" {
			t.Errorf("artists out of order: %v", rec.Artists)
		}

		rec, err = svc.Search(ctx, models.NewTrack("Nobody", "Nothing"))
		if err != nil || rec != nil {
			t.Errorf("expected (nil, nil), got (%+v, %v)", rec, err)
		}
	})

	t.Run("Search artist failure", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v2/searchResults/{query}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"included": []map[string]any{{
				"id": "5", "type": "tracks", "attributes": map[string]any{"title": "x"},
				"relationships": map[string]any{"artists": map[string]any{"links": map[string]any{"self": "/tracks/5/relationships/artists"}}},
			}}})
		})
		mux.HandleFunc("GET /v2/tracks/5/relationships/artists", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"data": []map[string]any{{"id": "missing"}}})
		})
		mux.HandleFunc("GET /v2/artists/{id}", http.NotFound)
		srv := newTestServer(t, mux)
		svc := newTestTidal(t, srv, "")

		if _, err := svc.Search(ctx, models.NewTrack("a", "x")); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("ReplacePlaylist", func(t *testing.T) {
		const existing = 45
		rec := &recorder{}

		mux := http.NewServeMux()
		mux.HandleFunc("GET /v2/playlists/pl/relationships/items", func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer "+userToken {
				t.Errorf("expected user token, got %q", got)
			}
			page := 0
			fmt.Sscan(r.URL.Query().Get("page"), &page)

			var data []map[string]any
			for i := page * 20; i < min((page+1)*20, existing); i++ {
				data = append(data, map[string]any{
					"id": fmt.Sprint(i), "type": "tracks", "meta": map[string]any{"itemId": fmt.Sprintf("item-%d", i)},
				})
			}

			links := map[string]any{"self": r.URL.String()}
			if (page+1)*20 < existing {
				links["next"] = fmt.Sprintf("/playlists/pl/relationships/items?page=%d", page+1)
			}
			writeJSON(t, w, map[string]any{"data": data, "links": links})
		})
		mux.HandleFunc("DELETE /v2/playlists/pl/relationships/items", func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/vnd.api+json" {
				t.Errorf("unexpected content type %q", ct)
			}
			rec.record(r)
			w.WriteHeader(http.StatusNoContent)
		})
		mux.HandleFunc("POST /v2/playlists/pl/relationships/items", func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			w.WriteHeader(http.StatusCreated)
		})
		srv := newTestServer(t, mux)
		svc := newTestTidal(t, srv, testRefreshToken)

		items, err := svc.PlaylistItems(ctx, "pl")
		if err != nil {
			t.Fatalf("failed to page playlist: %v", err)
		}
		if len(items) != existing || items[44].Meta.ItemID != "item-44" {
			t.Fatalf("expected %d items, got %d", existing, len(items))
		}

		ids := make([]string, 30)
		for i := range ids {
			ids[i] = fmt.Sprintf("new-%d", i)
		}
		if err := svc.ReplacePlaylist(ctx, "pl", ids); err != nil {
			t.Fatalf("replace failed: %v", err)
		}

		deletes := rec.filter(http.MethodDelete)
		if len(deletes) != 3 {
			t.Fatalf("expected 3 delete batches, got %d", len(deletes))
		}
		var deleted struct {
			Data []TidalPlaylistItem `json:"data"`
		}
		if err := json.Unmarshal([]byte(deletes[2].Body), &deleted); err != nil {
			t.Fatal(err)
		}
		if len(deleted.Data) != 5 || deleted.Data[0].Meta.ItemID != "item-40" {
			t.Errorf("unexpected last delete batch %+v", deleted.Data)
		}

		posts := rec.filter(http.MethodPost)
		if len(posts) != 2 {
			t.Fatalf("expected 2 add batches, got %d", len(posts))
		}
		var added struct {
			Data []tidalResource `json:"data"`
		}
		if err := json.Unmarshal([]byte(posts[0].Body), &added); err != nil {
			t.Fatal(err)
		}
		if len(added.Data) != 20 || added.Data[0].ID != "new-0" || added.Data[0].Type != "tracks" {
			t.Errorf("unexpected first add batch %+v", added.Data)
		}
	})

	t.Run("ReplacePlaylist without refresh token", func(t *testing.T) {
		srv := newTestServer(t, http.NewServeMux())
		svc := newTestTidal(t, srv, "")
		if err := svc.ReplacePlaylist(ctx, "pl", nil); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n, size int
		want    string
	}{
		{0, 20, "[]"},
		{5, 20, "[5]"},
		{20, 20, "[20]"},
		{21, 20, "[20 1]"},
		{250, 100, "[100 100 50]"},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d/%d", tc.n, tc.size), func(t *testing.T) {
			items := make([]int, tc.n)
			var sizes []int
			for _, c := range chunk(items, tc.size) {
				sizes = append(sizes, len(c))
			}
			if got := fmt.Sprint(sizes); got != tc.want {
				t.Errorf("chunk sizes = %s, want %s", got, tc.want)
			}
		})
	}
}
