package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const (
	testClientID     = "test_client_id"
	testClientSecret = "test_client_secret"
	testRefreshToken = "test_refresh_token"
	appToken         = "app-token"
	userToken        = "user-token"
)

// tokenHandler serves an OAuth2 token endpoint that hands out appToken for client credentials
// and userToken for refresh and authorization code grants.
func tokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != testClientID || secret != testClientSecret {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}

		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token form: %v", err)
		}

		resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
		switch r.PostForm.Get("grant_type") {
		case "client_credentials":
			resp["access_token"] = appToken
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != testRefreshToken {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			resp["access_token"] = userToken
		case "authorization_code":
			resp["access_token"] = userToken
			resp["refresh_token"] = "refresh-from-" + r.PostForm.Get("code")
		default:
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// recordedRequest is a request captured by a test server.
type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (rec *recorder) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.requests = append(rec.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
}

func (rec *recorder) filter(method string) []recordedRequest {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var out []recordedRequest
	for _, r := range rec.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func newTestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	mux.HandleFunc("POST /token", tokenHandler(t))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
