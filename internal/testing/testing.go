// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ltx/internal/models"
)

// MockService is a test double for [services.Service].
//
// Search answers from Results keyed by [models.Track.Query]; a missing key is "not found".
// Tracks listed in Failing return SearchErr.
type MockService struct {
	ServiceName string
	Results     map[string]*models.Record
	Failing     map[string]bool
	AuthErr     error
	SearchErr   error
	ReplaceErr  error

	searches atomic.Int32
	mu       sync.Mutex
	replaced map[string][]string
}

// NewMockService creates a [MockService] named name.
func NewMockService(name string) *MockService {
	return &MockService{
		ServiceName: name,
		Results:     map[string]*models.Record{},
		Failing:     map[string]bool{},
	}
}

// Add registers a search result for track.
func (m *MockService) Add(track models.Track, rec models.Record) *MockService {
	m.Results[track.Query()] = &rec
	return m
}

func (m *MockService) Authenticate(ctx context.Context) error {
	return m.AuthErr
}

func (m *MockService) Search(ctx context.Context, track models.Track) (*models.Record, error) {
	m.searches.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Failing[track.Query()] {
		err := m.SearchErr
		if err == nil {
			err = errors.New("search failed")
		}
		return nil, err
	}
	rec, ok := m.Results[track.Query()]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MockService) ReplacePlaylist(ctx context.Context, playlistID string, ids []string) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaced == nil {
		m.replaced = map[string][]string{}
	}
	m.replaced[playlistID] = slices.Clone(ids)
	return nil
}

func (m *MockService) Name() string {
	if m.ServiceName == "" {
		return "mock"
	}
	return m.ServiceName
}

// Searches returns the number of Search calls so far.
func (m *MockService) Searches() int {
	return int(m.searches.Load())
}

// Playlist returns the ids last written to playlistID and whether it was written at all.
func (m *MockService) Playlist(playlistID string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.replaced[playlistID]
	return ids, ok
}

// MockRecorder collects recorded runs.
type MockRecorder struct {
	mu   sync.Mutex
	Runs []models.RunRecord
	Err  error
}

func (r *MockRecorder) Record(ctx context.Context, run models.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Runs = append(r.Runs, run)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
