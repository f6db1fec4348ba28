package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/ltx/internal/models"
)

// FileSource reads tracks from "Artist - Title" lines.
//
// Blank lines and lines starting with '#' are ignored. Other lines without " - " are an error,
// since a hand-written file is expected to be well formed.
type FileSource struct {
	path string
	open func() (io.ReadCloser, error)
}

// NewFileSource creates a source for path. "-" reads stdin.
func NewFileSource(path string) *FileSource {
	open := func() (io.ReadCloser, error) { return os.Open(path) }
	if path == "-" {
		open = func() (io.ReadCloser, error) { return io.NopCloser(os.Stdin), nil }
	}
	return &FileSource{path: path, open: open}
}

func (f *FileSource) Name() string {
	return "file:" + f.path
}

// Tracks parses every line of the file.
func (f *FileSource) Tracks(ctx context.Context) ([]models.Track, error) {
	rc, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}
	defer rc.Close()

	return ParseTracks(ctx, rc)
}

// ParseTracks reads "Artist - Title" lines from r.
func ParseTracks(ctx context.Context, r io.Reader) ([]models.Track, error) {
	var tracks []models.Track

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		track, ok := ParseTrackLine(line)
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"Artist - Title\", got %q", n, line)
		}
		tracks = append(tracks, track)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}
	return tracks, nil
}

// ParseTrackLine parses a single "Artist - Title" line.
func ParseTrackLine(line string) (models.Track, bool) {
	artist, title, ok := strings.Cut(line, " - ")
	if !ok {
		return models.Track{}, false
	}
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" || title == "" {
		return models.Track{}, false
	}
	return models.NewTrack(artist, title), true
}
