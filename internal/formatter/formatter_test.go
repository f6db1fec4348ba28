package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	th "github.com/desertthunder/ltx/internal/testing"
)

func testPairs() []cache.Pair {
	return []cache.Pair{
		{
			Track: models.NewTrack("Daft Punk", "One More Time"),
			Entry: &cache.Result{
				Record:   models.Record{ID: "spotify:track:1", Title: "One More Time", Artists: []string{"Daft Punk", "Romanthony"}},
				Accepted: true,
			},
		},
		{
			Track: models.NewTrack("Adele", "Hello"),
			Entry: &cache.Result{Record: models.Record{ID: "spotify:track:2", Title: "Goodbye"}},
		},
		{Track: models.NewTrack("Nobody | Else", "Nothing")},
	}
}

func testResolution() *cache.Resolution {
	pairs := testPairs()
	return &cache.Resolution{
		Records: []models.Record{pairs[0].Entry.Record},
		Outcomes: []cache.Outcome{
			{Track: pairs[0].Track, Result: pairs[0].Entry, CacheHit: true},
			{Track: pairs[1].Track, Result: pairs[1].Entry},
			{Track: pairs[2].Track, Err: errors.New("timeout")},
		},
		Stats: cache.Stats{Total: 3, CacheHits: 1, Searched: 1, Accepted: 1, Rejected: 1, Errors: 1},
	}
}

func TestCacheExporters(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := CacheToCSV(testPairs())
		if err != nil {
			t.Fatalf("CacheToCSV failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Artist,Title,Status,ID,Matched Title,Matched Artists",
			"Daft Punk,One More Time,accepted,spotify:track:1,One More Time,Daft Punk; Romanthony",
			"Adele,Hello,rejected,spotify:track:2,Goodbye,",
			"Nobody | Else,Nothing,not_found,,,",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("CSV missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		output := string(CacheToMarkdown("spotify", testPairs()))
		for _, want := range []string{
			"# spotify cache",
			"**Entries**: 3",
			"| Daft Punk | One More Time | accepted | Daft Punk, Romanthony - One More Time |",
			`| Nobody \| Else | Nothing | not_found |  |`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Text", func(t *testing.T) {
		output := string(CacheToText(testPairs()))
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "1. Daft Punk - One More Time [accepted] -> One More Time (spotify:track:1)" {
			t.Errorf("unexpected first line: %q", lines[0])
		}
		if lines[2] != "3. Nobody | Else - Nothing [not_found]" {
			t.Errorf("unexpected last line: %q", lines[2])
		}
	})

	t.Run("ExportCache formats", func(t *testing.T) {
		tests := []struct {
			format string
			want   string
		}{
			{FormatCSV, "Artist,Title"},
			{FormatMarkdown, "# spotify cache"},
			{"md", "# spotify cache"},
			{FormatText, "1. Daft Punk"},
			{"", "1. Daft Punk"},
			{FormatJSON, `"artist": "Daft Punk"`},
		}
		for _, tc := range tests {
			t.Run(tc.format, func(t *testing.T) {
				data, err := ExportCache(tc.format, "spotify", testPairs())
				if err != nil {
					t.Fatalf("ExportCache(%q) failed: %v", tc.format, err)
				}
				if !strings.Contains(string(data), tc.want) {
					t.Errorf("ExportCache(%q) missing %q, got:\n%s", tc.format, tc.want, data)
				}
			})
		}

		if _, err := ExportCache("xml", "spotify", nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty JSON is an array", func(t *testing.T) {
		data, err := ExportCache(FormatJSON, "spotify", nil)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "[]" {
			t.Errorf("got %s, want []", data)
		}
	})
}

func TestResolutionExporters(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		output := string(ResolutionToText("tidal", testResolution()))
		for _, want := range []string{
			"Service: tidal",
			"Accepted: 1/3",
			"1. Daft Punk - One More Time [accepted, cached] -> One More Time (spotify:track:1)",
			"2. Adele - Hello [rejected] -> Goodbye (spotify:track:2)",
			"3. Nobody | Else - Nothing [error]: timeout",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := ResolutionToCSV(testResolution())
		if err != nil {
			t.Fatal(err)
		}
		output := string(data)
		if !strings.Contains(output, "Daft Punk,One More Time,accepted,true,spotify:track:1") {
			t.Errorf("CSV missing cached accepted row, got:\n%s", output)
		}
		if !strings.Contains(output, "Nobody | Else,Nothing,error,false,,,") {
			t.Errorf("CSV missing error row, got:\n%s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := ExportResolution(FormatJSON, "tidal", testResolution())
		if err != nil {
			t.Fatal(err)
		}

		var got struct {
			Service  string          `json:"service"`
			Records  []models.Record `json:"records"`
			Outcomes []struct {
				Status string `json:"status"`
				Cached bool   `json:"cached"`
				Error  string `json:"error"`
			} `json:"outcomes"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Service != "tidal" || len(got.Records) != 1 || len(got.Outcomes) != 3 {
			t.Fatalf("unexpected JSON: %s", data)
		}
		if !got.Outcomes[0].Cached || got.Outcomes[2].Status != StatusError || got.Outcomes[2].Error != "timeout" {
			t.Errorf("unexpected outcomes: %+v", got.Outcomes)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := ExportResolution(FormatMarkdown, "tidal", testResolution()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRunsToText(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []models.RunRecord{
		{Service: "spotify", Total: 100, CacheHits: 90, Accepted: 80, Rejected: 5, Updated: true, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)},
		{Service: "youtube", Total: 100, Errors: 3, StartedAt: start, FinishedAt: start.Add(time.Second)},
	}

	lines := strings.Split(strings.TrimSpace(string(RunsToText(runs))), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "STARTED") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "spotify") || !strings.Contains(lines[1], "yes") || !strings.HasSuffix(lines[1], "1.5s") {
		t.Errorf("unexpected spotify row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "youtube") || !strings.Contains(lines[2], "no") {
		t.Errorf("unexpected youtube row: %q", lines[2])
	}
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cache.csv")
	if err := WriteExport(path, []byte("a,b\n")); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if got := th.MustReadFile(t, path); got != "a,b\n" {
		t.Errorf("got %q", got)
	}
}
