package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/desertthunder/ltx/internal/tasks"
	tu "github.com/desertthunder/ltx/internal/testing"
)

var (
	found   = models.NewTrack("Daft Punk", "One More Time")
	missing = models.NewTrack("Nobody", "Nothing")
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(svc *tu.MockService) *Model {
	engine := tasks.NewSyncEngine(tasks.EngineOpts{
		Targets: []tasks.Target{{Service: svc, PlaylistID: "pl"}},
		Logger:  shared.NewLogger(io.Discard),
	})
	return NewModel(context.Background(), engine, "file", []string{svc.Name()}, []models.Track{found, missing})
}

// drain runs commands until the sync completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		_, cmd = m.Update(cmd())
		if m.State() == ResultView {
			return
		}
	}
	t.Fatalf("sync did not complete, view = %d", m.State())
}

func TestModel(t *testing.T) {
	t.Run("full sync flow", func(t *testing.T) {
		svc := tu.NewMockService("spotify").Add(found, models.Record{ID: "1", Title: found.Title, Artists: []string{found.Artist}})
		m := newTestModel(svc)

		if m.State() != TrackListView {
			t.Fatalf("expected track list view, got %d", m.State())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.State() != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.State())
		}
		if view := m.View(); !strings.Contains(view, "Sync 2 tracks to spotify?") {
			t.Errorf("unexpected confirm view: %q", view)
		}

		_, cmd := m.Update(runes("y"))
		if m.State() != SyncView || cmd == nil {
			t.Fatalf("expected sync view with a command, got %d", m.State())
		}
		drain(t, m, cmd)

		if m.Result() == nil || m.Result().Failed() != 0 {
			t.Fatalf("unexpected result: %+v", m.Result())
		}
		if ids, _ := svc.Playlist("pl"); len(ids) != 1 || ids[0] != "1" {
			t.Errorf("unexpected playlist: %v", ids)
		}
		if view := m.View(); !strings.Contains(view, "✓ spotify") || !strings.Contains(view, "1/2 accepted") {
			t.Errorf("unexpected result view: %q", view)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.State() != OutcomeListView {
			t.Fatalf("expected outcome list view, got %d", m.State())
		}
		if items := m.outcomeList.Items(); len(items) != 1 {
			t.Errorf("expected 1 unmatched item, got %d", len(items))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.State() != ResultView {
			t.Errorf("expected esc to return to results, got %d", m.State())
		}

		m.Update(runes("r"))
		if m.State() != ConfirmView || m.Result() != nil {
			t.Errorf("expected restart to return to confirm, got %d", m.State())
		}
	})

	t.Run("declining returns to the track list", func(t *testing.T) {
		m := newTestModel(tu.NewMockService("tidal"))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("n"))
		if m.State() != TrackListView {
			t.Errorf("expected track list view, got %d", m.State())
		}
	})

	t.Run("failed target is shown", func(t *testing.T) {
		svc := tu.NewMockService("youtube")
		svc.AuthErr = errors.New("proxy down")
		m := newTestModel(svc)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		_, cmd := m.Update(runes("y"))
		drain(t, m, cmd)

		view := m.View()
		if !strings.Contains(view, "✗ youtube") || !strings.Contains(view, "proxy down") {
			t.Errorf("unexpected result view: %q", view)
		}
	})

	t.Run("progress is tracked per service", func(t *testing.T) {
		m := newTestModel(tu.NewMockService("spotify"))
		m.view = SyncView
		m.Update(progressUpdateMsg{Service: "spotify", Phase: tasks.Resolve, Step: 3, Total: 10})

		if view := m.View(); !strings.Contains(view, "spotify: searching (3/10)") {
			t.Errorf("unexpected sync view: %q", view)
		}
	})
}

func TestSummary(t *testing.T) {
	result := &tasks.RunResult{
		Tracks: 10,
		Targets: []tasks.TargetResult{
			{
				Service:    "spotify",
				PlaylistID: "abc",
				Updated:    true,
				Resolution: &cache.Resolution{Stats: cache.Stats{Total: 10, Accepted: 8, CacheHits: 6, Searched: 4, NotFound: 2}},
			},
			{Service: "tidal", Err: errors.New("authenticate tidal: bad credentials")},
			{
				Service:    "youtube",
				Resolution: &cache.Resolution{Stats: cache.Stats{Total: 10, Errors: 1}},
				CacheErr:   errors.New("disk full"),
			},
		},
	}

	out := Summary(result)
	for _, want := range []string{
		"Synced 10 tracks to 3 services (1 failed)",
		"✓ spotify",
		"8/10 accepted • 6 cached • 4 searched • 2 not found",
		"playlist abc updated",
		"✗ tidal",
		"bad credentials",
		"1 errors",
		"playlist not updated (dry run)",
		"cache: disk full",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q, got:\n%s", want, out)
		}
	}
}

func TestProgressLine(t *testing.T) {
	tests := []tasks.ProgressUpdate{
		{Phase: tasks.Authenticate, Message: "Authenticating with spotify..."},
		{Phase: tasks.Failed, Message: "✗ spotify: boom"},
		{Phase: tasks.Done, Message: "✓ spotify: 1/1 accepted"},
		{Phase: tasks.Resolve, Message: "[spotify 1/1] 'a' - 'b'"},
	}
	for _, u := range tests {
		t.Run(u.Phase.String(), func(t *testing.T) {
			if got := ProgressLine(u); !strings.Contains(got, u.Message) {
				t.Errorf("ProgressLine() = %q, want it to contain %q", got, u.Message)
			}
		})
	}
}

func TestKeyMapHelp(t *testing.T) {
	keys := newKeyMap()

	tests := []struct {
		view ViewState
		want []string
	}{
		{TrackListView, []string{"enter", "q"}},
		{ConfirmView, []string{"y", "n"}},
		{SyncView, []string{"q"}},
		{ResultView, []string{"enter", "r", "q"}},
		{OutcomeListView, []string{"esc", "q"}},
		{ViewState(99), nil},
	}

	for _, tt := range tests {
		bindings := keys.help(tt.view)
		if len(bindings) != len(tt.want) {
			t.Fatalf("view %d: expected %d bindings, got %d", tt.view, len(tt.want), len(bindings))
		}
		for i, b := range bindings {
			if got := b.Help().Key; got != tt.want[i] {
				t.Errorf("view %d binding %d: expected %q, got %q", tt.view, i, tt.want[i], got)
			}
		}
	}
}
