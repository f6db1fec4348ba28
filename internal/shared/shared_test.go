package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "service", "spotify")

	logger.Debug("hidden")
	SetLogLevel(logger, log.DebugLevel)
	logger.Debug("visible", "track", "'a' - 'b'")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected debug message to be filtered at the default level")
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "service=spotify") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ltx.log")
	logger, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Info("written to file")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("unexpected log file contents: %q", data)
	}
}

func TestGenerators(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b || len(a) != 36 {
			t.Errorf("unexpected ids %q %q", a, b)
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		a, err := GenerateState()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := GenerateState()
		if a == b || a == "" {
			t.Errorf("expected distinct non-empty states, got %q %q", a, b)
		}
		if strings.ContainsAny(a, "+/=") {
			t.Errorf("expected URL-safe state, got %q", a)
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil || string(compact) != `{"a":1}` {
		t.Errorf("compact = %s, err = %v", compact, err)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil || string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("pretty = %s, err = %v", pretty, err)
	}
}

func TestNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ltx.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ConfigureDatabase(db, 4, 2)
	if got := db.Stats().MaxOpenConnections; got != 4 {
		t.Errorf("expected 4 max open conns, got %d", got)
	}

	ConfigureDatabase(db, 0, 0)
	if got := db.Stats().MaxOpenConnections; got != 4 {
		t.Errorf("expected zero to leave pool size unchanged, got %d", got)
	}
}

func TestBrowserCommand(t *testing.T) {
	const url = "http://127.0.0.1:3000/login"

	t.Run("platforms", func(t *testing.T) {
		t.Setenv("BROWSER", "")

		tests := []struct {
			goos string
			want string
		}{
			{"darwin", "open"},
			{"linux", "xdg-open"},
			{"freebsd", "xdg-open"},
			{"windows", "rundll32"},
		}
		for _, tc := range tests {
			t.Run(tc.goos, func(t *testing.T) {
				name, args, err := browserCommand(tc.goos, url)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if name != tc.want {
					t.Errorf("got %q, want %q", name, tc.want)
				}
				if args[len(args)-1] != url {
					t.Errorf("url must be the last argument, got %v", args)
				}
			})
		}
	})

	t.Run("BROWSER overrides", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox")
		name, args, err := browserCommand("linux", url)
		if err != nil || name != "firefox" || len(args) != 1 {
			t.Errorf("got %q %v %v", name, args, err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		if _, _, err := browserCommand("plan9", url); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
