package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(service string, startedAt time.Time) models.RunRecord {
	return models.RunRecord{
		Service:    service,
		PlaylistID: "playlist-" + service,
		Total:      10,
		CacheHits:  6,
		Searched:   3,
		NotFound:   1,
		Rejected:   2,
		Accepted:   6,
		Errors:     1,
		Updated:    true,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
	}
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Record and Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun("spotify", base)
		run.ID = "run-1"

		if err := repo.Record(ctx, run); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}

		got, err := repo.Get(ctx, "run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Service != "spotify" || got.PlaylistID != "playlist-spotify" {
			t.Errorf("unexpected run identity: %+v", got)
		}
		if got.CacheHits != 6 || got.Rejected != 2 || got.Errors != 1 || !got.Updated {
			t.Errorf("unexpected counters: %+v", got)
		}
		if !got.StartedAt.Equal(base) {
			t.Errorf("expected started_at %v, got %v", base, got.StartedAt)
		}
		if got.Duration() != 2*time.Second {
			t.Errorf("expected 2s duration, got %v", got.Duration())
		}
	})

	t.Run("Record generates ID", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Record(ctx, newRun("tidal", base)); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}

		runs, err := repo.List(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || len(runs[0].ID) != 36 {
			t.Errorf("expected one run with generated uuid, got %+v", runs)
		}
	})

	t.Run("Record requires service", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Record(ctx, newRun("", base)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List and Latest", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for i, svc := range []string{"spotify", "tidal", "spotify", "youtube", "spotify"} {
			if err := repo.Record(ctx, newRun(svc, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 5 {
			t.Fatalf("expected 5 runs, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].StartedAt.After(all[i-1].StartedAt) {
				t.Errorf("runs not ordered newest first at %d", i)
			}
		}

		spotify, err := repo.List(ctx, "spotify", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(spotify) != 2 {
			t.Errorf("expected 2 spotify runs, got %d", len(spotify))
		}

		latest, err := repo.Latest(ctx, "spotify")
		if err != nil {
			t.Fatal(err)
		}
		if !latest.StartedAt.Equal(base.Add(4 * time.Hour)) {
			t.Errorf("expected latest spotify run at +4h, got %v", latest.StartedAt)
		}

		if _, err := repo.Latest(ctx, "deezer"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("DeleteBefore", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for i := range 3 {
			if err := repo.Record(ctx, newRun("spotify", base.Add(time.Duration(i)*24*time.Hour))); err != nil {
				t.Fatal(err)
			}
		}

		n, err := repo.DeleteBefore(ctx, base.Add(36*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 deleted, got %d", n)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		db.Close()

		if err := repo.Record(ctx, newRun("spotify", base)); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(ctx, "", 0); err == nil {
			t.Error("expected error on closed database")
		}
	})
}
