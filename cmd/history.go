package main

import (
	"context"
	"time"

	"github.com/desertthunder/ltx/internal/formatter"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/urfave/cli/v3"
)

type runView struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Total      int       `json:"total"`
	CacheHits  int       `json:"cache_hits"`
	Searched   int       `json:"searched"`
	NotFound   int       `json:"not_found"`
	Rejected   int       `json:"rejected"`
	Accepted   int       `json:"accepted"`
	Errors     int       `json:"errors"`
	Updated    bool      `json:"updated"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

func newRunView(run models.RunRecord) runView {
	return runView{
		ID:         run.ID,
		Service:    run.Service,
		PlaylistID: run.PlaylistID,
		Total:      run.Total,
		CacheHits:  run.CacheHits,
		Searched:   run.Searched,
		NotFound:   run.NotFound,
		Rejected:   run.Rejected,
		Accepted:   run.Accepted,
		Errors:     run.Errors,
		Updated:    run.Updated,
		StartedAt:  run.StartedAt,
		DurationMS: run.Duration().Milliseconds(),
	}
}

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	runs, closeDB, err := r.openRuns(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := runs.List(ctx, cmd.String("service"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(records))
		for i, run := range records {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("No runs recorded\n")
	}
	return r.writeOutput(formatter.RunsToText(records), "")
}

// HistoryPrune deletes runs started before --older-than ago.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	runs, closeDB, err := r.openRuns(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	cutoff := time.Now().Add(-cmd.Duration("older-than"))
	deleted, err := runs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("run history pruned", "deleted", deleted, "cutoff", cutoff.Format(time.DateTime))
	return r.writePlain("✓ Deleted %d runs\n", deleted)
}
