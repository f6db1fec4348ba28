package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ltx/internal/formatter"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/services"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/desertthunder/ltx/internal/tasks"
	"github.com/desertthunder/ltx/internal/ui"
	"github.com/urfave/cli/v3"
)

type targetView struct {
	Service    string `json:"service"`
	PlaylistID string `json:"playlist_id,omitempty"`
	Total      int    `json:"total"`
	CacheHits  int    `json:"cache_hits"`
	Searched   int    `json:"searched"`
	NotFound   int    `json:"not_found"`
	Rejected   int    `json:"rejected"`
	Accepted   int    `json:"accepted"`
	Errors     int    `json:"errors"`
	Pruned     int    `json:"pruned"`
	Updated    bool   `json:"updated"`
	CacheError string `json:"cache_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

type syncView struct {
	Source  string       `json:"source"`
	Tracks  int          `json:"tracks"`
	DryRun  bool         `json:"dry_run"`
	Targets []targetView `json:"targets"`
}

func newSyncView(source string, dryRun bool, result *tasks.RunResult) syncView {
	v := syncView{Source: source, Tracks: result.Tracks, DryRun: dryRun, Targets: make([]targetView, len(result.Targets))}
	for i, t := range result.Targets {
		tv := targetView{
			Service:    t.Service,
			PlaylistID: t.PlaylistID,
			Pruned:     t.Pruned,
			Updated:    t.Updated,
		}
		if res := t.Resolution; res != nil {
			tv.Total = res.Stats.Total
			tv.CacheHits = res.Stats.CacheHits
			tv.Searched = res.Stats.Searched
			tv.NotFound = res.Stats.NotFound
			tv.Rejected = res.Stats.Rejected
			tv.Accepted = res.Stats.Accepted
			tv.Errors = res.Stats.Errors
		}
		if t.CacheErr != nil {
			tv.CacheError = t.CacheErr.Error()
		}
		if t.Err != nil {
			tv.Error = t.Err.Error()
		}
		v.Targets[i] = tv
	}
	return v
}

// Sync resolves the source tracks on every target and replaces each target playlist.
//
// Progress is printed as it arrives; per-track search updates only at debug level.
// A run that could not be recorded still succeeds.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	targets, err := r.targets(cmd.StringSlice("service"))
	if err != nil {
		return err
	}

	source, tracks, err := r.fetchTracks(ctx, cmd.String("tracks"))
	if err != nil {
		return err
	}

	var recorder tasks.RunRecorder
	runs, closeDB, err := r.openRuns(ctx)
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		defer closeDB()
		recorder = runs
	}

	dryRun := cmd.Bool("dry-run")
	asJSON := cmd.Bool("json")
	engine := r.engine(targets, dryRun, recorder)

	r.logger.Info("starting sync", "source", source, "tracks", len(tracks), "targets", len(targets), "dry_run", dryRun)

	progress := make(chan tasks.ProgressUpdate, 100)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for u := range progress {
			if u.Phase == tasks.Resolve {
				r.logger.Debug(u.Message)
				continue
			}
			if !asJSON {
				r.writePlain("%s\n", ui.ProgressLine(u))
			}
		}
	}()

	result, err := engine.Run(ctx, tracks, progress)
	close(progress)
	<-printed
	if err != nil {
		return err
	}

	if asJSON {
		if err := r.writeJSON(newSyncView(source, dryRun, result), cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writePlain("\n%s", ui.Summary(result))
	}

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(result.Targets))
	}
	return nil
}

// Resolve reports how tracks resolve on a single service.
//
// Tracks come from the positional arguments when given, otherwise from --tracks or the configured source.
// The cache is updated but not pruned, and no playlist is written.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	name := cmd.String("service")
	targets, err := r.targets([]string{name})
	if err != nil {
		return err
	}

	var tracks []models.Track
	if args := cmd.Args().Slice(); len(args) > 0 {
		if tracks, err = parseTrackArgs(args); err != nil {
			return err
		}
	} else if _, tracks, err = r.fetchTracks(ctx, cmd.String("tracks")); err != nil {
		return err
	}

	result := r.engine(targets, true, nil).Resolve(ctx, targets[0], tracks, nil)
	if result.Err != nil {
		return result.Err
	}
	if result.CacheErr != nil {
		r.logger.Warn("cache problem", "service", name, "error", result.CacheErr)
	}

	data, err := formatter.ExportResolution(cmd.String("format"), name, result.Resolution)
	if err != nil {
		return err
	}
	return r.writeOutput(data, cmd.String("output"))
}

func parseTrackArgs(args []string) ([]models.Track, error) {
	tracks := make([]models.Track, 0, len(args))
	for _, arg := range args {
		track, ok := services.ParseTrackLine(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not \"Artist - Title\"", shared.ErrInvalidArgument, arg)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Tracks prints the current track list of the source.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	source, tracks, err := r.fetchTracks(ctx, cmd.String("tracks"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if tracks == nil {
			tracks = []models.Track{}
		}
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%d tracks from %s", len(tracks), source))
	for i, t := range tracks {
		r.writePlain("%3d. %s - %s\n", i+1, t.Artist, t.Title)
	}
	return nil
}
