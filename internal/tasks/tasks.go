// package tasks runs track resolution against every configured service and writes the results to playlists.
//
// The core abstraction is SyncEngine. Runs emit progress updates via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/services"
	"github.com/desertthunder/ltx/internal/shared"
	"golang.org/x/time/rate"
)

// Target is one service and the playlist it keeps in sync.
type Target struct {
	Service    services.Service
	PlaylistID string
	Cache      *cache.FileStore
	Limiter    *rate.Limiter // Limiter paces searches; nil means unlimited
}

// RunRecorder persists per-target run statistics.
type RunRecorder interface {
	Record(ctx context.Context, run models.RunRecord) error
}

// TargetResult is what happened to a single target.
type TargetResult struct {
	Service    string
	PlaylistID string
	Resolution *cache.Resolution // Resolution is nil when authentication failed
	Pruned     int               // Pruned cache entries no longer in the track list
	Updated    bool              // Updated reports whether the playlist was replaced
	CacheErr   error             // CacheErr is a load or save failure; never fatal
	Err        error             // Err stopped the target (authentication or playlist update)
	Run        models.RunRecord
}

// RunResult collects the results of every target, in target order.
type RunResult struct {
	Tracks  int
	Targets []TargetResult
}

// Failed returns the number of targets that stopped with an error.
func (r *RunResult) Failed() int {
	n := 0
	for _, t := range r.Targets {
		if t.Err != nil {
			n++
		}
	}
	return n
}

// EngineOpts configures a [SyncEngine].
type EngineOpts struct {
	Targets     []Target
	Validator   cache.Validator
	Concurrency int  // Concurrency caps in-flight searches per target; zero means no limit
	DryRun      bool // DryRun resolves and saves caches without touching playlists
	Recorder    RunRecorder
	Logger      *log.Logger
}

// SyncEngine resolves tracks against every target and replaces each target playlist with the accepted matches.
type SyncEngine struct {
	targets     []Target
	validator   cache.Validator
	concurrency int
	dryRun      bool
	recorder    RunRecorder
	logger      *log.Logger
	now         func() time.Time
}

// NewSyncEngine creates a new SyncEngine with the provided targets and options.
func NewSyncEngine(opts EngineOpts) *SyncEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SyncEngine{
		targets:     opts.Targets,
		validator:   opts.Validator,
		concurrency: opts.Concurrency,
		dryRun:      opts.DryRun,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// NewLimiter builds a search rate limiter from a requests-per-second budget.
//
// A non-positive rate disables limiting and a non-positive burst becomes 1.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run syncs every target concurrently.
//
// A failing target never stops the others; its error is reported in its [TargetResult].
// The only error returned is [shared.ErrNoTargets].
func (e *SyncEngine) Run(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) (*RunResult, error) {
	if len(e.targets) == 0 {
		return nil, shared.ErrNoTargets
	}

	result := &RunResult{
		Tracks:  len(tracks),
		Targets: make([]TargetResult, len(e.targets)),
	}

	var wg sync.WaitGroup
	for i, target := range e.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Targets[i] = e.runTarget(ctx, target, tracks, progress, true)
		}()
	}
	wg.Wait()

	return result, nil
}

// Resolve looks tracks up on a single target without pruning its cache or touching its playlist.
func (e *SyncEngine) Resolve(ctx context.Context, target Target, tracks []models.Track, progress chan<- ProgressUpdate) TargetResult {
	return e.runTarget(ctx, target, tracks, progress, false)
}

func (e *SyncEngine) runTarget(ctx context.Context, target Target, tracks []models.Track, progress chan<- ProgressUpdate, full bool) TargetResult {
	name := target.Service.Name()
	logger := shared.WithLogger(e.logger, "service", name)
	started := e.now()

	res := TargetResult{Service: name, PlaylistID: target.PlaylistID}

	e.sendProgress(progress, authenticateUpdate(name))
	if err := target.Service.Authenticate(ctx); err != nil {
		res.Err = fmt.Errorf("authenticate %s: %w", name, err)
		logger.Error("authentication failed", "error", err)
		e.sendProgress(progress, failedUpdate(name, res.Err))
		return res
	}

	store := cache.NewStore()
	if target.Cache != nil {
		var err error
		store, err = target.Cache.Load()
		if err != nil {
			res.CacheErr = err
			logger.Warn("starting with an empty cache", "path", target.Cache.Path(), "error", err)
		}
	}
	e.sendProgress(progress, loadCacheUpdate(name, store.Len()))

	resolver := cache.NewResolver(store, cache.ResolverOpts{
		Validator:   e.validator,
		Logger:      logger,
		Concurrency: e.concurrency,
	})

	var done atomic.Int32
	total := len(tracks)
	search := limitSearch(target.Limiter, target.Service.Search)
	counted := func(ctx context.Context, track models.Track) (*models.Record, error) {
		rec, err := search(ctx, track)
		e.sendProgress(progress, searchUpdate(name, int(done.Add(1)), total, track))
		return rec, err
	}

	res.Resolution = resolver.ResolveAll(ctx, tracks, counted)

	if full {
		res.Pruned = store.Prune(tracks)
	}

	if target.Cache != nil {
		if err := target.Cache.Save(store); err != nil {
			res.CacheErr = err
			logger.Error("failed to save cache", "path", target.Cache.Path(), "error", err)
		} else {
			e.sendProgress(progress, saveCacheUpdate(name, res.Pruned, store.Len()))
		}
	}

	if full && !e.dryRun {
		res.Updated, res.Err = e.updatePlaylist(ctx, target, res.Resolution, progress)
		if res.Err != nil {
			logger.Error("failed to update playlist", "playlist", target.PlaylistID, "error", res.Err)
		}
	}

	res.Run = runRecord(res, started, e.now())
	if full && e.recorder != nil {
		if err := e.recorder.Record(context.WithoutCancel(ctx), res.Run); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	if res.Err != nil {
		e.sendProgress(progress, failedUpdate(name, res.Err))
	} else {
		e.sendProgress(progress, doneUpdate(name, res.Resolution.Stats))
	}

	logger.Info("target finished",
		"accepted", res.Resolution.Stats.Accepted,
		"total", res.Resolution.Stats.Total,
		"cache_hits", res.Resolution.Stats.CacheHits,
		"errors", res.Resolution.Stats.Errors,
		"updated", res.Updated,
	)

	return res
}

// updatePlaylist replaces the target playlist with the accepted records.
//
// A cancelled run leaves the playlist alone: a partial resolution would drop tracks that are still wanted.
func (e *SyncEngine) updatePlaylist(ctx context.Context, target Target, resolution *cache.Resolution, progress chan<- ProgressUpdate) (bool, error) {
	name := target.Service.Name()
	if target.PlaylistID == "" {
		return false, fmt.Errorf("%w: no playlist configured for %s", shared.ErrMissingConfig, name)
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s playlist not updated: %w", name, err)
	}

	ids := make([]string, len(resolution.Records))
	for i, rec := range resolution.Records {
		ids[i] = rec.ID
	}

	e.sendProgress(progress, updatePlaylistUpdate(name, target.PlaylistID, len(ids)))
	if err := target.Service.ReplacePlaylist(ctx, target.PlaylistID, ids); err != nil {
		return false, fmt.Errorf("replace %s playlist %s: %w", name, target.PlaylistID, err)
	}
	return true, nil
}

func limitSearch(limiter *rate.Limiter, search cache.SearchFunc) cache.SearchFunc {
	if limiter == nil {
		return search
	}
	return func(ctx context.Context, track models.Track) (*models.Record, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return search(ctx, track)
	}
}

func runRecord(res TargetResult, started, finished time.Time) models.RunRecord {
	stats := res.Resolution.Stats
	return models.RunRecord{
		ID:         shared.GenerateID(),
		Service:    res.Service,
		PlaylistID: res.PlaylistID,
		Total:      stats.Total,
		CacheHits:  stats.CacheHits,
		Searched:   stats.Searched,
		NotFound:   stats.NotFound,
		Rejected:   stats.Rejected,
		Accepted:   stats.Accepted,
		Errors:     stats.Errors,
		Updated:    res.Updated,
		StartedAt:  started,
		FinishedAt: finished,
	}
}
