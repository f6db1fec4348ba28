package cache

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	"golang.org/x/sync/errgroup"
)

// SearchFunc looks up a track on an external service.
//
// It returns (nil, nil) when the service has no result for the track.
// It must be safe to call concurrently for different tracks.
type SearchFunc func(ctx context.Context, track models.Track) (*models.Record, error)

// Outcome is the resolution of a single track.
type Outcome struct {
	Track    models.Track
	Result   *Result // Result is nil when nothing was found or Err is set
	Err      error   // Err is a failed search; the track was not cached
	CacheHit bool    // CacheHit is true when search was not invoked
}

// Stats aggregates the outcomes of a [Resolver.ResolveAll] call.
type Stats struct {
	Total     int
	CacheHits int
	Searched  int
	NotFound  int
	Rejected  int
	Accepted  int
	Errors    int
}

// Resolution is the result of resolving a batch of tracks.
type Resolution struct {
	Records  []models.Record // Records are the accepted hits, in input order
	Outcomes []Outcome       // Outcomes has one entry per input track, in input order
	Stats    Stats
}

// ResolverOpts configures a [Resolver].
type ResolverOpts struct {
	Validator   Validator
	Logger      *log.Logger
	Concurrency int // Concurrency caps in-flight resolutions; zero means no limit
}

// Resolver resolves tracks through a [Store], calling the search function only for tracks never seen before.
type Resolver struct {
	store       *Store
	validator   Validator
	logger      *log.Logger
	concurrency int
}

// NewResolver creates a [Resolver] backed by store.
func NewResolver(store *Store, opts ResolverOpts) *Resolver {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Validator.Threshold <= 0 {
		opts.Validator = NewValidator(DefaultThreshold)
	}

	return &Resolver{
		store:       store,
		validator:   opts.Validator,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
}

// Store returns the store the resolver reads and writes.
func (r *Resolver) Store() *Store {
	return r.store
}

// ResolveOne resolves a single track.
//
// A cached entry is returned as is, even when it was rejected under a different threshold.
// A failed or cancelled search leaves the store untouched so the track is retried later.
func (r *Resolver) ResolveOne(ctx context.Context, track models.Track, search SearchFunc) Outcome {
	if entry, ok := r.store.Lookup(track); ok {
		return Outcome{Track: track, Result: entry, CacheHit: true}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{Track: track, Err: err}
	}

	record, err := search(ctx, track)
	if err != nil {
		return Outcome{Track: track, Err: err}
	}

	var entry *Result
	if record != nil {
		entry = &Result{Record: *record, Accepted: r.validator.Score(track, *record)}
	}
	r.store.Insert(track, entry)

	return Outcome{Track: track, Result: entry}
}

// ResolveAll resolves every track concurrently and returns the accepted records in input order.
//
// Failed searches are logged and dropped; they never fail the batch.
func (r *Resolver) ResolveAll(ctx context.Context, tracks []models.Track, search SearchFunc) *Resolution {
	outcomes := make([]Outcome, len(tracks))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, track := range tracks {
		g.Go(func() error {
			outcomes[i] = r.ResolveOne(ctx, track, search)
			return nil
		})
	}
	_ = g.Wait()

	res := &Resolution{
		Records:  make([]models.Record, 0, len(tracks)),
		Outcomes: outcomes,
		Stats:    Stats{Total: len(tracks)},
	}

	cancelled := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			res.Stats.Errors++
			if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
				cancelled++
			} else {
				r.logger.Error("search failed", "track", o.Track.String(), "error", o.Err)
			}
			continue
		case o.CacheHit:
			res.Stats.CacheHits++
		default:
			res.Stats.Searched++
		}

		switch {
		case o.Result == nil:
			res.Stats.NotFound++
		case !o.Result.Accepted:
			res.Stats.Rejected++
			r.logger.Debug("rejected match", "track", o.Track.String(), "title", o.Result.Record.Title, "artists", o.Result.Record.Artists)
		default:
			res.Stats.Accepted++
			res.Records = append(res.Records, o.Result.Record)
		}
	}

	if cancelled > 0 {
		r.logger.Warn("resolution interrupted", "unresolved", cancelled, "error", ctx.Err())
	}

	return res
}
