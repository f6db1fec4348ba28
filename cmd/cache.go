package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/formatter"
	"github.com/urfave/cli/v3"
)

type cacheStatsView struct {
	Service  string `json:"service"`
	Path     string `json:"path"`
	Entries  int    `json:"entries"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	NotFound int    `json:"not_found"`
}

// loadCache opens the cache file of a known service.
func (r *Runner) loadCache(name string) (*cache.FileStore, *cache.Store, error) {
	if _, err := r.targetConfig(name); err != nil {
		return nil, nil, err
	}

	file := r.cacheFile(name)
	store, err := file.Load()
	if err != nil {
		return nil, nil, err
	}
	return file, store, nil
}

// CacheShow prints or exports every entry of a service cache.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	name := cmd.String("service")
	_, store, err := r.loadCache(name)
	if err != nil {
		return err
	}

	data, err := formatter.ExportCache(cmd.String("format"), name, store.Pairs())
	if err != nil {
		return err
	}
	return r.writeOutput(data, cmd.String("output"))
}

// CacheStats counts the entries of one service cache, or of all of them.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	names := serviceNames
	if name := cmd.String("service"); name != "" {
		names = []string{name}
	}

	views := make([]cacheStatsView, 0, len(names))
	for _, name := range names {
		file, store, err := r.loadCache(name)
		if err != nil {
			return err
		}
		s := store.Stats()
		views = append(views, cacheStatsView{
			Service:  name,
			Path:     file.Path(),
			Entries:  s.Entries,
			Accepted: s.Accepted,
			Rejected: s.Rejected,
			NotFound: s.NotFound,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Resolution caches")
	for _, v := range views {
		r.writePlain("%-8s %5d entries  %5d accepted  %5d rejected  %5d not found  (%s)\n",
			v.Service, v.Entries, v.Accepted, v.Rejected, v.NotFound, v.Path)
	}
	return nil
}

// CachePrune drops entries for tracks the source no longer lists.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	name := cmd.String("service")
	file, store, err := r.loadCache(name)
	if err != nil {
		return err
	}

	_, tracks, err := r.fetchTracks(ctx, cmd.String("tracks"))
	if err != nil {
		return err
	}

	pruned := store.Prune(tracks)
	if err := file.Save(store); err != nil {
		return err
	}

	r.logger.Info("cache pruned", "service", name, "pruned", pruned, "entries", store.Len())
	return r.writePlain("✓ Pruned %d entries from %s cache (%d remain)\n", pruned, name, store.Len())
}

// CacheClear deletes the cache file of a service.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	name := cmd.String("service")
	if _, err := r.targetConfig(name); err != nil {
		return err
	}

	file := r.cacheFile(name)
	if err := file.Remove(); err != nil {
		return fmt.Errorf("failed to clear %s cache: %w", name, err)
	}

	r.logger.Info("cache cleared", "service", name, "path", file.Path())
	return r.writePlain("✓ Cleared %s cache\n", name)
}
