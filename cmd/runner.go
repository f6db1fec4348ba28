package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/formatter"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/repositories"
	"github.com/desertthunder/ltx/internal/services"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/desertthunder/ltx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// serviceNames lists every destination in sync order.
var serviceNames = []string{services.SpotifyName, services.TidalName, services.YouTubeName}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	services   map[string]services.Service
	source     services.TrackSource
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services and Source replace the ones built from the config when set.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Services   map[string]services.Service
	Source     services.TrackSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Services == nil {
		opts.Services = map[string]services.Service{}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		services:   opts.Services,
		source:     opts.Source,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, syncCommand, resolveCommand, cacheCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// prepare applies the global flags: --config and --verbose.
//
// A missing config file keeps the current config; an invalid one is an error.
func (r *Runner) prepare(cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		return nil
	}
	r.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.logger.Debug("config loaded", "path", path)
	return nil
}

func (r *Runner) targetConfig(name string) (shared.TargetConfig, error) {
	switch name {
	case services.SpotifyName:
		return r.config.Services.Spotify.TargetConfig, nil
	case services.TidalName:
		return r.config.Services.Tidal.TargetConfig, nil
	case services.YouTubeName:
		return r.config.Services.YouTube.TargetConfig, nil
	default:
		return shared.TargetConfig{}, fmt.Errorf("%w: %q (want one of spotify, tidal, youtube)", shared.ErrUnknownService, name)
	}
}

func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	c := r.config.Services.Spotify
	return services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		RefreshToken: c.RefreshToken,
		HTTPClient:   r.httpClient,
	})
}

// service returns the named destination, building it from config unless one was injected.
func (r *Runner) service(name string) (services.Service, error) {
	if svc, ok := r.services[name]; ok {
		return svc, nil
	}

	switch name {
	case services.SpotifyName:
		svc, err := r.spotifyService()
		if err != nil {
			return nil, err
		}
		return svc, nil
	case services.TidalName:
		c := r.config.Services.Tidal
		svc, err := services.NewTidalService(services.TidalOpts{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RefreshToken: c.RefreshToken,
			CountryCode:  c.CountryCode,
			HTTPClient:   r.httpClient,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case services.YouTubeName:
		return services.NewYouTubeService(r.config.Services.YouTube.ProxyURL, r.httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownService, name)
	}
}

func (r *Runner) enabledServices() []string {
	var names []string
	for _, name := range serviceNames {
		if tc, _ := r.targetConfig(name); tc.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// targets builds sync targets for names, or for every enabled service when names is empty.
func (r *Runner) targets(names []string) ([]tasks.Target, error) {
	if len(names) == 0 {
		names = r.enabledServices()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: enable a service in the config or pass --service", shared.ErrNoTargets)
	}

	seen := map[string]bool{}
	targets := make([]tasks.Target, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tc, err := r.targetConfig(name)
		if err != nil {
			return nil, err
		}
		svc, err := r.service(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s service: %w", name, err)
		}

		targets = append(targets, tasks.Target{
			Service:    svc,
			PlaylistID: tc.PlaylistID,
			Cache:      r.cacheFile(name),
			Limiter:    tasks.NewLimiter(tc.RequestsPerSecond, tc.Burst),
		})
	}
	return targets, nil
}

func (r *Runner) cacheFile(name string) *cache.FileStore {
	return cache.NewFileStore(r.config.Cache.PathFor(name))
}

// engine builds a sync engine for targets with the configured validator and concurrency.
func (r *Runner) engine(targets []tasks.Target, dryRun bool, recorder tasks.RunRecorder) *tasks.SyncEngine {
	return tasks.NewSyncEngine(tasks.EngineOpts{
		Targets:     targets,
		Validator:   cache.NewValidator(r.config.Cache.Threshold),
		Concurrency: r.config.Cache.Concurrency,
		DryRun:      dryRun,
		Recorder:    recorder,
		Logger:      r.logger,
	})
}

// trackSource returns a file source for path, the injected source, or the configured Reddit listing.
func (r *Runner) trackSource(path string) (services.TrackSource, error) {
	if path != "" {
		return services.NewFileSource(path), nil
	}
	if r.source != nil {
		return r.source, nil
	}

	c := r.config.Source.Reddit
	return services.NewRedditSource(services.RedditOpts{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		UserAgent:    c.UserAgent,
		Subreddit:    c.Subreddit,
		Limit:        c.Limit,
		Pattern:      c.Pattern,
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
	})
}

// fetchTracks reads the track list and returns it with the source name.
func (r *Runner) fetchTracks(ctx context.Context, path string) (string, []models.Track, error) {
	src, err := r.trackSource(path)
	if err != nil {
		return "", nil, err
	}

	tracks, err := src.Tracks(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read tracks from %s: %w", src.Name(), err)
	}
	if len(tracks) == 0 {
		r.logger.Warn("source returned no tracks", "source", src.Name())
	}
	r.logger.Debug("tracks loaded", "source", src.Name(), "count", len(tracks))
	return src.Name(), tracks, nil
}

// openRuns opens the run history database, applying pending migrations.
func (r *Runner) openRuns(ctx context.Context) (*repositories.RunRepository, func() error, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		r.logger.Debug("migrations applied", "versions", applied)
	}

	return repositories.NewRunRepository(db), db.Close, nil
}

// writeOutput writes data to path when set, otherwise to the runner's output.
func (r *Runner) writeOutput(data []byte, path string) error {
	if path == "" {
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := formatter.WriteExport(path, data); err != nil {
		return err
	}
	r.logger.Info("output written", "path", path, "bytes", len(data))
	return r.writePlain("✓ Written to %s\n", path)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
