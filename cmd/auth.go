package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/ltx/internal/server"
	"github.com/desertthunder/ltx/internal/services"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthSpotify runs the authorization code flow and stores the refresh token in the config file.
//
// The callback server listens on server.host:server.port; services.spotify.redirect_uri must point at it.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.Services.Spotify.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: services.spotify.redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(spotify, services.SpotifyName, redirect.Path, state)
	router := server.NewBasicRouter()
	router.Use(server.LogRequests(r.logger))
	router.Handler(handler)

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	addr := r.config.Server.Addr()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(ctx, addr, router)
	}()
	r.logger.Info("waiting for OAuth callback", "addr", addr, "path", redirect.Path)

	authURL := spotify.AuthCodeURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serveErr:
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("%w: callback server stopped: %v", shared.ErrAuthFailed, err)
	case <-ctx.Done():
		return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, cmd.Duration("timeout"))
	}

	cancel()
	if err := <-serveErr; err != nil {
		r.logger.Warn("callback server shutdown", "error", err)
	}

	if result.Err != nil {
		return result.Err
	}
	if err := r.saveRefreshToken(result.Token); err != nil {
		return err
	}

	return r.writePlain("✓ Spotify authorized\n")
}

// saveRefreshToken stores the Spotify refresh token in memory and, when a config path is set, on disk.
func (r *Runner) saveRefreshToken(token *oauth2.Token) error {
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("%w: token response carried no refresh token", shared.ErrNoRefreshToken)
	}

	r.config.Services.Spotify.RefreshToken = token.RefreshToken
	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Info("refresh token saved", "path", r.configPath)
	return nil
}
