package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ChristopherJMiller/nutune/internal/services"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// Auth verifies credentials against the server and persists them.
//
// Flags override config values; the merged credentials are checked with
// a ping and written back to the config file with 0600 permissions so
// the password never ends up world-readable.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	server := r.config.Server
	if url := cmd.String("url"); url != "" {
		server.URL = url
	}
	if username := cmd.String("username"); username != "" {
		server.Username = username
	}
	if password := cmd.String("password"); password != "" {
		server.Password = password
	}

	if server.URL == "" || server.Username == "" || server.Password == "" {
		return fmt.Errorf("%w: url, username, and password are required", shared.ErrMissingCredentials)
	}

	svc, err := services.NewSubsonicService(server, r.httpClient)
	if err != nil {
		return err
	}

	r.logger.Info("verifying credentials", "url", server.URL, "username", server.Username)

	if err := svc.Ping(ctx); err != nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("credential check failed: %w", err)
		}
		r.logger.Warn("credential check failed, saving anyway (--force)", "error", err)
	}

	r.config.Server = server
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.svc = svc

	r.writePlain("✓ Authenticated with %s as %s\n", server.URL, server.Username)
	r.writePlain("Credentials saved to %s\n", configPath)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(server.URL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return nil
}
