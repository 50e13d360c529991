package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/ChristopherJMiller/nutune/internal/formatter"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/shared"
	"github.com/ChristopherJMiller/nutune/internal/tasks"
	"github.com/ChristopherJMiller/nutune/internal/ui"
)

// Browse launches the interactive catalog browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	if shared.DetectOutputMode(false, true) != shared.ModeTUI {
		return fmt.Errorf("%w: browse needs a terminal; use the listing subcommands instead", shared.ErrInvalidInput)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/nutune-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	selectionPath, err := tasks.DefaultSelectionPath()
	if err != nil {
		return fmt.Errorf("failed to resolve selection path: %w", err)
	}
	selection, err := tasks.LoadSelection(selectionPath)
	if err != nil {
		r.logger.Warn("failed to load saved selection", "error", err)
	}

	model := ui.NewModel(ctx, svc, r.logger, r.syncOpts(0), selectionPath, selection)
	if cmd.Bool("playlists") {
		model.StartOnPlaylists()
	}
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// BrowseArtists prints the artist index.
func (r *Runner) BrowseArtists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	artists, err := svc.GetArtists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}

	if cmd.String("format") == "csv" {
		data, err := formatter.ArtistsToCSV(artists)
		if err != nil {
			return err
		}
		return r.writeData(cmd.String("output"), data)
	}

	for _, artist := range artists {
		r.writePlain("%s  %s (%d albums)\n", artist.ID, artist.Name, artist.AlbumCount)
	}
	return nil
}

// BrowseAlbums prints the album listing, or exports a single album's
// track listing when --id is given.
func (r *Runner) BrowseAlbums(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	if id := cmd.String("id"); id != "" {
		details, err := svc.GetAlbum(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(details, true)
		}
		var cover []byte
		if details.CoverArt != "" {
			cover, _ = svc.GetCoverArt(ctx, details.CoverArt, 0)
		}
		return r.exportEntry(cmd, formatter.AlbumExport(details), cover)
	}

	albums, err := r.allAlbums(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(albums, true)
	}

	if cmd.String("format") == "csv" {
		data, err := formatter.AlbumsToCSV(albums)
		if err != nil {
			return err
		}
		return r.writeData(cmd.String("output"), data)
	}

	for _, album := range albums {
		r.writePlain("%s  %s - %s\n", album.ID, album.DisplayArtist(), album.Name)
	}
	return nil
}

// BrowsePlaylists prints the playlist listing, or exports a single
// playlist's track listing when --id is given.
func (r *Runner) BrowsePlaylists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	if id := cmd.String("id"); id != "" {
		details, err := svc.GetPlaylist(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(details, true)
		}
		var cover []byte
		if details.CoverArt != "" {
			cover, _ = svc.GetCoverArt(ctx, details.CoverArt, 0)
		}
		return r.exportEntry(cmd, formatter.PlaylistExport(details), cover)
	}

	playlists, err := svc.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if cmd.String("format") == "csv" {
		data, err := formatter.PlaylistsToCSV(playlists)
		if err != nil {
			return err
		}
		return r.writeData(cmd.String("output"), data)
	}

	for _, playlist := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", playlist.ID, playlist.Name, playlist.SongCount)
	}
	return nil
}

// allAlbums walks the artist index to build the full album listing.
func (r *Runner) allAlbums(ctx context.Context) ([]models.Album, error) {
	artists, err := r.svc.GetArtists(ctx)
	if err != nil {
		return nil, err
	}

	var albums []models.Album
	for _, artist := range artists {
		artistAlbums, err := r.svc.GetArtist(ctx, artist.ID)
		if err != nil {
			return nil, err
		}
		albums = append(albums, artistAlbums...)
	}
	return albums, nil
}

// exportEntry writes a single album or playlist in the requested format.
func (r *Runner) exportEntry(cmd *cli.Command, export *formatter.Export, cover []byte) error {
	output := cmd.String("output")
	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s and %s\n", result.TracksFile, result.MetadataFile)
	case "md":
		result, err := formatter.WriteMarkdownExport(export, output, cover)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d files to %s\n", len(result.Files), result.Directory)
	case "txt":
		written, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", written)
	case "":
		data, err := formatter.ExportToText(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	return nil
}

// writeData writes bytes to a file, or to the runner output when no
// path is given.
func (r *Runner) writeData(path string, data []byte) error {
	if path == "" {
		return r.writePlain("%s", data)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return r.writePlain("✓ Wrote %s\n", path)
}
