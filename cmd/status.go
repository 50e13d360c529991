package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/ChristopherJMiller/nutune/internal/device"
	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/repositories"
)

// Status shows what is synced to a device plus its recent history.
// Without an argument it reports every mounted removable device.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	identifier := cmd.StringArg("device")

	var devices []device.Device
	if identifier != "" {
		dev, err := device.Find(ctx, identifier)
		if err != nil {
			return err
		}
		devices = []device.Device{*dev}
	} else {
		mounted, err := device.Scan(ctx)
		if err != nil {
			return err
		}
		if len(mounted) == 0 {
			return r.writePlain("No mounted removable devices.\n")
		}
		devices = mounted
	}

	asJSON := cmd.Bool("json")
	statuses := make([]deviceStatus, 0, len(devices))

	for _, dev := range devices {
		status := deviceStatus{Device: dev}

		if dev.Mounted() {
			manifest, err := library.LoadManifest(dev.MountPoint)
			if err != nil {
				status.ManifestError = err.Error()
			} else {
				status.Manifest = manifest
			}
		}

		status.History = r.syncHistory(dev.StableID)
		statuses = append(statuses, status)
	}

	if asJSON {
		return r.writeJSON(statuses, true)
	}

	for _, status := range statuses {
		r.printStatus(status)
	}
	return nil
}

type deviceStatus struct {
	Device        device.Device     `json:"device"`
	Manifest      *library.Manifest `json:"manifest,omitempty"`
	ManifestError string            `json:"manifest_error,omitempty"`
	History       []*models.SyncRun `json:"-"`
}

// syncHistory fetches the most recent runs for a device from the
// registry, newest first.
func (r *Runner) syncHistory(stableID string) []*models.SyncRun {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debug("sync history unavailable", "error", err)
		return nil
	}
	defer db.Close()

	runs, err := repositories.NewSyncRunRepository(db).List(map[string]any{
		"device_id": stableID,
		"limit":     5,
	})
	if err != nil {
		r.logger.Debug("failed to load sync history", "error", err)
		return nil
	}
	return runs
}

func (r *Runner) printStatus(status deviceStatus) {
	r.writePlainHeader(status.Device.DisplayLabel())

	switch {
	case status.ManifestError != "":
		r.writePlain("Manifest: %s\n", status.ManifestError)
	case status.Manifest == nil:
		r.writePlain("Never synced.\n")
	default:
		m := status.Manifest
		r.writePlain("Server:    %s\n", m.ServerURL)
		r.writePlain("Last sync: %s\n", humanize.Time(m.LastSync))
		r.writePlain("Content:   %d albums, %d playlists\n\n", len(m.Albums), len(m.Playlists))

		for _, album := range m.Albums {
			r.writePlain("  %s - %s (%d tracks)\n", album.Artist, album.Name, album.TrackCount)
		}
		for _, playlist := range m.Playlists {
			r.writePlain("  %s (playlist, %d tracks)\n", playlist.Name, playlist.TrackCount)
		}
	}

	if len(status.History) > 0 {
		rows := make([][]string, 0, len(status.History))
		for _, run := range status.History {
			outcome := "ok"
			if run.ErrMessage() != "" {
				outcome = run.ErrMessage()
			} else if run.FinishedAt() == nil {
				outcome = "interrupted"
			}
			rows = append(rows, []string{
				run.StartedAt().Local().Format(time.DateTime),
				fmt.Sprintf("%d", run.AlbumsSynced()),
				fmt.Sprintf("%d", run.PlaylistsSynced()),
				fmt.Sprintf("%d", run.TracksDownloaded()),
				humanize.IBytes(uint64(run.BytesDownloaded())),
				outcome,
			})
		}
		r.writePlain("\nRecent syncs\n%s\n", renderTable(
			[]string{"Started", "Albums", "Playlists", "Tracks", "Bytes", "Outcome"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
		))
	}
}
