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
	"github.com/ChristopherJMiller/nutune/internal/shared"
	"github.com/ChristopherJMiller/nutune/internal/tasks"
)

// syncOpts maps the config's sync section onto engine tunables, with
// the --parallel flag taking precedence.
func (r *Runner) syncOpts(parallel int) tasks.SyncOpts {
	opts := tasks.SyncOpts{
		DownloadParallelism:   r.config.Sync.DownloadParallelism,
		ProcessingParallelism: r.config.Sync.ProcessingParallelism,
		RateLimit:             r.config.Sync.RateLimit,
		ManifestAutosave:      r.config.Sync.ManifestAutosave,
		CoverSize:             r.config.Sync.CoverSize,
	}
	if parallel > 0 {
		opts.DownloadParallelism = parallel
	}
	return opts
}

// Sync mirrors the saved selection onto the named device.
//
// The device argument matches stable ID, label, kernel name, or mount
// point. Unmounted devices are mounted first. --dry-run prints the
// reconciliation plan and exits without touching the volume.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	identifier := cmd.StringArg("device")
	if identifier == "" {
		return fmt.Errorf("%w: usage: sync <device>", shared.ErrMissingArgument)
	}

	selectionPath, err := tasks.DefaultSelectionPath()
	if err != nil {
		return fmt.Errorf("failed to resolve selection path: %w", err)
	}
	selection, err := tasks.LoadSelection(selectionPath)
	if err != nil {
		return fmt.Errorf("failed to load selection: %w", err)
	}

	if cmd.Bool("no-playlists") && cmd.Bool("playlists-only") {
		return fmt.Errorf("%w: --no-playlists and --playlists-only are mutually exclusive", shared.ErrInvalidFlag)
	}
	if cmd.Bool("no-playlists") {
		selection.Playlists = nil
	}
	if cmd.Bool("playlists-only") {
		selection.Albums = nil
	}

	if selection.IsEmpty() {
		return fmt.Errorf("%w: run 'nutune browse' to pick albums and playlists", shared.ErrEmptySelection)
	}

	dev, err := device.Find(ctx, identifier)
	if err != nil {
		return err
	}

	mountPoint := dev.MountPoint
	if !dev.Mounted() {
		r.logger.Info("mounting device", "device", dev.Name)
		if mountPoint, err = device.Mount(ctx, dev.Name); err != nil {
			return err
		}
	}

	if cmd.Bool("dry-run") {
		manifest, err := library.LoadManifest(mountPoint)
		if err != nil {
			return err
		}
		return r.printPlan(selection, tasks.Reconcile(selection, manifest), cmd.Bool("json"))
	}

	volume, err := device.OpenVolume(mountPoint)
	if err != nil {
		return err
	}
	defer volume.Close()

	r.logger.Info("starting sync",
		"device", dev.DisplayLabel(),
		"root", volume.Root,
		"albums", selection.AlbumCount(),
		"playlists", selection.PlaylistCount())

	run := r.beginSyncRun(dev)

	engine := tasks.NewSyncEngine(svc, library.NewStorage(volume.Root), r.logger, r.syncOpts(int(cmd.Int("parallel"))))
	progress := tasks.NewPublisher()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress.Updates() {
			r.printUpdate(update)
		}
	}()

	result, runErr := engine.Run(ctx, selection, progress)
	progress.Close()
	<-done

	r.finishSyncRun(run, result, runErr)

	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	r.printSummary(dev, result)
	return nil
}

// printPlan renders a dry-run reconciliation plan.
func (r *Runner) printPlan(selection models.Selection, plan tasks.Plan, asJSON bool) error {
	if asJSON {
		return r.writeJSON(plan, true)
	}

	r.writePlainHeader("Dry run")
	if plan.IsNoop() {
		return r.writePlain("Nothing to do; the device is up to date.\n")
	}

	for _, album := range plan.AlbumsToSync {
		r.writePlain("  sync    %s - %s\n", album.DisplayArtist(), album.Name)
	}
	for _, playlist := range plan.PlaylistsToSync {
		r.writePlain("  sync    %s (playlist)\n", playlist.Name)
	}
	for _, album := range plan.AlbumsToSkip {
		r.writePlain("  skip    %s - %s\n", album.DisplayArtist(), album.Name)
	}
	for _, playlist := range plan.PlaylistsToSkip {
		r.writePlain("  skip    %s (playlist)\n", playlist.Name)
	}
	for _, album := range plan.AlbumsToDelete {
		r.writePlain("  delete  %s - %s\n", album.Artist, album.Name)
	}
	for _, playlist := range plan.PlaylistsToDelete {
		r.writePlain("  delete  %s (playlist)\n", playlist.Name)
	}
	return nil
}

// printUpdate writes one line per engine event.
func (r *Runner) printUpdate(update tasks.ProgressUpdate) {
	switch update.Kind {
	case tasks.TrackCompleted:
		// Too chatty for line output; track progress is a TUI concern.
		r.logger.Debug(update.Message)
	case tasks.SyncError, tasks.AlbumDeleteFailed, tasks.PlaylistDeleteFailed:
		r.logger.Warn(update.Message)
	default:
		r.writePlain("%s\n", update.Message)
	}
}

func (r *Runner) printSummary(dev *device.Device, result *tasks.SyncResult) {
	r.writePlainHeader(fmt.Sprintf("Synced to %s", dev.DisplayLabel()))
	r.writePlain("Albums:    %d synced, %d skipped, %d failed\n", result.AlbumsSynced, result.AlbumsSkipped, result.AlbumsFailed)
	r.writePlain("Playlists: %d synced, %d skipped, %d failed\n", result.PlaylistsSynced, result.PlaylistsSkipped, result.PlaylistsFailed)
	if result.AlbumsDeleted+result.PlaylistsDeleted > 0 {
		r.writePlain("Removed:   %d albums, %d playlists\n", result.AlbumsDeleted, result.PlaylistsDeleted)
	}
	r.writePlain("Tracks:    %d written (%s) in %s\n",
		result.TracksWritten,
		humanize.IBytes(uint64(result.BytesWritten)),
		result.Elapsed.Round(time.Second))
}

// beginSyncRun records the start of a run in the registry. A missing
// database only disables history, never the sync itself.
func (r *Runner) beginSyncRun(dev *device.Device) *models.SyncRun {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debug("sync history unavailable", "error", err)
		return nil
	}
	defer db.Close()

	deviceRepo := repositories.NewDeviceRepository(db)
	registered, err := deviceRepo.Touch(dev.StableID, dev.Label, dev.FSType, dev.SizeBytes)
	if err != nil {
		r.logger.Debug("failed to register device", "error", err)
		return nil
	}

	run := models.NewSyncRun(0, registered.ID())
	if err := repositories.NewSyncRunRepository(db).Create(run); err != nil {
		r.logger.Debug("failed to record sync run", "error", err)
		return nil
	}
	return run
}

// finishSyncRun completes the history row started by beginSyncRun.
func (r *Runner) finishSyncRun(run *models.SyncRun, result *tasks.SyncResult, runErr error) {
	if run == nil {
		return
	}

	db, err := r.openDatabase()
	if err != nil {
		return
	}
	defer db.Close()

	if result != nil {
		run.Finish(result.AlbumsSynced, result.PlaylistsSynced, result.TracksWritten,
			result.BytesWritten, result.AlbumsDeleted, result.PlaylistsDeleted)
	}
	if runErr != nil {
		run.SetErrMessage(runErr.Error())
	}

	if err := repositories.NewSyncRunRepository(db).Update(run); err != nil {
		r.logger.Debug("failed to update sync run", "error", err)
	}
}
