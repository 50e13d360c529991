// package tasks implements the sync pipeline that mirrors a catalog
// selection onto a removable volume.
//
// The core abstraction is SyncEngine, which reconciles a selection
// against the volume's manifest, removes deselected content, then runs
// each remaining unit through staged download, processing, and write
// phases. Operations emit progress updates via a Publisher for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ChristopherJMiller/nutune/internal/artwork"
	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/services"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// SyncOpts contains pipeline tunables. Zero values pick defaults.
type SyncOpts struct {
	DownloadParallelism   int     // Concurrent track downloads (default: 4)
	ProcessingParallelism int     // Concurrent tagging workers (default: half of downloads)
	RateLimit             float64 // Download requests per second (default: unlimited)
	ManifestAutosave      bool    // Save the manifest after every unit, not just at the end
	CoverSize             int     // Pixel hint for server-side cover scaling (default: 300)
}

func (o SyncOpts) withDefaults() SyncOpts {
	if o.DownloadParallelism <= 0 {
		o.DownloadParallelism = 4
	}
	if o.ProcessingParallelism <= 0 {
		o.ProcessingParallelism = o.DownloadParallelism / 2
		if o.ProcessingParallelism < 1 {
			o.ProcessingParallelism = 1
		}
	}
	if o.CoverSize <= 0 {
		o.CoverSize = artwork.DefaultMaxSize
	}
	return o
}

func (o SyncOpts) newLimiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), 1)
}

// SyncResult contains the counters from a completed run.
type SyncResult struct {
	AlbumsSynced     int           `json:"albums_synced"`
	AlbumsSkipped    int           `json:"albums_skipped"`
	AlbumsFailed     int           `json:"albums_failed"`
	PlaylistsSynced  int           `json:"playlists_synced"`
	PlaylistsSkipped int           `json:"playlists_skipped"`
	PlaylistsFailed  int           `json:"playlists_failed"`
	AlbumsDeleted    int           `json:"albums_deleted"`
	PlaylistsDeleted int           `json:"playlists_deleted"`
	TracksWritten    int           `json:"tracks_written"`
	BytesWritten     int64         `json:"bytes_written"`
	Elapsed          time.Duration `json:"elapsed"`
}

// SyncEngine mirrors catalog selections onto a volume. One engine is
// built per run, bound to a service, a storage root, and tunables.
type SyncEngine struct {
	svc      services.Service
	store    *library.Storage
	logger   *log.Logger
	opts     SyncOpts
	download *downloadStage
	process  *processStage
}

// NewSyncEngine creates an engine writing through store. logger may be
// nil to discard engine logs.
func NewSyncEngine(svc services.Service, store *library.Storage, logger *log.Logger, opts SyncOpts) *SyncEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts = opts.withDefaults()

	e := &SyncEngine{
		svc:    svc,
		store:  store,
		logger: logger,
		opts:   opts,
	}
	e.download = &downloadStage{
		svc:       svc,
		workers:   opts.DownloadParallelism,
		limiter:   opts.newLimiter(),
		coverSize: opts.CoverSize,
		onError: func(track models.Track, err error) {
			logger.Warn("track download failed, dropping", "track", track.Title, "err", err)
		},
	}
	e.process = &processStage{
		workers: opts.ProcessingParallelism,
		onSkip: func(track models.Track, err error) {
			logger.Debug("cover embed skipped", "track", track.Title, "err", err)
		},
	}
	return e
}

// publish sends an update when a publisher is attached.
func (e *SyncEngine) publish(progress *Publisher, update ProgressUpdate) {
	if progress == nil {
		return
	}
	progress.Publish(update)
}

// Run executes a full sync of the selection onto the volume: load the
// manifest, reconcile, delete deselected content, sync new units, save
// the manifest. Per-unit failures are reported and skipped; only volume
// level problems (unreadable manifest, unusable root) abort the run.
func (e *SyncEngine) Run(ctx context.Context, selection models.Selection, progress *Publisher) (*SyncResult, error) {
	start := time.Now()

	manifest, err := library.LoadManifest(e.store.Root())
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		manifest = library.NewManifest(e.svc.ServerURL())
	}

	if err := e.store.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrVolumeUnavailable, err)
	}

	plan := Reconcile(selection, manifest)
	result := &SyncResult{}

	e.publish(progress, startedUpdate(len(plan.AlbumsToSync)+len(plan.AlbumsToSkip), len(plan.PlaylistsToSync)+len(plan.PlaylistsToSkip)))

	e.runDeletions(plan, manifest, result, progress)

	for _, album := range selection.Albums {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if manifest.IsAlbumSynced(album.ID) {
			result.AlbumsSkipped++
			e.publish(progress, albumSkippedUpdate(UnitInfo{ID: album.ID, Name: album.Name, Artist: album.DisplayArtist()}))
			continue
		}

		if err := e.syncAlbum(ctx, album, manifest, result, progress); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.AlbumsFailed++
			e.logger.Error("album sync failed", "album", album.Name, "err", err)
			e.publish(progress, errorUpdate(fmt.Sprintf("%s - %s", album.DisplayArtist(), album.Name), err))
			continue
		}

		if e.opts.ManifestAutosave {
			if err := manifest.Save(e.store.Root()); err != nil {
				e.logger.Warn("manifest autosave failed", "err", err)
			}
		}
	}

	for _, playlist := range selection.Playlists {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if manifest.IsPlaylistSynced(playlist.ID) {
			result.PlaylistsSkipped++
			e.publish(progress, playlistSkippedUpdate(UnitInfo{ID: playlist.ID, Name: playlist.Name}))
			continue
		}

		if err := e.syncPlaylist(ctx, playlist, manifest, result, progress); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.PlaylistsFailed++
			e.logger.Error("playlist sync failed", "playlist", playlist.Name, "err", err)
			e.publish(progress, errorUpdate(playlist.Name, err))
			continue
		}

		if e.opts.ManifestAutosave {
			if err := manifest.Save(e.store.Root()); err != nil {
				e.logger.Warn("manifest autosave failed", "err", err)
			}
		}
	}

	if err := manifest.Save(e.store.Root()); err != nil {
		return result, fmt.Errorf("saving manifest: %w", err)
	}

	result.Elapsed = time.Since(start)
	e.publish(progress, completedUpdate(result))
	return result, nil
}

// runDeletions removes content that is on the volume but no longer
// selected. A failed removal keeps its manifest record so the next run
// tries again; failures never abort the phase.
func (e *SyncEngine) runDeletions(plan Plan, manifest *library.Manifest, result *SyncResult, progress *Publisher) {
	if len(plan.AlbumsToDelete) == 0 && len(plan.PlaylistsToDelete) == 0 {
		return
	}
	e.publish(progress, deletionStartedUpdate(len(plan.AlbumsToDelete), len(plan.PlaylistsToDelete)))

	for _, album := range plan.AlbumsToDelete {
		unit := UnitInfo{ID: album.ID, Name: album.Name, Artist: album.Artist}
		if err := e.store.DeleteAlbum(album.Artist, album.Name); err != nil {
			e.logger.Warn("album removal failed", "album", album.Name, "err", err)
			e.publish(progress, albumDeleteFailedUpdate(unit, err))
			continue
		}
		manifest.RemoveAlbum(album.ID)
		result.AlbumsDeleted++
		e.publish(progress, albumDeletedUpdate(unit))
	}

	for _, playlist := range plan.PlaylistsToDelete {
		unit := UnitInfo{ID: playlist.ID, Name: playlist.Name}
		if err := e.store.DeletePlaylist(playlist.Name); err != nil {
			e.logger.Warn("playlist removal failed", "playlist", playlist.Name, "err", err)
			e.publish(progress, playlistDeleteFailedUpdate(unit, err))
			continue
		}
		manifest.RemovePlaylist(playlist.ID)
		result.PlaylistsDeleted++
		e.publish(progress, playlistDeletedUpdate(unit))
	}
}

// syncAlbum runs one album through the pipeline. The album cover is
// fetched and processed once up front and shared by every track.
func (e *SyncEngine) syncAlbum(ctx context.Context, album models.Album, manifest *library.Manifest, result *SyncResult, progress *Publisher) error {
	details, err := e.svc.GetAlbum(ctx, album.ID)
	if err != nil {
		return fmt.Errorf("fetching album: %w", err)
	}
	artist := details.DisplayArtist()

	unit := UnitInfo{ID: album.ID, Name: details.Name, Artist: artist, Tracks: len(details.Tracks)}
	e.publish(progress, albumStartedUpdate(unit))

	var cover []byte
	if details.CoverArt != "" {
		raw, err := e.svc.GetCoverArt(ctx, details.CoverArt, e.opts.CoverSize)
		if err != nil {
			e.logger.Warn("cover art unavailable", "album", details.Name, "err", err)
		} else if processed, err := artwork.Process(raw, artwork.DefaultMaxSize); err != nil {
			e.logger.Warn("cover art unusable", "album", details.Name, "err", err)
		} else {
			cover = processed
		}
	}

	jobs := make([]downloadJob, len(details.Tracks))
	for i, track := range details.Tracks {
		jobs[i] = downloadJob{index: i, track: track}
	}
	downloaded, _ := e.download.Run(ctx, jobs)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(downloaded) == 0 {
		return fmt.Errorf("%w: no tracks could be downloaded", shared.ErrTrackDownload)
	}

	processed := e.process.Run(ctx, downloaded, func(DownloadedTrack) []byte { return cover })
	if ctx.Err() != nil {
		return ctx.Err()
	}

	total := len(details.Tracks)
	for step, track := range processed {
		num := track.Track.Track
		if num == 0 {
			num = track.Index + 1
		}
		if _, err := e.store.WriteAlbumTrack(artist, details.Name, num, track.Track.Title, track.Track.Ext(), track.Data); err != nil {
			return err
		}
		result.TracksWritten++
		result.BytesWritten += int64(len(track.Data))
		e.publish(progress, trackCompletedUpdate(unit, track.Track.Title, step+1, total))
	}

	if cover != nil {
		if err := e.store.WriteCoverArt(artist, details.Name, cover); err != nil {
			e.logger.Debug("cover write failed", "album", details.Name, "err", err)
		}
	}

	manifest.AddAlbum(library.SyncedAlbum{
		ID:         album.ID,
		Name:       details.Name,
		Artist:     artist,
		TrackCount: len(processed),
		SyncedAt:   time.Now().UTC(),
	})
	result.AlbumsSynced++
	e.publish(progress, albumCompletedUpdate(unit, len(processed)))
	return nil
}

// syncPlaylist runs one playlist through the pipeline. Playlist tracks
// come from different albums, so covers are fetched per distinct cover
// ID during download and processed once each here.
func (e *SyncEngine) syncPlaylist(ctx context.Context, playlist models.Playlist, manifest *library.Manifest, result *SyncResult, progress *Publisher) error {
	details, err := e.svc.GetPlaylist(ctx, playlist.ID)
	if err != nil {
		return fmt.Errorf("fetching playlist: %w", err)
	}

	unit := UnitInfo{ID: playlist.ID, Name: details.Name, Tracks: len(details.Tracks)}
	e.publish(progress, playlistStartedUpdate(unit))

	jobs := make([]downloadJob, len(details.Tracks))
	for i, track := range details.Tracks {
		jobs[i] = downloadJob{index: i, track: track, coverID: track.CoverArt}
	}
	downloaded, rawCovers := e.download.Run(ctx, jobs)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(downloaded) == 0 {
		return fmt.Errorf("%w: no tracks could be downloaded", shared.ErrTrackDownload)
	}

	covers := make(map[string][]byte, len(rawCovers))
	for id, raw := range rawCovers {
		processed, err := artwork.Process(raw, artwork.DefaultMaxSize)
		if err != nil {
			e.logger.Debug("cover art unusable", "cover", id, "err", err)
			continue
		}
		covers[id] = processed
	}

	processed := e.process.Run(ctx, downloaded, func(track DownloadedTrack) []byte {
		return covers[track.CoverID]
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}

	total := len(details.Tracks)
	filenames := make([]string, 0, len(processed))
	for step, track := range processed {
		name, err := e.store.WritePlaylistTrack(details.Name, track.Track.DisplayArtist(), track.Track.Title, track.Track.Ext(), track.Data)
		if err != nil {
			return err
		}
		filenames = append(filenames, name)
		result.TracksWritten++
		result.BytesWritten += int64(len(track.Data))
		e.publish(progress, trackCompletedUpdate(unit, track.Track.Title, step+1, total))
	}

	if err := e.store.WritePlaylistIndex(details.Name, filenames); err != nil {
		return err
	}

	manifest.AddPlaylist(library.SyncedPlaylist{
		ID:         playlist.ID,
		Name:       details.Name,
		TrackCount: len(processed),
		SyncedAt:   time.Now().UTC(),
	})
	result.PlaylistsSynced++
	e.publish(progress, playlistCompletedUpdate(unit, len(processed)))
	return nil
}
