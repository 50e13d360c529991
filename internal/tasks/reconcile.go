package tasks

import (
	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
)

// Plan is the outcome of reconciling a selection against a volume's
// manifest: what to fetch, what to skip, and what to remove.
type Plan struct {
	AlbumsToSync      []models.Album           // Selected albums not yet on the volume
	PlaylistsToSync   []models.Playlist        // Selected playlists not yet on the volume
	AlbumsToSkip      []models.Album           // Selected albums already synced
	PlaylistsToSkip   []models.Playlist        // Selected playlists already synced
	AlbumsToDelete    []library.SyncedAlbum    // On the volume but no longer selected
	PlaylistsToDelete []library.SyncedPlaylist // On the volume but no longer selected
}

// IsNoop reports whether the plan would touch the volume at all.
func (p Plan) IsNoop() bool {
	return len(p.AlbumsToSync) == 0 && len(p.PlaylistsToSync) == 0 &&
		len(p.AlbumsToDelete) == 0 && len(p.PlaylistsToDelete) == 0
}

// Reconcile computes a sync plan from a selection and the manifest of a
// volume. A nil manifest means the volume has never been synced:
// everything selected is new and nothing is deleted. Selection order is
// preserved in the sync lists; deletion lists follow manifest order.
func Reconcile(selection models.Selection, manifest *library.Manifest) Plan {
	var plan Plan

	if manifest == nil {
		plan.AlbumsToSync = append(plan.AlbumsToSync, selection.Albums...)
		plan.PlaylistsToSync = append(plan.PlaylistsToSync, selection.Playlists...)
		return plan
	}

	selectedAlbums := make(map[string]struct{}, len(selection.Albums))
	for _, album := range selection.Albums {
		selectedAlbums[album.ID] = struct{}{}
		if manifest.IsAlbumSynced(album.ID) {
			plan.AlbumsToSkip = append(plan.AlbumsToSkip, album)
		} else {
			plan.AlbumsToSync = append(plan.AlbumsToSync, album)
		}
	}

	selectedPlaylists := make(map[string]struct{}, len(selection.Playlists))
	for _, playlist := range selection.Playlists {
		selectedPlaylists[playlist.ID] = struct{}{}
		if manifest.IsPlaylistSynced(playlist.ID) {
			plan.PlaylistsToSkip = append(plan.PlaylistsToSkip, playlist)
		} else {
			plan.PlaylistsToSync = append(plan.PlaylistsToSync, playlist)
		}
	}

	for _, synced := range manifest.Albums {
		if _, ok := selectedAlbums[synced.ID]; !ok {
			plan.AlbumsToDelete = append(plan.AlbumsToDelete, synced)
		}
	}
	for _, synced := range manifest.Playlists {
		if _, ok := selectedPlaylists[synced.ID]; !ok {
			plan.PlaylistsToDelete = append(plan.PlaylistsToDelete, synced)
		}
	}

	return plan
}
