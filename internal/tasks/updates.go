package tasks

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Kind    EventKind // What happened
	Message string    // Human-readable message for display
	Data    any       // Optional kind-specific payload for advanced UIs
}

// Sync event enumeration
type EventKind int

const (
	SyncStarted EventKind = iota
	DeletionStarted
	AlbumDeleted
	AlbumDeleteFailed
	PlaylistDeleted
	PlaylistDeleteFailed
	AlbumStarted
	AlbumSkipped
	AlbumCompleted
	PlaylistStarted
	PlaylistSkipped
	PlaylistCompleted
	TrackCompleted
	SyncError
	SyncCompleted
)

func (k EventKind) String() string {
	switch k {
	case SyncStarted:
		return "sync_started"
	case DeletionStarted:
		return "deletion_started"
	case AlbumDeleted:
		return "album_deleted"
	case AlbumDeleteFailed:
		return "album_delete_failed"
	case PlaylistDeleted:
		return "playlist_deleted"
	case PlaylistDeleteFailed:
		return "playlist_delete_failed"
	case AlbumStarted:
		return "album_started"
	case AlbumSkipped:
		return "album_skipped"
	case AlbumCompleted:
		return "album_completed"
	case PlaylistStarted:
		return "playlist_started"
	case PlaylistSkipped:
		return "playlist_skipped"
	case PlaylistCompleted:
		return "playlist_completed"
	case TrackCompleted:
		return "track_completed"
	case SyncError:
		return "sync_error"
	case SyncCompleted:
		return "sync_completed"
	default:
		return ""
	}
}

// UnitInfo identifies the album or playlist an event belongs to.
type UnitInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist,omitempty"`
	Tracks int    `json:"tracks,omitempty"`
}

// TrackProgress reports per-track completion inside a unit.
type TrackProgress struct {
	Unit  UnitInfo `json:"unit"`
	Title string   `json:"title"`
	Step  int      `json:"step"`
	Total int      `json:"total"`
}

// DeletionInfo summarizes the deletion phase of a run.
type DeletionInfo struct {
	Albums    int `json:"albums"`
	Playlists int `json:"playlists"`
}

func startedUpdate(albums, playlists int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    SyncStarted,
		Message: fmt.Sprintf("Syncing %d albums and %d playlists...", albums, playlists),
	}
}

func deletionStartedUpdate(albums, playlists int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    DeletionStarted,
		Message: fmt.Sprintf("Removing %d albums and %d playlists no longer selected...", albums, playlists),
		Data:    DeletionInfo{Albums: albums, Playlists: playlists},
	}
}

func albumDeletedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    AlbumDeleted,
		Message: fmt.Sprintf("Removed album: %s - %s", unit.Artist, unit.Name),
		Data:    unit,
	}
}

func albumDeleteFailedUpdate(unit UnitInfo, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:    AlbumDeleteFailed,
		Message: fmt.Sprintf("Failed to remove album %s: %v", unit.Name, err),
		Data:    unit,
	}
}

func playlistDeletedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    PlaylistDeleted,
		Message: fmt.Sprintf("Removed playlist: %s", unit.Name),
		Data:    unit,
	}
}

func playlistDeleteFailedUpdate(unit UnitInfo, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:    PlaylistDeleteFailed,
		Message: fmt.Sprintf("Failed to remove playlist %s: %v", unit.Name, err),
		Data:    unit,
	}
}

func albumStartedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    AlbumStarted,
		Message: fmt.Sprintf("Album: %s - %s (%d tracks)", unit.Artist, unit.Name, unit.Tracks),
		Data:    unit,
	}
}

func albumSkippedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    AlbumSkipped,
		Message: fmt.Sprintf("Skipping %s - %s (already synced)", unit.Artist, unit.Name),
		Data:    unit,
	}
}

func albumCompletedUpdate(unit UnitInfo, written int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    AlbumCompleted,
		Message: fmt.Sprintf("✓ %s - %s (%d tracks)", unit.Artist, unit.Name, written),
		Data:    unit,
	}
}

func playlistStartedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    PlaylistStarted,
		Message: fmt.Sprintf("Playlist: %s (%d tracks)", unit.Name, unit.Tracks),
		Data:    unit,
	}
}

func playlistSkippedUpdate(unit UnitInfo) ProgressUpdate {
	return ProgressUpdate{
		Kind:    PlaylistSkipped,
		Message: fmt.Sprintf("Skipping %s (already synced)", unit.Name),
		Data:    unit,
	}
}

func playlistCompletedUpdate(unit UnitInfo, written int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    PlaylistCompleted,
		Message: fmt.Sprintf("✓ %s (%d tracks)", unit.Name, written),
		Data:    unit,
	}
}

func trackCompletedUpdate(unit UnitInfo, title string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    TrackCompleted,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
		Data:    TrackProgress{Unit: unit, Title: title, Step: step, Total: total},
	}
}

func errorUpdate(context string, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:    SyncError,
		Message: fmt.Sprintf("✗ %s: %v", context, err),
	}
}

func completedUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Kind: SyncCompleted,
		Message: fmt.Sprintf("Sync complete: %d albums, %d playlists, %d tracks (%s)",
			result.AlbumsSynced, result.PlaylistsSynced, result.TracksWritten,
			humanize.IBytes(uint64(result.BytesWritten))),
		Data: result,
	}
}
