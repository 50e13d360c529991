// package services defines interface Service for interacting with music catalog APIs
//
// Subsonic and compatible servers (Navidrome, Airsonic, Gonic)
package services

import (
	"context"

	"github.com/ChristopherJMiller/nutune/internal/models"
)

// Service defines the interface for music catalog providers that can list library content and serve track and cover-art bytes.
type Service interface {
	// Ping verifies connectivity and credentials against the server.
	Ping(ctx context.Context) error

	// GetArtists retrieves the full artist index, flattened and in index order.
	GetArtists(ctx context.Context) ([]models.Artist, error)

	// GetArtist retrieves the albums belonging to an artist.
	GetArtist(ctx context.Context, artistID string) ([]models.Album, error)

	// GetAlbum retrieves an album with its complete track listing.
	GetAlbum(ctx context.Context, albumID string) (*models.AlbumDetails, error)

	// GetPlaylists retrieves all playlists visible to the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a playlist with its complete track listing.
	GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetails, error)

	// DownloadTrack fetches the original file bytes for a track, untranscoded.
	DownloadTrack(ctx context.Context, trackID string) ([]byte, error)

	// GetCoverArt fetches cover art bytes. size is a pixel hint for the
	// server-side scaler; 0 requests the original.
	GetCoverArt(ctx context.Context, coverID string, size int) ([]byte, error)

	// ServerURL returns the base URL the service talks to, recorded in
	// device manifests to tie synced content to its source catalog.
	ServerURL() string

	// Name returns the name of the service (e.g., "Subsonic")
	Name() string
}
