// package models defines the data model for the subsonic device sync service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the sync service.
// Implementations include Device and SyncRun.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Artist is a library artist as returned by getArtists/getArtist.
type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AlbumCount int    `json:"albumCount,omitempty"`
	CoverArt   string `json:"coverArt,omitempty"`
}

// Album is library album metadata. CoverArt is an opaque server-side ID
// for getCoverArt, not a URL.
type Album struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Artist    string `json:"artist,omitempty"`
	ArtistID  string `json:"artistId,omitempty"`
	CoverArt  string `json:"coverArt,omitempty"`
	SongCount int    `json:"songCount,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Year      int    `json:"year,omitempty"`
	Genre     string `json:"genre,omitempty"`
}

// DisplayArtist returns the album artist, or a placeholder when the
// server omits it.
func (a Album) DisplayArtist() string {
	if a.Artist == "" {
		return "Unknown Artist"
	}
	return a.Artist
}

// Track is a single song. Suffix is the file extension without the dot
// (mp3, flac, ogg, ...), taken from the server's transcoding-free path.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Album       string `json:"album,omitempty"`
	AlbumID     string `json:"albumId,omitempty"`
	Artist      string `json:"artist,omitempty"`
	ArtistID    string `json:"artistId,omitempty"`
	Track       int    `json:"track,omitempty"`
	DiscNumber  int    `json:"discNumber,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	CoverArt    string `json:"coverArt,omitempty"`
	Path        string `json:"path,omitempty"`
}

// Ext returns the track's file extension including the dot, defaulting
// to ".mp3" when the server doesn't report a suffix.
func (t Track) Ext() string {
	if t.Suffix == "" {
		return ".mp3"
	}
	return "." + t.Suffix
}

// DisplayArtist returns the track artist, or a placeholder when the
// server omits it.
func (t Track) DisplayArtist() string {
	if t.Artist == "" {
		return "Unknown Artist"
	}
	return t.Artist
}

// AlbumDetails is an album with its complete track listing (getAlbum).
type AlbumDetails struct {
	Album
	Tracks []Track `json:"tracks"`
}

// Playlist is playlist metadata from getPlaylists.
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Public    bool   `json:"public,omitempty"`
	CoverArt  string `json:"coverArt,omitempty"`
}

// PlaylistDetails is a playlist with its complete track listing (getPlaylist).
type PlaylistDetails struct {
	Playlist
	Tracks []Track `json:"tracks"`
}

// Selection is the ordered set of albums and playlists chosen for a sync.
// Entries carry metadata so confirmation and dry-run views never need a
// server round trip.
type Selection struct {
	Albums    []Album    `json:"albums"`
	Playlists []Playlist `json:"playlists"`
}

func (s Selection) IsEmpty() bool {
	return len(s.Albums) == 0 && len(s.Playlists) == 0
}

func (s Selection) AlbumCount() int { return len(s.Albums) }

func (s Selection) PlaylistCount() int { return len(s.Playlists) }
