package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// ManifestName is the file kept at the root of a synced volume that
// records everything this tool has written there.
const ManifestName = ".nutune-manifest.json"

// ManifestVersion is the current on-disk schema version.
const ManifestVersion = 1

// SyncedAlbum is a manifest record for an album present on the volume.
type SyncedAlbum struct {
	ID         string    `json:"id"`
	Name       string    `json:"album"`
	Artist     string    `json:"artist"`
	TrackCount int       `json:"track_count"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SyncedPlaylist is a manifest record for a playlist present on the volume.
type SyncedPlaylist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TrackCount int       `json:"track_count"`
	SyncedAt   time.Time `json:"synced_at"`
}

// Manifest tracks the synced state of one volume. A volume without a
// manifest is treated as never synced; a volume with an unreadable one
// is never written to.
type Manifest struct {
	Version   int              `json:"version"`
	LastSync  time.Time        `json:"last_sync"`
	ServerURL string           `json:"subsonic_url"`
	Albums    []SyncedAlbum    `json:"synced_albums"`
	Playlists []SyncedPlaylist `json:"synced_playlists"`

	albumIDs    map[string]struct{}
	playlistIDs map[string]struct{}
}

// NewManifest returns an empty manifest bound to a server URL.
func NewManifest(serverURL string) *Manifest {
	m := &Manifest{
		Version:   ManifestVersion,
		ServerURL: serverURL,
		Albums:    []SyncedAlbum{},
		Playlists: []SyncedPlaylist{},
	}
	m.reindex()
	return m
}

// LoadManifest reads the manifest at the root of a volume. A missing
// file returns (nil, nil): the caller decides what an unsynced volume
// means. A file that exists but cannot be parsed returns
// shared.ErrCorruptManifest so a damaged volume is never mistaken for
// an empty one.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptManifest, err)
	}
	if m.Version > ManifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", shared.ErrCorruptManifest, m.Version)
	}

	m.reindex()
	return &m, nil
}

// Save writes the manifest to the root of a volume. The write goes
// through a temp file and a rename so an interrupted sync never leaves
// a half-written manifest behind.
func (m *Manifest) Save(root string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	path := filepath.Join(root, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// AddAlbum records an album as synced, replacing any earlier record
// with the same ID, and bumps the last-sync time.
func (m *Manifest) AddAlbum(album SyncedAlbum) {
	m.RemoveAlbum(album.ID)
	m.Albums = append(m.Albums, album)
	m.albumIDs[album.ID] = struct{}{}
	m.LastSync = time.Now().UTC()
}

// AddPlaylist records a playlist as synced, replacing any earlier
// record with the same ID, and bumps the last-sync time.
func (m *Manifest) AddPlaylist(playlist SyncedPlaylist) {
	m.RemovePlaylist(playlist.ID)
	m.Playlists = append(m.Playlists, playlist)
	m.playlistIDs[playlist.ID] = struct{}{}
	m.LastSync = time.Now().UTC()
}

// RemoveAlbum drops the record for an album ID, if present, and bumps
// the last-sync time when something was removed.
func (m *Manifest) RemoveAlbum(id string) {
	if _, ok := m.albumIDs[id]; !ok {
		return
	}
	delete(m.albumIDs, id)
	for i, a := range m.Albums {
		if a.ID == id {
			m.Albums = append(m.Albums[:i], m.Albums[i+1:]...)
			break
		}
	}
	m.LastSync = time.Now().UTC()
}

// RemovePlaylist drops the record for a playlist ID, if present, and
// bumps the last-sync time when something was removed.
func (m *Manifest) RemovePlaylist(id string) {
	if _, ok := m.playlistIDs[id]; !ok {
		return
	}
	delete(m.playlistIDs, id)
	for i, p := range m.Playlists {
		if p.ID == id {
			m.Playlists = append(m.Playlists[:i], m.Playlists[i+1:]...)
			break
		}
	}
	m.LastSync = time.Now().UTC()
}

// IsAlbumSynced reports whether an album ID is recorded in the manifest.
func (m *Manifest) IsAlbumSynced(id string) bool {
	_, ok := m.albumIDs[id]
	return ok
}

// IsPlaylistSynced reports whether a playlist ID is recorded in the manifest.
func (m *Manifest) IsPlaylistSynced(id string) bool {
	_, ok := m.playlistIDs[id]
	return ok
}

// AlbumIDs returns the set of synced album IDs.
func (m *Manifest) AlbumIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(m.albumIDs))
	for id := range m.albumIDs {
		ids[id] = struct{}{}
	}
	return ids
}

// PlaylistIDs returns the set of synced playlist IDs.
func (m *Manifest) PlaylistIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(m.playlistIDs))
	for id := range m.playlistIDs {
		ids[id] = struct{}{}
	}
	return ids
}

// Album returns the record for an album ID, if present.
func (m *Manifest) Album(id string) (SyncedAlbum, bool) {
	for _, a := range m.Albums {
		if a.ID == id {
			return a, true
		}
	}
	return SyncedAlbum{}, false
}

// Playlist returns the record for a playlist ID, if present.
func (m *Manifest) Playlist(id string) (SyncedPlaylist, bool) {
	for _, p := range m.Playlists {
		if p.ID == id {
			return p, true
		}
	}
	return SyncedPlaylist{}, false
}

func (m *Manifest) reindex() {
	m.albumIDs = make(map[string]struct{}, len(m.Albums))
	for _, a := range m.Albums {
		m.albumIDs[a.ID] = struct{}{}
	}
	m.playlistIDs = make(map[string]struct{}, len(m.Playlists))
	for _, p := range m.Playlists {
		m.playlistIDs[p.ID] = struct{}{}
	}
	if m.Albums == nil {
		m.Albums = []SyncedAlbum{}
	}
	if m.Playlists == nil {
		m.Playlists = []SyncedPlaylist{}
	}
}
