package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	artistsDir   = "Artists"
	playlistsDir = "Playlists"
	coverName    = "cover.jpg"
	indexName    = "playlist.m3u"
)

// Storage lays music files out under the root of a volume:
//
//	Artists/<artist>/<album>/<NN - Title.ext>
//	Artists/<artist>/<album>/cover.jpg
//	Playlists/<name>/<Artist - Title.ext>
//	Playlists/<name>/playlist.m3u
//
// All display names pass through Sanitize before touching the filesystem.
type Storage struct {
	root string
}

// NewStorage returns a Storage rooted at a volume mount point.
func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// Root returns the volume root this storage writes under.
func (s *Storage) Root() string {
	return s.root
}

// Init creates the top-level layout directories.
func (s *Storage) Init() error {
	for _, dir := range []string{s.ArtistsDir(), s.PlaylistsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ArtistsDir returns the path holding album directories grouped by artist.
func (s *Storage) ArtistsDir() string {
	return filepath.Join(s.root, artistsDir)
}

// PlaylistsDir returns the path holding playlist directories.
func (s *Storage) PlaylistsDir() string {
	return filepath.Join(s.root, playlistsDir)
}

// AlbumDir returns the directory for one album.
func (s *Storage) AlbumDir(artist, album string) string {
	return filepath.Join(s.ArtistsDir(), Sanitize(artist), Sanitize(album))
}

// PlaylistDir returns the directory for one playlist.
func (s *Storage) PlaylistDir(name string) string {
	return filepath.Join(s.PlaylistsDir(), Sanitize(name))
}

// WriteAlbumTrack writes one album track as "NN - Title.ext" and
// returns the path written.
func (s *Storage) WriteAlbumTrack(artist, album string, trackNum int, title, ext string, data []byte) (string, error) {
	dir := s.AlbumDir(artist, album)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating album directory: %w", err)
	}

	name := fmt.Sprintf("%02d - %s%s", trackNum, Sanitize(title), normalizeExt(ext))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing track: %w", err)
	}
	return path, nil
}

// WritePlaylistTrack writes one playlist track as "Artist - Title.ext"
// and returns the filename, which the caller feeds into the playlist
// index in play order.
func (s *Storage) WritePlaylistTrack(playlist, artist, title, ext string, data []byte) (string, error) {
	dir := s.PlaylistDir(playlist)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating playlist directory: %w", err)
	}

	name := fmt.Sprintf("%s - %s%s", Sanitize(artist), Sanitize(title), normalizeExt(ext))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing track: %w", err)
	}
	return name, nil
}

// WriteCoverArt writes an album's cover.jpg next to its tracks.
func (s *Storage) WriteCoverArt(artist, album string, data []byte) error {
	dir := s.AlbumDir(artist, album)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating album directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, coverName), data, 0644); err != nil {
		return fmt.Errorf("writing cover art: %w", err)
	}
	return nil
}

// WritePlaylistIndex writes an M3U index referencing tracks by filename
// relative to the playlist directory, preserving play order.
func (s *Storage) WritePlaylistIndex(playlist string, filenames []string) error {
	dir := s.PlaylistDir(playlist)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating playlist directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, name := range filenames {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, indexName), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing playlist index: %w", err)
	}
	return nil
}

// DeleteAlbum removes an album directory and prunes the artist
// directory if nothing else remains under it.
func (s *Storage) DeleteAlbum(artist, album string) error {
	dir := s.AlbumDir(artist, album)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("album directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing album: %w", err)
	}

	// Remove fails on a non-empty directory, which is exactly when we
	// want to keep it.
	artistDir := filepath.Dir(dir)
	if entries, err := os.ReadDir(artistDir); err == nil && len(entries) == 0 {
		_ = os.Remove(artistDir)
	}
	return nil
}

// DeletePlaylist removes a playlist directory.
func (s *Storage) DeletePlaylist(name string) error {
	dir := s.PlaylistDir(name)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("playlist directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing playlist: %w", err)
	}
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
