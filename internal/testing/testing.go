// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/models"
)

// MockService is a configurable test double for [services.Service].
// Zero value answers every call with empty results; populate the fields
// to serve fixture data, or set Err to fail every call.
type MockService struct {
	Artists      []models.Artist
	ArtistAlbums map[string][]models.Album
	Albums       map[string]*models.AlbumDetails
	Playlists    []models.Playlist
	PlaylistData map[string]*models.PlaylistDetails
	Tracks       map[string][]byte
	Covers       map[string][]byte
	BaseURL      string
	Err          error
}

func (m *MockService) Ping(ctx context.Context) error { return m.Err }

func (m *MockService) GetArtists(ctx context.Context) ([]models.Artist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Artists, nil
}

func (m *MockService) GetArtist(ctx context.Context, artistID string) ([]models.Album, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ArtistAlbums[artistID], nil
}

func (m *MockService) GetAlbum(ctx context.Context, albumID string) (*models.AlbumDetails, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	details, ok := m.Albums[albumID]
	if !ok {
		return nil, errors.New("album not found: " + albumID)
	}
	return details, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetails, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	details, ok := m.PlaylistData[playlistID]
	if !ok {
		return nil, errors.New("playlist not found: " + playlistID)
	}
	return details, nil
}

func (m *MockService) DownloadTrack(ctx context.Context, trackID string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Tracks[trackID]
	if !ok {
		return nil, errors.New("track not found: " + trackID)
	}
	return data, nil
}

func (m *MockService) GetCoverArt(ctx context.Context, coverID string, size int) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Covers[coverID]
	if !ok {
		return nil, errors.New("cover not found: " + coverID)
	}
	return data, nil
}

func (m *MockService) ServerURL() string {
	if m.BaseURL == "" {
		return "https://music.example.com"
	}
	return m.BaseURL
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
