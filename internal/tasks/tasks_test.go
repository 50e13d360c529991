package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/artwork"
	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// mockService implements services.Service against fixture data.
type mockService struct {
	albums       map[string]*models.AlbumDetails
	playlists    map[string]*models.PlaylistDetails
	tracks       map[string][]byte
	covers       map[string][]byte
	downloadErrs map[string]error
}

func (m *mockService) Ping(ctx context.Context) error { return nil }

func (m *mockService) GetArtists(ctx context.Context) ([]models.Artist, error) { return nil, nil }

func (m *mockService) GetArtist(ctx context.Context, artistID string) ([]models.Album, error) {
	return nil, nil
}

func (m *mockService) GetAlbum(ctx context.Context, albumID string) (*models.AlbumDetails, error) {
	album, ok := m.albums[albumID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, albumID)
	}
	return album, nil
}

func (m *mockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) { return nil, nil }

func (m *mockService) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetails, error) {
	playlist, ok := m.playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return playlist, nil
}

func (m *mockService) DownloadTrack(ctx context.Context, trackID string) ([]byte, error) {
	if err, ok := m.downloadErrs[trackID]; ok {
		return nil, err
	}
	data, ok := m.tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackDownload, trackID)
	}
	return data, nil
}

func (m *mockService) GetCoverArt(ctx context.Context, coverID string, size int) ([]byte, error) {
	data, ok := m.covers[coverID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrCoverArt, coverID)
	}
	return data, nil
}

func (m *mockService) ServerURL() string { return "https://music.example.com" }

func (m *mockService) Name() string { return "Mock" }

func testCover(t *testing.T) []byte {
	return testCoverSized(t, 64)
}

func testCoverSized(t *testing.T, px int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, px, px))
	for x := 0; x < px; x++ {
		for y := 0; y < px; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newMockService(t *testing.T) *mockService {
	t.Helper()
	return &mockService{
		albums: map[string]*models.AlbumDetails{
			"al-1": {
				Album: models.Album{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell", CoverArt: "co-1"},
				Tracks: []models.Track{
					{ID: "tr-1", Title: "All I Want", Track: 1, Suffix: "mp3"},
					{ID: "tr-2", Title: "My Old Man", Track: 2, Suffix: "mp3"},
				},
			},
		},
		playlists: map[string]*models.PlaylistDetails{
			"pl-1": {
				Playlist: models.Playlist{ID: "pl-1", Name: "Road Trip"},
				Tracks: []models.Track{
					{ID: "tr-3", Title: "Heart of Glass", Artist: "Blondie", Suffix: "mp3", CoverArt: "co-2"},
					{ID: "tr-4", Title: "Dreaming", Artist: "Blondie", Suffix: "ogg", CoverArt: "co-2"},
				},
			},
		},
		tracks: map[string][]byte{
			"tr-1": []byte("audio-tr-1"),
			"tr-2": []byte("audio-tr-2"),
			"tr-3": []byte("audio-tr-3"),
			"tr-4": []byte("audio-tr-4"),
		},
		covers: map[string][]byte{
			"co-1": testCover(t),
			"co-2": testCover(t),
		},
	}
}

func collectUpdates(p *Publisher) <-chan []ProgressUpdate {
	out := make(chan []ProgressUpdate, 1)
	go func() {
		var updates []ProgressUpdate
		for update := range p.Updates() {
			updates = append(updates, update)
		}
		out <- updates
	}()
	return out
}

func kindsOf(updates []ProgressUpdate) []EventKind {
	kinds := make([]EventKind, len(updates))
	for i, u := range updates {
		kinds[i] = u.Kind
	}
	return kinds
}

func containsKind(kinds []EventKind, want EventKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func TestSyncEngineRun(t *testing.T) {
	svc := newMockService(t)
	root := t.TempDir()
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{DownloadParallelism: 2})

	selection := models.Selection{
		Albums:    []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
		Playlists: []models.Playlist{{ID: "pl-1", Name: "Road Trip"}},
	}

	progress := NewPublisher()
	updates := collectUpdates(progress)

	result, err := engine.Run(context.Background(), selection, progress)
	progress.Close()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.AlbumsSynced != 1 || result.PlaylistsSynced != 1 {
		t.Errorf("synced = %d albums, %d playlists", result.AlbumsSynced, result.PlaylistsSynced)
	}
	if result.TracksWritten != 4 {
		t.Errorf("tracks written = %d, want 4", result.TracksWritten)
	}
	if result.BytesWritten == 0 {
		t.Error("bytes written not counted")
	}

	store := library.NewStorage(root)
	for _, path := range []string{
		filepath.Join(store.AlbumDir("Joni Mitchell", "Blue"), "01 - All I Want.mp3"),
		filepath.Join(store.AlbumDir("Joni Mitchell", "Blue"), "02 - My Old Man.mp3"),
		filepath.Join(store.AlbumDir("Joni Mitchell", "Blue"), "cover.jpg"),
		filepath.Join(store.PlaylistDir("Road Trip"), "Blondie - Heart of Glass.mp3"),
		filepath.Join(store.PlaylistDir("Road Trip"), "Blondie - Dreaming.ogg"),
		filepath.Join(store.PlaylistDir("Road Trip"), "playlist.m3u"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}

	index, err := os.ReadFile(filepath.Join(store.PlaylistDir("Road Trip"), "playlist.m3u"))
	if err != nil {
		t.Fatal(err)
	}
	want := "#EXTM3U\nBlondie - Heart of Glass.mp3\nBlondie - Dreaming.ogg\n"
	if string(index) != want {
		t.Errorf("playlist index = %q, want %q", index, want)
	}

	// MP3 gets cover art embedded; ogg has no embedding support and
	// passes through untouched.
	mp3, err := os.ReadFile(filepath.Join(store.PlaylistDir("Road Trip"), "Blondie - Heart of Glass.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(mp3, []byte("ID3")) {
		t.Error("mp3 track missing embedded tag")
	}
	ogg, err := os.ReadFile(filepath.Join(store.PlaylistDir("Road Trip"), "Blondie - Dreaming.ogg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ogg, []byte("audio-tr-4")) {
		t.Error("ogg track was modified")
	}

	manifest, err := library.LoadManifest(root)
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	if manifest == nil || !manifest.IsAlbumSynced("al-1") || !manifest.IsPlaylistSynced("pl-1") {
		t.Error("manifest does not record the sync")
	}
	if manifest.ServerURL != "https://music.example.com" {
		t.Errorf("manifest server url = %q", manifest.ServerURL)
	}

	kinds := kindsOf(<-updates)
	for _, want := range []EventKind{SyncStarted, AlbumStarted, TrackCompleted, AlbumCompleted, PlaylistStarted, PlaylistCompleted, SyncCompleted} {
		if !containsKind(kinds, want) {
			t.Errorf("missing %s event", want)
		}
	}
	if kinds[0] != SyncStarted {
		t.Errorf("first event = %s, want sync_started", kinds[0])
	}
	if kinds[len(kinds)-1] != SyncCompleted {
		t.Errorf("last event = %s, want sync_completed", kinds[len(kinds)-1])
	}
}

func TestSyncEngineSkipsSyncedUnits(t *testing.T) {
	svc := newMockService(t)
	root := t.TempDir()
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{})

	selection := models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
	}

	if _, err := engine.Run(context.Background(), selection, nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	progress := NewPublisher()
	updates := collectUpdates(progress)
	result, err := engine.Run(context.Background(), selection, progress)
	progress.Close()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if result.AlbumsSynced != 0 || result.AlbumsSkipped != 1 {
		t.Errorf("second run: synced = %d, skipped = %d", result.AlbumsSynced, result.AlbumsSkipped)
	}
	if !containsKind(kindsOf(<-updates), AlbumSkipped) {
		t.Error("missing album_skipped event")
	}
}

func TestSyncEngineDeletesDeselected(t *testing.T) {
	svc := newMockService(t)
	root := t.TempDir()
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{})

	full := models.Selection{
		Albums:    []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
		Playlists: []models.Playlist{{ID: "pl-1", Name: "Road Trip"}},
	}
	if _, err := engine.Run(context.Background(), full, nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	progress := NewPublisher()
	updates := collectUpdates(progress)
	result, err := engine.Run(context.Background(), models.Selection{Playlists: full.Playlists}, progress)
	progress.Close()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if result.AlbumsDeleted != 1 {
		t.Errorf("albums deleted = %d, want 1", result.AlbumsDeleted)
	}
	store := library.NewStorage(root)
	if _, err := os.Stat(store.AlbumDir("Joni Mitchell", "Blue")); !os.IsNotExist(err) {
		t.Error("album directory survived deselection")
	}
	if _, err := os.Stat(store.PlaylistDir("Road Trip")); err != nil {
		t.Error("still-selected playlist was removed")
	}

	manifest, err := library.LoadManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.IsAlbumSynced("al-1") {
		t.Error("deleted album still in manifest")
	}

	kinds := kindsOf(<-updates)
	if !containsKind(kinds, DeletionStarted) || !containsKind(kinds, AlbumDeleted) {
		t.Error("missing deletion events")
	}
}

func TestSyncEngineDropsFailedDownloads(t *testing.T) {
	svc := newMockService(t)
	svc.downloadErrs = map[string]error{"tr-2": errors.New("network gone")}
	root := t.TempDir()
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{})

	selection := models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
	}
	result, err := engine.Run(context.Background(), selection, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.AlbumsSynced != 1 {
		t.Errorf("albums synced = %d, want 1 (partial album still counts)", result.AlbumsSynced)
	}
	if result.TracksWritten != 1 {
		t.Errorf("tracks written = %d, want 1", result.TracksWritten)
	}

	manifest, err := library.LoadManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if album, ok := manifest.Album("al-1"); !ok || album.TrackCount != 1 {
		t.Errorf("manifest album record = %+v, %v", album, ok)
	}
}

func TestSyncEngineUnitFailureContinuesRun(t *testing.T) {
	svc := newMockService(t)
	svc.downloadErrs = map[string]error{
		"tr-1": errors.New("gone"),
		"tr-2": errors.New("gone"),
	}
	root := t.TempDir()
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{})

	selection := models.Selection{
		Albums:    []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
		Playlists: []models.Playlist{{ID: "pl-1", Name: "Road Trip"}},
	}

	progress := NewPublisher()
	updates := collectUpdates(progress)
	result, err := engine.Run(context.Background(), selection, progress)
	progress.Close()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.AlbumsFailed != 1 {
		t.Errorf("albums failed = %d, want 1", result.AlbumsFailed)
	}
	if result.PlaylistsSynced != 1 {
		t.Error("playlist should sync despite album failure")
	}

	manifest, err := library.LoadManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.IsAlbumSynced("al-1") {
		t.Error("failed album recorded in manifest")
	}
	if !containsKind(kindsOf(<-updates), SyncError) {
		t.Error("missing sync_error event")
	}
}

func TestSyncEngineCorruptManifestAborts(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, library.ManifestName), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	engine := NewSyncEngine(newMockService(t), library.NewStorage(root), nil, SyncOpts{})
	_, err := engine.Run(context.Background(), models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue"}},
	}, nil)

	if !errors.Is(err, shared.ErrCorruptManifest) {
		t.Errorf("expected ErrCorruptManifest, got %v", err)
	}
	entries, readErr := os.ReadDir(root)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 1 {
		t.Error("engine wrote to a volume with a corrupt manifest")
	}
}

func TestSyncEngineBoundsProcessedCovers(t *testing.T) {
	svc := newMockService(t)
	svc.covers["co-1"] = testCoverSized(t, 450)
	root := t.TempDir()

	// A large fetch hint must not widen the on-device cover bound.
	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{CoverSize: 500})
	if _, err := engine.Run(context.Background(), models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
	}, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	store := library.NewStorage(root)
	f, err := os.Open(filepath.Join(store.AlbumDir("Joni Mitchell", "Blue"), "cover.jpg"))
	if err != nil {
		t.Fatalf("opening cover: %v", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decoding cover: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > artwork.DefaultMaxSize || bounds.Dy() > artwork.DefaultMaxSize {
		t.Errorf("cover is %dx%d, want at most %dpx", bounds.Dx(), bounds.Dy(), artwork.DefaultMaxSize)
	}
}

func TestSyncEngineMissingCoverIsNotFatal(t *testing.T) {
	svc := newMockService(t)
	svc.covers = nil
	root := t.TempDir()

	engine := NewSyncEngine(svc, library.NewStorage(root), nil, SyncOpts{})
	result, err := engine.Run(context.Background(), models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"}},
	}, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.AlbumsSynced != 1 {
		t.Errorf("albums synced = %d, want 1", result.AlbumsSynced)
	}

	store := library.NewStorage(root)
	if _, err := os.Stat(filepath.Join(store.AlbumDir("Joni Mitchell", "Blue"), "cover.jpg")); !os.IsNotExist(err) {
		t.Error("cover.jpg written without cover data")
	}
}

func TestSyncEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewSyncEngine(newMockService(t), library.NewStorage(t.TempDir()), nil, SyncOpts{})
	_, err := engine.Run(ctx, models.Selection{
		Albums: []models.Album{{ID: "al-1", Name: "Blue"}},
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
