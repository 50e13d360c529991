package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/models"
)

func testAlbumDetails() *models.AlbumDetails {
	return &models.AlbumDetails{
		Album: models.Album{
			ID:        "al-1",
			Name:      "Night Drive",
			Artist:    "The Midnight",
			Year:      2018,
			SongCount: 2,
		},
		Tracks: []models.Track{
			{ID: "tr-1", Title: "Opening", Artist: "The Midnight", Album: "Night Drive", Track: 1, Duration: 195},
			{ID: "tr-2", Title: "Closing", Artist: "The Midnight", Album: "Night Drive", Track: 2, Duration: 243},
		},
	}
}

func testPlaylistDetails() *models.PlaylistDetails {
	return &models.PlaylistDetails{
		Playlist: models.Playlist{
			ID:        "pl-1",
			Name:      "Commute",
			Owner:     "alice",
			SongCount: 2,
			Duration:  438,
		},
		Tracks: []models.Track{
			{ID: "tr-1", Title: "Opening", Artist: "The Midnight", Album: "Night Drive", Duration: 195},
			{ID: "tr-3", Title: "Elsewhere", Artist: "Other Band", Album: "Another", Duration: 210},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(AlbumExport(testAlbumDetails()))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Album,Track,Duration") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "tr-1") {
			t.Error("CSV missing first track ID")
		}
		if !strings.Contains(output, "Opening") {
			t.Error("CSV missing first track title")
		}
		if !strings.Contains(output, "195") {
			t.Error("CSV missing track duration")
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Errorf("CSV lines = %d, want 3", len(lines))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(AlbumExport(testAlbumDetails()), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Night Drive") {
			t.Error("Markdown missing title heading")
		}
		if !strings.Contains(output, "![Cover](cover.jpg)") {
			t.Error("Markdown missing cover image reference")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Error("Markdown missing track count")
		}
		if !strings.Contains(output, "1. The Midnight - Opening [3:15]") {
			t.Errorf("Markdown missing track line, got: %s", output)
		}
		if strings.Contains(output, "(Night Drive)") {
			t.Error("Markdown repeats the album name on its own tracks")
		}
	})

	t.Run("ExportToMarkdown without image", func(t *testing.T) {
		data, err := ExportToMarkdown(PlaylistExport(testPlaylistDetails()), "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if strings.Contains(output, "![Cover]") {
			t.Error("Markdown should not reference a cover image")
		}
		if !strings.Contains(output, "curated by alice") {
			t.Error("Markdown missing owner line")
		}
		if !strings.Contains(output, "(Night Drive)") {
			t.Error("playlist tracks should name their source album")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(PlaylistExport(testPlaylistDetails()))
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Commute\n") {
			t.Error("text missing playlist name")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Error("text missing track count")
		}
		if !strings.Contains(output, "2. Other Band - Elsewhere") {
			t.Error("text missing numbered track line")
		}
	})
}

func TestListingCSV(t *testing.T) {
	t.Run("ArtistsToCSV", func(t *testing.T) {
		data, err := ArtistsToCSV([]models.Artist{
			{ID: "ar-1", Name: "The Midnight", AlbumCount: 4},
			{ID: "ar-2", Name: "Other Band"},
		})
		if err != nil {
			t.Fatalf("ArtistsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Albums") {
			t.Error("CSV missing headers")
		}
		if !strings.Contains(output, "ar-1,The Midnight,4") {
			t.Errorf("CSV missing artist row, got: %s", output)
		}
	})

	t.Run("AlbumsToCSV", func(t *testing.T) {
		data, err := AlbumsToCSV([]models.Album{
			{ID: "al-1", Name: "Night Drive", Artist: "The Midnight", Year: 2018, SongCount: 10},
			{ID: "al-2", Name: "Untitled"},
		})
		if err != nil {
			t.Fatalf("AlbumsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "al-1,Night Drive,The Midnight,2018,10") {
			t.Errorf("CSV missing album row, got: %s", output)
		}
		if !strings.Contains(output, "al-2,Untitled,Unknown Artist,,0") {
			t.Errorf("CSV missing zero-year album row, got: %s", output)
		}
	})

	t.Run("PlaylistsToCSV", func(t *testing.T) {
		data, err := PlaylistsToCSV([]models.Playlist{
			{ID: "pl-1", Name: "Commute", Owner: "alice", SongCount: 12, Duration: 2715},
		})
		if err != nil {
			t.Fatalf("PlaylistsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "pl-1,Commute,alice,12,45:15") {
			t.Errorf("CSV missing playlist row, got: %s", output)
		}
	})
}

func TestWriteExports(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "night-drive")

		result, err := WriteCSVExport(AlbumExport(testAlbumDetails()), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.TracksFile != base+"_tracks.csv" {
			t.Errorf("tracks file = %q", result.TracksFile)
		}

		csvData, err := os.ReadFile(result.TracksFile)
		if err != nil {
			t.Fatalf("failed to read tracks file: %v", err)
		}
		if !strings.Contains(string(csvData), "Opening") {
			t.Error("tracks file missing track data")
		}

		metaData, err := os.ReadFile(result.MetadataFile)
		if err != nil {
			t.Fatalf("failed to read metadata file: %v", err)
		}

		var album models.Album
		if err := json.Unmarshal(metaData, &album); err != nil {
			t.Fatalf("metadata is not valid JSON: %v", err)
		}
		if album.ID != "al-1" || album.Name != "Night Drive" {
			t.Errorf("metadata = %+v", album)
		}
	})

	t.Run("WriteMarkdownExport with cover", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		cover := []byte{0xff, 0xd8, 0xff, 0xdb}

		result, err := WriteMarkdownExport(AlbumExport(testAlbumDetails()), dir, cover)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.CoverImage == "" {
			t.Fatal("cover image not written")
		}
		saved, err := os.ReadFile(result.CoverImage)
		if err != nil {
			t.Fatalf("failed to read cover: %v", err)
		}
		if string(saved) != string(cover) {
			t.Error("cover bytes differ")
		}

		md, err := os.ReadFile(filepath.Join(dir, "README.md"))
		if err != nil {
			t.Fatalf("failed to read README: %v", err)
		}
		if !strings.Contains(string(md), "![Cover](cover.jpg)") {
			t.Error("README missing cover reference")
		}
		if len(result.Files) != 2 {
			t.Errorf("files = %v, want cover and README", result.Files)
		}
	})

	t.Run("WriteMarkdownExport without cover", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(PlaylistExport(testPlaylistDetails()), dir, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.CoverImage != "" {
			t.Error("unexpected cover image")
		}
		if len(result.Files) != 1 {
			t.Errorf("files = %v, want README only", result.Files)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "commute.txt")

		written, err := WriteTextExport(PlaylistExport(testPlaylistDetails()), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if written != path {
			t.Errorf("written path = %q", written)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read text export: %v", err)
		}
		if !strings.Contains(string(data), "1. The Midnight - Opening") {
			t.Error("text export missing track line")
		}
	})
}
