package library

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorageLayout(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)

	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	for _, dir := range []string{s.ArtistsDir(), s.PlaylistsDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("missing layout directory %s: %v", dir, err)
		}
	}
}

func TestWriteAlbumTrack(t *testing.T) {
	s := NewStorage(t.TempDir())

	path, err := s.WriteAlbumTrack("AC/DC", "Back in Black", 3, "What Do You Do for Money Honey", "mp3", []byte("audio"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := filepath.Join(s.ArtistsDir(), "AC⧸DC", "Back in Black", "03 - What Do You Do for Money Honey.mp3")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(data) != "audio" {
		t.Errorf("content = %q", data)
	}
}

func TestWritePlaylistTrack(t *testing.T) {
	s := NewStorage(t.TempDir())

	name, err := s.WritePlaylistTrack("Road Trip", "Queen", "Don't Stop Me Now", ".FLAC", []byte("audio"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if name != "Queen - Don't Stop Me Now.flac" {
		t.Errorf("filename = %q", name)
	}
	if _, err := os.Stat(filepath.Join(s.PlaylistDir("Road Trip"), name)); err != nil {
		t.Errorf("track not on disk: %v", err)
	}
}

func TestWriteCoverArt(t *testing.T) {
	s := NewStorage(t.TempDir())

	if err := s.WriteCoverArt("Joni Mitchell", "Blue", []byte("jpeg")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.AlbumDir("Joni Mitchell", "Blue"), "cover.jpg")); err != nil {
		t.Errorf("cover not on disk: %v", err)
	}
}

func TestWritePlaylistIndex(t *testing.T) {
	s := NewStorage(t.TempDir())

	files := []string{"Queen - Don't Stop Me Now.flac", "Blondie - Heart of Glass.mp3"}
	if err := s.WritePlaylistIndex("Road Trip", files); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.PlaylistDir("Road Trip"), "playlist.m3u"))
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	want := "#EXTM3U\nQueen - Don't Stop Me Now.flac\nBlondie - Heart of Glass.mp3\n"
	if string(data) != want {
		t.Errorf("index = %q, want %q", data, want)
	}
}

func TestDeleteAlbum(t *testing.T) {
	t.Run("prunes empty artist directory", func(t *testing.T) {
		s := NewStorage(t.TempDir())
		if _, err := s.WriteAlbumTrack("Joni Mitchell", "Blue", 1, "All I Want", "mp3", []byte("a")); err != nil {
			t.Fatal(err)
		}

		if err := s.DeleteAlbum("Joni Mitchell", "Blue"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(s.ArtistsDir(), "Joni Mitchell")); !os.IsNotExist(err) {
			t.Errorf("artist directory survived: %v", err)
		}
	})

	t.Run("keeps artist directory with other albums", func(t *testing.T) {
		s := NewStorage(t.TempDir())
		if _, err := s.WriteAlbumTrack("Joni Mitchell", "Blue", 1, "All I Want", "mp3", []byte("a")); err != nil {
			t.Fatal(err)
		}
		if _, err := s.WriteAlbumTrack("Joni Mitchell", "Hejira", 1, "Coyote", "mp3", []byte("a")); err != nil {
			t.Fatal(err)
		}

		if err := s.DeleteAlbum("Joni Mitchell", "Blue"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := os.Stat(s.AlbumDir("Joni Mitchell", "Hejira")); err != nil {
			t.Errorf("sibling album lost: %v", err)
		}
	})

	t.Run("missing album is an error", func(t *testing.T) {
		s := NewStorage(t.TempDir())
		if err := s.DeleteAlbum("Nobody", "Nothing"); err == nil {
			t.Error("expected error for missing album")
		}
	})
}

func TestDeletePlaylist(t *testing.T) {
	s := NewStorage(t.TempDir())
	if _, err := s.WritePlaylistTrack("Road Trip", "Queen", "Bicycle Race", "mp3", []byte("a")); err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePlaylist("Road Trip"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := os.Stat(s.PlaylistDir("Road Trip")); !os.IsNotExist(err) {
		t.Errorf("playlist directory survived: %v", err)
	}

	if err := s.DeletePlaylist("Road Trip"); err == nil {
		t.Error("expected error for missing playlist")
	}
}
