package tasks

import (
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
)

func TestReconcile(t *testing.T) {
	selection := models.Selection{
		Albums: []models.Album{
			{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"},
			{ID: "al-2", Name: "Hejira", Artist: "Joni Mitchell"},
		},
		Playlists: []models.Playlist{
			{ID: "pl-1", Name: "Road Trip"},
		},
	}

	t.Run("nil manifest syncs everything", func(t *testing.T) {
		plan := Reconcile(selection, nil)

		if len(plan.AlbumsToSync) != 2 || len(plan.PlaylistsToSync) != 1 {
			t.Errorf("sync lists = %d albums, %d playlists", len(plan.AlbumsToSync), len(plan.PlaylistsToSync))
		}
		if len(plan.AlbumsToDelete) != 0 || len(plan.PlaylistsToDelete) != 0 {
			t.Error("nothing should be deleted on a fresh volume")
		}
		if plan.IsNoop() {
			t.Error("plan with work reported as noop")
		}
	})

	t.Run("synced units are skipped", func(t *testing.T) {
		manifest := library.NewManifest("https://music.example.com")
		manifest.AddAlbum(library.SyncedAlbum{ID: "al-1", Name: "Blue", Artist: "Joni Mitchell"})

		plan := Reconcile(selection, manifest)

		if len(plan.AlbumsToSync) != 1 || plan.AlbumsToSync[0].ID != "al-2" {
			t.Errorf("albums to sync = %v", plan.AlbumsToSync)
		}
		if len(plan.AlbumsToSkip) != 1 || plan.AlbumsToSkip[0].ID != "al-1" {
			t.Errorf("albums to skip = %v", plan.AlbumsToSkip)
		}
	})

	t.Run("deselected units are deleted", func(t *testing.T) {
		manifest := library.NewManifest("https://music.example.com")
		manifest.AddAlbum(library.SyncedAlbum{ID: "al-9", Name: "Gone", Artist: "Nobody"})
		manifest.AddPlaylist(library.SyncedPlaylist{ID: "pl-9", Name: "Old Mix"})

		plan := Reconcile(selection, manifest)

		if len(plan.AlbumsToDelete) != 1 || plan.AlbumsToDelete[0].ID != "al-9" {
			t.Errorf("albums to delete = %v", plan.AlbumsToDelete)
		}
		if len(plan.PlaylistsToDelete) != 1 || plan.PlaylistsToDelete[0].ID != "pl-9" {
			t.Errorf("playlists to delete = %v", plan.PlaylistsToDelete)
		}
	})

	t.Run("identical selection is a noop", func(t *testing.T) {
		manifest := library.NewManifest("https://music.example.com")
		manifest.AddAlbum(library.SyncedAlbum{ID: "al-1"})
		manifest.AddAlbum(library.SyncedAlbum{ID: "al-2"})
		manifest.AddPlaylist(library.SyncedPlaylist{ID: "pl-1"})

		plan := Reconcile(selection, manifest)

		if !plan.IsNoop() {
			t.Errorf("expected noop plan, got %+v", plan)
		}
	})

	t.Run("selection order is preserved", func(t *testing.T) {
		plan := Reconcile(selection, library.NewManifest("https://music.example.com"))

		if plan.AlbumsToSync[0].ID != "al-1" || plan.AlbumsToSync[1].ID != "al-2" {
			t.Errorf("order not preserved: %v", plan.AlbumsToSync)
		}
	})
}
