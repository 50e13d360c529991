package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ChristopherJMiller/nutune/internal/device"
	"github.com/ChristopherJMiller/nutune/internal/models"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = albumItem{}
	_ list.Item = playlistItem{}
	_ list.Item = deviceItem{}
)

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	artist models.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	if i.artist.AlbumCount == 1 {
		return "1 album"
	}
	return fmt.Sprintf("%d albums", i.artist.AlbumCount)
}

// albumItem wraps [models.Album] to implement [list.Item]. The title
// carries selection and already-synced markers so the default delegate
// can render state without a custom delegate.
type albumItem struct {
	album    models.Album
	selected bool
	synced   bool
}

func (i albumItem) FilterValue() string { return i.album.Name }
func (i albumItem) Title() string       { return marker(i.selected, i.synced) + i.album.Name }
func (i albumItem) Description() string {
	desc := i.album.DisplayArtist()
	if i.album.SongCount > 0 {
		desc = fmt.Sprintf("%s • %d tracks", desc, i.album.SongCount)
	}
	if i.album.Year > 0 {
		desc = fmt.Sprintf("%s • %d", desc, i.album.Year)
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	selected bool
	synced   bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return marker(i.selected, i.synced) + i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.SongCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	return desc
}

// deviceItem wraps [device.Device] to implement [list.Item].
type deviceItem struct {
	device device.Device
}

func (i deviceItem) FilterValue() string { return i.device.DisplayLabel() }
func (i deviceItem) Title() string       { return i.device.DisplayLabel() }
func (i deviceItem) Description() string {
	if i.device.Mounted() {
		return fmt.Sprintf("%s • %s", i.device.MountPoint, i.device.FSType)
	}
	return fmt.Sprintf("/dev/%s • not mounted", i.device.Name)
}

func marker(selected, synced bool) string {
	switch {
	case selected && synced:
		return "✓ "
	case selected:
		return "● "
	case synced:
		return "◦ "
	default:
		return "  "
	}
}
