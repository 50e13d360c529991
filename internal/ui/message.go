package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ChristopherJMiller/nutune/internal/device"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgCatalogFetched MsgKind = iota
	MsgAlbumsFetched
	MsgArtistToggled
	MsgDevicesFetched
	MsgDeviceOpened
	MsgProgressUpdate
	MsgSyncComplete
)

type catalogData struct {
	artists   []models.Artist
	playlists []models.Playlist
	err       error
}

// catalogFetchedMsg is the constructor for [MsgCatalogFetched]
func catalogFetchedMsg(artists []models.Artist, playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgCatalogFetched, data: catalogData{artists, playlists, err}}
}

type albumsData struct {
	artist models.Artist
	albums []models.Album
	err    error
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(artist models.Artist, albums []models.Album, err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsData{artist, albums, err}}
}

// artistToggledMsg is the constructor for [MsgArtistToggled]; it carries
// the artist's full album listing so every album can be (de)selected.
func artistToggledMsg(artist models.Artist, albums []models.Album, err error) Msg {
	return Msg{kind: MsgArtistToggled, data: albumsData{artist, albums, err}}
}

type devicesData struct {
	devices []device.Device
	err     error
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []device.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesData{devices, err}}
}

type deviceOpenedData struct {
	session *syncSession
	err     error
}

// deviceOpenedMsg is the constructor for [MsgDeviceOpened]
func deviceOpenedMsg(session *syncSession, err error) Msg {
	return Msg{kind: MsgDeviceOpened, data: deviceOpenedData{session, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

type syncCompleteData struct {
	result *tasks.SyncResult
	err    error
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result *tasks.SyncResult, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncCompleteData{result, err}}
}
