package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/ChristopherJMiller/nutune/internal/device"
	"github.com/ChristopherJMiller/nutune/internal/library"
	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/services"
	"github.com/ChristopherJMiller/nutune/internal/shared"
	"github.com/ChristopherJMiller/nutune/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ArtistListView ViewState = iota
	AlbumListView
	PlaylistListView
	DeviceListView
	ConfirmView
	ProgressView
	DoneView
)

// maxEventLines bounds the progress log shown on screen.
const maxEventLines = 12

// syncSession holds everything bound to the chosen device: the locked
// volume, its manifest, and the reconciliation plan for the current
// selection.
type syncSession struct {
	device   device.Device
	volume   *device.Volume
	manifest *library.Manifest
	plan     tasks.Plan
}

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	svc           services.Service
	logger        *log.Logger
	opts          tasks.SyncOpts
	selectionPath string

	view   ViewState
	width  int
	height int

	artistList   list.Model
	albumList    list.Model
	playlistList list.Model
	deviceList   list.Model

	artists       []models.Artist
	playlists     []models.Playlist
	currentArtist models.Artist

	selection models.Selection

	session   *syncSession
	publisher *tasks.Publisher
	events    []string
	progress  tasks.ProgressUpdate
	runResult *tasks.SyncResult
	runErr    error

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. The initial selection (typically
// the persisted one) pre-marks albums and playlists.
func NewModel(ctx context.Context, svc services.Service, logger *log.Logger, opts tasks.SyncOpts, selectionPath string, initial models.Selection) *Model {
	return &Model{
		ctx:           ctx,
		svc:           svc,
		logger:        logger,
		opts:          opts,
		selectionPath: selectionPath,
		view:          ArtistListView,
		selection:     initial,
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// StartOnPlaylists opens the browser on the playlist view instead of
// the artist index.
func (m *Model) StartOnPlaylists() *Model {
	m.view = PlaylistListView
	return m
}

// Init fetches the artist index and playlist listing.
func (m *Model) Init() tea.Cmd {
	return m.fetchCatalog()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.artistList, &m.albumList, &m.playlistList, &m.deviceList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleAppMsg(msg)
	}

	return m.updateActiveList(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list filter input is open every key belongs to it.
	if l := m.activeList(); l != nil && l.FilterState() == list.Filtering {
		return m.updateActiveList(msg)
	}

	switch m.view {
	case ArtistListView:
		return m.handleArtistKeys(msg)
	case AlbumListView:
		return m.handleAlbumKeys(msg)
	case PlaylistListView:
		return m.handlePlaylistKeys(msg)
	case DeviceListView:
		return m.handleDeviceKeys(msg)
	case ConfirmView:
		return m.handleConfirmKeys(msg)
	case ProgressView:
		// The engine owns the run; only ctrl+c bails out.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case DoneView:
		return m.handleDoneKeys(msg)
	}
	return m, nil
}

func (m *Model) handleAppMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogFetched:
		data := msg.data.(catalogData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.artists = data.artists
		m.playlists = data.playlists

		items := make([]list.Item, len(data.artists))
		for i, artist := range data.artists {
			items[i] = artistItem{artist: artist}
		}
		m.artistList = newListModel("Artists", items, m.width, m.height)
		m.playlistList = newListModel("Playlists", m.playlistItems(), m.width, m.height)
		return m, nil

	case MsgAlbumsFetched:
		data := msg.data.(albumsData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.currentArtist = data.artist
		items := make([]list.Item, len(data.albums))
		for i, album := range data.albums {
			items[i] = m.albumItem(album)
		}
		m.albumList = newListModel(data.artist.Name, items, m.width, m.height)
		m.view = AlbumListView
		return m, nil

	case MsgArtistToggled:
		data := msg.data.(albumsData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.toggleAllAlbums(data.albums)
		return m, nil

	case MsgDevicesFetched:
		data := msg.data.(devicesData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.devices))
		for i, dev := range data.devices {
			items[i] = deviceItem{device: dev}
		}
		m.deviceList = newListModel("Choose a device", items, m.width, m.height)
		m.view = DeviceListView
		return m, nil

	case MsgDeviceOpened:
		data := msg.data.(deviceOpenedData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.session = data.session
		m.refreshSyncedMarkers()
		m.view = ConfirmView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.appendEvent(m.progress)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		data := msg.data.(syncCompleteData)
		m.runResult = data.result
		m.runErr = data.err
		m.closeSession()
		m.view = DoneView
		return m, nil
	}

	return m, nil
}

func (m *Model) handleArtistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.saveAndQuit()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.artistList.SelectedItem().(artistItem); ok {
			return m, m.fetchAlbums(item.artist, false)
		}
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.artistList.SelectedItem().(artistItem); ok {
			return m, m.fetchAlbums(item.artist, true)
		}
	case key.Matches(msg, m.keys.tab):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.sync):
		return m.proceedToDevices()
	}
	return m.updateActiveList(msg)
}

func (m *Model) handleAlbumKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.saveAndQuit()
	case key.Matches(msg, m.keys.back):
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		index := m.albumList.Index()
		if item, ok := m.albumList.SelectedItem().(albumItem); ok {
			m.toggleAlbum(item.album)
			return m, m.albumList.SetItem(index, m.albumItem(item.album))
		}
	case key.Matches(msg, m.keys.sync):
		return m.proceedToDevices()
	}
	return m.updateActiveList(msg)
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.saveAndQuit()
	case key.Matches(msg, m.keys.tab), key.Matches(msg, m.keys.back):
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		index := m.playlistList.Index()
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.togglePlaylist(item.playlist)
			return m, m.playlistList.SetItem(index, m.playlistItem(item.playlist))
		}
	case key.Matches(msg, m.keys.sync):
		return m.proceedToDevices()
	}
	return m.updateActiveList(msg)
}

func (m *Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.saveAndQuit()
	case key.Matches(msg, m.keys.back):
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			return m, m.openDevice(item.device)
		}
	}
	return m.updateActiveList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.closeSession()
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.yes), key.Matches(msg, m.keys.enter):
		m.view = ProgressView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter", "esc":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != DoneView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ArtistListView:
		return m.renderBrowse(&m.artistList, []key.Binding{m.keys.enter, m.keys.toggle, m.keys.tab, m.keys.sync, m.keys.quit})
	case AlbumListView:
		return m.renderBrowse(&m.albumList, []key.Binding{m.keys.toggle, m.keys.back, m.keys.sync, m.keys.quit})
	case PlaylistListView:
		return m.renderBrowse(&m.playlistList, []key.Binding{m.keys.toggle, m.keys.tab, m.keys.sync, m.keys.quit})
	case DeviceListView:
		return m.renderBrowse(&m.deviceList, []key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	case ConfirmView:
		return m.renderConfirm()
	case ProgressView:
		return m.renderProgress()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case ArtistListView:
		return &m.artistList
	case AlbumListView:
		return &m.albumList
	case PlaylistListView:
		return &m.playlistList
	case DeviceListView:
		return &m.deviceList
	}
	return nil
}

func (m *Model) updateActiveList(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := m.activeList()
	if l == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

// saveAndQuit persists the selection so a later non-interactive sync
// can pick it up.
func (m *Model) saveAndQuit() (tea.Model, tea.Cmd) {
	if err := tasks.SaveSelection(m.selectionPath, m.selection); err != nil {
		m.logger.Warn("failed to save selection", "error", err)
	}
	return m, tea.Quit
}

func (m *Model) proceedToDevices() (tea.Model, tea.Cmd) {
	if m.selection.IsEmpty() {
		return m, nil
	}
	if err := tasks.SaveSelection(m.selectionPath, m.selection); err != nil {
		m.logger.Warn("failed to save selection", "error", err)
	}
	return m, m.fetchDevices()
}

func (m *Model) albumSelected(id string) bool {
	for _, album := range m.selection.Albums {
		if album.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) playlistSelected(id string) bool {
	for _, playlist := range m.selection.Playlists {
		if playlist.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) toggleAlbum(album models.Album) {
	for i, sel := range m.selection.Albums {
		if sel.ID == album.ID {
			m.selection.Albums = append(m.selection.Albums[:i], m.selection.Albums[i+1:]...)
			return
		}
	}
	m.selection.Albums = append(m.selection.Albums, album)
}

func (m *Model) togglePlaylist(playlist models.Playlist) {
	for i, sel := range m.selection.Playlists {
		if sel.ID == playlist.ID {
			m.selection.Playlists = append(m.selection.Playlists[:i], m.selection.Playlists[i+1:]...)
			return
		}
	}
	m.selection.Playlists = append(m.selection.Playlists, playlist)
}

// toggleAllAlbums selects every album of an artist, or deselects them
// all when every one is already selected.
func (m *Model) toggleAllAlbums(albums []models.Album) {
	all := true
	for _, album := range albums {
		if !m.albumSelected(album.ID) {
			all = false
			break
		}
	}
	for _, album := range albums {
		if all && m.albumSelected(album.ID) {
			m.toggleAlbum(album)
		} else if !all && !m.albumSelected(album.ID) {
			m.toggleAlbum(album)
		}
	}
}

func (m *Model) albumItem(album models.Album) albumItem {
	synced := m.session != nil && m.session.manifest != nil && m.session.manifest.IsAlbumSynced(album.ID)
	return albumItem{album: album, selected: m.albumSelected(album.ID), synced: synced}
}

func (m *Model) playlistItem(playlist models.Playlist) playlistItem {
	synced := m.session != nil && m.session.manifest != nil && m.session.manifest.IsPlaylistSynced(playlist.ID)
	return playlistItem{playlist: playlist, selected: m.playlistSelected(playlist.ID), synced: synced}
}

func (m *Model) playlistItems() []list.Item {
	items := make([]list.Item, len(m.playlists))
	for i, playlist := range m.playlists {
		items[i] = m.playlistItem(playlist)
	}
	return items
}

// refreshSyncedMarkers repaints list items once a manifest is available.
func (m *Model) refreshSyncedMarkers() {
	m.playlistList.SetItems(m.playlistItems())
	items := m.albumList.Items()
	for i, raw := range items {
		if item, ok := raw.(albumItem); ok {
			items[i] = m.albumItem(item.album)
		}
	}
	m.albumList.SetItems(items)
}

func (m *Model) appendEvent(update tasks.ProgressUpdate) {
	if update.Message == "" {
		return
	}
	line := update.Message
	switch update.Kind {
	case tasks.SyncError, tasks.AlbumDeleteFailed, tasks.PlaylistDeleteFailed:
		line = styles.warn.Render(line)
	case tasks.AlbumCompleted, tasks.PlaylistCompleted:
		line = styles.ok.Render(line)
	}
	m.events = append(m.events, line)
	if len(m.events) > maxEventLines {
		m.events = m.events[len(m.events)-maxEventLines:]
	}
}

func (m *Model) closeSession() {
	if m.session != nil && m.session.volume != nil {
		if err := m.session.volume.Close(); err != nil {
			m.logger.Warn("failed to release volume lock", "error", err)
		}
		m.session.volume = nil
	}
}

func newListModel(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	if width > 0 {
		l.SetSize(width-4, height-8)
	}
	return l
}

func (m *Model) fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		artists, err := m.svc.GetArtists(m.ctx)
		if err != nil {
			return catalogFetchedMsg(nil, nil, err)
		}
		playlists, err := m.svc.GetPlaylists(m.ctx)
		return catalogFetchedMsg(artists, playlists, err)
	}
}

func (m *Model) fetchAlbums(artist models.Artist, toggle bool) tea.Cmd {
	return func() tea.Msg {
		albums, err := m.svc.GetArtist(m.ctx, artist.ID)
		if toggle {
			return artistToggledMsg(artist, albums, err)
		}
		return albumsFetchedMsg(artist, albums, err)
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		mounted, err := device.Scan(m.ctx)
		if err != nil {
			return devicesFetchedMsg(nil, err)
		}
		unmounted, err := device.ScanUnmounted(m.ctx)
		if err != nil {
			return devicesFetchedMsg(nil, err)
		}
		all := append(mounted, unmounted...)
		if len(all) == 0 {
			return devicesFetchedMsg(nil, shared.ErrDeviceNotFound)
		}
		return devicesFetchedMsg(all, nil)
	}
}

// openDevice mounts the device when necessary, locks the volume, loads
// its manifest, and computes the reconciliation plan for the selection.
func (m *Model) openDevice(dev device.Device) tea.Cmd {
	return func() tea.Msg {
		mountPoint := dev.MountPoint
		if !dev.Mounted() {
			mp, err := device.Mount(m.ctx, dev.Name)
			if err != nil {
				return deviceOpenedMsg(nil, err)
			}
			mountPoint = mp
			dev.MountPoint = mp
		}

		volume, err := device.OpenVolume(mountPoint)
		if err != nil {
			return deviceOpenedMsg(nil, err)
		}

		manifest, err := library.LoadManifest(mountPoint)
		if err != nil {
			volume.Close()
			return deviceOpenedMsg(nil, err)
		}

		session := &syncSession{
			device:   dev,
			volume:   volume,
			manifest: manifest,
			plan:     tasks.Reconcile(m.selection, manifest),
		}
		return deviceOpenedMsg(session, nil)
	}
}

func (m *Model) startSync() tea.Cmd {
	m.publisher = tasks.NewPublisher()
	m.events = nil

	store := library.NewStorage(m.session.volume.Root)
	engine := tasks.NewSyncEngine(m.svc, store, m.logger, m.opts)

	go func() {
		result, err := engine.Run(m.ctx, m.selection, m.publisher)
		m.runResult = result
		m.runErr = err
		m.publisher.Close()
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.publisher.Updates()
		if !ok {
			return syncCompleteMsg(m.runResult, m.runErr)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderBrowse(l *list.Model, helpKeys []key.Binding) string {
	status := fmt.Sprintf("selected: %d albums, %d playlists", m.selection.AlbumCount(), m.selection.PlaylistCount())
	return fmt.Sprintf("%s\n\n%s\n%s", l.View(), styles.help.Render(status), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	plan := m.session.plan
	title := styles.title.Render(fmt.Sprintf("Sync to %s?", m.session.device.DisplayLabel()))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nTo sync: %d albums, %d playlists\n", len(plan.AlbumsToSync), len(plan.PlaylistsToSync)))
	if n := len(plan.AlbumsToSkip) + len(plan.PlaylistsToSkip); n > 0 {
		b.WriteString(fmt.Sprintf("Up to date: %d\n", n))
	}
	if len(plan.AlbumsToDelete)+len(plan.PlaylistsToDelete) > 0 {
		b.WriteString("\n" + styles.warn.Render("Will be removed from the device:") + "\n")
		for _, album := range plan.AlbumsToDelete {
			b.WriteString(fmt.Sprintf("  • %s - %s\n", album.Artist, album.Name))
		}
		for _, playlist := range plan.PlaylistsToDelete {
			b.WriteString(fmt.Sprintf("  • %s (playlist)\n", playlist.Name))
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render(fmt.Sprintf("Syncing to %s", m.session.device.DisplayLabel()))
	return fmt.Sprintf("%s\n%s\n", title, strings.Join(m.events, "\n"))
}

func (m *Model) renderDone() string {
	if m.runErr != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress q to quit", m.runErr))
	}
	if m.runResult == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Sync complete")
	info := fmt.Sprintf(
		"\nAlbums: %d synced, %d skipped, %d failed\nPlaylists: %d synced, %d skipped, %d failed\nRemoved: %d albums, %d playlists\nTracks written: %d (%s) in %s\n",
		m.runResult.AlbumsSynced, m.runResult.AlbumsSkipped, m.runResult.AlbumsFailed,
		m.runResult.PlaylistsSynced, m.runResult.PlaylistsSkipped, m.runResult.PlaylistsFailed,
		m.runResult.AlbumsDeleted, m.runResult.PlaylistsDeleted,
		m.runResult.TracksWritten, shared.FormatBytes(uint64(m.runResult.BytesWritten)),
		m.runResult.Elapsed.Round(time.Second),
	)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}
