// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for building a sync selection and running it:
//  1. [ArtistListView] / [AlbumListView] / [PlaylistListView] : Browse the catalog; space toggles selection
//  2. [DeviceListView] : Pick the target device (auto-mounting when needed)
//  3. [ConfirmView] : Review additions and pending deletions before committing
//  4. [ProgressView] : Monitor real-time engine events
//  5. [DoneView] : Display run counters
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress events flow through a [tasks.Publisher] from the SyncEngine, providing non-blocking status reporting during a run.
// Quitting at browse level persists the selection for a later non-interactive sync.
//
// Keyboard navigation uses vim-style bindings (j/k, space, tab, s, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
