// Package models defines domain entities and persistence interfaces for the nutune device sync service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing Subsonic library data
//   - [Artist] : Library artist from the artist index
//   - [Album] / [AlbumDetails] : Album metadata, optionally with its track listing
//   - [Playlist] / [PlaylistDetails] : Playlist metadata, optionally with its track listing
//   - [Track] : Song metadata including the file suffix used for on-device naming
//   - [Selection] : The ordered set of albums and playlists chosen for a sync
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Device] : Removable devices keyed by a stable property hash
//   - [SyncRun] : Per-run sync history with final counters
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
