// Package library manages the on-volume music library: the manifest
// that records what has been synced, the directory layout for albums
// and playlists, and filename sanitization.
package library
