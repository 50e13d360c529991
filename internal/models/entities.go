package models

import (
	"fmt"
	"time"
)

// Device is a removable device nutune has seen, keyed by the stable
// hash of label, size and filesystem type so it survives mount-point
// and device-node changes.
type Device struct {
	id           string
	sequence     int
	label        string
	fsType       string
	sizeBytes    int64
	friendlyName string
	firstSeen    time.Time
	lastSeen     time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewDevice creates a device entity. The caller supplies the stable
// device ID (see device.StableID); sequence comes from the repository.
func NewDevice(sequence int, id, label, fsType string, sizeBytes int64) *Device {
	now := time.Now()
	return &Device{
		id:        id,
		sequence:  sequence,
		label:     label,
		fsType:    fsType,
		sizeBytes: sizeBytes,
		firstSeen: now,
		lastSeen:  now,
		createdAt: now,
		updatedAt: now,
	}
}

func (d *Device) ID() string            { return d.id }
func (d *Device) Sequence() int         { return d.sequence }
func (d *Device) Label() string         { return d.label }
func (d *Device) FSType() string        { return d.fsType }
func (d *Device) SizeBytes() int64      { return d.sizeBytes }
func (d *Device) FriendlyName() string  { return d.friendlyName }
func (d *Device) FirstSeen() time.Time  { return d.firstSeen }
func (d *Device) LastSeen() time.Time   { return d.lastSeen }
func (d *Device) CreatedAt() time.Time  { return d.createdAt }
func (d *Device) UpdatedAt() time.Time  { return d.updatedAt }
func (d *Device) DeletedAt() *time.Time { return d.deletedAt }

func (d *Device) SetID(id string)                 { d.id = id }
func (d *Device) SetSequence(sequence int)        { d.sequence = sequence }
func (d *Device) SetFriendlyName(name string)     { d.friendlyName = name }
func (d *Device) SetFirstSeen(ts time.Time)       { d.firstSeen = ts }
func (d *Device) SetLastSeen(ts time.Time)        { d.lastSeen = ts }
func (d *Device) SetCreatedAt(ts time.Time)       { d.createdAt = ts }
func (d *Device) SetUpdatedAt(ts time.Time)       { d.updatedAt = ts }
func (d *Device) SetDeletedAt(ts *time.Time)      { d.deletedAt = ts }

// DisplayName prefers the user-assigned friendly name, then the volume
// label, then the device ID.
func (d *Device) DisplayName() string {
	if d.friendlyName != "" {
		return d.friendlyName
	}
	if d.label != "" {
		return d.label
	}
	return d.id
}

// Validate checks if the device's data is valid.
func (d *Device) Validate() error {
	if d.id == "" {
		return fmt.Errorf("device id is required")
	}
	if d.sizeBytes < 0 {
		return fmt.Errorf("device size cannot be negative")
	}
	return nil
}

// SyncRun records one sync of a device: which device, when, and the
// final counters. Failed runs carry the error message.
type SyncRun struct {
	id               string
	sequence         int
	deviceID         string
	startedAt        time.Time
	finishedAt       *time.Time
	albumsSynced     int
	playlistsSynced  int
	tracksDownloaded int
	bytesDownloaded  int64
	albumsDeleted    int
	playlistsDeleted int
	errMessage       string
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewSyncRun creates a sync run entity for the given device, started now.
func NewSyncRun(sequence int, deviceID string) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:  sequence,
		deviceID:  deviceID,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *SyncRun) ID() string             { return s.id }
func (s *SyncRun) Sequence() int          { return s.sequence }
func (s *SyncRun) DeviceID() string       { return s.deviceID }
func (s *SyncRun) StartedAt() time.Time   { return s.startedAt }
func (s *SyncRun) FinishedAt() *time.Time { return s.finishedAt }
func (s *SyncRun) AlbumsSynced() int      { return s.albumsSynced }
func (s *SyncRun) PlaylistsSynced() int   { return s.playlistsSynced }
func (s *SyncRun) TracksDownloaded() int  { return s.tracksDownloaded }
func (s *SyncRun) BytesDownloaded() int64 { return s.bytesDownloaded }
func (s *SyncRun) AlbumsDeleted() int     { return s.albumsDeleted }
func (s *SyncRun) PlaylistsDeleted() int  { return s.playlistsDeleted }
func (s *SyncRun) ErrMessage() string     { return s.errMessage }
func (s *SyncRun) CreatedAt() time.Time   { return s.createdAt }
func (s *SyncRun) UpdatedAt() time.Time   { return s.updatedAt }
func (s *SyncRun) DeletedAt() *time.Time  { return s.deletedAt }

func (s *SyncRun) SetID(id string)            { s.id = id }
func (s *SyncRun) SetSequence(sequence int)   { s.sequence = sequence }
func (s *SyncRun) SetStartedAt(ts time.Time)  { s.startedAt = ts }
func (s *SyncRun) SetCreatedAt(ts time.Time)  { s.createdAt = ts }
func (s *SyncRun) SetUpdatedAt(ts time.Time)  { s.updatedAt = ts }
func (s *SyncRun) SetDeletedAt(ts *time.Time) { s.deletedAt = ts }
func (s *SyncRun) SetErrMessage(msg string)   { s.errMessage = msg }

// Finish stamps the completion time and final counters.
func (s *SyncRun) Finish(albums, playlists, tracks int, bytes int64, albumsDeleted, playlistsDeleted int) {
	now := time.Now()
	s.finishedAt = &now
	s.albumsSynced = albums
	s.playlistsSynced = playlists
	s.tracksDownloaded = tracks
	s.bytesDownloaded = bytes
	s.albumsDeleted = albumsDeleted
	s.playlistsDeleted = playlistsDeleted
}

// SetFinishedAt sets the completion timestamp directly (used when
// hydrating from the database).
func (s *SyncRun) SetFinishedAt(ts *time.Time) { s.finishedAt = ts }

// SetCounters sets the result counters directly (used when hydrating
// from the database).
func (s *SyncRun) SetCounters(albums, playlists, tracks int, bytes int64, albumsDeleted, playlistsDeleted int) {
	s.albumsSynced = albums
	s.playlistsSynced = playlists
	s.tracksDownloaded = tracks
	s.bytesDownloaded = bytes
	s.albumsDeleted = albumsDeleted
	s.playlistsDeleted = playlistsDeleted
}

// Validate checks if the sync run's data is valid.
func (s *SyncRun) Validate() error {
	if s.deviceID == "" {
		return fmt.Errorf("sync run device id is required")
	}
	if s.startedAt.IsZero() {
		return fmt.Errorf("sync run start time is required")
	}
	return nil
}
