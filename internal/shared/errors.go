package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Server and API errors
	ErrSubsonic         = fmt.Errorf("subsonic error")
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrAlbumNotFound    = fmt.Errorf("album not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackDownload    = fmt.Errorf("track download failed")
	ErrCoverArt         = fmt.Errorf("cover art unavailable")

	// Device and volume errors
	ErrDeviceNotFound    = fmt.Errorf("device not found")
	ErrVolumeUnavailable = fmt.Errorf("volume root unavailable")
	ErrVolumeLocked      = fmt.Errorf("volume locked by another process")
	ErrCorruptManifest   = fmt.Errorf("corrupt sync manifest")
	ErrMountFailed       = fmt.Errorf("mount failed")

	// Pipeline errors
	ErrUnsupportedFormat = fmt.Errorf("unsupported audio format")
	ErrEmptySelection    = fmt.Errorf("nothing selected")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
