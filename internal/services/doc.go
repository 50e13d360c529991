// Package services defines the [Service] interface for music catalog
// providers and implements it for Subsonic-compatible servers.
//
// # Service Interface
//
// [Service] covers everything the sync pipeline and browser need from a
// catalog: the artist index, album and playlist listings with tracks,
// and raw bytes for track downloads and cover art. Everything takes a
// context and returns models types, so callers never see wire formats.
//
// # Subsonic Implementation
//
// [SubsonicService] speaks the Subsonic REST API (version 1.16.1), the
// protocol also served by Navidrome, Airsonic and Gonic. Authentication
// uses the salted-token scheme: each request carries a fresh random
// salt and an md5(password+salt) token, never the password itself.
//
// Responses arrive in a "subsonic-response" JSON envelope whose status
// field signals application-level failures independently of the HTTP
// status. Binary endpoints (download, getCoverArt) report errors by
// switching the content type back to JSON; [SubsonicService] detects
// that and surfaces the envelope error instead of handing JSON back as
// audio.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : server rejected the credentials (code 40)
//   - [shared.ErrSubsonic] : any other application-level error envelope
//   - [shared.ErrAPIRequest] : transport failure or non-2xx HTTP status
//   - [shared.ErrTrackDownload] : download endpoint failed for a track
//   - [shared.ErrCoverArt] : getCoverArt failed for a cover ID
package services
