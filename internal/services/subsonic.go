// Subsonic API implementation of [Service]
//
// Speaks the REST API documented at https://www.subsonic.org/pages/api.jsp
// (API version 1.16.1), which Navidrome, Airsonic and Gonic also serve.
package services

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

const (
	subsonicAPIVersion = "1.16.1"
	subsonicClientName = "nutune"
	saltLength         = 16
)

// subsonicError is the error object inside a failed response envelope.
type subsonicError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// subsonicEnvelope is the outer wrapper every JSON response carries.
type subsonicEnvelope struct {
	Response json.RawMessage `json:"subsonic-response"`
}

type subsonicStatus struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Error   *subsonicError `json:"error"`
}

type artistIndex struct {
	Name    string          `json:"name"`
	Artists []models.Artist `json:"artist"`
}

type artistsPayload struct {
	Artists struct {
		Index []artistIndex `json:"index"`
	} `json:"artists"`
}

type artistPayload struct {
	Artist struct {
		models.Artist
		Albums []models.Album `json:"album"`
	} `json:"artist"`
}

type albumPayload struct {
	Album struct {
		models.Album
		Songs []models.Track `json:"song"`
	} `json:"album"`
}

type playlistsPayload struct {
	Playlists struct {
		Playlist []models.Playlist `json:"playlist"`
	} `json:"playlists"`
}

type playlistPayload struct {
	Playlist struct {
		models.Playlist
		Entries []models.Track `json:"entry"`
	} `json:"playlist"`
}

// SubsonicService implements the Service interface against a Subsonic
// compatible server. Authentication uses the salted-token scheme: every
// request carries a fresh random salt and t=md5(password+salt), so the
// password itself never goes over the wire.
type SubsonicService struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewSubsonicService creates a service for the given server credentials.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewSubsonicService(server shared.ServerConfig, httpClient *http.Client) (*SubsonicService, error) {
	if server.URL == "" {
		return nil, fmt.Errorf("%w: server url", shared.ErrMissingCredentials)
	}
	if server.Username == "" || server.Password == "" {
		return nil, fmt.Errorf("%w: username and password", shared.ErrMissingCredentials)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &SubsonicService{
		baseURL:    strings.TrimRight(server.URL, "/"),
		username:   server.Username,
		password:   server.Password,
		httpClient: httpClient,
	}, nil
}

func (s *SubsonicService) Name() string {
	return "Subsonic"
}

// ServerURL returns the base URL of the server this service talks to.
func (s *SubsonicService) ServerURL() string {
	return s.baseURL
}

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newSalt() string {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("reading random salt: %v", err))
	}
	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(buf)
}

// authParams returns the standard query parameters every Subsonic
// request needs, with a per-request salt and token.
func (s *SubsonicService) authParams() url.Values {
	salt := newSalt()
	token := md5.Sum([]byte(s.password + salt))

	params := url.Values{}
	params.Set("u", s.username)
	params.Set("t", fmt.Sprintf("%x", token))
	params.Set("s", salt)
	params.Set("v", subsonicAPIVersion)
	params.Set("c", subsonicClientName)
	params.Set("f", "json")
	return params
}

func (s *SubsonicService) requestURL(endpoint string, params url.Values) string {
	query := s.authParams()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	return fmt.Sprintf("%s/rest/%s?%s", s.baseURL, endpoint, query.Encode())
}

// decodeEnvelope unwraps the subsonic-response envelope, converting a
// failed status into an error. Error code 40 is the server's "wrong
// username or password".
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env subsonicEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("%w: response missing subsonic-response envelope", shared.ErrSubsonic)
	}

	var status subsonicStatus
	if err := json.Unmarshal(env.Response, &status); err != nil {
		return nil, fmt.Errorf("failed to decode response status: %w", err)
	}
	if status.Status != "ok" {
		if status.Error != nil {
			if status.Error.Code == 40 {
				return nil, fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, status.Error.Message)
			}
			return nil, fmt.Errorf("%w: code %d: %s", shared.ErrSubsonic, status.Error.Code, status.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %q", shared.ErrSubsonic, status.Status)
	}
	return env.Response, nil
}

// doRequest performs an authenticated request against a REST endpoint
// and decodes the envelope payload into result (which may be nil for
// endpoints where only the status matters).
func (s *SubsonicService) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(endpoint, params), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	payload, err := decodeEnvelope(body)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(payload, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// doBinaryRequest fetches an endpoint that normally returns raw bytes
// (download, getCoverArt). Servers report errors on these endpoints by
// switching the content type back to JSON, so that case is unwrapped
// into an error instead of being handed back as audio.
func (s *SubsonicService) doBinaryRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(endpoint, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "json") || strings.Contains(contentType, "xml") {
		if _, err := decodeEnvelope(body); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: unexpected %s response", shared.ErrSubsonic, contentType)
	}
	return body, nil
}

// Ping verifies connectivity and credentials.
func (s *SubsonicService) Ping(ctx context.Context) error {
	return s.doRequest(ctx, "ping", nil, nil)
}

// GetArtists retrieves the artist index, flattened in index order.
func (s *SubsonicService) GetArtists(ctx context.Context) ([]models.Artist, error) {
	var payload artistsPayload
	if err := s.doRequest(ctx, "getArtists", nil, &payload); err != nil {
		return nil, err
	}

	var artists []models.Artist
	for _, index := range payload.Artists.Index {
		artists = append(artists, index.Artists...)
	}
	return artists, nil
}

// GetArtist retrieves the albums belonging to an artist.
func (s *SubsonicService) GetArtist(ctx context.Context, artistID string) ([]models.Album, error) {
	params := url.Values{}
	params.Set("id", artistID)

	var payload artistPayload
	if err := s.doRequest(ctx, "getArtist", params, &payload); err != nil {
		return nil, err
	}
	return payload.Artist.Albums, nil
}

// GetAlbum retrieves an album with its full track listing.
func (s *SubsonicService) GetAlbum(ctx context.Context, albumID string) (*models.AlbumDetails, error) {
	params := url.Values{}
	params.Set("id", albumID)

	var payload albumPayload
	if err := s.doRequest(ctx, "getAlbum", params, &payload); err != nil {
		return nil, err
	}
	return &models.AlbumDetails{
		Album:  payload.Album.Album,
		Tracks: payload.Album.Songs,
	}, nil
}

// GetPlaylists retrieves all playlists visible to the user.
func (s *SubsonicService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var payload playlistsPayload
	if err := s.doRequest(ctx, "getPlaylists", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Playlists.Playlist, nil
}

// GetPlaylist retrieves a playlist with its full track listing.
func (s *SubsonicService) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetails, error) {
	params := url.Values{}
	params.Set("id", playlistID)

	var payload playlistPayload
	if err := s.doRequest(ctx, "getPlaylist", params, &payload); err != nil {
		return nil, err
	}
	return &models.PlaylistDetails{
		Playlist: payload.Playlist.Playlist,
		Tracks:   payload.Playlist.Entries,
	}, nil
}

// DownloadTrack fetches the original file for a track via the download
// endpoint, which never transcodes.
func (s *SubsonicService) DownloadTrack(ctx context.Context, trackID string) ([]byte, error) {
	params := url.Values{}
	params.Set("id", trackID)

	data, err := s.doBinaryRequest(ctx, "download", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrTrackDownload, trackID, err)
	}
	return data, nil
}

// GetCoverArt fetches cover art bytes. size is a pixel hint for the
// server-side scaler; 0 asks for the original.
func (s *SubsonicService) GetCoverArt(ctx context.Context, coverID string, size int) ([]byte, error) {
	params := url.Values{}
	params.Set("id", coverID)
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}

	data, err := s.doBinaryRequest(ctx, "getCoverArt", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCoverArt, coverID, err)
	}
	return data, nil
}

// Get performs a raw GET against an arbitrary REST endpoint and returns
// the undecoded envelope payload. Backs `nutune api`.
func (s *SubsonicService) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(endpoint, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeEnvelope(body)
}

// Post performs a raw form-encoded POST against an arbitrary REST
// endpoint. Subsonic servers accept POST for every endpoint; it keeps
// parameters out of access logs.
func (s *SubsonicService) Post(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	form := s.authParams()
	for key, values := range params {
		for _, v := range values {
			form.Add(key, v)
		}
	}

	url := fmt.Sprintf("%s/rest/%s", s.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeEnvelope(body)
}
