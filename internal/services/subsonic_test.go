package services

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

const testPassword = "sesame"

// checkAuth verifies the salted-token parameters on an incoming request.
func checkAuth(t *testing.T, r *http.Request) {
	t.Helper()
	q := r.URL.Query()

	if got := q.Get("u"); got != "alice" {
		t.Errorf("u = %q, want alice", got)
	}
	if got := q.Get("v"); got != subsonicAPIVersion {
		t.Errorf("v = %q, want %s", got, subsonicAPIVersion)
	}
	if got := q.Get("c"); got != subsonicClientName {
		t.Errorf("c = %q, want %s", got, subsonicClientName)
	}
	if got := q.Get("f"); got != "json" {
		t.Errorf("f = %q, want json", got)
	}

	salt := q.Get("s")
	if len(salt) != saltLength {
		t.Errorf("salt length = %d, want %d", len(salt), saltLength)
	}
	want := fmt.Sprintf("%x", md5.Sum([]byte(testPassword+salt)))
	if got := q.Get("t"); got != want {
		t.Errorf("token = %q, want %q", got, want)
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *SubsonicService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSubsonicService(shared.ServerConfig{
		URL:      server.URL,
		Username: "alice",
		Password: testPassword,
	}, server.Client())
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return svc
}

func okEnvelope(payload string) string {
	body := `"status":"ok","version":"1.16.1"`
	if payload != "" {
		body += "," + payload
	}
	return `{"subsonic-response":{` + body + `}}`
}

func TestNewSubsonicService(t *testing.T) {
	cases := []struct {
		name   string
		server shared.ServerConfig
	}{
		{"missing url", shared.ServerConfig{Username: "a", Password: "b"}},
		{"missing username", shared.ServerConfig{URL: "https://x", Password: "b"}},
		{"missing password", shared.ServerConfig{URL: "https://x", Username: "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSubsonicService(tc.server, nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}

	t.Run("trailing slash trimmed", func(t *testing.T) {
		svc, err := NewSubsonicService(shared.ServerConfig{URL: "https://music.example.com/", Username: "a", Password: "b"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if svc.ServerURL() != "https://music.example.com" {
			t.Errorf("server url = %q", svc.ServerURL())
		}
	})
}

func TestPing(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			checkAuth(t, r)
			if r.URL.Path != "/rest/ping" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, okEnvelope(""))
		})

		if err := svc.Ping(context.Background()); err != nil {
			t.Errorf("ping failed: %v", err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"subsonic-response":{"status":"failed","version":"1.16.1","error":{"code":40,"message":"Wrong username or password."}}}`)
		})

		if err := svc.Ping(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("server error code", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"subsonic-response":{"status":"failed","version":"1.16.1","error":{"code":0,"message":"boom"}}}`)
		})

		if err := svc.Ping(context.Background()); !errors.Is(err, shared.ErrSubsonic) {
			t.Errorf("expected ErrSubsonic, got %v", err)
		}
	})

	t.Run("http error status", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		if err := svc.Ping(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestGetArtists(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/getArtists" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"artists":{"index":[
			{"name":"B","artist":[{"id":"ar-2","name":"Blondie","albumCount":6}]},
			{"name":"Q","artist":[{"id":"ar-1","name":"Queen","albumCount":15}]}
		]}`))
	})

	artists, err := svc.GetArtists(context.Background())
	if err != nil {
		t.Fatalf("get artists failed: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("artists = %d, want 2", len(artists))
	}
	if artists[0].Name != "Blondie" || artists[1].Name != "Queen" {
		t.Errorf("index order not preserved: %v", artists)
	}
	if artists[1].AlbumCount != 15 {
		t.Errorf("album count = %d", artists[1].AlbumCount)
	}
}

func TestGetArtist(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "ar-1" {
			t.Errorf("id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"artist":{"id":"ar-1","name":"Queen","album":[
			{"id":"al-1","name":"A Night at the Opera","artist":"Queen","songCount":12,"year":1975}
		]}`))
	})

	albums, err := svc.GetArtist(context.Background(), "ar-1")
	if err != nil {
		t.Fatalf("get artist failed: %v", err)
	}
	if len(albums) != 1 || albums[0].Name != "A Night at the Opera" {
		t.Errorf("albums = %v", albums)
	}
}

func TestGetAlbum(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"album":{"id":"al-1","name":"A Night at the Opera","artist":"Queen","coverArt":"co-1","song":[
			{"id":"tr-1","title":"Death on Two Legs","track":1,"suffix":"flac"},
			{"id":"tr-2","title":"Lazing on a Sunday Afternoon","track":2,"suffix":"flac"}
		]}`))
	})

	album, err := svc.GetAlbum(context.Background(), "al-1")
	if err != nil {
		t.Fatalf("get album failed: %v", err)
	}
	if album.Name != "A Night at the Opera" || album.CoverArt != "co-1" {
		t.Errorf("album = %+v", album.Album)
	}
	if len(album.Tracks) != 2 || album.Tracks[1].Title != "Lazing on a Sunday Afternoon" {
		t.Errorf("tracks = %v", album.Tracks)
	}
}

func TestGetPlaylists(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"playlists":{"playlist":[
			{"id":"pl-1","name":"Road Trip","songCount":24,"owner":"alice"}
		]}`))
	})

	playlists, err := svc.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("get playlists failed: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Name != "Road Trip" {
		t.Errorf("playlists = %v", playlists)
	}
}

func TestGetPlaylist(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"playlist":{"id":"pl-1","name":"Road Trip","entry":[
			{"id":"tr-9","title":"Heart of Glass","artist":"Blondie","suffix":"mp3","coverArt":"co-9"}
		]}`))
	})

	playlist, err := svc.GetPlaylist(context.Background(), "pl-1")
	if err != nil {
		t.Fatalf("get playlist failed: %v", err)
	}
	if playlist.Name != "Road Trip" {
		t.Errorf("playlist = %+v", playlist.Playlist)
	}
	if len(playlist.Tracks) != 1 || playlist.Tracks[0].CoverArt != "co-9" {
		t.Errorf("tracks = %v", playlist.Tracks)
	}
}

func TestDownloadTrack(t *testing.T) {
	t.Run("binary response", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/rest/download" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("audio-bytes"))
		})

		data, err := svc.DownloadTrack(context.Background(), "tr-1")
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}
		if string(data) != "audio-bytes" {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("json error envelope", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"subsonic-response":{"status":"failed","version":"1.16.1","error":{"code":70,"message":"not found"}}}`)
		})

		_, err := svc.DownloadTrack(context.Background(), "tr-404")
		if !errors.Is(err, shared.ErrTrackDownload) {
			t.Errorf("expected ErrTrackDownload, got %v", err)
		}
	})
}

func TestGetCoverArt(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("size"); got != "300" {
			t.Errorf("size = %q, want 300", got)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})

	data, err := svc.GetCoverArt(context.Background(), "co-1", 300)
	if err != nil {
		t.Fatalf("get cover art failed: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestRawGet(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/getScanStatus" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okEnvelope(`"scanStatus":{"scanning":false,"count":1234}`))
	})

	payload, err := svc.Get(context.Background(), "getScanStatus", nil)
	if err != nil {
		t.Fatalf("raw get failed: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("empty payload")
	}
}
