package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
	"golang.org/x/time/rate"
)

// testCatalog builds a SpotifyCatalog pointed at a stub server, skipping the
// client-credentials token fetch.
func testCatalog(t *testing.T, handler http.Handler, cache *repositories.TrackCacheRepository) *SpotifyCatalog {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &SpotifyCatalog{
		httpClient: server.Client(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		cache:      cache,
		logger:     shared.NewLogger(nil),
		baseURL:    server.URL,
	}
}

func setupCache(t *testing.T) *repositories.TrackCacheRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewTrackCacheRepository(db)
}

const searchResponse = `{
	"tracks": {
		"items": [
			{
				"id": "track1",
				"name": "First Song",
				"artists": [{"id": "ar1", "name": "Artist One"}],
				"album": {
					"id": "al1",
					"name": "Album One",
					"images": [{"url": "https://img.example/large", "height": 640, "width": 640}]
				},
				"duration_ms": 201000,
				"preview_url": "https://preview.example/track1",
				"external_urls": {"spotify": "https://open.spotify.com/track/track1"}
			}
		]
	}
}`

func TestSpotifyCatalogSearch(t *testing.T) {
	t.Run("Maps Tracks And Caches", func(t *testing.T) {
		cache := setupCache(t)
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("q"); got != "first song" {
				t.Errorf("unexpected query %q", got)
			}
			w.Write([]byte(searchResponse))
		}), cache)

		songs, err := catalog.Search(context.Background(), "first song", 20)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		if len(songs) != 1 {
			t.Fatalf("expected 1 song, got %d", len(songs))
		}

		song := songs[0]
		if song.SongID != "track1" || song.SongName != "First Song" {
			t.Errorf("unexpected song mapping: %+v", song)
		}
		if song.Artist != "Artist One" || song.Album != "Album One" {
			t.Errorf("unexpected artist/album mapping: %+v", song)
		}
		if song.AlbumArt != "https://img.example/large" {
			t.Errorf("expected first album image, got %s", song.AlbumArt)
		}
		if song.Duration != 201000 {
			t.Errorf("expected duration in ms, got %d", song.Duration)
		}

		cached, err := cache.Get("track1")
		if err != nil {
			t.Fatalf("search result should be cached: %v", err)
		}
		if cached.SongName != "First Song" {
			t.Errorf("unexpected cached name %s", cached.SongName)
		}
	})

	t.Run("Empty Query", func(t *testing.T) {
		catalog := testCatalog(t, http.NewServeMux(), nil)

		if _, err := catalog.Search(context.Background(), "", 20); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Upstream Error", func(t *testing.T) {
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}), nil)

		if _, err := catalog.Search(context.Background(), "anything", 20); !errors.Is(err, shared.ErrUpstreamFailure) {
			t.Errorf("expected ErrUpstreamFailure, got %v", err)
		}
	})
}

func TestSpotifyCatalogFeatured(t *testing.T) {
	t.Run("Returns Playlist Tracks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/browse/featured-playlists", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"playlists": {"items": [{"id": "pl1", "name": "Today's Hits"}]}}`))
		})
		mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items": [
				{"track": {"id": "t1", "name": "Hit One", "artists": [{"name": "A"}], "album": {"name": "B"}, "duration_ms": 1000, "external_urls": {"spotify": "https://open.spotify.com/track/t1"}}},
				{"track": null}
			]}`))
		})

		catalog := testCatalog(t, mux, nil)

		songs, err := catalog.Featured(context.Background(), 20)
		if err != nil {
			t.Fatalf("featured failed: %v", err)
		}

		if len(songs) != 1 || songs[0].SongID != "t1" {
			t.Fatalf("expected [t1], got %+v", songs)
		}
	})

	t.Run("No Playlists", func(t *testing.T) {
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"playlists": {"items": []}}`))
		}), nil)

		songs, err := catalog.Featured(context.Background(), 20)
		if err != nil {
			t.Fatalf("featured failed: %v", err)
		}
		if len(songs) != 0 {
			t.Errorf("expected empty list, got %d songs", len(songs))
		}
	})

	t.Run("Upstream Error", func(t *testing.T) {
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), nil)

		if _, err := catalog.Featured(context.Background(), 20); !errors.Is(err, shared.ErrUpstreamFailure) {
			t.Errorf("expected ErrUpstreamFailure, got %v", err)
		}
	})
}

func TestSpotifyCatalogTrack(t *testing.T) {
	t.Run("Fetches And Caches", func(t *testing.T) {
		cache := setupCache(t)
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tracks/t1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id": "t1", "name": "Hit One", "artists": [{"name": "A"}], "album": {"name": "B"}, "duration_ms": 1000, "external_urls": {"spotify": "https://open.spotify.com/track/t1"}}`))
		}), cache)

		song, err := catalog.Track(context.Background(), "t1")
		if err != nil {
			t.Fatalf("track lookup failed: %v", err)
		}
		if song.SongName != "Hit One" {
			t.Errorf("unexpected song %+v", song)
		}

		if _, err := cache.Get("t1"); err != nil {
			t.Errorf("track should be cached: %v", err)
		}
	})

	t.Run("Falls Back To Cache", func(t *testing.T) {
		cache := setupCache(t)
		if err := cache.Put(models.Song{SongID: "t1", SongName: "Cached Hit", Artist: "A", Duration: 1000}); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), cache)

		song, err := catalog.Track(context.Background(), "t1")
		if err != nil {
			t.Fatalf("expected cache fallback, got %v", err)
		}
		if song.SongName != "Cached Hit" {
			t.Errorf("expected cached song, got %+v", song)
		}
	})

	t.Run("Miss Everywhere", func(t *testing.T) {
		cache := setupCache(t)
		catalog := testCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}), cache)

		if _, err := catalog.Track(context.Background(), "ghost"); !errors.Is(err, shared.ErrUpstreamFailure) {
			t.Errorf("expected ErrUpstreamFailure, got %v", err)
		}
	})
}

func TestNewSpotifyCatalog(t *testing.T) {
	t.Run("Requires Credentials", func(t *testing.T) {
		_, err := NewSpotifyCatalog(context.Background(), shared.SpotifyConfig{}, nil, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Builds Auth URL", func(t *testing.T) {
		catalog, err := NewSpotifyCatalog(context.Background(), shared.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost:3000/callback",
		}, nil, nil)
		if err != nil {
			t.Fatalf("failed to create catalog: %v", err)
		}

		url := catalog.AuthURL("state123")
		if url == "" {
			t.Fatal("expected non-empty auth URL")
		}
		for _, want := range []string{"accounts.spotify.com", "state123", "client_id=id"} {
			if !strings.Contains(url, want) {
				t.Errorf("auth URL missing %q: %s", want, url)
			}
		}
	})
}
