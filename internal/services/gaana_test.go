package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

func gaanaTrackJSON(t *testing.T, seokey, title string) string {
	t.Helper()
	return fmt.Sprintf(`{
		"track_id": "29411058",
		"seokey": %q,
		"track_title": %q,
		"album_title": "Kesariya",
		"albumseokey": "kesariya-from-brahmastra",
		"language": "Hindi",
		"duration": "268",
		"release_date": "2022-07-17",
		"parental_warning": 0,
		"artist": [{"artist_id": "1", "name": "Arijit Singh", "seokey": "arijit-singh"}],
		"artwork_large": "https://a10.gaanacdn.com/gn_img/albums/size_l.jpg",
		"urls": {"medium": {"message": %q}}
	}`, seokey, title, encryptGaanaURL(t, "https://vodhlsgaana.akamaized.net/hls/64.mp4/master.m3u8"))
}

func newTestGaana(t *testing.T, handler http.HandlerFunc) *GaanaCatalog {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGaana(shared.GaanaConfig{BaseURL: server.URL, Country: "IN"}, testDeps())
}

func TestGaanaCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("Song", func(t *testing.T) {
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.FormValue("type") != "songDetail" {
				t.Errorf("unexpected type %q", r.FormValue("type"))
			}
			if r.FormValue("seokey") == "missing" {
				w.Write([]byte(`{"tracks":[]}`))
				return
			}
			w.Write([]byte(`{"tracks":[` + gaanaTrackJSON(t, "kesariya", "Kesariya") + `]}`))
		})

		got, err := c.Song(ctx, "kesariya")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != "kesariya" || got.URL != "https://gaana.com/song/kesariya" {
			t.Errorf("expected seokey identity, got %+v", got)
		}
		if got.Year != 2022 || got.Duration != 268 {
			t.Errorf("unexpected year/duration %d/%d", got.Year, got.Duration)
		}
		if len(got.Audio) != 4 {
			t.Fatalf("expected 4 audio tiers, got %d", len(got.Audio))
		}
		if high, _ := got.Audio.URL("high"); !strings.Contains(high, "/320.mp4/") {
			t.Errorf("unexpected high tier %s", high)
		}
		if got.Image.Low != "https://a10.gaanacdn.com/gn_img/albums/size_s.jpg" {
			t.Errorf("unexpected low image %s", got.Image.Low)
		}

		_, err = c.Song(ctx, "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("SongByLink", func(t *testing.T) {
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"tracks":[` + gaanaTrackJSON(t, r.FormValue("seokey"), "X") + `]}`))
		})

		got, err := c.SongByLink(ctx, "https://gaana.com/song/kesariya-from-brahmastra?lang=hi")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != "kesariya-from-brahmastra" {
			t.Errorf("unexpected id %s", got.ID)
		}

		if _, err := c.AlbumByLink(ctx, "https://gaana.com/song/kesariya"); !errors.Is(err, shared.ErrInvalidLink) {
			t.Errorf("expected invalid link, got %v", err)
		}
	})

	t.Run("SearchSongs resolves hits and drops failures", func(t *testing.T) {
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.FormValue("type") {
			case "search":
				if r.FormValue("secType") != "track" || r.FormValue("page") != "1" {
					t.Errorf("unexpected search params %v", r.Form)
				}
				w.Write([]byte(`{"gr":[{"ty":"Track","gd":[{"seo":"a","ti":"A"},{"seo":"broken","ti":"B"},{"seo":"c","ti":"C"}]}]}`))
			case "songDetail":
				if r.FormValue("seokey") == "broken" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.Write([]byte(`{"tracks":[` + gaanaTrackJSON(t, r.FormValue("seokey"), "X") + `]}`))
			}
		})

		got, err := c.SearchSongs(ctx, "kesariya", pagination.Normalize(10, 10))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Results) != 2 || got.Results[0].ID != "a" || got.Results[1].ID != "c" {
			t.Errorf("unexpected results %+v", got.Results)
		}
		if got.Start != 10 {
			t.Errorf("expected start 10, got %d", got.Start)
		}
	})

	t.Run("Search runs every section", func(t *testing.T) {
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			sec := r.FormValue("secType")
			w.Write([]byte(`{"gr":[{"ty":"x","gd":[{"seo":"` + sec + `-1","ti":"` + sec + `"}]}]}`))
		})

		got, err := c.Search(ctx, "arijit")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.TopQuery.Results) != 0 || got.TopQuery.Results == nil {
			t.Errorf("expected empty top query, got %+v", got.TopQuery)
		}
		if got.Songs.Results[0].ID != "track-1" || got.Albums.Results[0].ID != "album-1" {
			t.Errorf("unexpected buckets %+v %+v", got.Songs, got.Albums)
		}
		if got.Artists.Results[0].URL != "https://gaana.com/artist/artist-1" {
			t.Errorf("unexpected artist url %s", got.Artists.Results[0].URL)
		}
		if got.Playlists.Results[0].Type != "playlist" {
			t.Errorf("unexpected playlist type %s", got.Playlists.Results[0].Type)
		}
	})

	t.Run("ArtistSongs infers hasNext from a full page", func(t *testing.T) {
		tracks := make([]string, gaanaPageSize)
		for i := range tracks {
			tracks[i] = gaanaTrackJSON(t, fmt.Sprintf("s%d", i), "S")
		}
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.FormValue("type") {
			case "artistDetailNew":
				w.Write([]byte(`{"artist":[{"artist_id":"1","name":"Arijit Singh","seokey":"arijit-singh"}]}`))
			case "artistTrackList":
				if r.FormValue("id") != "1" {
					t.Errorf("expected numeric artist id, got %q", r.FormValue("id"))
				}
				w.Write([]byte(`{"tracks":[` + strings.Join(tracks, ",") + `]}`))
			}
		})

		page, err := c.ArtistSongs(ctx, "arijit-singh", pagination.Normalize(10, 0))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !page.HasNext {
			t.Error("expected hasNext for a full page")
		}
		if page.Limit != gaanaPageSize || len(page.Items) != gaanaPageSize {
			t.Errorf("unexpected page shape limit=%d items=%d", page.Limit, len(page.Items))
		}
	})

	t.Run("Playlist windows songs", func(t *testing.T) {
		c := newTestGaana(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"playlist":{"seokey":"top-50","title":"Top 50","trackcount":"3"},"tracks":[` +
				gaanaTrackJSON(t, "a", "A") + "," + gaanaTrackJSON(t, "b", "B") + "," + gaanaTrackJSON(t, "c", "C") + `]}`))
		})

		pl, err := c.Playlist(ctx, "top-50", pagination.Normalize(2, 1))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.TotalSongs != 3 || len(pl.Songs) != 2 || pl.Songs[0].ID != "b" {
			t.Errorf("unexpected playlist %+v", pl)
		}
		assertImage(t, pl.Image)

		page, err := c.PlaylistSongs(ctx, "top-50", pagination.Normalize(2, 2))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 1 || page.HasNext || page.Total != 3 {
			t.Errorf("unexpected page %+v", page)
		}
	})
}
