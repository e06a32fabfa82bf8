package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
	th "github.com/desertthunder/tunex/internal/testing"
)

func fixtureSongs() []models.Song {
	return []models.Song{
		{
			ID:       "3IoDK8qI",
			Name:     "Tum Hi Ho",
			Type:     models.KindSong,
			Year:     2013,
			Duration: 262,
			URL:      "https://www.jiosaavn.com/song/tum-hi-ho/EToxUyFpcwQ",
			Album:    models.AlbumBase{ID: "1139549", Name: "Aashiqui 2", Type: models.KindAlbum},
			Artists: []models.ArtistBase{
				{ID: "459320", Name: "Arijit Singh", Type: models.KindArtist},
				{ID: "456863", Name: "Mithoon", Type: models.KindArtist},
			},
			Audio: models.AudioAsset{
				{Quality: "96kbps", URL: "https://aac.saavncdn.com/tum_96.mp4"},
				{Quality: "320kbps", URL: "https://aac.saavncdn.com/tum_320.mp4"},
			},
		},
		{
			ID:       "5966783",
			Name:     "Get Lucky, Radio Edit",
			Type:     models.KindSong,
			Duration: 3725,
			Artists:  []models.ArtistBase{{ID: "36819", Name: "Daft Punk", Type: models.KindArtist}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{" markdown ", FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat should reject unknown formats")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:    "0:00",
		-5:   "0:00",
		9:    "0:09",
		262:  "4:22",
		3600: "1:00:00",
		3725: "1:02:05",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("SongsToCSV", func(t *testing.T) {
		data, err := SongsToCSV(fixtureSongs())
		if err != nil {
			t.Fatalf("SongsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,Artists,Album,Year,Duration,URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `3IoDK8qI,Tum Hi Ho,"Arijit Singh, Mithoon",Aashiqui 2,2013,262,`) {
			t.Errorf("CSV row not quoted as expected, got: %s", output)
		}
		if !strings.Contains(output, `5966783,"Get Lucky, Radio Edit",Daft Punk,,,3725,`) {
			t.Errorf("CSV should leave missing album and year blank, got: %s", output)
		}
	})

	t.Run("SongsToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			output := string(SongsToMarkdown("Romance", "Love songs", "", fixtureSongs()))

			for _, want := range []string{
				"# Romance\n",
				"**Description**: Love songs",
				"**Tracks**: 2",
				"1. Arijit Singh, Mithoon - Tum Hi Ho (Aashiqui 2) [4:22]",
				"2. Daft Punk - Get Lucky, Radio Edit [1:02:05]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not reference a cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			output := string(SongsToMarkdown("Romance", "", "cover.jpg", nil))
			if !strings.Contains(output, "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image, got: %s", output)
			}
			if strings.Contains(output, "**Description**") {
				t.Error("Markdown should omit an empty description")
			}
		})
	})

	t.Run("SongsToText", func(t *testing.T) {
		output := string(SongsToText("Results", fixtureSongs()))
		if !strings.Contains(output, "Results") {
			t.Errorf("text missing title, got: %s", output)
		}
		if !strings.Contains(output, "Arijit Singh, Mithoon - Tum Hi Ho") {
			t.Errorf("text missing song line, got: %s", output)
		}

		empty := string(SongsToText("", nil))
		if !strings.Contains(empty, "no songs") {
			t.Errorf("empty list should say so, got: %s", empty)
		}
	})
}

func TestRenderer(t *testing.T) {
	album := &models.Album{
		ID:      "1139549",
		Name:    "Aashiqui 2",
		Year:    2013,
		URL:     "https://www.jiosaavn.com/album/aashiqui-2/1139549",
		Artists: []models.ArtistBase{{ID: "456863", Name: "Mithoon"}},
		Songs:   fixtureSongs()[:1],
	}

	t.Run("Song", func(t *testing.T) {
		t.Run("text lists audio links", func(t *testing.T) {
			var buf bytes.Buffer
			song := fixtureSongs()[0]
			if err := NewRenderer(&buf, FormatText).Song(&song); err != nil {
				t.Fatalf("Song failed: %v", err)
			}
			output := buf.String()
			for _, want := range []string{"Tum Hi Ho", "Album: Aashiqui 2", "Year: 2013", "Duration: 4:22", "https://aac.saavncdn.com/tum_320.mp4"} {
				if !strings.Contains(output, want) {
					t.Errorf("text missing %q, got: %s", want, output)
				}
			}
		})

		t.Run("json", func(t *testing.T) {
			var buf bytes.Buffer
			song := fixtureSongs()[0]
			if err := NewRenderer(&buf, FormatJSON).Song(&song); err != nil {
				t.Fatalf("Song failed: %v", err)
			}
			var got models.Song
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if got.ID != "3IoDK8qI" || len(got.Audio) != 2 {
				t.Errorf("unexpected song: %+v", got)
			}
		})

		t.Run("csv", func(t *testing.T) {
			var buf bytes.Buffer
			song := fixtureSongs()[1]
			if err := NewRenderer(&buf, FormatCSV).Song(&song); err != nil {
				t.Fatalf("Song failed: %v", err)
			}
			if lines := strings.Count(buf.String(), "\n"); lines != 2 {
				t.Errorf("expected header and one row, got %d lines", lines)
			}
		})
	})

	t.Run("Album", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewRenderer(&buf, FormatMarkdown).Album(album); err != nil {
			t.Fatalf("Album failed: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# Aashiqui 2") || !strings.Contains(output, "**Description**: Mithoon (2013)") {
			t.Errorf("unexpected album markdown: %s", output)
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatText).Album(album); err != nil {
			t.Fatalf("Album failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Aashiqui 2 by Mithoon") {
			t.Errorf("text title should name the artists, got: %s", buf.String())
		}
	})

	t.Run("Albums", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewRenderer(&buf, FormatCSV).Albums("", []models.Album{*album}); err != nil {
			t.Fatalf("Albums failed: %v", err)
		}
		if !strings.Contains(buf.String(), "1139549,Aashiqui 2,Mithoon,2013,0,") {
			t.Errorf("unexpected albums CSV: %s", buf.String())
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatText).Albums("Albums", nil); err != nil {
			t.Fatalf("Albums failed: %v", err)
		}
		if !strings.Contains(buf.String(), "no albums") {
			t.Errorf("empty list should say so, got: %s", buf.String())
		}
	})

	t.Run("Artist", func(t *testing.T) {
		bio := "Indian playback singer."
		artist := &models.Artist{ID: "459320", Name: "Arijit Singh", Bio: &bio, Followers: 42, URL: "https://www.jiosaavn.com/artist/arijit-singh/LlRWpHzy3Hk_"}

		var buf bytes.Buffer
		if err := NewRenderer(&buf, FormatMarkdown).Artist(artist); err != nil {
			t.Fatalf("Artist failed: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# Arijit Singh") || !strings.Contains(output, bio) || !strings.Contains(output, "**Followers**: 42") {
			t.Errorf("unexpected artist markdown: %s", output)
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatCSV).Artist(artist); err != nil {
			t.Fatalf("Artist failed: %v", err)
		}
		if !strings.Contains(buf.String(), "459320,Arijit Singh,42,") {
			t.Errorf("unexpected artist CSV: %s", buf.String())
		}
	})

	t.Run("Playlist", func(t *testing.T) {
		desc := "Top picks"
		pl := &models.Playlist{ID: "110858205", Name: "Weekly Top Songs", Description: &desc, TotalSongs: 30, Songs: fixtureSongs()}

		var buf bytes.Buffer
		if err := NewRenderer(&buf, FormatText).Playlist(pl); err != nil {
			t.Fatalf("Playlist failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Weekly Top Songs (30 songs)") {
			t.Errorf("text title should carry the total, got: %s", buf.String())
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatMarkdown).Playlist(pl); err != nil {
			t.Fatalf("Playlist failed: %v", err)
		}
		if !strings.Contains(buf.String(), "**Description**: Top picks") {
			t.Errorf("markdown missing description, got: %s", buf.String())
		}
	})

	t.Run("Search", func(t *testing.T) {
		result := &models.GlobalSearchResult{
			TopQuery: models.SearchBucket{Position: models.IntPtr(0), Results: []models.SearchItem{
				{ID: "459320", Title: "Arijit Singh", Type: models.KindArtist, URL: "https://www.jiosaavn.com/artist/arijit-singh/LlRWpHzy3Hk_"},
			}},
			Songs: models.SearchBucket{Results: []models.SearchItem{
				{ID: "3IoDK8qI", Title: "Tum Hi Ho", Type: models.KindSong, Description: "Aashiqui 2"},
			}},
		}

		var buf bytes.Buffer
		if err := NewRenderer(&buf, FormatText).Search(result); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Top result") || !strings.Contains(output, "Tum Hi Ho - Aashiqui 2") {
			t.Errorf("unexpected search text: %s", output)
		}
		if strings.Contains(output, "Playlists") {
			t.Error("empty buckets should be skipped")
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatCSV).Search(result); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Songs,3IoDK8qI,song,Tum Hi Ho,Aashiqui 2,") {
			t.Errorf("unexpected search CSV: %s", buf.String())
		}

		buf.Reset()
		if err := NewRenderer(&buf, FormatText).Search(&models.GlobalSearchResult{}); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if !strings.Contains(buf.String(), "no results") {
			t.Errorf("empty search should say so, got: %s", buf.String())
		}
	})

	t.Run("WriteError", func(t *testing.T) {
		err := NewRenderer(&th.FWriter{}, FormatText).Songs("x", fixtureSongs())
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(ctx, nil, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := th.NewUpstream(t, map[string]th.Route{"/cover.jpg": {Body: "jpeg-bytes"}})
		data, err := DownloadImage(ctx, srv.Client(), srv.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("unexpected image data %q", data)
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		srv := th.NewUpstream(t, nil)
		if _, err := DownloadImage(ctx, srv.Client(), srv.URL+"/missing.jpg"); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("TransportError", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("dial failed"))}
		if _, err := DownloadImage(ctx, client, "https://c.saavncdn.com/cover.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}
		_, err := DownloadImage(ctx, client, "https://c.saavncdn.com/cover.jpg")
		if err == nil || !strings.Contains(err.Error(), "failed to read image data") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	ctx := context.Background()

	t.Run("WithCover", func(t *testing.T) {
		srv := th.NewUpstream(t, map[string]th.Route{"/cover.jpg": {Body: "jpeg-bytes"}})
		dir := filepath.Join(t.TempDir(), "romance")

		result, warnings, err := WriteMarkdownExport(ctx, srv.Client(), dir, "Romance", "", srv.URL+"/cover.jpg", fixtureSongs())
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}

		th.AssertDirExists(t, result.Directory)
		th.AssertFileExists(t, result.CoverImage)
		readme := filepath.Join(dir, "README.md")
		th.AssertFileExists(t, readme)
		if len(result.Files) != 2 {
			t.Errorf("expected 2 files, got %v", result.Files)
		}

		content := th.MustReadFile(t, readme)
		if !strings.Contains(content, "![Cover](cover.jpg)") {
			t.Errorf("README should reference the cover, got: %s", content)
		}
	})

	t.Run("CoverFailureIsAWarning", func(t *testing.T) {
		srv := th.NewUpstream(t, nil)
		dir := t.TempDir()

		result, warnings, err := WriteMarkdownExport(ctx, srv.Client(), dir, "Romance", "", srv.URL+"/gone.jpg", fixtureSongs())
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(warnings) != 1 {
			t.Errorf("expected one warning, got %v", warnings)
		}
		if result.CoverImage != "" {
			t.Errorf("cover should be empty, got %q", result.CoverImage)
		}
		if content := th.MustReadFile(t, filepath.Join(dir, "README.md")); strings.Contains(content, "![Cover]") {
			t.Error("README should not reference a missing cover")
		}
	})
}
