package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// fetch resolves an entity from --link when set, otherwise from the first argument.
func fetch[T any](ctx context.Context, cmd *cli.Command, byID, byLink func(context.Context, string) (*T, error)) (*T, error) {
	if link := cmd.String("link"); link != "" {
		return byLink(ctx, link)
	}
	id := cmd.Args().First()
	if id == "" {
		return nil, fmt.Errorf("%w: an id or --link is required", shared.ErrMissingArgument)
	}
	return byID(ctx, id)
}

// Song fetches one song by id or link, or several songs by id.
//
// With --stream the song's audio is replaced by the resolved stream URL.
func (r *Runner) Song(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}
	out, err := r.renderer(cmd)
	if err != nil {
		return err
	}

	var songs []models.Song
	if ids := cmd.Args().Slice(); len(ids) > 1 && cmd.String("link") == "" {
		if songs, err = catalog.Songs(ctx, ids); err != nil {
			return err
		}
		r.logger.Debug("fetched songs", "requested", len(ids), "found", len(songs))
	} else {
		song, err := fetch(ctx, cmd, catalog.Song, catalog.SongByLink)
		if err != nil {
			return err
		}
		songs = []models.Song{*song}
	}

	if quality := cmd.String("stream"); quality != "" {
		streamer, err := r.registry.Streamer(cmd.String("provider"))
		if err != nil {
			return err
		}
		for i := range songs {
			link, err := streamer.StreamURL(ctx, songs[i].ID, quality)
			if err != nil {
				return err
			}
			songs[i].Audio = models.AudioAsset{*link}
		}
	}

	if cmd.Bool("open") {
		for _, song := range songs {
			if err := shared.OpenURL(song.URL); err != nil {
				r.logger.Warn("failed to open browser", "url", song.URL, "err", err)
			}
		}
	}

	if len(songs) == 1 {
		return out.Song(&songs[0])
	}
	return out.Songs("", songs)
}

// Album fetches an album with its songs.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}
	out, err := r.renderer(cmd)
	if err != nil {
		return err
	}

	album, err := fetch(ctx, cmd, catalog.Album, catalog.AlbumByLink)
	if err != nil {
		return err
	}

	if dir := cmd.String("export-dir"); dir != "" {
		return r.export(ctx, dir, album.Name, formatter.ArtistNames(album.Artists), album.Image.High, album.Songs)
	}
	return out.Album(album)
}

// Artist fetches an artist, or one page of its songs or albums.
func (r *Runner) Artist(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}
	out, err := r.renderer(cmd)
	if err != nil {
		return err
	}

	artist, err := fetch(ctx, cmd, catalog.Artist, catalog.ArtistByLink)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("songs"):
		page, err := catalog.ArtistSongs(ctx, artist.ID, r.page(cmd))
		if err != nil {
			return err
		}
		if out.Format() == formatter.FormatJSON {
			return r.writeJSON(page, true)
		}
		return out.Songs(artist.Name, page.Items)
	case cmd.Bool("albums"):
		page, err := catalog.ArtistAlbums(ctx, artist.ID, r.page(cmd))
		if err != nil {
			return err
		}
		if out.Format() == formatter.FormatJSON {
			return r.writeJSON(page, true)
		}
		return out.Albums(artist.Name, page.Items)
	}
	return out.Artist(artist)
}

// Playlist fetches a playlist with the page of songs selected by --limit and --offset.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}
	out, err := r.renderer(cmd)
	if err != nil {
		return err
	}

	p := r.page(cmd)
	playlist, err := fetch(ctx, cmd,
		func(ctx context.Context, id string) (*models.Playlist, error) { return catalog.Playlist(ctx, id, p) },
		func(ctx context.Context, link string) (*models.Playlist, error) {
			return catalog.PlaylistByLink(ctx, link, p)
		},
	)
	if err != nil {
		return err
	}

	if dir := cmd.String("export-dir"); dir != "" {
		desc := ""
		if playlist.Description != nil {
			desc = *playlist.Description
		}
		return r.export(ctx, dir, playlist.Name, desc, playlist.Image.High, playlist.Songs)
	}
	return out.Playlist(playlist)
}

func (r *Runner) export(ctx context.Context, dir, title, description, image string, songs []models.Song) error {
	result, warnings, err := formatter.WriteMarkdownExport(ctx, r.httpClient, dir, title, description, image, songs)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		r.logger.Warn("export warning", "err", w)
	}

	r.writePlain("%s %s\n", formatter.Styles.Ok("✓ Exported"), title)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// Search runs a combined search, or a paginated search of one kind with --kind.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}
	out, err := r.renderer(cmd)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	name := cmd.String("kind")
	if name == "" {
		result, err := catalog.Search(ctx, query)
		if err != nil {
			return err
		}
		return out.Search(result)
	}

	kind, ok := models.ParseKind(strings.ToLower(name))
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidArgument, name)
	}
	return r.searchKind(ctx, out, catalog, kind, query, r.page(cmd))
}

type searcher interface {
	SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error)
	SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error)
	SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error)
	SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error)
}

func (r *Runner) searchKind(ctx context.Context, out *formatter.Renderer, s searcher, kind models.Kind, query string, p pagination.Params) error {
	raw := out.Format() == formatter.FormatJSON
	switch kind {
	case models.KindSong:
		res, err := s.SearchSongs(ctx, query, p)
		if err != nil {
			return err
		}
		if raw {
			return r.writeJSON(res, true)
		}
		return out.Songs(fmt.Sprintf("Songs (%d)", res.Total), res.Results)
	case models.KindAlbum:
		res, err := s.SearchAlbums(ctx, query, p)
		if err != nil {
			return err
		}
		if raw {
			return r.writeJSON(res, true)
		}
		return out.Albums(fmt.Sprintf("Albums (%d)", res.Total), res.Results)
	case models.KindArtist:
		res, err := s.SearchArtists(ctx, query, p)
		if err != nil {
			return err
		}
		if raw {
			return r.writeJSON(res, true)
		}
		items := make([]models.SearchItem, 0, len(res.Results))
		for _, a := range res.Results {
			items = append(items, models.SearchItem{ID: a.ID, Title: a.Name, Type: models.KindArtist, URL: a.URL, Image: a.Image})
		}
		return out.Search(&models.GlobalSearchResult{Artists: models.SearchBucket{Results: items}})
	default:
		res, err := s.SearchPlaylists(ctx, query, p)
		if err != nil {
			return err
		}
		if raw {
			return r.writeJSON(res, true)
		}
		items := make([]models.SearchItem, 0, len(res.Results))
		for _, pl := range res.Results {
			items = append(items, models.SearchItem{
				ID: pl.ID, Title: pl.Name, Type: models.KindPlaylist,
				Description: fmt.Sprintf("%d songs", pl.TotalSongs), URL: pl.URL, Image: pl.Image,
			})
		}
		return out.Search(&models.GlobalSearchResult{Playlists: models.SearchBucket{Results: items}})
	}
}
