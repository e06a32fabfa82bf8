// Gaana implementation of [Catalog]
//
// Gaana takes POSTed calls selected by the type parameter and identifies
// entities by seokey. Lists come in fixed pages of ten with no reliable total,
// so hasNext is inferred from whether a page came back full.
package services

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// gaanaPageSize is the upstream page size; Gaana ignores requested limits.
const gaanaPageSize = 10

var gaanaLinks = linkPatterns{
	models.KindSong:     regexp.MustCompile(`gaana\.com/song/([^/?#]+)`),
	models.KindAlbum:    regexp.MustCompile(`gaana\.com/album/([^/?#]+)`),
	models.KindArtist:   regexp.MustCompile(`gaana\.com/artist/([^/?#]+)`),
	models.KindPlaylist: regexp.MustCompile(`gaana\.com/playlist/([^/?#]+)`),
}

var gaanaSectionTypes = map[models.Kind]string{
	models.KindSong:     "track",
	models.KindAlbum:    "album",
	models.KindArtist:   "artist",
	models.KindPlaylist: "playlist",
}

// GaanaCatalog implements [Catalog] for Gaana.
type GaanaCatalog struct {
	client  *Client
	mapper  gaanaMapper
	country string
	logger  *log.Logger
}

// NewGaana creates a [GaanaCatalog].
func NewGaana(cfg shared.GaanaConfig, d Deps) *GaanaCatalog {
	headers := http.Header{
		"Origin":  {"https://gaana.com"},
		"Referer": {"https://gaana.com/"},
	}
	country := cfg.Country
	if country == "" {
		country = "IN"
	}
	return &GaanaCatalog{
		client:  d.newClient(Gaana, cfg.BaseURL, nil, headers),
		mapper:  gaanaMapper{fallback: d.FallbackImage},
		country: country,
		logger:  d.log(Gaana),
	}
}

func (g *GaanaCatalog) Provider() Provider { return Gaana }

func (g *GaanaCatalog) call(ctx context.Context, typ string, params url.Values, out any) error {
	query := url.Values{"type": {typ}}
	for k, v := range params {
		query[k] = v
	}
	return g.client.Do(ctx, Request{Method: http.MethodPost, Query: query}, out)
}

func (g *GaanaCatalog) Song(ctx context.Context, id string) (*models.Song, error) {
	id, err := requireID(Gaana, models.KindSong, id)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tracks []gaanaTrack `json:"tracks"`
	}
	if err := g.call(ctx, "songDetail", url.Values{"seokey": {id}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tracks) == 0 {
		return nil, notFound(Gaana, "song", id)
	}

	song, err := g.mapper.song(resp.Tracks[0])
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (g *GaanaCatalog) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	return FetchAll(ctx, ids, g.logger, g.Song), nil
}

func (g *GaanaCatalog) Album(ctx context.Context, id string) (*models.Album, error) {
	id, err := requireID(Gaana, models.KindAlbum, id)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Album  *gaanaAlbum  `json:"album"`
		Tracks []gaanaTrack `json:"tracks"`
	}
	if err := g.call(ctx, "albumDetail", url.Values{"seokey": {id}}, &resp); err != nil {
		return nil, err
	}
	if resp.Album == nil || resp.Album.Seokey == "" {
		return nil, notFound(Gaana, "album", id)
	}

	tracks := resp.Tracks
	if tracks == nil {
		tracks = []gaanaTrack{}
	}
	album, err := g.mapper.album(*resp.Album, tracks)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (g *GaanaCatalog) artistDetail(ctx context.Context, id string) (*gaanaArtist, error) {
	id, err := requireID(Gaana, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Artist []gaanaArtist `json:"artist"`
	}
	if err := g.call(ctx, "artistDetailNew", url.Values{"seokey": {id}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Artist) == 0 {
		return nil, notFound(Gaana, "artist", id)
	}
	return &resp.Artist[0], nil
}

func (g *GaanaCatalog) Artist(ctx context.Context, id string) (*models.Artist, error) {
	raw, err := g.artistDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	artist := g.mapper.artist(*raw)
	return &artist, nil
}

// Playlist loads the whole playlist and keeps the window of songs selected by p.
func (g *GaanaCatalog) Playlist(ctx context.Context, id string, p pagination.Params) (*models.Playlist, error) {
	pl, err := g.playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	pl.Songs = window(pl.Songs, p.Offset, p.Limit)
	return pl, nil
}

func (g *GaanaCatalog) playlist(ctx context.Context, id string) (*models.Playlist, error) {
	id, err := requireID(Gaana, models.KindPlaylist, id)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Playlist *gaanaPlaylist `json:"playlist"`
		Tracks   []gaanaTrack   `json:"tracks"`
	}
	if err := g.call(ctx, "playlistDetail", url.Values{"seokey": {id}}, &resp); err != nil {
		return nil, err
	}
	if resp.Playlist == nil || resp.Playlist.Seokey == "" {
		return nil, notFound(Gaana, "playlist", id)
	}

	songs, err := g.mapper.songs(resp.Tracks)
	if err != nil {
		return nil, err
	}
	pl := g.mapper.playlist(*resp.Playlist, songs)
	pl.TotalSongs = max(pl.TotalSongs, len(songs))
	return &pl, nil
}

func (g *GaanaCatalog) SongByLink(ctx context.Context, link string) (*models.Song, error) {
	id, err := gaanaLinks.extract(Gaana, models.KindSong, link)
	if err != nil {
		return nil, err
	}
	return g.Song(ctx, id)
}

func (g *GaanaCatalog) AlbumByLink(ctx context.Context, link string) (*models.Album, error) {
	id, err := gaanaLinks.extract(Gaana, models.KindAlbum, link)
	if err != nil {
		return nil, err
	}
	return g.Album(ctx, id)
}

func (g *GaanaCatalog) ArtistByLink(ctx context.Context, link string) (*models.Artist, error) {
	id, err := gaanaLinks.extract(Gaana, models.KindArtist, link)
	if err != nil {
		return nil, err
	}
	return g.Artist(ctx, id)
}

func (g *GaanaCatalog) PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error) {
	id, err := gaanaLinks.extract(Gaana, models.KindPlaylist, link)
	if err != nil {
		return nil, err
	}
	return g.Playlist(ctx, id, p)
}

// search returns the hits of one section. Gaana pages are 0-based.
func (g *GaanaCatalog) search(ctx context.Context, kind models.Kind, query string, p pagination.Params) ([]gaanaSearchHit, int, error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(gaanaPageSize, p.Offset)
	params := url.Values{
		"secType": {gaanaSectionTypes[kind]},
		"keyword": {query},
		"page":    {strconv.Itoa(page.ZeroPage())},
		"country": {g.country},
	}

	var resp gaanaSearch
	if err := g.call(ctx, "search", params, &resp); err != nil {
		return nil, 0, err
	}
	return resp.hits(), page.ZeroPage() * gaanaPageSize, nil
}

// SearchSongs resolves every hit to a full song. Hits that fail to resolve are dropped.
func (g *GaanaCatalog) SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error) {
	hits, start, err := g.search(ctx, models.KindSong, query, p)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Seokey.String())
	}
	songs := FetchAll(ctx, ids, g.logger, g.Song)
	return &models.SearchResult[models.Song]{Total: start + len(songs), Start: start, Results: songs}, nil
}

func (g *GaanaCatalog) SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error) {
	hits, start, err := g.search(ctx, models.KindAlbum, query, p)
	if err != nil {
		return nil, err
	}
	albums := make([]models.Album, 0, len(hits))
	for _, h := range hits {
		albums = append(albums, g.mapper.hitAlbum(h))
	}
	return &models.SearchResult[models.Album]{Total: start + len(albums), Start: start, Results: albums}, nil
}

func (g *GaanaCatalog) SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error) {
	hits, start, err := g.search(ctx, models.KindArtist, query, p)
	if err != nil {
		return nil, err
	}
	artists := make([]models.Artist, 0, len(hits))
	for _, h := range hits {
		artists = append(artists, g.mapper.hitArtist(h))
	}
	return &models.SearchResult[models.Artist]{Total: start + len(artists), Start: start, Results: artists}, nil
}

func (g *GaanaCatalog) SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error) {
	hits, start, err := g.search(ctx, models.KindPlaylist, query, p)
	if err != nil {
		return nil, err
	}
	playlists := make([]models.Playlist, 0, len(hits))
	for _, h := range hits {
		playlists = append(playlists, g.mapper.hitPlaylist(h))
	}
	return &models.SearchResult[models.Playlist]{Total: start + len(playlists), Start: start, Results: playlists}, nil
}

// Search runs the four section searches concurrently. Gaana has no top-query
// section, so TopQuery is always empty.
func (g *GaanaCatalog) Search(ctx context.Context, query string) (*models.GlobalSearchResult, error) {
	if _, err := requireQuery(query); err != nil {
		return nil, err
	}

	kinds := []models.Kind{models.KindSong, models.KindAlbum, models.KindArtist, models.KindPlaylist}
	buckets := make([]models.SearchBucket, len(kinds))

	eg, ctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		eg.Go(func() error {
			hits, _, err := g.search(ctx, kind, query, pagination.Normalize(gaanaPageSize, 0))
			if err != nil {
				return err
			}
			buckets[i] = g.mapper.bucket(kind, hits)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &models.GlobalSearchResult{
		TopQuery:  models.SearchBucket{Results: []models.SearchItem{}},
		Songs:     buckets[0],
		Albums:    buckets[1],
		Artists:   buckets[2],
		Playlists: buckets[3],
	}, nil
}

// artistNumericID returns the numeric artist id the list endpoints need.
func (g *GaanaCatalog) artistNumericID(ctx context.Context, id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" && strings.Trim(id, "0123456789") == "" {
		return id, nil
	}
	raw, err := g.artistDetail(ctx, id)
	if err != nil {
		return "", err
	}
	return raw.ArtistID.String(), nil
}

// gaanaPage builds a page whose hasNext is inferred from a full upstream page.
func gaanaPage[T any](items []T, count, start int) *models.Paginated[T] {
	opts := []pagination.Option{pagination.WithLimit(gaanaPageSize)}
	total := count
	if total <= 0 {
		total = start + len(items)
		opts = append(opts, pagination.WithHasNext(len(items) == gaanaPageSize))
	}
	page := pagination.Paginate(items, total, start, opts...)
	return &page
}

func (g *GaanaCatalog) ArtistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	artistID, err := g.artistNumericID(ctx, id)
	if err != nil {
		return nil, err
	}

	page := pagination.Normalize(gaanaPageSize, p.Offset)
	params := url.Values{"id": {artistID}, "page": {strconv.Itoa(page.ZeroPage())}, "order": {"0"}, "sortBy": {"popularity"}}

	var resp struct {
		Count  flexInt      `json:"count"`
		Tracks []gaanaTrack `json:"tracks"`
	}
	if err := g.call(ctx, "artistTrackList", params, &resp); err != nil {
		return nil, err
	}
	songs, err := g.mapper.songs(resp.Tracks)
	if err != nil {
		return nil, err
	}
	return gaanaPage(songs, int(resp.Count), page.ZeroPage()*gaanaPageSize), nil
}

func (g *GaanaCatalog) ArtistAlbums(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Album], error) {
	artistID, err := g.artistNumericID(ctx, id)
	if err != nil {
		return nil, err
	}

	page := pagination.Normalize(gaanaPageSize, p.Offset)
	params := url.Values{"id": {artistID}, "page": {strconv.Itoa(page.ZeroPage())}, "order": {"0"}, "sortBy": {"popularity"}}

	var resp struct {
		Count  flexInt      `json:"count"`
		Albums []gaanaAlbum `json:"album"`
	}
	if err := g.call(ctx, "artistAlbumList", params, &resp); err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(resp.Albums))
	for _, r := range resp.Albums {
		a, err := g.mapper.album(r, nil)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return gaanaPage(albums, int(resp.Count), page.ZeroPage()*gaanaPageSize), nil
}

func (g *GaanaCatalog) AlbumSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	album, err := g.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(window(album.Songs, p.Offset, p.Limit), len(album.Songs), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (g *GaanaCatalog) PlaylistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	pl, err := g.playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(window(pl.Songs, p.Offset, p.Limit), len(pl.Songs), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}
