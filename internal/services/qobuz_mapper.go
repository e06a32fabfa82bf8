// Qobuz response types and mappers into canonical entities.
package services

import (
	"strings"

	"github.com/desertthunder/tunex/internal/media"
	"github.com/desertthunder/tunex/internal/models"
)

type qobuzArtistMini struct {
	ID   flexString `json:"id"`
	Name flexString `json:"name"`
}

type qobuzImage struct {
	Thumbnail flexString `json:"thumbnail"`
	Small     flexString `json:"small"`
	Medium    flexString `json:"medium"`
	Large     flexString `json:"large"`
}

type qobuzAlbumMini struct {
	ID                  flexString      `json:"id"`
	Title               flexString      `json:"title"`
	Version             flexString      `json:"version"`
	Image               qobuzImage      `json:"image"`
	Artist              qobuzArtistMini `json:"artist"`
	ReleaseDateOriginal flexString      `json:"release_date_original"`
}

type qobuzTrack struct {
	ID                  flexString       `json:"id"`
	Title               flexString       `json:"title"`
	Version             flexString       `json:"version"`
	Duration            flexInt          `json:"duration"`
	TrackNumber         flexInt          `json:"track_number"`
	MediaNumber         flexInt          `json:"media_number"`
	ParentalWarning     flexBool         `json:"parental_warning"`
	Copyright           flexString       `json:"copyright"`
	ReleaseDateOriginal flexString       `json:"release_date_original"`
	Performer           *qobuzArtistMini `json:"performer"`
	Album               *qobuzAlbumMini  `json:"album"`
}

type qobuzPage[T any] struct {
	Total  flexInt `json:"total"`
	Offset flexInt `json:"offset"`
	Limit  flexInt `json:"limit"`
	Items  []T     `json:"items"`
}

type qobuzAlbum struct {
	ID                  flexString             `json:"id"`
	Title               flexString             `json:"title"`
	Version             flexString             `json:"version"`
	Image               qobuzImage             `json:"image"`
	Artist              qobuzArtistMini        `json:"artist"`
	Artists             []qobuzArtistMini      `json:"artists"`
	ReleaseDateOriginal flexString             `json:"release_date_original"`
	TracksCount         flexInt                `json:"tracks_count"`
	ParentalWarning     flexBool               `json:"parental_warning"`
	Popularity          flexInt                `json:"popularity"`
	Copyright           flexString             `json:"copyright"`
	Tracks              *qobuzPage[qobuzTrack] `json:"tracks"`
}

type qobuzArtist struct {
	ID          flexString  `json:"id"`
	Name        flexString  `json:"name"`
	AlbumsCount flexInt     `json:"albums_count"`
	Image       *qobuzImage `json:"image"`
	Biography   *struct {
		Content flexString `json:"content"`
	} `json:"biography"`
	Albums *qobuzPage[qobuzAlbum] `json:"albums"`
	Tracks *qobuzPage[qobuzTrack] `json:"tracks"`
}

type qobuzPlaylist struct {
	ID          flexString             `json:"id"`
	Name        flexString             `json:"name"`
	Description flexString             `json:"description"`
	TracksCount flexInt                `json:"tracks_count"`
	Images150   []string               `json:"images150"`
	Images300   []string               `json:"images300"`
	Images      []string               `json:"image_rectangle"`
	Owner       qobuzArtistMini        `json:"owner"`
	Tracks      *qobuzPage[qobuzTrack] `json:"tracks"`
}

type qobuzCatalogSearch struct {
	Tracks    *qobuzPage[qobuzTrack]    `json:"tracks"`
	Albums    *qobuzPage[qobuzAlbum]    `json:"albums"`
	Artists   *qobuzPage[qobuzArtist]   `json:"artists"`
	Playlists *qobuzPage[qobuzPlaylist] `json:"playlists"`
}

// qobuzMapper turns Qobuz payloads into canonical entities. Songs carry no
// audio: Qobuz streams are signed per request through StreamURL.
type qobuzMapper struct {
	fallback string
}

func qobuzLink(path string, id flexString) string {
	return "https://open.qobuz.com/" + path + "/" + string(id)
}

func withVersion(title, version flexString) string {
	name := title.text()
	if v := version.text(); v != "" && !strings.Contains(name, v) {
		name += " (" + v + ")"
	}
	return name
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func (m qobuzMapper) image(img *qobuzImage) models.ImageAsset {
	if img == nil {
		return models.UniformImage(m.fallback)
	}
	low := img.Thumbnail
	if low == "" {
		low = img.Small
	}
	medium := img.Small
	if img.Medium != "" {
		medium = img.Medium
	}
	return media.Images(string(low), string(medium), string(img.Large), m.fallback)
}

func (m qobuzMapper) artists(raw ...qobuzArtistMini) []models.ArtistBase {
	out := make([]models.ArtistBase, 0, len(raw))
	for _, a := range raw {
		if a.ID == "" && a.Name == "" {
			continue
		}
		out = append(out, models.NewArtistBase(a.ID.String(), a.Name.text()))
	}
	return out
}

// song maps a track. album fills in the album summary for tracks listed inside an album.
func (m qobuzMapper) song(raw qobuzTrack, album *qobuzAlbumMini) (models.Song, error) {
	if raw.ID == "" {
		return models.Song{}, mappingError(Qobuz, "song", raw.Title.String(), nil)
	}
	if raw.Album != nil {
		album = raw.Album
	}

	song := models.Song{
		ID:          raw.ID.String(),
		Name:        withVersion(raw.Title, raw.Version),
		Type:        models.KindSong,
		Duration:    int(raw.Duration),
		Explicit:    bool(raw.ParentalWarning),
		DiscNumber:  int(raw.MediaNumber),
		TrackNumber: int(raw.TrackNumber),
		Copyright:   optional(string(raw.Copyright)),
		URL:         qobuzLink("track", raw.ID),
		Artists:     []models.ArtistBase{},
		Image:       models.UniformImage(m.fallback),
	}

	date := raw.ReleaseDateOriginal
	if raw.Performer != nil {
		song.Artists = m.artists(*raw.Performer)
	}
	if album != nil {
		song.Album = models.NewAlbumBase(album.ID.String(), withVersion(album.Title, album.Version))
		song.Image = m.image(&album.Image)
		if len(song.Artists) == 0 {
			song.Artists = m.artists(album.Artist)
		}
		if date == "" {
			date = album.ReleaseDateOriginal
		}
	}
	song.ReleaseDate = optional(string(date))
	song.Year = yearOf(string(date))
	return song, nil
}

func (m qobuzMapper) songs(raw []qobuzTrack, album *qobuzAlbumMini) ([]models.Song, error) {
	out := make([]models.Song, 0, len(raw))
	for _, r := range raw {
		s, err := m.song(r, album)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (m qobuzMapper) album(raw qobuzAlbum) (models.Album, error) {
	if raw.ID == "" {
		return models.Album{}, mappingError(Qobuz, "album", raw.Title.String(), nil)
	}

	artists := m.artists(raw.Artists...)
	if len(artists) == 0 {
		artists = m.artists(raw.Artist)
	}

	album := models.Album{
		ID:          raw.ID.String(),
		Name:        withVersion(raw.Title, raw.Version),
		Type:        models.KindAlbum,
		Year:        yearOf(string(raw.ReleaseDateOriginal)),
		ReleaseDate: optional(string(raw.ReleaseDateOriginal)),
		Explicit:    bool(raw.ParentalWarning),
		Popularity:  int(raw.Popularity),
		TotalSongs:  int(raw.TracksCount),
		URL:         qobuzLink("album", raw.ID),
		Image:       m.image(&raw.Image),
		Artists:     artists,
	}

	if raw.Tracks != nil {
		mini := &qobuzAlbumMini{
			ID:                  raw.ID,
			Title:               raw.Title,
			Version:             raw.Version,
			Image:               raw.Image,
			Artist:              raw.Artist,
			ReleaseDateOriginal: raw.ReleaseDateOriginal,
		}
		songs, err := m.songs(raw.Tracks.Items, mini)
		if err != nil {
			return models.Album{}, err
		}
		album.Songs = songs
		album.TotalSongs = max(album.TotalSongs, len(songs))
	}
	return album, nil
}

func (m qobuzMapper) albums(raw []qobuzAlbum) ([]models.Album, error) {
	out := make([]models.Album, 0, len(raw))
	for _, r := range raw {
		a, err := m.album(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (m qobuzMapper) artist(raw qobuzArtist) models.Artist {
	var bio *string
	if raw.Biography != nil {
		bio = optional(stripTags(string(raw.Biography.Content)))
	}
	return models.Artist{
		ID:    raw.ID.String(),
		Name:  raw.Name.text(),
		Type:  models.KindArtist,
		Bio:   bio,
		URL:   qobuzLink("artist", raw.ID),
		Image: m.image(raw.Image),
	}
}

func (m qobuzMapper) playlist(raw qobuzPlaylist) (models.Playlist, error) {
	pl := models.Playlist{
		ID:          raw.ID.String(),
		Name:        raw.Name.text(),
		Description: optional(string(raw.Description)),
		Type:        models.KindPlaylist,
		TotalSongs:  int(raw.TracksCount),
		URL:         qobuzLink("playlist", raw.ID),
		Image:       media.Images(first(raw.Images150), first(raw.Images300), first(raw.Images), m.fallback),
	}
	if raw.Tracks != nil {
		songs, err := m.songs(raw.Tracks.Items, nil)
		if err != nil {
			return models.Playlist{}, err
		}
		pl.Songs = songs
		for _, s := range songs {
			pl.Explicit = pl.Explicit || s.Explicit
		}
	}
	return pl, nil
}

// stripTags removes HTML markup from biography text.
func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			b.WriteRune(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
