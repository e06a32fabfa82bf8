// Tidal response types and mappers into canonical entities.
package services

import (
	"encoding/json"
	"strings"

	"github.com/desertthunder/tunex/internal/media"
	"github.com/desertthunder/tunex/internal/models"
)

type tidalArtistMini struct {
	ID   flexString `json:"id"`
	Name flexString `json:"name"`
	Type flexString `json:"type"`
}

type tidalAlbumMini struct {
	ID    flexString `json:"id"`
	Title flexString `json:"title"`
	Cover flexString `json:"cover"`
}

type tidalTrack struct {
	ID              flexString        `json:"id"`
	Title           flexString        `json:"title"`
	Version         flexString        `json:"version"`
	Duration        flexInt           `json:"duration"`
	Explicit        flexBool          `json:"explicit"`
	TrackNumber     flexInt           `json:"trackNumber"`
	VolumeNumber    flexInt           `json:"volumeNumber"`
	Copyright       flexString        `json:"copyright"`
	URL             flexString        `json:"url"`
	StreamStartDate flexString        `json:"streamStartDate"`
	Artists         []tidalArtistMini `json:"artists"`
	Album           *tidalAlbumMini   `json:"album"`
}

type tidalAlbum struct {
	ID             flexString        `json:"id"`
	Title          flexString        `json:"title"`
	Version        flexString        `json:"version"`
	NumberOfTracks flexInt           `json:"numberOfTracks"`
	ReleaseDate    flexString        `json:"releaseDate"`
	Copyright      flexString        `json:"copyright"`
	Explicit       flexBool          `json:"explicit"`
	Popularity     flexInt           `json:"popularity"`
	Cover          flexString        `json:"cover"`
	URL            flexString        `json:"url"`
	Artists        []tidalArtistMini `json:"artists"`
}

type tidalArtist struct {
	ID         flexString `json:"id"`
	Name       flexString `json:"name"`
	Picture    flexString `json:"picture"`
	Popularity flexInt    `json:"popularity"`
	URL        flexString `json:"url"`
}

type tidalPlaylist struct {
	UUID           flexString `json:"uuid"`
	Title          flexString `json:"title"`
	Description    flexString `json:"description"`
	NumberOfTracks flexInt    `json:"numberOfTracks"`
	Image          flexString `json:"image"`
	SquareImage    flexString `json:"squareImage"`
	URL            flexString `json:"url"`
}

type tidalPage[T any] struct {
	Limit  flexInt `json:"limit"`
	Offset flexInt `json:"offset"`
	Total  flexInt `json:"totalNumberOfItems"`
	Items  []T     `json:"items"`
}

type tidalSearch struct {
	Artists   *tidalPage[tidalArtist]   `json:"artists"`
	Albums    *tidalPage[tidalAlbum]    `json:"albums"`
	Tracks    *tidalPage[tidalTrack]    `json:"tracks"`
	Playlists *tidalPage[tidalPlaylist] `json:"playlists"`
	TopHit    *struct {
		Type  flexString      `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"topHit"`
}

// tidalMapper turns Tidal payloads into canonical entities.
type tidalMapper struct {
	fallback string
}

func tidalLink(path string, id flexString, url flexString) string {
	if u := strings.TrimSpace(string(url)); u != "" {
		return media.Secure(u)
	}
	return "https://tidal.com/browse/" + path + "/" + string(id)
}

func (m tidalMapper) artists(raw []tidalArtistMini) []models.ArtistBase {
	out := make([]models.ArtistBase, 0, len(raw))
	for _, a := range raw {
		out = append(out, models.NewArtistBase(a.ID.String(), a.Name.text()))
	}
	return out
}

func (m tidalMapper) song(raw tidalTrack) (models.Song, error) {
	if raw.ID == "" {
		return models.Song{}, mappingError(Tidal, "song", raw.Title.String(), nil)
	}

	song := models.Song{
		ID:          raw.ID.String(),
		Name:        withVersion(raw.Title, raw.Version),
		Type:        models.KindSong,
		Year:        yearOf(string(raw.StreamStartDate)),
		Duration:    int(raw.Duration),
		Explicit:    bool(raw.Explicit),
		DiscNumber:  int(raw.VolumeNumber),
		TrackNumber: int(raw.TrackNumber),
		Copyright:   optional(string(raw.Copyright)),
		URL:         tidalLink("track", raw.ID, raw.URL),
		Artists:     m.artists(raw.Artists),
		Image:       models.UniformImage(m.fallback),
	}
	if len(raw.StreamStartDate) >= 10 {
		song.ReleaseDate = optional(string(raw.StreamStartDate[:10]))
	}
	if raw.Album != nil {
		song.Album = models.NewAlbumBase(raw.Album.ID.String(), raw.Album.Title.text())
		song.Image = media.TidalImages(string(raw.Album.Cover), media.TidalAlbumSizes, m.fallback)
	}
	return song, nil
}

func (m tidalMapper) songs(raw []tidalTrack) ([]models.Song, error) {
	out := make([]models.Song, 0, len(raw))
	for _, r := range raw {
		s, err := m.song(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (m tidalMapper) album(raw tidalAlbum) (models.Album, error) {
	if raw.ID == "" {
		return models.Album{}, mappingError(Tidal, "album", raw.Title.String(), nil)
	}
	return models.Album{
		ID:          raw.ID.String(),
		Name:        withVersion(raw.Title, raw.Version),
		Type:        models.KindAlbum,
		Year:        yearOf(string(raw.ReleaseDate)),
		ReleaseDate: optional(string(raw.ReleaseDate)),
		Explicit:    bool(raw.Explicit),
		Popularity:  int(raw.Popularity),
		TotalSongs:  int(raw.NumberOfTracks),
		URL:         tidalLink("album", raw.ID, raw.URL),
		Image:       media.TidalImages(string(raw.Cover), media.TidalAlbumSizes, m.fallback),
		Artists:     m.artists(raw.Artists),
	}, nil
}

func (m tidalMapper) albums(raw []tidalAlbum) ([]models.Album, error) {
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

func (m tidalMapper) artist(raw tidalArtist) models.Artist {
	return models.Artist{
		ID:    raw.ID.String(),
		Name:  raw.Name.text(),
		Type:  models.KindArtist,
		URL:   tidalLink("artist", raw.ID, raw.URL),
		Image: media.TidalImages(string(raw.Picture), media.TidalArtistSizes, m.fallback),
	}
}

func (m tidalMapper) playlist(raw tidalPlaylist) models.Playlist {
	image := raw.SquareImage
	if image == "" {
		image = raw.Image
	}
	return models.Playlist{
		ID:          raw.UUID.String(),
		Name:        raw.Title.text(),
		Description: optional(string(raw.Description)),
		Type:        models.KindPlaylist,
		TotalSongs:  int(raw.NumberOfTracks),
		URL:         tidalLink("playlist", raw.UUID, raw.URL),
		Image:       media.TidalImages(string(image), media.TidalPlaylistSizes, m.fallback),
	}
}

// topHit maps the search top hit, whose value shape depends on its type.
func (m tidalMapper) topHit(typ string, value json.RawMessage) (models.SearchItem, bool) {
	switch strings.ToUpper(typ) {
	case "TRACKS":
		var raw tidalTrack
		if json.Unmarshal(value, &raw) != nil {
			return models.SearchItem{}, false
		}
		s, err := m.song(raw)
		if err != nil {
			return models.SearchItem{}, false
		}
		return songItem(s), true
	case "ALBUMS":
		var raw tidalAlbum
		if json.Unmarshal(value, &raw) != nil {
			return models.SearchItem{}, false
		}
		a, err := m.album(raw)
		if err != nil {
			return models.SearchItem{}, false
		}
		return albumItem(a), true
	case "ARTISTS":
		var raw tidalArtist
		if json.Unmarshal(value, &raw) != nil || raw.ID == "" {
			return models.SearchItem{}, false
		}
		return artistItem(m.artist(raw)), true
	case "PLAYLISTS":
		var raw tidalPlaylist
		if json.Unmarshal(value, &raw) != nil || raw.UUID == "" {
			return models.SearchItem{}, false
		}
		return playlistItem(m.playlist(raw)), true
	}
	return models.SearchItem{}, false
}
