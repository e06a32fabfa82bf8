// Gaana response types and mappers into canonical entities.
package services

import (
	"strings"

	"github.com/desertthunder/tunex/internal/media"
	"github.com/desertthunder/tunex/internal/models"
)

type gaanaArtistMini struct {
	ArtistID flexString `json:"artist_id"`
	Name     flexString `json:"name"`
	Seokey   flexString `json:"seokey"`
}

type gaanaStream struct {
	Message flexString `json:"message"`
	Bitrate flexString `json:"bitRate"`
}

type gaanaTrack struct {
	TrackID         flexString        `json:"track_id"`
	Seokey          flexString        `json:"seokey"`
	Title           flexString        `json:"track_title"`
	AlbumID         flexString        `json:"album_id"`
	AlbumTitle      flexString        `json:"album_title"`
	AlbumSeokey     flexString        `json:"albumseokey"`
	Language        flexString        `json:"language"`
	Duration        flexInt           `json:"duration"`
	ReleaseDate     flexString        `json:"release_date"`
	ParentalWarning flexBool          `json:"parental_warning"`
	VendorName      flexString        `json:"vendor_name"`
	Artists         []gaanaArtistMini `json:"artist"`
	Artwork         flexString        `json:"artwork"`
	ArtworkWeb      flexString        `json:"artwork_web"`
	ArtworkLarge    flexString        `json:"artwork_large"`
	URLs            struct {
		Medium gaanaStream `json:"medium"`
		High   gaanaStream `json:"high"`
	} `json:"urls"`
}

type gaanaAlbum struct {
	AlbumID         flexString        `json:"album_id"`
	Title           flexString        `json:"title"`
	Seokey          flexString        `json:"seokey"`
	Language        flexString        `json:"language"`
	ReleaseDate     flexString        `json:"release_date"`
	TrackCount      flexInt           `json:"trackcount"`
	ParentalWarning flexBool          `json:"parental_warning"`
	FavoriteCount   flexInt           `json:"favorite_count"`
	Artists         []gaanaArtistMini `json:"artist"`
	Artwork         flexString        `json:"artwork"`
	ArtworkLarge    flexString        `json:"artwork_large"`
}

type gaanaArtist struct {
	ArtistID      flexString `json:"artist_id"`
	Name          flexString `json:"name"`
	Seokey        flexString `json:"seokey"`
	Artwork       flexString `json:"artwork"`
	ArtworkBio    flexString `json:"artwork_bio"`
	FavoriteCount flexInt    `json:"favorite_count"`
	Description   flexString `json:"desc"`
}

type gaanaPlaylist struct {
	PlaylistID    flexString `json:"playlist_id"`
	Title         flexString `json:"title"`
	Seokey        flexString `json:"seokey"`
	Artwork       flexString `json:"artwork"`
	ArtworkLarge  flexString `json:"artwork_large"`
	Description   flexString `json:"detailed_description"`
	FavoriteCount flexInt    `json:"favorite_count"`
	TrackCount    flexInt    `json:"trackcount"`
}

type gaanaSearchHit struct {
	ID       flexString `json:"id"`
	Title    flexString `json:"ti"`
	Seokey   flexString `json:"seo"`
	Artwork  flexString `json:"aw"`
	Subtitle flexString `json:"sti"`
}

type gaanaSearch struct {
	Groups []struct {
		Type flexString       `json:"ty"`
		Hits []gaanaSearchHit `json:"gd"`
	} `json:"gr"`
}

// hits returns the hits of the first result group.
func (s gaanaSearch) hits() []gaanaSearchHit {
	if len(s.Groups) == 0 {
		return nil
	}
	return s.Groups[0].Hits
}

// gaanaMapper turns Gaana payloads into canonical entities.
//
// Gaana addresses entities by seokey, so seokeys are the canonical ids.
type gaanaMapper struct {
	fallback string
}

func (m gaanaMapper) image(urls ...flexString) models.ImageAsset {
	for _, u := range urls {
		if strings.TrimSpace(string(u)) != "" {
			return media.GaanaImages.Tiers(string(u), m.fallback)
		}
	}
	return models.UniformImage(m.fallback)
}

func (m gaanaMapper) artists(raw []gaanaArtistMini) []models.ArtistBase {
	out := make([]models.ArtistBase, 0, len(raw))
	for _, a := range raw {
		out = append(out, models.NewArtistBase(a.Seokey.String(), a.Name.text()))
	}
	return out
}

func gaanaLink(kind models.Kind, seokey flexString) string {
	if seokey == "" {
		return ""
	}
	return "https://gaana.com/" + string(kind) + "/" + string(seokey)
}

func (m gaanaMapper) song(raw gaanaTrack) (models.Song, error) {
	audio, err := media.DecryptGaana(string(raw.URLs.Medium.Message))
	if err != nil {
		return models.Song{}, mappingError(Gaana, "song", raw.Seokey.String(), err)
	}

	return models.Song{
		ID:          raw.Seokey.String(),
		Name:        raw.Title.text(),
		Type:        models.KindSong,
		Year:        yearOf(string(raw.ReleaseDate)),
		ReleaseDate: optional(string(raw.ReleaseDate)),
		Duration:    int(raw.Duration),
		Explicit:    bool(raw.ParentalWarning),
		Language:    raw.Language.text(),
		Copyright:   optional(string(raw.VendorName)),
		URL:         gaanaLink(models.KindSong, raw.Seokey),
		Album:       models.NewAlbumBase(raw.AlbumSeokey.String(), raw.AlbumTitle.text()),
		Artists:     m.artists(raw.Artists),
		Image:       m.image(raw.ArtworkLarge, raw.ArtworkWeb, raw.Artwork),
		Audio:       audio,
	}, nil
}

func (m gaanaMapper) songs(raw []gaanaTrack) ([]models.Song, error) {
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

func (m gaanaMapper) album(raw gaanaAlbum, tracks []gaanaTrack) (models.Album, error) {
	album := models.Album{
		ID:          raw.Seokey.String(),
		Name:        raw.Title.text(),
		Type:        models.KindAlbum,
		Year:        yearOf(string(raw.ReleaseDate)),
		ReleaseDate: optional(string(raw.ReleaseDate)),
		Language:    raw.Language.text(),
		Explicit:    bool(raw.ParentalWarning),
		Popularity:  int(raw.FavoriteCount),
		TotalSongs:  int(raw.TrackCount),
		URL:         gaanaLink(models.KindAlbum, raw.Seokey),
		Image:       m.image(raw.ArtworkLarge, raw.Artwork),
		Artists:     m.artists(raw.Artists),
	}

	if tracks != nil {
		songs, err := m.songs(tracks)
		if err != nil {
			return models.Album{}, err
		}
		album.Songs = songs
		album.TotalSongs = max(album.TotalSongs, len(songs))
	}
	return album, nil
}

func (m gaanaMapper) artist(raw gaanaArtist) models.Artist {
	return models.Artist{
		ID:        raw.Seokey.String(),
		Name:      raw.Name.text(),
		Type:      models.KindArtist,
		Bio:       optional(string(raw.Description)),
		Followers: int(raw.FavoriteCount),
		URL:       gaanaLink(models.KindArtist, raw.Seokey),
		Image:     m.image(raw.ArtworkBio, raw.Artwork),
	}
}

func (m gaanaMapper) playlist(raw gaanaPlaylist, songs []models.Song) models.Playlist {
	return models.Playlist{
		ID:          raw.Seokey.String(),
		Name:        raw.Title.text(),
		Description: optional(string(raw.Description)),
		Type:        models.KindPlaylist,
		TotalSongs:  int(raw.TrackCount),
		URL:         gaanaLink(models.KindPlaylist, raw.Seokey),
		Image:       m.image(raw.ArtworkLarge, raw.Artwork),
		Songs:       songs,
	}
}

// hitAlbum, hitArtist and hitPlaylist map search hits, which carry only a title and artwork.
func (m gaanaMapper) hitAlbum(h gaanaSearchHit) models.Album {
	return models.Album{
		ID:    h.Seokey.String(),
		Name:  h.Title.text(),
		Type:  models.KindAlbum,
		URL:   gaanaLink(models.KindAlbum, h.Seokey),
		Image: m.image(h.Artwork),
	}
}

func (m gaanaMapper) hitArtist(h gaanaSearchHit) models.Artist {
	return models.Artist{
		ID:    h.Seokey.String(),
		Name:  h.Title.text(),
		Type:  models.KindArtist,
		URL:   gaanaLink(models.KindArtist, h.Seokey),
		Image: m.image(h.Artwork),
	}
}

func (m gaanaMapper) hitPlaylist(h gaanaSearchHit) models.Playlist {
	return models.Playlist{
		ID:          h.Seokey.String(),
		Name:        h.Title.text(),
		Description: optional(string(h.Subtitle)),
		Type:        models.KindPlaylist,
		URL:         gaanaLink(models.KindPlaylist, h.Seokey),
		Image:       m.image(h.Artwork),
	}
}

func (m gaanaMapper) bucket(kind models.Kind, hits []gaanaSearchHit) models.SearchBucket {
	b := models.SearchBucket{Results: make([]models.SearchItem, 0, len(hits))}
	for _, h := range hits {
		b.Results = append(b.Results, models.SearchItem{
			ID:          h.Seokey.String(),
			Title:       h.Title.text(),
			Type:        kind,
			Description: h.Subtitle.text(),
			URL:         gaanaLink(kind, h.Seokey),
			Image:       m.image(h.Artwork),
		})
	}
	return b
}
