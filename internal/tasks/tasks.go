package tasks

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

// Collection is the exportable view of an album or playlist.
type Collection struct {
	ID          string        `json:"id"`
	Kind        models.Kind   `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url"`
	ImageURL    string        `json:"image,omitempty"`
	Songs       []models.Song `json:"songs"`
}

// AlbumCollection converts an album.
func AlbumCollection(a *models.Album) *Collection {
	c := &Collection{ID: a.ID, Kind: models.KindAlbum, Name: a.Name, URL: a.URL, ImageURL: a.Image.High, Songs: a.Songs}
	for i, artist := range a.Artists {
		if i > 0 {
			c.Description += ", "
		}
		c.Description += artist.Name
	}
	return c
}

// PlaylistCollection converts a playlist.
func PlaylistCollection(p *models.Playlist) *Collection {
	c := &Collection{ID: p.ID, Kind: models.KindPlaylist, Name: p.Name, URL: p.URL, ImageURL: p.Image.High, Songs: p.Songs}
	if p.Description != nil {
		c.Description = *p.Description
	}
	return c
}

// Exporter writes catalog collections to disk.
type Exporter struct {
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
}

// NewExporter creates an [Exporter] over catalog. A nil client uses [http.DefaultClient]
// for cover downloads.
func NewExporter(catalog services.Catalog, httpClient *http.Client, logger *log.Logger) *Exporter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Exporter{
		catalog:    catalog,
		httpClient: httpClient,
		logger:     shared.WithLogger(logger, "component", "export", "provider", catalog.Provider()),
	}
}

// Fetch loads one album or playlist. Playlists are fetched with up to limit songs.
func (e *Exporter) Fetch(ctx context.Context, kind models.Kind, id string, limit int) (*Collection, error) {
	switch kind {
	case models.KindAlbum:
		a, err := e.catalog.Album(ctx, id)
		if err != nil {
			return nil, err
		}
		return AlbumCollection(a), nil
	case models.KindPlaylist:
		p, err := e.catalog.Playlist(ctx, id, pagination.Normalize(limit, 0))
		if err != nil {
			return nil, err
		}
		return PlaylistCollection(p), nil
	}
	return nil, shared.Errorf(shared.KindInvalidRequest, "cannot export %ss", kind)
}

func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
