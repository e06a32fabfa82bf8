package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

// catalog resolves the ?provider= query parameter.
func (s *Server) catalog(w http.ResponseWriter, r *http.Request) (services.Catalog, bool) {
	c, err := s.catalogs.Resolve(r.URL.Query().Get("provider"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return c, true
}

// pageParams reads limit and offset. Out-of-range values are clamped; values
// that are not integers are rejected.
func pageParams(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(limit, offset), nil
}

func intParam(v, name string) (int, error) {
	if v = strings.TrimSpace(v); v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, shared.NewError(shared.KindInvalidRequest, name+" must be an integer", err)
	}
	return n, nil
}

// withPage runs fn with the resolved catalog and page parameters.
func (s *Server) withPage(w http.ResponseWriter, r *http.Request, fn func(services.Catalog, pagination.Params) (any, error)) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	p, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := fn(c, p)
	s.reply(w, r, data, err)
}

func requireLink(r *http.Request) (string, error) {
	link := strings.TrimSpace(r.URL.Query().Get("link"))
	if link == "" {
		return "", shared.Errorf(shared.KindInvalidRequest, "link is required")
	}
	return link, nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(services.Providers))
	for _, p := range services.Providers {
		names = append(names, p.String())
	}
	s.ok(w, map[string]any{
		"status":    "ok",
		"default":   s.catalogs.Default(),
		"providers": names,
	})
}

// songs serves /songs?ids=a,b and /songs?link=.
func (s *Server) songs(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if raw := q.Get("ids"); raw != "" {
		var ids []string
		for id := range strings.SplitSeq(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			s.fail(w, r, shared.Errorf(shared.KindInvalidRequest, "ids must name at least one song"))
			return
		}
		songs, err := c.Songs(r.Context(), ids)
		s.reply(w, r, songs, err)
		return
	}

	link, err := requireLink(r)
	if err != nil {
		s.fail(w, r, shared.Errorf(shared.KindInvalidRequest, "ids or link is required"))
		return
	}
	song, err := c.SongByLink(r.Context(), link)
	s.reply(w, r, song, err)
}

func (s *Server) song(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	song, err := c.Song(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, song, err)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalogs.Streamer(r.URL.Query().Get("provider"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	link, err := st.StreamURL(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("quality"))
	s.reply(w, r, link, err)
}

func (s *Server) album(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	album, err := c.Album(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, album, err)
}

func (s *Server) albumByLink(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	link, err := requireLink(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	album, err := c.AlbumByLink(r.Context(), link)
	s.reply(w, r, album, err)
}

func (s *Server) albumSongs(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		return c.AlbumSongs(r.Context(), chi.URLParam(r, "id"), p)
	})
}

func (s *Server) artist(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	artist, err := c.Artist(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, artist, err)
}

func (s *Server) artistByLink(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	link, err := requireLink(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	artist, err := c.ArtistByLink(r.Context(), link)
	s.reply(w, r, artist, err)
}

func (s *Server) artistSongs(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		return c.ArtistSongs(r.Context(), chi.URLParam(r, "id"), p)
	})
}

func (s *Server) artistAlbums(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		return c.ArtistAlbums(r.Context(), chi.URLParam(r, "id"), p)
	})
}

func (s *Server) playlist(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		return c.Playlist(r.Context(), chi.URLParam(r, "id"), p)
	})
}

func (s *Server) playlistByLink(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		link, err := requireLink(r)
		if err != nil {
			return nil, err
		}
		return c.PlaylistByLink(r.Context(), link, p)
	})
}

func (s *Server) playlistSongs(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		return c.PlaylistSongs(r.Context(), chi.URLParam(r, "id"), p)
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog(w, r)
	if !ok {
		return
	}
	result, err := c.Search(r.Context(), r.URL.Query().Get("query"))
	s.reply(w, r, result, err)
}

// searchKind serves /search/songs, /search/albums, /search/artists and /search/playlists.
func (s *Server) searchKind(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, func(c services.Catalog, p pagination.Params) (any, error) {
		query := r.URL.Query().Get("query")
		switch chi.URLParam(r, "kind") {
		case "songs":
			return c.SearchSongs(r.Context(), query, p)
		case "albums":
			return c.SearchAlbums(r.Context(), query, p)
		case "artists":
			return c.SearchArtists(r.Context(), query, p)
		case "playlists":
			return c.SearchPlaylists(r.Context(), query, p)
		}
		return nil, shared.Errorf(shared.KindNotFound, "cannot search for %q", chi.URLParam(r, "kind"))
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalogs.Authenticator(chi.URLParam(r, "provider"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, shared.NewError(shared.KindInvalidRequest, "request body must be a JSON object", err))
		return
	}

	session, err := a.Login(r.Context(), services.Credentials{Username: body.Username, Password: body.Password, Token: body.Token})
	s.reply(w, r, session, err)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalogs.Authenticator(chi.URLParam(r, "provider"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := a.Logout(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, a.Session())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalogs.Authenticator(chi.URLParam(r, "provider"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, a.Session())
}

func (s *Server) clearCache(w http.ResponseWriter, _ *http.Request) {
	s.catalogs.ClearCaches()
	s.ok(w, map[string]bool{"cleared": true})
}
