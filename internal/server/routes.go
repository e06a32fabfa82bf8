package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/desertthunder/tunex/internal/shared"
)

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	for _, m := range opts.Middleware {
		r.Use(m)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, shared.Errorf(shared.KindNotFound, "route %s not found", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, &shared.Error{Kind: shared.KindInvalidRequest, Status: http.StatusMethodNotAllowed, SafeMessage: "method not allowed"})
	})

	r.Get("/health", s.health)

	r.Get("/songs", s.songs)
	r.Get("/songs/{id}", s.song)
	r.Get("/songs/{id}/stream", s.stream)

	r.Get("/albums", s.albumByLink)
	r.Get("/albums/{id}", s.album)
	r.Get("/albums/{id}/songs", s.albumSongs)

	r.Get("/artists", s.artistByLink)
	r.Get("/artists/{id}", s.artist)
	r.Get("/artists/{id}/songs", s.artistSongs)
	r.Get("/artists/{id}/albums", s.artistAlbums)

	r.Get("/playlists", s.playlistByLink)
	r.Get("/playlists/{id}", s.playlist)
	r.Get("/playlists/{id}/songs", s.playlistSongs)

	r.Get("/search", s.search)
	r.Get("/search/{kind}", s.searchKind)

	r.Route("/auth/{provider}", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/session", s.session)
	})

	r.Post("/cache/clear", s.clearCache)

	return r
}
