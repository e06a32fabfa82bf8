// Package server exposes the provider catalogs over HTTP.
//
// # Routing
//
// [Server] builds a chi router. Every catalog route accepts a provider query
// parameter naming saavn, gaana, qobuz or tidal; without it the configured
// default provider answers. Paginated routes accept limit and offset, which are
// clamped to [1, 100] and >= 0.
//
//	GET  /health
//	GET  /songs?ids=a,b | /songs?link=
//	GET  /songs/{id}, /songs/{id}/stream?quality=
//	GET  /albums?link=, /albums/{id}, /albums/{id}/songs
//	GET  /artists?link=, /artists/{id}, /artists/{id}/songs, /artists/{id}/albums
//	GET  /playlists?link=, /playlists/{id}, /playlists/{id}/songs
//	GET  /search?query=, /search/{songs|albums|artists|playlists}?query=
//	POST /auth/{provider}/login, /auth/{provider}/logout
//	GET  /auth/{provider}/session
//	POST /cache/clear
//
// # Responses
//
// Bodies are an [Envelope]. Errors carry the HTTP status of their
// [shared.Kind] and only the error's safe message.
//
// # Middleware
//
// [Middleware] wraps handlers in the order added. The built-in stack assigns a
// request id ([RequestID]), logs each request ([RequestLogger]), recovers
// panics and bounds every request with a timeout.
package server
