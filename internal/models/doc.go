// Package models defines the canonical catalog entities and persistence interfaces for tunex.
//
// The package contains two categories of types:
//
// 1. Catalog entities: provider-independent values built fresh for every request
//   - [Song], [Album], [Artist], [Playlist] : full entities
//   - [SongBase], [AlbumBase], [ArtistBase] : summaries embedded in other entities
//   - [ImageAsset] : exactly three image tiers (low, medium, high)
//   - [AudioAsset] : ordered quality-tier stream URLs, nil when unavailable
//   - [Paginated], [SearchResult], [GlobalSearchResult] : collection envelopes
//
// 2. Persistent entities: rows of the optional SQLite store
//   - [AppCredential] : provider app id/secret pairs extracted from web bundles
//   - [SessionRecord] : provider user sessions established through login
//
// Persistent entities implement [Model]; [Repository] defines the CRUD operations for them.
//
// Catalog JSON uses snake_case keys except the pagination envelope, which keeps hasNext.
package models
