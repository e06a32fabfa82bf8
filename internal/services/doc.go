// Package services defines the [Catalog] interface for music catalog providers and implements it for
// JioSaavn, Gaana, Qobuz and Tidal.
//
// # Catalog Interface
//
// Every provider exposes the same operations: lookups by id and by link, per-kind and combined search,
// best-effort bulk song lookup and paginated child lists. Results are always canonical [models.Song],
// [models.Album], [models.Artist] and [models.Playlist] values.
//
// Optional capabilities are separate interfaces discovered by type assertion:
//   - [Authenticator] : user login (Qobuz)
//   - [Streamer] : signed or manifest-based stream URLs (Qobuz, Tidal)
//   - [CacheClearer] : drops cached tokens and extracted app credentials (Qobuz, Tidal)
//   - [Restorer] : reloads a persisted session at startup (Qobuz)
//
// # Transport
//
// [Client] is shared by every provider. It merges default query parameters, rotates user agents, waits on
// a per-provider rate limiter and maps transport failures and HTTP statuses onto [shared.Error] kinds.
//
// # Saavn and Gaana
//
// Both encrypt stream URLs inside catalog payloads. Mappers decrypt them through the media package while
// mapping, so songs carry their [models.AudioAsset] directly. Gaana identifies entities by seokey and
// pages by tens with no reliable total.
//
// # Qobuz
//
// Calls carry an app id, extracted from the web player bundle when not configured. The matching secret
// signs track/getFileUrl requests ([SignFileURL]). Extraction happens once per process and may be
// persisted through a [CredentialStore].
//
// # Tidal
//
// Calls carry a client-credentials token from [TokenManager], refreshed five minutes before expiry.
//
// # Error Handling
//
// Services return typed errors from the shared package:
//   - [shared.ErrInvalidLink] : link does not match the provider's URL shape
//   - [shared.ErrNotFound] : entity does not exist, including Saavn's empty-shape replies
//   - [shared.ErrConfiguration] : required credentials are missing
//   - [shared.ErrUpstream] : bad status, unreachable host or malformed payload
package services
