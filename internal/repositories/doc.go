// Package repositories implements SQLite persistence for provider state.
//
// Key Implementations:
//   - [CredentialRepository] : app id/secret pairs extracted from provider web bundles
//   - [SessionRepository] : user sessions established through provider login
//
// Both are optional. Without a database path the providers keep this state in
// memory for the life of the process. Missing rows are reported with an error
// matching [shared.ErrNotFound].
package repositories
