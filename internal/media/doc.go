// Package media derives playable audio links and image tiers from provider payloads.
//
// # Audio
//
// Saavn ships stream URLs encrypted with DES in ECB mode ([DecryptSaavn]); Gaana
// uses AES-128 in CBC mode with a fixed IV ([DecryptGaana]). Both decrypt to a
// URL for one bitrate. The other tiers are produced by replacing that
// bitrate's marker, so every tier differs from the others only in the marker.
//
// Blank ciphertext yields a nil [models.AudioAsset] and no error. Ciphertext that
// is present but cannot be decrypted is a [shared.ErrDecryption].
//
// # Images
//
// [ImageTemplate] rewrites the size token of a thumbnail URL into three tiers and
// substitutes a fallback when the provider has no image or a placeholder.
package media
