package media

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
)

// Tier maps a quality name to the marker found in a stream URL.
type Tier struct {
	Quality string
	Marker  string
}

var (
	saavnKey    = []byte("38346591")
	saavnMarker = "_96"
	saavnTiers  = []Tier{
		{Quality: "low", Marker: "_96"},
		{Quality: "medium", Marker: "_160"},
		{Quality: "high", Marker: "_320"},
	}

	gaanaKey    = []byte("g@1n!(f1#r.0$)&%")
	gaanaIV     = []byte("asd!@#!@#@!12312")
	gaanaMarker = "64.mp4"
	gaanaTiers  = []Tier{
		{Quality: "very_low", Marker: "16.mp4"},
		{Quality: "low", Marker: "64.mp4"},
		{Quality: "medium", Marker: "128.mp4"},
		{Quality: "high", Marker: "320.mp4"},
	}
)

// DecryptSaavn decrypts a Saavn encrypted_media_url into low/medium/high links.
func DecryptSaavn(encrypted string) (models.AudioAsset, error) {
	raw, err := decodeCiphertext(encrypted)
	if raw == nil || err != nil {
		return nil, err
	}

	block, err := des.NewCipher(saavnKey)
	if err != nil {
		return nil, shared.NewError(shared.KindDecryption, "failed to decrypt media url", err)
	}
	plain, err := decryptECB(block, raw)
	if err != nil {
		return nil, shared.NewError(shared.KindDecryption, "failed to decrypt media url", err)
	}

	return expand(string(plain), saavnMarker, saavnTiers), nil
}

// DecryptGaana decrypts a Gaana stream message into very_low/low/medium/high links.
func DecryptGaana(encrypted string) (models.AudioAsset, error) {
	raw, err := decodeCiphertext(encrypted)
	if raw == nil || err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(gaanaKey)
	if err != nil {
		return nil, shared.NewError(shared.KindDecryption, "failed to decrypt media url", err)
	}
	if len(raw)%block.BlockSize() != 0 {
		return nil, shared.NewError(shared.KindDecryption, "failed to decrypt media url",
			fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(raw)))
	}

	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, gaanaIV).CryptBlocks(plain, raw)
	plain, err = unpad(plain, block.BlockSize())
	if err != nil {
		return nil, shared.NewError(shared.KindDecryption, "failed to decrypt media url", err)
	}

	return expand(string(plain), gaanaMarker, gaanaTiers), nil
}

// decodeCiphertext returns (nil, nil) for blank input.
func decodeCiphertext(encrypted string) ([]byte, error) {
	encrypted = strings.TrimSpace(encrypted)
	if encrypted == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, shared.NewError(shared.KindDecryption, "malformed media ciphertext", err)
	}
	if len(raw) == 0 {
		return nil, shared.NewError(shared.KindDecryption, "malformed media ciphertext", fmt.Errorf("empty ciphertext"))
	}
	return raw, nil
}

func decryptECB(block cipher.Block, src []byte) ([]byte, error) {
	bs := block.BlockSize()
	if len(src)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(src))
	}
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += bs {
		block.Decrypt(dst[i:i+bs], src[i:i+bs])
	}
	return unpad(dst, bs)
}

// unpad strips PKCS#5/PKCS#7 padding.
func unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, fmt.Errorf("invalid padding")
	}
	return b[:len(b)-n], nil
}

func expand(base, marker string, tiers []Tier) models.AudioAsset {
	base = Secure(strings.TrimSpace(base))
	asset := make(models.AudioAsset, 0, len(tiers))
	for _, t := range tiers {
		asset = append(asset, models.AudioLink{
			Quality: t.Quality,
			URL:     replaceLast(base, marker, t.Marker),
		})
	}
	return asset
}

// replaceLast swaps the final occurrence of old, which is the bitrate suffix.
func replaceLast(s, old, new string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}

// Secure upgrades an http:// URL to https://.
func Secure(url string) string {
	if strings.HasPrefix(url, "http://") {
		return "https://" + strings.TrimPrefix(url, "http://")
	}
	return url
}
