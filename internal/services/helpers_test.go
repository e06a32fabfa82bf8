package services

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
)

const testFallback = "https://example.com/default.png"

func testDeps() Deps {
	return Deps{FallbackImage: testFallback}
}

func pkcs7(b []byte, bs int) []byte {
	n := bs - len(b)%bs
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func encryptSaavnURL(t *testing.T, plain string) string {
	t.Helper()
	block, err := des.NewCipher([]byte("38346591"))
	if err != nil {
		t.Fatalf("des: %v", err)
	}
	src := pkcs7([]byte(plain), block.BlockSize())
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += block.BlockSize() {
		block.Encrypt(dst[i:i+block.BlockSize()], src[i:i+block.BlockSize()])
	}
	return base64.StdEncoding.EncodeToString(dst)
}

func encryptGaanaURL(t *testing.T, plain string) string {
	t.Helper()
	block, err := aes.NewCipher([]byte("g@1n!(f1#r.0$)&%"))
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	src := pkcs7([]byte(plain), block.BlockSize())
	dst := make([]byte, len(src))
	cipher.NewCBCEncrypter(block, []byte("asd!@#!@#@!12312")).CryptBlocks(dst, src)
	return base64.StdEncoding.EncodeToString(dst)
}

// routeByParam serves the body registered for the value of a query or form parameter.
func routeByParam(t *testing.T, param string, bodies map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.FormValue(param)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func assertImage(t *testing.T, img models.ImageAsset) {
	t.Helper()
	if img.Low == "" || img.Medium == "" || img.High == "" {
		t.Errorf("expected three image tiers, got %+v", img)
	}
}
