// Qobuz app credential resolution
//
// Qobuz requires an app id on every call and an app secret to sign stream
// requests. When neither is configured they are extracted from the public
// web player bundle, validated against a known track and memoized.
package services

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
)

// TextFetcher retrieves a text document such as an HTML page or a JS bundle.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

const (
	qobuzValidationFormat = "5"
	qobuzSecretTrailer    = 44

	// qobuzResolveTimeout bounds one shared credential resolution.
	qobuzResolveTimeout = 30 * time.Second
)

var (
	qobuzBundleRe = regexp.MustCompile(`<script src="(/resources/\d+\.\d+\.\d+-[a-z]\d{3}/bundle\.js)"></script>`)
	qobuzAppRe    = regexp.MustCompile(`production:\{api:\{appId:"(\d{9})",appSecret:"(\w{32})"`)
	qobuzSeedRe   = regexp.MustCompile(`[a-z]\.initialSeed\("([\w=]+)",window\.utimezone\.([a-z]+)\)`)
)

// BundleCredentials is the output of [ExtractBundle]: one app id and the
// candidate secrets in the order they should be tried.
type BundleCredentials struct {
	AppID   string
	Secrets []string
}

// ExtractBundleURL finds the bundle script path in the web player login page.
func ExtractBundleURL(page string) (string, error) {
	m := qobuzBundleRe.FindStringSubmatch(page)
	if m == nil {
		return "", shared.Errorf(shared.KindConfiguration, "qobuz bundle script not found in login page")
	}
	return m[1], nil
}

// ExtractBundle pulls the app id and candidate secrets out of the bundle source.
//
// Each timezone seed is joined with the info and extras fields published
// under the same timezone name; the secret is the base64 decoding of that
// string minus its 44-character trailer.
func ExtractBundle(bundle string) (*BundleCredentials, error) {
	app := qobuzAppRe.FindStringSubmatch(bundle)
	if app == nil {
		return nil, shared.Errorf(shared.KindConfiguration, "qobuz app id not found in bundle")
	}

	out := &BundleCredentials{AppID: app[1]}
	for _, seed := range qobuzSeedRe.FindAllStringSubmatch(bundle, -1) {
		tz := strings.ToUpper(seed[2][:1]) + seed[2][1:]
		infoRe, err := regexp.Compile(`name:"\w+/(` + regexp.QuoteMeta(tz) + `)",info:"([\w=]+)",extras:"([\w=]+)"`)
		if err != nil {
			continue
		}
		m := infoRe.FindStringSubmatch(bundle)
		if m == nil {
			continue
		}

		joined := seed[1] + m[2] + m[3]
		if len(joined) <= qobuzSecretTrailer {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(joined[:len(joined)-qobuzSecretTrailer])
		if err != nil {
			continue
		}
		if secret := strings.TrimSpace(string(raw)); secret != "" {
			out.Secrets = append(out.Secrets, secret)
		}
	}

	if len(out.Secrets) == 0 {
		return nil, shared.Errorf(shared.KindConfiguration, "qobuz app secret not found in bundle")
	}
	return out, nil
}

// SignFileURL computes the request_sig of a track/getFileUrl call.
func SignFileURL(trackID, formatID string, ts int64, secret string) string {
	payload := "trackgetFileUrlformat_id" + formatID + "intentstreamtrack_id" + trackID + strconv.FormatInt(ts, 10) + secret
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// qobuzCredentials resolves the app id and secret.
//
// Resolution order is config, memo, [CredentialStore], then bundle
// extraction. Concurrent first callers share one extraction.
type qobuzCredentials struct {
	cfg     shared.QobuzConfig
	client  *Client
	fetcher TextFetcher
	store   CredentialStore
	logger  *log.Logger

	group singleflight.Group
	mu    sync.RWMutex
	memo  *models.AppCredential
}

// AppID returns the app id. A configured id is returned without any network call.
func (q *qobuzCredentials) AppID(ctx context.Context) (string, error) {
	if q.cfg.AppID != "" {
		return q.cfg.AppID, nil
	}
	c, err := q.Get(ctx)
	if err != nil {
		return "", err
	}
	return c.AppID, nil
}

// Get returns the app credential pair.
func (q *qobuzCredentials) Get(ctx context.Context) (*models.AppCredential, error) {
	if q.cfg.AppID != "" && q.cfg.AppSecret != "" {
		return models.NewAppCredential(string(Qobuz), q.cfg.AppID, q.cfg.AppSecret, "config"), nil
	}

	q.mu.RLock()
	memo := q.memo
	q.mu.RUnlock()
	if memo != nil {
		return memo, nil
	}

	// The resolution outlives any single caller; each caller stops waiting on its own ctx.
	ch := q.group.DoChan("credentials", func() (any, error) {
		q.mu.RLock()
		memo := q.memo
		q.mu.RUnlock()
		if memo != nil {
			return memo, nil
		}

		resolveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), qobuzResolveTimeout)
		defer cancel()

		c, err := q.load(resolveCtx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		q.memo = c
		q.mu.Unlock()
		return c, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AppCredential), nil
	case <-ctx.Done():
		return nil, shared.ContextError(ctx.Err(), "qobuz credential resolution")
	}
}

func (q *qobuzCredentials) load(ctx context.Context) (*models.AppCredential, error) {
	if q.store != nil {
		c, err := q.store.GetCredential(ctx, string(Qobuz))
		switch {
		case err == nil && c != nil:
			c.Source = "store"
			return q.withConfig(c), nil
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			q.logger.Warn("credential store lookup failed", "err", err)
		}
	}

	c, err := q.extract(ctx)
	if err != nil {
		return nil, err
	}

	// Only a fully extracted pair is worth persisting.
	if q.store != nil && q.cfg.AppID == "" && q.cfg.AppSecret == "" {
		if err := q.store.SaveCredential(ctx, c); err != nil {
			q.logger.Warn("failed to persist extracted credentials", "err", err)
		}
	}
	return c, nil
}

// withConfig overlays configured values on resolved credentials.
// A configured secret marks the pair as coming from config.
func (q *qobuzCredentials) withConfig(c *models.AppCredential) *models.AppCredential {
	if q.cfg.AppID != "" {
		c.AppID = q.cfg.AppID
	}
	if q.cfg.AppSecret != "" {
		c.AppSecret = q.cfg.AppSecret
		c.Source = "config"
	}
	return c
}

func (q *qobuzCredentials) extract(ctx context.Context) (*models.AppCredential, error) {
	web := strings.TrimRight(q.cfg.WebURL, "/")
	if web == "" {
		web = "https://play.qobuz.com"
	}

	page, err := q.fetcher.FetchText(ctx, web+"/login")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch qobuz login page: %w", err)
	}
	path, err := ExtractBundleURL(page)
	if err != nil {
		return nil, err
	}
	bundle, err := q.fetcher.FetchText(ctx, web+path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch qobuz bundle: %w", err)
	}
	found, err := ExtractBundle(bundle)
	if err != nil {
		return nil, err
	}

	c := q.withConfig(models.NewAppCredential(string(Qobuz), found.AppID, found.Secrets[0], "bundle"))
	if c.Source == "config" {
		q.logger.Info("extracted app id from web bundle", "app_id", c.AppID)
		return c, nil
	}

	for _, candidate := range found.Secrets {
		if q.validate(ctx, c.AppID, candidate) {
			c.AppSecret = candidate
			break
		}
	}

	q.logger.Info("extracted app credentials from web bundle", "app_id", c.AppID, "candidates", len(found.Secrets))
	return c, nil
}

// validate signs a stream request for the validation track with secret and
// rejects the secret when Qobuz calls the signature invalid.
func (q *qobuzCredentials) validate(ctx context.Context, appID, secret string) bool {
	trackID := q.cfg.ValidationTrackID
	if trackID == "" {
		trackID = "5966783"
	}

	ts := time.Now().Unix()
	query := url.Values{
		"request_ts":  {strconv.FormatInt(ts, 10)},
		"request_sig": {SignFileURL(trackID, qobuzValidationFormat, ts, secret)},
		"track_id":    {trackID},
		"format_id":   {qobuzValidationFormat},
		"intent":      {"stream"},
	}
	header := http.Header{"X-App-Id": {appID}}
	if q.cfg.UserAuthToken != "" {
		header.Set("X-User-Auth-Token", q.cfg.UserAuthToken)
	}

	resp, err := q.client.Send(ctx, Request{Path: "track/getFileUrl", Query: query, Header: header})
	if err != nil {
		q.logger.Debug("secret validation failed", "err", err)
		return false
	}
	return !strings.Contains(strings.ToLower(string(resp.Body)), "invalid")
}

// Clear drops the memoized credentials and the persisted copy.
func (q *qobuzCredentials) Clear(ctx context.Context) {
	q.mu.Lock()
	q.memo = nil
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.DeleteCredential(ctx, string(Qobuz)); err != nil && !errors.Is(err, shared.ErrNotFound) {
			q.logger.Warn("failed to delete stored credentials", "err", err)
		}
	}
}
