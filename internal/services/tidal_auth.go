package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/tunex/internal/shared"
)

const (
	// tokenMargin is how long before expiry a cached token stops being served.
	tokenMargin = 5 * time.Minute
	// tokenExchangeTimeout bounds one shared exchange.
	tokenExchangeTimeout = 30 * time.Second
)

// TokenManager caches a client-credentials access token.
//
// A token is reused until it is within [tokenMargin] of expiry. Concurrent
// refreshes collapse into one exchange; the last stored token wins.
type TokenManager struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	token *oauth2.Token
}

// NewTokenManager creates a [TokenManager] for the given token endpoint.
func NewTokenManager(clientID, clientSecret, tokenURL string, httpClient *http.Client, logger *log.Logger) *TokenManager {
	return &TokenManager{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		logger:     shared.WithLogger(logger),
		now:        time.Now,
	}
}

// Token returns a cached access token or exchanges the client credentials for a new one.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.config.ClientID == "" || m.config.ClientSecret == "" {
		return "", shared.Errorf(shared.KindConfiguration, "tidal client id and secret are not configured")
	}

	if tok := m.cached(); tok != "" {
		return tok, nil
	}

	// Waiters share the exchange but each gives up on its own ctx.
	ch := m.group.DoChan("token", func() (any, error) {
		if tok := m.cached(); tok != "" {
			return tok, nil
		}

		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenExchangeTimeout)
		defer cancel()
		if m.httpClient != nil {
			exchangeCtx = context.WithValue(exchangeCtx, oauth2.HTTPClient, m.httpClient)
		}
		tok, err := m.config.Token(exchangeCtx)
		if err != nil {
			return "", tokenError(err)
		}

		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()

		m.logger.Info("obtained access token", "expires", tok.Expiry.Format(time.RFC3339))
		return tok.AccessToken, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", tokenError(ctx.Err())
	}
}

func (m *TokenManager) cached() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == nil || m.token.AccessToken == "" {
		return ""
	}
	if !m.token.Expiry.IsZero() && !m.now().Add(tokenMargin).Before(m.token.Expiry) {
		return ""
	}
	return m.token.AccessToken
}

// ClearCache forgets the cached token.
func (m *TokenManager) ClearCache() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return shared.NewError(shared.KindUnauthorized, "tidal rejected the client credentials", err)
		case http.StatusTooManyRequests:
			return shared.NewError(shared.KindRateLimited, "tidal is rate limiting token requests", err)
		}
		return shared.NewError(shared.KindUpstream, "tidal token exchange failed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return shared.ContextError(err, "tidal token exchange")
	}
	return shared.NewError(shared.KindUpstream, "tidal token exchange failed", err)
}
