package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
)

// QobuzAuth owns the Qobuz user session of one catalog instance.
//
// A user_auth_token from config acts as a session until a login replaces it.
type QobuzAuth struct {
	client *Client
	creds  *qobuzCredentials
	store  SessionStore
	logger *log.Logger

	mu      sync.RWMutex
	session models.Session
}

func newQobuzAuth(client *Client, creds *qobuzCredentials, store SessionStore, token string, logger *log.Logger) *QobuzAuth {
	a := &QobuzAuth{
		client:  client,
		creds:   creds,
		store:   store,
		logger:  logger,
		session: models.Session{Provider: string(Qobuz)},
	}
	if token != "" {
		a.session.Token = token
		a.session.State = models.Authenticated
	}
	return a
}

type qobuzLoginResponse struct {
	Token string `json:"user_auth_token"`
	User  struct {
		ID          flexString `json:"id"`
		Login       flexString `json:"login"`
		DisplayName flexString `json:"display_name"`
		Credential  struct {
			Label      flexString `json:"label"`
			Parameters struct {
				ShortLabel flexString `json:"short_label"`
			} `json:"parameters"`
		} `json:"credential"`
	} `json:"user"`
}

// PasswordDigest returns the hex MD5 of password, the form Qobuz expects at login.
func PasswordDigest(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login authenticates with an email and password, or validates a captured token.
func (a *QobuzAuth) Login(ctx context.Context, creds Credentials) (models.Session, error) {
	query := url.Values{}
	switch {
	case creds.Token != "":
		query.Set("user_auth_token", creds.Token)
	case strings.TrimSpace(creds.Username) != "" && creds.Password != "":
		query.Set("email", strings.TrimSpace(creds.Username))
		query.Set("password", PasswordDigest(creds.Password))
	default:
		return models.Session{}, shared.Errorf(shared.KindInvalidRequest, "qobuz login needs an email and password or a token")
	}

	appID, err := a.creds.AppID(ctx)
	if err != nil {
		return models.Session{}, err
	}
	query.Set("app_id", appID)

	prev := a.Session()
	a.setState(models.Authenticating)

	var resp qobuzLoginResponse
	err = a.client.Do(ctx, Request{Method: http.MethodGet, Path: "user/login", Query: query}, &resp)
	if err != nil {
		a.setState(prev.State)
		if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrInvalidRequest) {
			return models.Session{}, shared.NewError(shared.KindUnauthorized, "invalid qobuz credentials", err)
		}
		return models.Session{}, err
	}
	if resp.Token == "" {
		a.setState(prev.State)
		return models.Session{}, shared.Errorf(shared.KindUpstream, "qobuz login returned no token")
	}

	name := resp.User.DisplayName.text()
	if name == "" {
		name = resp.User.Login.text()
	}
	subscription := resp.User.Credential.Parameters.ShortLabel.text()
	if subscription == "" {
		subscription = resp.User.Credential.Label.text()
	}

	session := models.Session{
		Provider:     string(Qobuz),
		UserID:       resp.User.ID.String(),
		DisplayName:  name,
		Subscription: subscription,
		Token:        resp.Token,
		State:        models.Authenticated,
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.SaveSession(ctx, models.NewSessionRecord(session)); err != nil {
			a.logger.Warn("failed to persist session", "err", err)
		}
	}
	a.logger.Info("logged in", "user_id", session.UserID)
	return session, nil
}

// Logout forgets the session and its persisted copy.
func (a *QobuzAuth) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.session = models.Session{Provider: string(Qobuz)}
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.DeleteSession(ctx, string(Qobuz)); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Session returns a snapshot of the current session.
func (a *QobuzAuth) Session() models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Restore loads a persisted session when none is active.
func (a *QobuzAuth) Restore(ctx context.Context) {
	if a.store == nil || a.Session().Authenticated() {
		return
	}

	rec, err := a.store.GetSession(ctx, string(Qobuz))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			a.logger.Warn("failed to restore session", "err", err)
		}
		return
	}

	a.mu.Lock()
	a.session = rec.Session()
	a.mu.Unlock()
	a.logger.Debug("restored session", "user_id", rec.UserID)
}

func (a *QobuzAuth) setState(s models.SessionState) {
	a.mu.Lock()
	a.session.State = s
	a.mu.Unlock()
}

// token returns the session token. During a login the previous token keeps
// being served until the new session is stored.
func (a *QobuzAuth) token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Token
}

// authorize is the [Authorizer] of every Qobuz catalog call.
func (a *QobuzAuth) authorize(ctx context.Context, header http.Header, _ url.Values) error {
	appID, err := a.creds.AppID(ctx)
	if err != nil {
		return err
	}
	header.Set("X-App-Id", appID)
	if token := a.token(); token != "" {
		header.Set("X-User-Auth-Token", token)
	}
	return nil
}
