package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tunex/internal/shared"
)

// SessionState is the lifecycle of a provider user session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticating
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is a snapshot of a provider's user session. Token never leaves the process.
type Session struct {
	Provider     string       `json:"provider"`
	UserID       string       `json:"user_id,omitempty"`
	DisplayName  string       `json:"display_name,omitempty"`
	Subscription string       `json:"subscription,omitempty"`
	Token        string       `json:"-"`
	State        SessionState `json:"state"`
}

// Authenticated reports whether the session holds a usable token.
func (s Session) Authenticated() bool {
	return s.State == Authenticated && s.Token != ""
}

// AppCredential is a provider-level application id/secret pair.
type AppCredential struct {
	Provider  string
	AppID     string
	AppSecret string
	Source    string // "config", "bundle" or "store"; "config" whenever the secret is configured
	Created   time.Time
	Updated   time.Time
}

// NewAppCredential creates an [AppCredential] stamped with the current time.
func NewAppCredential(provider, appID, appSecret, source string) *AppCredential {
	now := time.Now().UTC()
	return &AppCredential{
		Provider:  provider,
		AppID:     appID,
		AppSecret: appSecret,
		Source:    source,
		Created:   now,
		Updated:   now,
	}
}

func (c *AppCredential) ID() string           { return c.Provider }
func (c *AppCredential) CreatedAt() time.Time { return c.Created }
func (c *AppCredential) UpdatedAt() time.Time { return c.Updated }

func (c *AppCredential) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("%w: provider is required", shared.ErrInvalidArgument)
	}
	if c.AppID == "" || c.AppSecret == "" {
		return fmt.Errorf("%w: app id and secret are required", shared.ErrInvalidArgument)
	}
	return nil
}

// SessionRecord is a persisted provider login.
type SessionRecord struct {
	Provider     string
	UserID       string
	DisplayName  string
	Subscription string
	Token        string
	Created      time.Time
}

// NewSessionRecord captures an authenticated [Session] for persistence.
func NewSessionRecord(s Session) *SessionRecord {
	return &SessionRecord{
		Provider:     s.Provider,
		UserID:       s.UserID,
		DisplayName:  s.DisplayName,
		Subscription: s.Subscription,
		Token:        s.Token,
		Created:      time.Now().UTC(),
	}
}

func (r *SessionRecord) ID() string           { return r.Provider }
func (r *SessionRecord) CreatedAt() time.Time { return r.Created }
func (r *SessionRecord) UpdatedAt() time.Time { return r.Created }

func (r *SessionRecord) Validate() error {
	if strings.TrimSpace(r.Provider) == "" {
		return fmt.Errorf("%w: provider is required", shared.ErrInvalidArgument)
	}
	if r.Token == "" {
		return fmt.Errorf("%w: session token is required", shared.ErrInvalidArgument)
	}
	return nil
}

// Session restores the in-memory session.
func (r *SessionRecord) Session() Session {
	return Session{
		Provider:     r.Provider,
		UserID:       r.UserID,
		DisplayName:  r.DisplayName,
		Subscription: r.Subscription,
		Token:        r.Token,
		State:        Authenticated,
	}
}
