package services

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tunex/internal/shared"
)

// Deps are the collaborators shared by every provider.
type Deps struct {
	HTTPClient    *http.Client
	Logger        *log.Logger
	RateLimit     float64 // requests per second per provider, 0 disables limiting
	Burst         int
	UserAgents    []string
	FallbackImage string
	Credentials   CredentialStore // optional
	Sessions      SessionStore    // optional
	Fetcher       TextFetcher     // optional, replaces the Qobuz bundle fetcher
}

// DepsFromConfig builds [Deps] from the [http] and [images] sections.
func DepsFromConfig(cfg *shared.Config, logger *log.Logger) Deps {
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return Deps{
		HTTPClient:    &http.Client{Timeout: timeout},
		Logger:        logger,
		RateLimit:     cfg.HTTP.RateLimit,
		Burst:         cfg.HTTP.Burst,
		UserAgents:    cfg.HTTP.UserAgents,
		FallbackImage: cfg.Images.FallbackURL,
	}
}

func (d Deps) newClient(p Provider, baseURL string, defaults url.Values, headers http.Header) *Client {
	var limiter *rate.Limiter
	if d.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(d.RateLimit), max(d.Burst, 1))
	}
	return NewClient(ClientOptions{
		Provider:   p,
		BaseURL:    baseURL,
		HTTPClient: d.HTTPClient,
		Defaults:   defaults,
		Headers:    headers,
		UserAgents: d.UserAgents,
		Limiter:    limiter,
		Logger:     d.Logger,
	})
}

func (d Deps) log(p Provider) *log.Logger {
	return shared.WithLogger(d.Logger, "provider", string(p))
}

// Registry owns one [Catalog] per provider.
type Registry struct {
	def      Provider
	catalogs map[Provider]Catalog
}

// NewRegistry builds every provider from cfg. Providers with missing
// credentials are still registered and fail on first use.
func NewRegistry(cfg *shared.Config, d Deps) (*Registry, error) {
	def, err := ParseProvider(cfg.Providers.Default, Saavn)
	if err != nil {
		return nil, err
	}

	r := &Registry{def: def, catalogs: make(map[Provider]Catalog, len(Providers))}
	for _, p := range Providers {
		r.catalogs[p] = newCatalog(p, cfg.Providers, d)
	}
	return r, nil
}

// NewRegistryWith registers the given catalogs directly, mainly for tests.
func NewRegistryWith(def Provider, catalogs ...Catalog) *Registry {
	r := &Registry{def: def, catalogs: make(map[Provider]Catalog, len(catalogs))}
	for _, c := range catalogs {
		r.catalogs[c.Provider()] = c
	}
	return r
}

func newCatalog(p Provider, cfg shared.ProvidersConfig, d Deps) Catalog {
	switch p {
	case Gaana:
		return NewGaana(cfg.Gaana, d)
	case Qobuz:
		return NewQobuz(cfg.Qobuz, d)
	case Tidal:
		return NewTidal(cfg.Tidal, d)
	default:
		return NewSaavn(cfg.Saavn, d)
	}
}

// Default returns the provider used when a request names none.
func (r *Registry) Default() Provider { return r.def }

// Resolve returns the catalog for name, or the default catalog when name is empty.
func (r *Registry) Resolve(name string) (Catalog, error) {
	p, err := ParseProvider(name, r.def)
	if err != nil {
		return nil, err
	}
	c, ok := r.catalogs[p]
	if !ok {
		return nil, shared.Errorf(shared.KindConfiguration, "provider %s is not enabled", p)
	}
	return c, nil
}

// Authenticator returns the login capability of the named provider.
func (r *Registry) Authenticator(name string) (Authenticator, error) {
	c, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	a, ok := c.(Authenticator)
	if !ok {
		return nil, shared.Errorf(shared.KindInvalidRequest, "%s does not support user login", c.Provider())
	}
	return a, nil
}

// Streamer returns the stream resolution capability of the named provider.
func (r *Registry) Streamer(name string) (Streamer, error) {
	c, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	s, ok := c.(Streamer)
	if !ok {
		return nil, shared.Errorf(shared.KindInvalidRequest, "%s does not resolve stream urls", c.Provider())
	}
	return s, nil
}

// ClearCaches resets the process-wide state of every provider.
func (r *Registry) ClearCaches() {
	for _, c := range r.catalogs {
		if cc, ok := c.(CacheClearer); ok {
			cc.ClearCache()
		}
	}
}

// Restore reloads persisted sessions into providers that support it.
func (r *Registry) Restore(ctx context.Context) {
	for _, c := range r.catalogs {
		if rs, ok := c.(Restorer); ok {
			rs.Restore(ctx)
		}
	}
}
