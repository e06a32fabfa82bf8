package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tunex/internal/shared"
)

const maxBodyBytes = 16 << 20

// Authorizer decorates an outgoing request with session headers or signed query parameters.
type Authorizer func(ctx context.Context, header http.Header, query url.Values) error

// ClientOptions configures a [Client].
type ClientOptions struct {
	Provider   Provider
	BaseURL    string
	HTTPClient *http.Client
	Defaults   url.Values  // merged into every query, call parameters win
	Headers    http.Header // fixed headers such as Origin and Referer
	UserAgents []string    // rotated per request
	Limiter    *rate.Limiter
	Logger     *log.Logger
}

// Client is the HTTP transport shared by every provider.
//
// It merges default query parameters, injects headers, waits on the rate
// limiter and translates transport and status failures into [shared.Error].
type Client struct {
	provider   Provider
	baseURL    string
	httpClient *http.Client
	defaults   url.Values
	headers    http.Header
	agents     []string
	next       atomic.Uint64
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a [Client]. A nil HTTPClient uses [http.DefaultClient];
// a nil Limiter never throttles.
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{
		provider:   opts.Provider,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		defaults:   opts.Defaults,
		headers:    opts.Headers,
		agents:     opts.UserAgents,
		limiter:    opts.Limiter,
		logger:     shared.WithLogger(opts.Logger, "provider", string(opts.Provider)),
	}
}

// Request describes one upstream call. Path is relative to the base URL unless absolute.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values // sent as an urlencoded body when set
	Header http.Header
	Auth   Authorizer
}

// Response is a raw upstream reply.
type Response struct {
	Status int
	Body   []byte
}

// Get issues a GET and decodes the JSON reply into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Do sends req, maps non-2xx statuses to typed errors and decodes the JSON body into out.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := c.statusError(resp.Status); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return shared.NewError(shared.KindUpstream, fmt.Sprintf("malformed %s response", c.provider), err)
	}
	return nil
}

// Send issues req and returns the raw reply. Only transport failures are errors.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	query := url.Values{}
	for k, v := range c.defaults {
		query[k] = append([]string(nil), v...)
	}
	for k, v := range req.Query {
		query[k] = v
	}

	header := http.Header{}
	for k, v := range c.headers {
		header[k] = v
	}
	for k, v := range req.Header {
		header[k] = v
	}
	if ua := c.userAgent(); ua != "" && header.Get("User-Agent") == "" {
		header.Set("User-Agent", ua)
	}

	if req.Auth != nil {
		if err := req.Auth(ctx, header, query); err != nil {
			return nil, err
		}
	}

	target := req.Path
	switch {
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
	case target == "":
		target = c.baseURL
	default:
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
		header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, shared.NewError(shared.KindInvalidRequest, "failed to build upstream request", err)
	}
	httpReq.Header = header

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.transportError(err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("upstream call failed", "method", req.Method, "path", req.Path, "elapsed", time.Since(start), "err", err)
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(err)
	}

	c.logger.Debug("upstream call", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// FetchText GETs an absolute URL and returns the body as text.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Send(ctx, Request{Method: http.MethodGet, Path: rawURL})
	if err != nil {
		return "", err
	}
	if err := c.statusError(resp.Status); err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (c *Client) userAgent() string {
	if len(c.agents) == 0 {
		return ""
	}
	n := c.next.Add(1) - 1
	return c.agents[n%uint64(len(c.agents))]
}

func (c *Client) statusError(status int) error {
	if status >= 200 && status < 300 {
		return nil
	}

	name := string(c.provider)
	switch status {
	case http.StatusUnauthorized:
		return shared.Errorf(shared.KindUnauthorized, "%s rejected the credentials", name)
	case http.StatusForbidden:
		return shared.Errorf(shared.KindForbidden, "%s denied access to this resource", name)
	case http.StatusNotFound:
		return shared.Errorf(shared.KindNotFound, "%s resource not found", name)
	case http.StatusTooManyRequests:
		return shared.Errorf(shared.KindRateLimited, "%s is rate limiting requests", name)
	default:
		return shared.Errorf(shared.KindUpstream, "%s returned status %d", name, status)
	}
}

func (c *Client) transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return shared.ContextError(err, fmt.Sprintf("request to %s", c.provider))
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return shared.NewError(shared.KindTimeout, fmt.Sprintf("%s did not respond in time", c.provider), err)
	}
	return shared.NewError(shared.KindUpstream, fmt.Sprintf("%s is unreachable", c.provider), err)
}

// mappingError reports an upstream payload that violates the shape a mapper needs.
func mappingError(p Provider, kind, id string, cause error) error {
	return shared.NewError(shared.KindUpstream, fmt.Sprintf("failed to map %s %s %q", p, kind, id), cause)
}

// notFound builds a NotFound error naming the missing entity.
func notFound(p Provider, kind, id string) error {
	return shared.Errorf(shared.KindNotFound, "%s %s %q not found", p, kind, id)
}
