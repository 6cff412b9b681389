package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monokit-dev/monokit/internal/branding"
	"github.com/monokit-dev/monokit/internal/errs"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 30 * time.Second

// Source returns the latest published version of a package.
type Source interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// Client talks to the npm registry HTTP API.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL points the client at a different registry.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient = &http.Client{Timeout: d}
		}
	}
}

// New creates a Client for the default registry.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(branding.DefaultRegistry(), "/"),
		userAgent:  branding.CLIName(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry the client queries.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type distTag struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LatestVersion returns the version tagged "latest" for name. Any failure is
// reported as an *errs.NetworkError.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	v, err := c.latest(ctx, name)
	if err != nil {
		return "", &errs.NetworkError{Package: name, Err: err}
	}
	return v, nil
}

func (c *Client) latest(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty package name")
	}
	endpoint := fmt.Sprintf("%s/%s/latest", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.Debug().Str("package", name).Str("url", endpoint).Msg("querying registry")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("package not found in %s", c.baseURL)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("registry denied access (status %d); check the registry_token setting", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("registry returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tag distTag
	if err := json.NewDecoder(resp.Body).Decode(&tag); err != nil {
		return "", fmt.Errorf("decoding registry response: %w", err)
	}
	if _, err := ParseVersion(tag.Version); err != nil {
		return "", fmt.Errorf("registry returned invalid version %q: %w", tag.Version, err)
	}
	return tag.Version, nil
}
