// Package github implements the directory lookup consumed by online
// validation rules, backed by the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"

	"github.com/dotanuki-labs/canopus/internal/validate"
)

// requestsPerSecond caps outgoing API calls well below GitHub's secondary
// rate limits.
const requestsPerSecond = 5.0

// Errors.
var (
	ErrMissingToken = errors.New("GITHUB_TOKEN is required for online checks")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNetworkError = errors.New("network error connecting to GitHub")
)

// settings are read from the environment; a .env file is honored when the
// CLI loads one at startup.
type settings struct {
	Token       string `env:"GITHUB_TOKEN"`
	BaseURL     string `env:"CANOPUS_GITHUB_API_URL" envDefault:"https://api.github.com"`
	TimeoutSecs int    `env:"CANOPUS_GITHUB_TIMEOUT_SECS" envDefault:"10"`
}

// Client is a rate-limited GitHub API client implementing
// validate.DirectoryLookup.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithToken overrides the token from the environment.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient builds a client from environment settings. A missing token is an
// error: online checks without credentials would only produce noise.
func NewClient(opts ...ClientOption) (*Client, error) {
	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading github client settings: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		return nil, ErrMissingToken
	}
	return c, nil
}

// UserExists reports whether the handle names an existing GitHub user.
func (c *Client) UserExists(ctx context.Context, handle string) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/users/%s", handle))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

// OrgMembers lists all member handles of an organization, following
// pagination. A 404 means the organization itself does not exist and is
// reported by wrapping validate.ErrNotFound.
func (c *Client) OrgMembers(ctx context.Context, org string) ([]string, error) {
	const perPage = 100

	var handles []string
	for page := 1; ; page++ {
		path := fmt.Sprintf("/orgs/%s/members?per_page=%d&page=%d", org, perPage, page)
		members, err := c.membersPage(ctx, org, path)
		if err != nil {
			return nil, err
		}

		handles = append(handles, members...)
		if len(members) < perPage {
			return handles, nil
		}
	}
}

func (c *Client) membersPage(ctx context.Context, org, path string) ([]string, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusNotFound:
		return nil, fmt.Errorf("organization %s: %w", org, validate.ErrNotFound)
	default:
		return nil, statusError(resp)
	}

	var members []struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("%w: decoding members: %v", ErrAPIError, err)
	}

	handles := make([]string, 0, len(members))
	for _, member := range members {
		handles = append(handles, member.Login)
	}
	return handles, nil
}

// TeamExists reports whether the team slug exists within the organization.
func (c *Client) TeamExists(ctx context.Context, org, team string) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/orgs/%s/teams/%s", org, team))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "canopus-cli")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}
}
