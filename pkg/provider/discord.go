// Package provider talks to the identity provider's OAuth2 and user APIs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-training/oauth-callback/pkg/core"
	"golang.org/x/oauth2"
)

const (
	DefaultAPIBaseURL   = "https://discord.com/api"
	DefaultAuthorizeURL = "https://discord.com/oauth2/authorize"
	DefaultTimeout      = 5 * time.Second

	tokenPath       = "/oauth2/token"
	currentUserPath = "/users/@me"
	maxBodySize     = 1 << 20
)

// Scopes requested on every grant: identity plus the right to add the user to a guild.
var Scopes = []string{"identify", "guilds.join"}

// UpstreamError is a non-2xx answer from the provider. Body is for logs only.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
	AuthorizeURL string
	// Timeout bounds each outbound call when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs the code exchange and identity lookup.
type Client struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
}

// New creates a Client, filling in provider defaults.
func New(opts Options) *Client {
	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}
	authorizeURL := opts.AuthorizeURL
	if authorizeURL == "" {
		authorizeURL = DefaultAuthorizeURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  apiBase + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase:    apiBase,
		httpClient: httpClient,
	}
}

// AuthorizeURL returns the consent screen URL that starts a new flow.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades a single-use authorization code for a TokenGrant.
// The form carries client_id, client_secret, grant_type, code, redirect_uri and scope.
func (c *Client) Exchange(ctx context.Context, code string) (*core.TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code,
		oauth2.SetAuthURLParam("scope", strings.Join(Scopes, " ")))
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return nil, &UpstreamError{
				Op:         "token exchange",
				StatusCode: rErr.Response.StatusCode,
				Body:       string(rErr.Body),
			}
		}
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	scope, _ := tok.Extra("scope").(string)
	return &core.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
		Scope:        scope,
	}, nil
}

// expiresIn prefers the raw expires_in value over the client-computed expiry.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return max(int64(math.Round(time.Until(tok.Expiry).Seconds())), 0)
}

// FetchIdentity loads the current user with the grant's bearer token.
func (c *Client) FetchIdentity(ctx context.Context, grant *core.TokenGrant) (*core.UserIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+currentUserPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	(&oauth2.Token{AccessToken: grant.AccessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read user response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Op:         "fetch user",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var user core.UserIdentity
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, errors.New("decode user: response has no id")
	}
	return &user, nil
}
