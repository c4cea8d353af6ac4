package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/acme/contact-center-samples/internal/vendorhttp"
	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// PasswordGrant carries resource owner password credentials.
type PasswordGrant struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scope        string
}

// Token is the subset of the OAuth2 token response the samples use.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// Error is returned when the token endpoint rejects a request.
type Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("auth: %s (%d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("auth: token request failed with status %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return apperrors.ErrUnauthorized
	}
	return apperrors.ErrVendor
}

// Client retrieves access tokens from the vendor authentication API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   TokenCache
	skew    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Callers are responsible for the redirect policy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenCache reuses tokens until skew before they expire.
func WithTokenCache(cache TokenCache, skew time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.skew = skew
	}
}

// NewClient creates an authentication client rooted at {apiURL}/auth/v3.
func NewClient(apiURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(apiURL, "/") + "/auth/v3",
		apiKey:  apiKey,
		http:    vendorhttp.NewClient(vendorhttp.WithoutRedirects()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RetrieveToken runs the password grant, consulting the token cache first when one is set.
func (c *Client) RetrieveToken(ctx context.Context, grant PasswordGrant) (*Token, error) {
	if grant.ClientID == "" || grant.Username == "" {
		return nil, fmt.Errorf("%w: client id and username are required", apperrors.ErrValidation)
	}

	key := cacheKey(grant)
	if c.cache != nil {
		if access, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			return &Token{AccessToken: access, TokenType: "bearer"}, nil
		}
	}

	token, err := c.requestToken(ctx, grant)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && token.ExpiresIn > 0 {
		ttl := time.Duration(token.ExpiresIn)*time.Second - c.skew
		if ttl > 0 {
			// A cache failure only costs a fresh grant next time.
			_ = c.cache.Set(ctx, key, token.AccessToken, ttl)
		}
	}
	return token, nil
}

func (c *Client) requestToken(ctx context.Context, grant PasswordGrant) (*Token, error) {
	scope := grant.Scope
	if scope == "" {
		scope = "*"
	}
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("scope", scope)
	form.Set("client_id", grant.ClientID)
	form.Set("username", grant.Username)
	form.Set("password", grant.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", BasicAuthorization(grant.ClientID, grant.ClientSecret))
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("auth: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("auth: %w: empty access token", apperrors.ErrVendor)
	}
	return &token, nil
}

func cacheKey(grant PasswordGrant) string {
	return grant.ClientID + ":" + grant.Username
}
