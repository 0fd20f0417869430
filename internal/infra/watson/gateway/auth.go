package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// HeaderWatsonToken carries tokens issued by the authorization service.
const HeaderWatsonToken = "X-Watson-Authorization-Token"

// Authentication modes understood by NewAuthStrategy.
const (
	AuthModeToken  = "token"
	AuthModeBasic  = "basic"
	AuthModeBearer = "bearer"
)

const defaultTokenLifetime = time.Hour

// AuthStrategy decorates outgoing requests with credentials.
type AuthStrategy interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// AuthConfig selects and parameterizes an AuthStrategy.
type AuthConfig struct {
	Mode       string
	TokenURL   string
	ServiceURL string
	Username   string
	Password   string
	APIKey     string
}

// NewAuthStrategy builds the strategy named by cfg.Mode.
func NewAuthStrategy(cfg AuthConfig, httpClient *http.Client) (AuthStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case AuthModeToken, "":
		if strings.TrimSpace(cfg.TokenURL) == "" {
			return nil, errors.New("token auth requires a token url")
		}
		if cfg.Username == "" || cfg.Password == "" {
			return nil, errors.New("token auth requires username and password")
		}
		return NewTokenAuthStrategy(httpClient, cfg.TokenURL, cfg.ServiceURL, cfg.Username, cfg.Password), nil
	case AuthModeBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, errors.New("basic auth requires username and password")
		}
		return BasicAuthStrategy{Username: cfg.Username, Password: cfg.Password}, nil
	case AuthModeBearer:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("bearer auth requires an api key")
		}
		return NewBearerAuthStrategy(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// BasicAuthStrategy sends service credentials on every request.
type BasicAuthStrategy struct {
	Username string
	Password string
}

// Authorize implements AuthStrategy.
func (s BasicAuthStrategy) Authorize(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(s.Username, s.Password)
	return nil
}

// TokenAuthStrategy exchanges service credentials for a short lived token and
// reuses it until it expires.
type TokenAuthStrategy struct {
	source oauth2.TokenSource
}

// NewTokenAuthStrategy builds a strategy that fetches tokens from tokenURL.
func NewTokenAuthStrategy(httpClient *http.Client, tokenURL, serviceURL, username, password string) *TokenAuthStrategy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	fetcher := &tokenFetcher{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		serviceURL: serviceURL,
		username:   username,
		password:   password,
		now:        time.Now,
	}
	return &TokenAuthStrategy{source: oauth2.ReuseTokenSource(nil, fetcher)}
}

// Authorize implements AuthStrategy.
func (s *TokenAuthStrategy) Authorize(_ context.Context, req *http.Request) error {
	token, err := s.source.Token()
	if err != nil {
		return err
	}
	req.Header.Set(HeaderWatsonToken, token.AccessToken)
	return nil
}

// tokenFetcher is the oauth2.TokenSource behind TokenAuthStrategy.
type tokenFetcher struct {
	httpClient *http.Client
	tokenURL   string
	serviceURL string
	username   string
	password   string
	now        func() time.Time
}

// Token calls the authorization service. oauth2.TokenSource carries no
// context, so the client timeout bounds the call.
func (f *tokenFetcher) Token() (*oauth2.Token, error) {
	endpoint := strings.TrimRight(f.tokenURL, "/")
	if f.serviceURL != "" {
		endpoint += "?" + url.Values{"url": {f.serviceURL}}.Encode()
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(f.username, f.password)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, parseServiceError(resp.StatusCode, payload)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return nil, errors.New("token response was empty")
	}
	return &oauth2.Token{
		AccessToken: raw,
		Expiry:      tokenExpiry(raw, f.now()),
	}, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens get the default lifetime.
func tokenExpiry(raw string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return now.Add(defaultTokenLifetime)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(defaultTokenLifetime)
	}
	return exp.Time
}

// BearerAuthStrategy sends a fixed API key as a bearer token.
type BearerAuthStrategy struct {
	source oauth2.TokenSource
}

// NewBearerAuthStrategy wraps a static API key.
func NewBearerAuthStrategy(apiKey string) *BearerAuthStrategy {
	return &BearerAuthStrategy{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
	}
}

// Authorize implements AuthStrategy.
func (s *BearerAuthStrategy) Authorize(_ context.Context, req *http.Request) error {
	token, err := s.source.Token()
	if err != nil {
		return err
	}
	token.SetAuthHeader(req)
	return nil
}
