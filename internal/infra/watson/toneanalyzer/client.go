package toneanalyzer

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	"github.com/yanqian/tone-analyzer/internal/infra/watson/gateway"
	apperrors "github.com/yanqian/tone-analyzer/pkg/errors"
)

const (
	DefaultServiceURL = "https://gateway.watsonplatform.net/tone-analyzer-beta/api"
	DefaultTokenURL   = "https://gateway.watsonplatform.net/authorization/api/v1/token"
	DefaultVersion    = "2016-02-11"

	toneEndpoint = "/v3/tone"
)

// Options configures a Client. Zero values fall back to the public service.
type Options struct {
	ServiceURL string
	Version    string
}

// Result is delivered once per GetToneAsync call.
type Result struct {
	Analysis tone.ToneAnalysis
	Payload  []byte
	Err      error
}

// Client calls the Tone Analyzer service, which scores emotional, social and
// writing tones of a text at document and sentence level.
type Client struct {
	gateway    gateway.Gateway
	auth       gateway.AuthStrategy
	serviceURL string
	version    string
	logger     *slog.Logger
}

// NewClient builds a tone analyzer client on top of gw.
func NewClient(gw gateway.Gateway, auth gateway.AuthStrategy, opts Options, logger *slog.Logger) *Client {
	serviceURL := strings.TrimSpace(opts.ServiceURL)
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		gateway:    gw,
		auth:       auth,
		serviceURL: strings.TrimRight(serviceURL, "/"),
		version:    version,
		logger:     logger.With("component", "watson.toneanalyzer"),
	}
}

// Version returns the service version date sent with each request.
func (c *Client) Version() string {
	return c.version
}

// GetTone analyzes text and returns the decoded analysis and the raw payload.
func (c *Client) GetTone(ctx context.Context, text string) (tone.ToneAnalysis, []byte, error) {
	body, err := gateway.Await(c.gateway.Do(ctx, c.toneRequest(text)))
	if err != nil {
		c.logger.Warn("tone request failed", "error", err)
		return tone.ToneAnalysis{}, nil, apperrors.Wrap(apperrors.CodeTransport, "tone analyzer request failed", err)
	}
	analysis, err := Decode(body)
	if err != nil {
		c.logger.Warn("tone response rejected", "error", err, "bytes", len(body))
		return tone.ToneAnalysis{}, nil, err
	}
	return analysis, body, nil
}

// GetToneAsync runs GetTone in the background. The channel receives exactly
// one Result and is then closed.
func (c *Client) GetToneAsync(ctx context.Context, text string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		analysis, payload, err := c.GetTone(ctx, text)
		out <- Result{Analysis: analysis, Payload: payload, Err: err}
	}()
	return out
}

func (c *Client) toneRequest(text string) gateway.Request {
	return gateway.Request{
		Method:     http.MethodGet,
		ServiceURL: c.serviceURL,
		Endpoint:   toneEndpoint,
		Query: url.Values{
			"text":    {text},
			"version": {c.version},
		},
		Auth:   c.auth,
		Accept: gateway.MediaTypeJSON,
	}
}

var _ tone.Analyzer = (*Client)(nil)
