package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MediaTypeJSON is the Accept value for JSON responses.
const MediaTypeJSON = "application/json"

// Request describes a single call to a Watson service.
type Request struct {
	Method     string
	ServiceURL string
	Endpoint   string
	Query      url.Values
	Auth       AuthStrategy
	Accept     string
}

// Result carries either the response body or the failure of one request.
type Result struct {
	Body []byte
	Err  error
}

// Gateway executes requests. The returned channel yields exactly one Result
// and is then closed.
type Gateway interface {
	Do(ctx context.Context, req Request) <-chan Result
}

// Await blocks until the result of a Do call is available.
func Await(ch <-chan Result) ([]byte, error) {
	res, ok := <-ch
	if !ok {
		return nil, fmt.Errorf("gateway closed without a result")
	}
	return res.Body, res.Err
}

// ServiceError is a non-2xx reply from the service.
type ServiceError struct {
	Status  int
	Code    int
	Message string
	Help    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned status %d", e.Status)
	}
	return fmt.Sprintf("service returned status %d: %s", e.Status, e.Message)
}

// HTTPGateway performs requests over net/http.
type HTTPGateway struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPGateway builds a gateway. A nil client gets a 30 second timeout.
func NewHTTPGateway(httpClient *http.Client, logger *slog.Logger) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{
		httpClient: httpClient,
		logger:     logger.With("component", "watson.gateway"),
	}
}

// Do runs the request in its own goroutine.
func (g *HTTPGateway) Do(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		body, err := g.execute(ctx, req)
		out <- Result{Body: body, Err: err}
	}()
	return out
}

func (g *HTTPGateway) execute(ctx context.Context, req Request) ([]byte, error) {
	endpoint, err := buildURL(req)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if req.Auth != nil {
		if err := req.Auth.Authorize(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("authorize request: %w", err)
		}
	}

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.Endpoint, err)
	}
	defer resp.Body.Close()
	g.logger.Debug("watson request finished", "endpoint", req.Endpoint, "status", resp.StatusCode, "latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, parseServiceError(resp.StatusCode, payload)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func buildURL(req Request) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(req.ServiceURL), "/")
	if base == "" {
		return "", fmt.Errorf("service url cannot be empty")
	}
	endpoint := base + "/" + strings.TrimLeft(req.Endpoint, "/")
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}
	return endpoint, nil
}

func parseServiceError(status int, payload []byte) *ServiceError {
	svcErr := &ServiceError{Status: status}
	var body struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
		Help  string `json:"help"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		svcErr.Code = body.Code
		svcErr.Message = body.Error
		svcErr.Help = body.Help
		return svcErr
	}
	svcErr.Code = status
	svcErr.Message = strings.TrimSpace(string(payload))
	return svcErr
}

var _ Gateway = (*HTTPGateway)(nil)
