package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	"github.com/yanqian/tone-analyzer/internal/infra/config"
	apperrors "github.com/yanqian/tone-analyzer/pkg/errors"
)

func TestRouter_AnalyzeQuerySuccess(t *testing.T) {
	resp := tone.Response{
		ID:            "6f1c1c55-8d4c-4b8e-9f0e-6d3a2c7b9a10",
		Version:       "2016-02-11",
		SentenceTones: []tone.SentenceTone{{SentenceID: 0, Text: "hello world"}},
		Dominant:      []tone.DominantTone{{CategoryID: "emotion_tone", ToneID: "joy", Score: 0.6}},
	}
	svc := &stubToneService{
		analyzeFn: func(ctx context.Context, req tone.Request) (tone.Response, error) {
			require.Equal(t, "hello world", req.Text)
			return resp, nil
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/tone?text=hello+world", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got tone.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, resp, got)
}

func TestRouter_AnalyzeBodySuccess(t *testing.T) {
	svc := &stubToneService{
		analyzeFn: func(ctx context.Context, req tone.Request) (tone.Response, error) {
			require.Equal(t, "post body", req.Text)
			return tone.Response{ID: "x", SentenceTones: []tone.SentenceTone{}}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/tone", `{"text":"post body"}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_AnalyzeInvalidJSON(t *testing.T) {
	recorder := performRequest(http.MethodPost, "/api/v1/tone", `{"text":123}`, newRouterUnderTest(t, &stubToneService{}, config.RateLimitConfig{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_AnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil), http.StatusBadRequest, "invalid_request"},
		{apperrors.Wrap(apperrors.CodeParse, "tone response is not valid json", nil), http.StatusBadGateway, apperrors.CodeParse},
		{apperrors.Wrap(apperrors.CodeMalformedResponse, "sentences_tone must be an array", nil), http.StatusBadGateway, apperrors.CodeMalformedResponse},
		{context.DeadlineExceeded, http.StatusInternalServerError, "tone_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc := &stubToneService{
				analyzeFn: func(ctx context.Context, req tone.Request) (tone.Response, error) {
					return tone.Response{}, tc.err
				},
			}
			recorder := performRequest(http.MethodGet, "/api/v1/tone?text=x", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
			require.Equal(t, tc.status, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
			require.Contains(t, errBody["error"]["message"], tc.err.Error())
		})
	}
}

func TestRouter_TransportErrorHidesUpstreamDetails(t *testing.T) {
	cause := &url.Error{Op: "Get", URL: "https://gateway.example.com/v3/tone?text=my+private+diary", Err: context.DeadlineExceeded}
	svc := &stubToneService{
		analyzeFn: func(ctx context.Context, req tone.Request) (tone.Response, error) {
			return tone.Response{}, apperrors.Wrap(apperrors.CodeTransport, "tone analyzer request failed", cause)
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/tone?text=my+private+diary", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "private")
	require.NotContains(t, recorder.Body.String(), "gateway.example.com")

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeTransport, errBody["error"]["code"])
	require.Equal(t, transportFailureMessage, errBody["error"]["message"])
}

func TestRouter_GetAnalysisNotFound(t *testing.T) {
	svc := &stubToneService{
		getFn: func(ctx context.Context, id string) (tone.Response, error) {
			require.Equal(t, "abc", id)
			return tone.Response{}, apperrors.Wrap(apperrors.CodeNotFound, "analysis not found", nil)
		},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/analyses/abc", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, apperrors.CodeNotFound, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_ReplayAnalysis(t *testing.T) {
	svc := &stubToneService{
		replayFn: func(ctx context.Context, id string) (tone.Response, error) {
			return tone.Response{ID: id, SentenceTones: []tone.SentenceTone{}}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/analyses/abc/replay", "", newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got tone.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "abc", got.ID)
}

func TestRouter_TrendingTones(t *testing.T) {
	svc := &stubToneService{
		trendingFn: func(ctx context.Context, limit int) ([]tone.TrendingTone, error) {
			require.Equal(t, 3, limit)
			return []tone.TrendingTone{{CategoryID: "emotion_tone", ToneID: "joy", Count: 7}}, nil
		},
	}
	server := newRouterUnderTest(t, svc, config.RateLimitConfig{})

	recorder := performRequest(http.MethodGet, "/api/v1/tones/trending?limit=3", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Tones []tone.TrendingTone `json:"tones"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, int64(7), body.Tones[0].Count)

	recorder = performRequest(http.MethodGet, "/api/v1/tones/trending?limit=abc", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	svc := &stubToneService{}
	server := newRouterUnderTest(t, svc, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1})

	first := performRequest(http.MethodGet, "/api/v1/tone?text=a", "", server)
	require.Equal(t, http.StatusOK, first.Code)

	second := performRequest(http.MethodGet, "/api/v1/tone?text=a", "", server)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])

	health := performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, health.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	recorder := performRequest(http.MethodOptions, "/api/v1/tone", "", newRouterUnderTest(t, &stubToneService{}, config.RateLimitConfig{}))
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestIPRateLimiterRefills(t *testing.T) {
	now := time.Date(2016, 2, 11, 0, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1}, func() time.Time { return now })

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc tone.Service, rateLimit config.RateLimitConfig) *http.Server {
	t.Helper()
	handler := NewHandler(svc, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RateLimit:    rateLimit,
		},
	}
	return NewRouter(cfg, handler)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubToneService struct {
	analyzeFn  func(ctx context.Context, req tone.Request) (tone.Response, error)
	getFn      func(ctx context.Context, id string) (tone.Response, error)
	replayFn   func(ctx context.Context, id string) (tone.Response, error)
	trendingFn func(ctx context.Context, limit int) ([]tone.TrendingTone, error)
}

func (s *stubToneService) Analyze(ctx context.Context, req tone.Request) (tone.Response, error) {
	if s.analyzeFn != nil {
		return s.analyzeFn(ctx, req)
	}
	return tone.Response{}, nil
}

func (s *stubToneService) Get(ctx context.Context, id string) (tone.Response, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return tone.Response{}, nil
}

func (s *stubToneService) Replay(ctx context.Context, id string) (tone.Response, error) {
	if s.replayFn != nil {
		return s.replayFn(ctx, id)
	}
	return tone.Response{}, nil
}

func (s *stubToneService) Trending(ctx context.Context, limit int) ([]tone.TrendingTone, error) {
	if s.trendingFn != nil {
		return s.trendingFn(ctx, limit)
	}
	return []tone.TrendingTone{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestCORSAllowList(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{AllowedOrigins: []string{"https://app.example.com"}}}
	server := NewRouter(cfg, NewHandler(&stubToneService{}, newTestLogger()))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tone", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://APP.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
