package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	apperrors "github.com/yanqian/tone-analyzer/pkg/errors"
)

const transportFailureMessage = "tone analyzer service is unavailable"

// Handler wires the HTTP transport to the tone service.
type Handler struct {
	toneSvc tone.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(toneSvc tone.Service, logger *slog.Logger) *Handler {
	return &Handler{
		toneSvc: toneSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

// AnalyzeQuery handles GET /tone?text=...
func (h *Handler) AnalyzeQuery(c *gin.Context) {
	var req tone.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.analyze(c, req)
}

// Analyze handles POST /tone with a JSON body.
func (h *Handler) Analyze(c *gin.Context) {
	var req tone.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.analyze(c, req)
}

func (h *Handler) analyze(c *gin.Context, req tone.Request) {
	resp, err := h.toneSvc.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, domainError(err, "tone_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnalysis returns a stored analysis.
func (h *Handler) GetAnalysis(c *gin.Context) {
	resp, err := h.toneSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, domainError(err, "history_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReplayAnalysis decodes the archived payload of an analysis again.
func (h *Handler) ReplayAnalysis(c *gin.Context) {
	resp, err := h.toneSvc.Replay(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, domainError(err, "replay_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TrendingTones returns the most frequent dominant tones.
func (h *Handler) TrendingTones(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}
	items, err := h.toneSvc.Trending(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, domainError(err, "trending_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tones": items})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// domainError maps tone domain failures onto HTTP statuses.
func domainError(err error, fallback string) *HTTPError {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeInvalidInput:
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.CodeNotFound:
		return NewHTTPError(http.StatusNotFound, code, errMessage(err), err)
	case apperrors.CodeTransport:
		// The cause can hold the upstream url and with it the analyzed text.
		return NewHTTPError(http.StatusBadGateway, code, transportFailureMessage, err)
	case apperrors.CodeParse, apperrors.CodeMalformedResponse:
		return NewHTTPError(http.StatusBadGateway, code, errMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
