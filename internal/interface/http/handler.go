package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clinscribe/intake/internal/domain/auth"
	"github.com/clinscribe/intake/internal/domain/intake"
	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/internal/domain/notes"
	apperrors "github.com/clinscribe/intake/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	pipeline          *normalizer.Pipeline
	intakeSvc         intake.Service
	notesSvc          *notes.Service
	authSvc           auth.Service
	postLoginRedirect string
	logger            *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(pipeline *normalizer.Pipeline, intakeSvc intake.Service, notesSvc *notes.Service, authSvc auth.Service, postLoginRedirect string, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:          pipeline,
		intakeSvc:         intakeSvc,
		notesSvc:          notesSvc,
		authSvc:           authSvc,
		postLoginRedirect: postLoginRedirect,
		logger:            logger.With("component", "http.handler"),
	}
}

type normalizePayload struct {
	Text string `json:"text"`
}

// NormalizeText runs the normalization pipeline without persisting anything.
func (h *Handler) NormalizeText(c *gin.Context) {
	var req normalizePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result := h.pipeline.Normalize(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, result)
}

// SubmitComplaint normalizes a complaint and records it for the clinic.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req intake.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.intakeSvc.Submit(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "intake_failed"
		if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetComplaint returns a stored complaint by id.
func (h *Handler) GetComplaint(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid complaint id", err))
		return
	}

	complaint, err := h.intakeSvc.Get(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		code := "fetch_failed"
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			status = http.StatusNotFound
			code = "not_found"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, complaint)
}

// ListComplaints returns the most recent complaints.
func (h *Handler) ListComplaints(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid limit", err))
			return
		}
		limit = parsed
	}

	complaints, err := h.intakeSvc.List(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fetch_failed", errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": complaints})
}

// TrendingComplaints returns the most frequently seen complaint phrasings.
func (h *Handler) TrendingComplaints(c *gin.Context) {
	terms, err := h.intakeSvc.Trending(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fetch_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"terms": terms})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
