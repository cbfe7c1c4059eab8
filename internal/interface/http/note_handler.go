package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinscribe/intake/internal/domain/notes"
	apperrors "github.com/clinscribe/intake/pkg/errors"
)

// UploadNote handles multipart note upload and enqueues background processing.
func (h *Handler) UploadNote(c *gin.Context) {
	if h.notesSvc == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "notes_disabled", "note service unavailable", nil))
		return
	}
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err))
		return
	}
	req := notes.UploadRequest{
		Filename: fileHeader.Filename,
		Title:    c.PostForm("title"),
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  data,
	}
	resp, err := h.notesSvc.Upload(c.Request.Context(), claims.ClinicianID, req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "upload_failed"
		switch {
		case apperrors.IsCode(err, apperrors.CodeInvalidInput):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, apperrors.CodeUnauthorized):
			status = http.StatusUnauthorized
			code = "unauthorized"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetNote returns a single note's metadata.
func (h *Handler) GetNote(c *gin.Context) {
	if h.notesSvc == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "notes_disabled", "note service unavailable", nil))
		return
	}
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid note id", err))
		return
	}
	note, err := h.notesSvc.Get(c.Request.Context(), claims.ClinicianID, id)
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
	c.JSON(http.StatusOK, note)
}

// ListNotes returns the clinician's uploaded notes.
func (h *Handler) ListNotes(c *gin.Context) {
	if h.notesSvc == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "notes_disabled", "note service unavailable", nil))
		return
	}
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	items, err := h.notesSvc.List(c.Request.Context(), claims.ClinicianID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fetch_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
