package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/validator"
)

// HighlightHandler handles saved vignette highlights.
type HighlightHandler struct {
	highlights *repository.HighlightRepository
}

// NewHighlightHandler creates a new HighlightHandler.
func NewHighlightHandler(highlights *repository.HighlightRepository) *HighlightHandler {
	return &HighlightHandler{highlights: highlights}
}

// SaveHighlight godoc
// POST /api/v1/highlights
// Upserts a highlight; client-generated IDs make repeated saves idempotent.
func (h *HighlightHandler) SaveHighlight(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateHighlightRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	highlight := &model.Highlight{
		ID:          req.ID,
		UserID:      claims.UserID,
		CaseStudyID: req.CaseStudyID,
		StartIndex:  req.StartIndex,
		EndIndex:    req.EndIndex,
		Text:        req.Text,
	}
	if err := h.highlights.Upsert(c.Request.Context(), highlight); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"highlight": highlight})
}

// ListHighlights godoc
// GET /api/v1/highlights?case_id=...
// Returns the user's highlights for one case in document order.
func (h *HighlightHandler) ListHighlights(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	caseID := c.Query("case_id")
	if caseID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	highlights, err := h.highlights.ListByCase(c.Request.Context(), claims.UserID, caseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"highlights": highlights})
}

// DeleteHighlight godoc
// DELETE /api/v1/highlights/:highlight_id
// Removes a highlight owned by the user.
func (h *HighlightHandler) DeleteHighlight(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	n, err := h.highlights.Delete(c.Request.Context(), claims.UserID, c.Param("highlight_id"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if n == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
