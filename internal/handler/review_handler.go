package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/service"
	"github.com/notcelab/notce-backend/internal/validator"
)

// ReviewHandler handles case answer grading and the AI review surfaces.
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// RecordAnswer godoc
// POST /api/v1/answers
// Grades a case question answer against the stored key and archives it.
func (h *ReviewHandler) RecordAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	review, err := h.reviewService.RecordAnswer(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"review": review})
}

// GetRationale godoc
// POST /api/v1/answers/rationale
// Returns an evolving tip for a linked question, conditioned on the
// learner's result on the preceding ones.
func (h *ReviewHandler) GetRationale(c *gin.Context) {
	var req model.RationaleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tip, err := h.reviewService.Rationale(c.Request.Context(), &req)
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rationale": tip})
}

// EvidenceLink godoc
// POST /api/v1/answers/evidence-link
// Compares learner vignette highlights against expert clinical indicators
// and scores the overlap.
func (h *ReviewHandler) EvidenceLink(c *gin.Context) {
	var req model.EvidenceLinkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.reviewService.EvidenceLink(c.Request.Context(), &req)
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
