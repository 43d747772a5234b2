package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/service"
	"github.com/notcelab/notce-backend/internal/validator"
)

// CaseHandler handles the case study library endpoints.
type CaseHandler struct {
	caseService *service.CaseService
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(caseService *service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// failCaseError translates case service sentinels to HTTP responses.
func failCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidDomain):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrGenerationFailed):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListCases godoc
// GET /api/v1/cases
// Returns case summaries without question bodies.
func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.caseService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cases": cases})
}

// GetCase godoc
// GET /api/v1/cases/:case_id
// Returns the full case with its questions.
func (h *CaseHandler) GetCase(c *gin.Context) {
	cs, err := h.caseService.Get(c.Request.Context(), c.Param("case_id"))
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// GenerateCase godoc
// POST /api/v1/cases/generate
// Synchronously generates a new case study and adds it to the library.
func (h *CaseHandler) GenerateCase(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GenerateCaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cs, err := h.caseService.Generate(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"case": cs})
}

// PrefetchCase godoc
// POST /api/v1/cases/prefetch
// Queues background generation to top up the library.
func (h *CaseHandler) PrefetchCase(c *gin.Context) {
	var req model.GenerateCaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.caseService.Prefetch(c.Request.Context(), &req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// SaveCaseProgress godoc
// POST /api/v1/case-sessions
// Upserts the user's position inside a case for resume.
func (h *CaseHandler) SaveCaseProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveCaseProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.caseService.SaveProgress(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failCaseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// ResumeCase godoc
// GET /api/v1/case-sessions?case_id=...
// Returns saved progress for a case, or the latest unfinished case when no
// case_id is given. Data is null when there is nothing to resume.
func (h *CaseHandler) ResumeCase(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	progress, err := h.caseService.Resume(c.Request.Context(), claims.UserID, c.Query("case_id"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if progress == nil {
		response.Success(c, http.StatusOK, gin.H{"progress": nil})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}
