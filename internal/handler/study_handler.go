package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/service"
	"github.com/notcelab/notce-backend/internal/validator"
)

// StudyHandler handles the practice/exam session lifecycle endpoints.
type StudyHandler struct {
	studyService *service.StudyService
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService *service.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// failStudyError translates study service sentinels to HTTP responses.
// Unknown errors become 500 INTERNAL_ERROR.
func failStudyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusBadRequest, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrNoActiveQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrNoActiveQuestion)
	case errors.Is(err, service.ErrAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrQuestionAlreadyAnswer)
	case errors.Is(err, service.ErrAnswerRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerRequired)
	case errors.Is(err, service.ErrPivotUnavailable):
		response.Fail(c, http.StatusBadRequest, response.ErrPivotUnavailable)
	case errors.Is(err, service.ErrInvalidSessionLength):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSessionLength)
	case errors.Is(err, service.ErrInvalidDomain):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrGenerationFailed):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGenerationFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// sessionID parses the :session_id path param. Responds 400 and returns
// false on malformed input.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// StartSession godoc
// POST /api/v1/study/sessions
// Starts a practice or exam session and returns its first question.
func (h *StudyHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.studyService.Start(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetActiveSession godoc
// GET /api/v1/study/sessions/active
// Returns the resume snapshot for the active session, or null data when
// there is none.
func (h *StudyHandler) GetActiveSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.studyService.GetActive(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if view == nil {
		response.Success(c, http.StatusOK, gin.H{"active_session": nil})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"active_session": view})
}

// SubmitAnswer godoc
// POST /api/v1/study/sessions/:session_id/submit
// Grades the current question. One submission per question.
func (h *StudyHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.studyService.Submit(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// NextQuestion godoc
// POST /api/v1/study/sessions/:session_id/next
// Advances to the next question, or completes the session with its final
// score when the last question has been answered.
func (h *StudyHandler) NextQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.studyService.Next(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// PivotQuestion godoc
// POST /api/v1/study/sessions/:session_id/pivot
// Returns the what-if variant of the answered current question. Practice
// mode only.
func (h *StudyHandler) PivotQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	pivot, err := h.studyService.Pivot(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pivot": pivot})
}

// PrefetchNext godoc
// POST /api/v1/study/sessions/:session_id/prefetch
// Queues background generation of the next question. Returns 202 whether
// or not a job was actually enqueued; "queued" reports which.
func (h *StudyHandler) PrefetchNext(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	queued, err := h.studyService.RequestPrefetch(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": queued})
}

// SaveProgress godoc
// POST /api/v1/study/sessions/:session_id/save
// Best-effort persistence of the highlight state.
func (h *StudyHandler) SaveProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.studyService.SaveProgress(c.Request.Context(), claims.UserID, id, req.Highlights); err != nil {
		failStudyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}
