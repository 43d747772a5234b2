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

// MemoryHandler handles the keyed agent memory endpoints.
type MemoryHandler struct {
	memoryService *service.MemoryService
}

// NewMemoryHandler creates a new MemoryHandler.
func NewMemoryHandler(memoryService *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService}
}

// StoreMemory godoc
// POST /api/v1/memory
// Upserts a memory item by key.
func (h *MemoryHandler) StoreMemory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StoreMemoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	memory, err := h.memoryService.Store(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"memory": memory})
}

// GetMemory godoc
// GET /api/v1/memory/:key
func (h *MemoryHandler) GetMemory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	memory, err := h.memoryService.Get(c.Request.Context(), claims.UserID, c.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrMemoryNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"memory": memory})
}

// ListMemories godoc
// GET /api/v1/memory?category=...
func (h *MemoryHandler) ListMemories(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	memories, err := h.memoryService.List(c.Request.Context(), claims.UserID, c.Query("category"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"memories": memories})
}

// DeleteMemory godoc
// DELETE /api/v1/memory/:key
func (h *MemoryHandler) DeleteMemory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.memoryService.Delete(c.Request.Context(), claims.UserID, c.Param("key")); err != nil {
		if errors.Is(err, service.ErrMemoryNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
