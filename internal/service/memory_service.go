package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
)

// ErrMemoryNotFound indicates a missing memory key.
var ErrMemoryNotFound = errors.New("memory item not found")

// MemoryService stores keyed JSON memory per user.
type MemoryService struct {
	memories *repository.MemoryRepository
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(memories *repository.MemoryRepository) *MemoryService {
	return &MemoryService{memories: memories}
}

// Store upserts a memory item.
func (s *MemoryService) Store(ctx context.Context, userID int, req *model.StoreMemoryRequest) (*model.AgentMemory, error) {
	m := &model.AgentMemory{
		UserID:   userID,
		Key:      req.Key,
		Value:    req.Value,
		Category: req.Category,
	}
	if err := s.memories.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get retrieves a memory item by key.
func (s *MemoryService) Get(ctx context.Context, userID int, key string) (*model.AgentMemory, error) {
	m, err := s.memories.Get(ctx, userID, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemoryNotFound
		}
		return nil, err
	}
	return m, nil
}

// List retrieves a user's memory items, optionally filtered by category.
func (s *MemoryService) List(ctx context.Context, userID int, category string) ([]model.AgentMemory, error) {
	return s.memories.List(ctx, userID, category)
}

// Delete removes a memory item by key.
func (s *MemoryService) Delete(ctx context.Context, userID int, key string) error {
	n, err := s.memories.Delete(ctx, userID, key)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemoryNotFound
	}
	return nil
}
