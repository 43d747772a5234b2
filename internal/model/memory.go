package model

import (
	"encoding/json"
	"time"
)

// AgentMemory is a keyed JSON memory item the tutoring agent persists per
// user, e.g. generated-case history or recurring weak topics.
type AgentMemory struct {
	ID        int             `json:"id"`
	UserID    int             `json:"-"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StoreMemoryRequest is the payload for upserting a memory item.
type StoreMemoryRequest struct {
	Key      string          `json:"key" binding:"required,max=255"`
	Value    json.RawMessage `json:"value" binding:"required"`
	Category string          `json:"category" binding:"omitempty,max=50"`
}
