package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// MemoryRepository stores keyed agent memory items per user.
type MemoryRepository struct {
	pool *pgxpool.Pool
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(pool *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{pool: pool}
}

// Upsert saves a memory item keyed by (user, key).
func (r *MemoryRepository) Upsert(ctx context.Context, m *model.AgentMemory) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO agent_memories (user_id, key, value, category)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, key)
		 DO UPDATE SET value = EXCLUDED.value,
		               category = EXCLUDED.category,
		               updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		m.UserID, m.Key, m.Value, m.Category,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// Get retrieves a memory item by key.
func (r *MemoryRepository) Get(ctx context.Context, userID int, key string) (*model.AgentMemory, error) {
	m := &model.AgentMemory{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, key, value, category, created_at, updated_at
		 FROM agent_memories
		 WHERE user_id = $1 AND key = $2`, userID, key,
	).Scan(&m.ID, &m.UserID, &m.Key, &m.Value, &m.Category, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves a user's memory items, optionally filtered by category.
func (r *MemoryRepository) List(ctx context.Context, userID int, category string) ([]model.AgentMemory, error) {
	query := `SELECT id, user_id, key, value, category, created_at, updated_at
	          FROM agent_memories
	          WHERE user_id = $1`
	args := []any{userID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.AgentMemory
	for rows.Next() {
		var m model.AgentMemory
		if err := rows.Scan(&m.ID, &m.UserID, &m.Key, &m.Value, &m.Category,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Delete removes a memory item by key.
func (r *MemoryRepository) Delete(ctx context.Context, userID int, key string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM agent_memories WHERE user_id = $1 AND key = $2`, userID, key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
