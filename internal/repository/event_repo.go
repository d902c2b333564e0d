package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"ai-garden/internal/domain"
)

// EventRepository define el contrato de persistencia para eventos de
// analitica.
type EventRepository interface {
	Create(ctx context.Context, event domain.Event) error
}

// PgEventRepository implementa EventRepository usando pgxpool; event_data se
// guarda como jsonb.
type PgEventRepository struct {
	pool *pgxpool.Pool
}

func NewPgEventRepository(pool *pgxpool.Pool) *PgEventRepository {
	return &PgEventRepository{pool: pool}
}

func (r *PgEventRepository) Create(ctx context.Context, event domain.Event) error {
	const query = `
		INSERT INTO events (id, user_id, event_type, event_data, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var userID interface{}
	if event.UserID != "" {
		userID = event.UserID
	}
	var data []byte
	if event.EventData != nil {
		var err error
		data, err = json.Marshal(event.EventData)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		userID,
		event.EventType,
		data,
		event.IPAddress,
		event.UserAgent,
		event.CreatedAt,
	)
	return err
}
