package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

// ChannelRepo implements subchannel.ChannelRepository against PostgreSQL.
type ChannelRepo struct{ db *sql.DB }

// NewChannelRepo creates a Postgres-backed channel repository.
func NewChannelRepo(db *sql.DB) *ChannelRepo { return &ChannelRepo{db: db} }

func (r *ChannelRepo) Get(ctx context.Context, id string) (*domain.Channel, error) {
	c := &domain.Channel{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, created_at FROM channels WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Kind, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, subchannel.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return c, nil
}

func (r *ChannelRepo) List(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, created_at FROM channels ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	out := []domain.Channel{}
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChannelRepo) Upsert(ctx context.Context, c *domain.Channel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channels (id, name, kind, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, kind = EXCLUDED.kind
	`, c.ID, c.Name, string(c.Kind))
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}
