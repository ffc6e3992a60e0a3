package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/channel-attribution/internal/domain"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

const subChannelColumns = `
	id, parent_channel_id, name, utm_source, utm_medium, matching_type,
	override_warnings, created_at, updated_at`

// SubChannelRepo implements subchannel.Repository against PostgreSQL.
type SubChannelRepo struct{ db *sql.DB }

// NewSubChannelRepo creates a Postgres-backed sub-channel repository.
func NewSubChannelRepo(db *sql.DB) *SubChannelRepo { return &SubChannelRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubChannel(row rowScanner) (domain.SubChannel, error) {
	var sc domain.SubChannel
	err := row.Scan(
		&sc.ID, &sc.ParentChannelID, &sc.Name, &sc.UTMSource, &sc.UTMMedium,
		&sc.MatchingType, &sc.OverrideWarnings, &sc.CreatedAt, &sc.UpdatedAt,
	)
	return sc, err
}

func (r *SubChannelRepo) Get(ctx context.Context, id string) (*domain.SubChannel, error) {
	sc, err := scanSubChannel(r.db.QueryRowContext(ctx,
		`SELECT`+subChannelColumns+` FROM sub_channels WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, subchannel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sub-channel: %w", err)
	}
	return &sc, nil
}

func (r *SubChannelRepo) ListByParent(ctx context.Context, parentChannelID string) ([]domain.SubChannel, error) {
	return r.list(ctx, `
		SELECT`+subChannelColumns+`
		FROM sub_channels
		WHERE parent_channel_id = $1
		ORDER BY created_at, id`, parentChannelID)
}

// ListBySource matches on LOWER(TRIM(utm_source)) so idx_sub_channels_source
// serves the lookup.
func (r *SubChannelRepo) ListBySource(ctx context.Context, source string) ([]domain.SubChannel, error) {
	return r.list(ctx, `
		SELECT`+subChannelColumns+`
		FROM sub_channels
		WHERE LOWER(TRIM(utm_source)) = $1
		ORDER BY created_at, id`, source)
}

func (r *SubChannelRepo) list(ctx context.Context, q string, args ...any) ([]domain.SubChannel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sub-channels: %w", err)
	}
	defer rows.Close()

	out := []domain.SubChannel{}
	for rows.Next() {
		sc, err := scanSubChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub-channel: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sub-channels: %w", err)
	}
	return out, nil
}

func (r *SubChannelRepo) Create(ctx context.Context, sc *domain.SubChannel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sub_channels
			(id, parent_channel_id, name, utm_source, utm_medium, matching_type,
			 override_warnings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sc.ID, sc.ParentChannelID, sc.Name, sc.UTMSource, sc.UTMMedium,
		string(sc.MatchingType), sc.OverrideWarnings, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sub-channel: %w", err)
	}
	return nil
}

func (r *SubChannelRepo) Update(ctx context.Context, sc *domain.SubChannel) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sub_channels
		SET name = $2, utm_source = $3, utm_medium = $4, matching_type = $5,
		    override_warnings = $6, updated_at = $7
		WHERE id = $1
	`, sc.ID, sc.Name, sc.UTMSource, sc.UTMMedium, string(sc.MatchingType),
		sc.OverrideWarnings, sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sub-channel: %w", err)
	}
	return affectedOne(res, subchannel.ErrNotFound)
}

func (r *SubChannelRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sub_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sub-channel: %w", err)
	}
	return affectedOne(res, subchannel.ErrNotFound)
}

func affectedOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
