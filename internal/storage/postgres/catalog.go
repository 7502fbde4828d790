package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/loft-be/internal/models"
)

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, mapError(rows.Err())
}

const categoryColumns = `id, name, description, type, created_at, updated_at`

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	return collect(rows, err, scanCategory)
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (models.Category, error) {
	return scanCategory(s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	return scanCategory(s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, description, type) VALUES ($1, $2, $3)
		RETURNING `+categoryColumns, c.Name, c.Description, c.Type))
}

func (s *Store) UpdateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	return scanCategory(s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, description = $3, type = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns, c.ID, c.Name, c.Description, c.Type))
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id))
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Category{}, mapError(err)
	}
	return c, nil
}

const zoneAreaColumns = `id, name, created_at, updated_at`

func (s *Store) ListZoneAreas(ctx context.Context) ([]models.ZoneArea, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+zoneAreaColumns+` FROM zone_areas ORDER BY name ASC`)
	return collect(rows, err, scanZoneArea)
}

func (s *Store) GetZoneArea(ctx context.Context, id uuid.UUID) (models.ZoneArea, error) {
	return scanZoneArea(s.pool.QueryRow(ctx, `SELECT `+zoneAreaColumns+` FROM zone_areas WHERE id = $1`, id))
}

func (s *Store) CreateZoneArea(ctx context.Context, z models.ZoneArea) (models.ZoneArea, error) {
	return scanZoneArea(s.pool.QueryRow(ctx, `INSERT INTO zone_areas (name) VALUES ($1) RETURNING `+zoneAreaColumns, z.Name))
}

func (s *Store) UpdateZoneArea(ctx context.Context, z models.ZoneArea) (models.ZoneArea, error) {
	return scanZoneArea(s.pool.QueryRow(ctx, `
		UPDATE zone_areas SET name = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+zoneAreaColumns, z.ID, z.Name))
}

func (s *Store) DeleteZoneArea(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM zone_areas WHERE id = $1`, id))
}

func scanZoneArea(row pgx.Row) (models.ZoneArea, error) {
	var z models.ZoneArea
	if err := row.Scan(&z.ID, &z.Name, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return models.ZoneArea{}, mapError(err)
	}
	return z, nil
}
