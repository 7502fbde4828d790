package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/loft-be/internal/models"
)

const ownerColumns = `id, name, email, phone, address, ownership_type, created_at, updated_at`

func (s *Store) ListOwners(ctx context.Context) ([]models.Owner, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+ownerColumns+` FROM loft_owners ORDER BY name`)
	return collect(rows, err, scanOwner)
}

func (s *Store) GetOwner(ctx context.Context, id uuid.UUID) (models.Owner, error) {
	return scanOwner(s.pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM loft_owners WHERE id = $1`, id))
}

func (s *Store) CreateOwner(ctx context.Context, o models.Owner) (models.Owner, error) {
	return scanOwner(s.pool.QueryRow(ctx, `
		INSERT INTO loft_owners (name, email, phone, address, ownership_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+ownerColumns, o.Name, o.Email, o.Phone, o.Address, o.OwnershipType))
}

func (s *Store) UpdateOwner(ctx context.Context, o models.Owner) (models.Owner, error) {
	return scanOwner(s.pool.QueryRow(ctx, `
		UPDATE loft_owners
		SET name = $2, email = $3, phone = $4, address = $5, ownership_type = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ownerColumns, o.ID, o.Name, o.Email, o.Phone, o.Address, o.OwnershipType))
}

// DeleteOwner removes an owner. Owners that still hold lofts yield storage.ErrConflict.
func (s *Store) DeleteOwner(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM loft_owners WHERE id = $1`, id))
}

func scanOwner(row pgx.Row) (models.Owner, error) {
	var o models.Owner
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.OwnershipType, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return models.Owner{}, mapError(err)
	}
	return o, nil
}

const loftSelect = `
	SELECT l.id, l.name, l.description, l.address, l.price_per_month, l.status, l.owner_id, o.name,
		l.company_percentage, l.owner_percentage, l.zone_area_id, z.name, l.created_at, l.updated_at
	FROM lofts l
	LEFT JOIN loft_owners o ON o.id = l.owner_id
	LEFT JOIN zone_areas z ON z.id = l.zone_area_id`

func (s *Store) ListLofts(ctx context.Context) ([]models.Loft, error) {
	rows, err := s.pool.Query(ctx, loftSelect+` ORDER BY l.name`)
	return collect(rows, err, scanLoft)
}

func (s *Store) GetLoft(ctx context.Context, id uuid.UUID) (models.Loft, error) {
	return scanLoft(s.pool.QueryRow(ctx, loftSelect+` WHERE l.id = $1`, id))
}

func (s *Store) CreateLoft(ctx context.Context, l models.Loft) (models.Loft, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO lofts (name, description, address, price_per_month, status, owner_id,
			company_percentage, owner_percentage, zone_area_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		l.Name, l.Description, l.Address, l.PricePerMonth, l.Status, l.OwnerID,
		l.CompanyPercentage, l.OwnerPercentage, l.ZoneAreaID,
	).Scan(&id)
	if err != nil {
		return models.Loft{}, mapError(err)
	}
	return s.GetLoft(ctx, id)
}

func (s *Store) UpdateLoft(ctx context.Context, l models.Loft) (models.Loft, error) {
	err := expectRow(s.pool.Exec(ctx, `
		UPDATE lofts SET
			name = $2, description = $3, address = $4, price_per_month = $5, status = $6, owner_id = $7,
			company_percentage = $8, owner_percentage = $9, zone_area_id = $10, updated_at = NOW()
		WHERE id = $1`,
		l.ID, l.Name, l.Description, l.Address, l.PricePerMonth, l.Status, l.OwnerID,
		l.CompanyPercentage, l.OwnerPercentage, l.ZoneAreaID,
	))
	if err != nil {
		return models.Loft{}, err
	}
	return s.GetLoft(ctx, l.ID)
}

func (s *Store) DeleteLoft(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM lofts WHERE id = $1`, id))
}

func scanLoft(row pgx.Row) (models.Loft, error) {
	var l models.Loft
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Address, &l.PricePerMonth, &l.Status, &l.OwnerID, &l.OwnerName,
		&l.CompanyPercentage, &l.OwnerPercentage, &l.ZoneAreaID, &l.ZoneAreaName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return models.Loft{}, mapError(err)
	}
	return l, nil
}
