package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

const currencyColumns = `id, code, name, symbol, decimal_digits, ratio, is_default, created_at, updated_at`

// ListCurrencies returns every currency, default first.
func (s *Store) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY is_default DESC, code`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err())
}

// GetCurrency fetches a currency by id.
func (s *Store) GetCurrency(ctx context.Context, id uuid.UUID) (models.Currency, error) {
	return getCurrency(ctx, s.pool, id, false)
}

// CreateCurrency inserts a currency. When it is flagged default the previous default is
// cleared in the same transaction.
func (s *Store) CreateCurrency(ctx context.Context, c models.Currency) (models.Currency, error) {
	var created models.Currency
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if c.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE currencies SET is_default = FALSE, updated_at = NOW() WHERE is_default`); err != nil {
				return mapError(err)
			}
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO currencies (code, name, symbol, decimal_digits, ratio, is_default)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+currencyColumns, c.Code, c.Name, c.Symbol, c.DecimalDigits, c.Ratio, c.IsDefault)
		var err error
		created, err = scanCurrency(row)
		return err
	})
	return created, err
}

// UpdateCurrency overwrites every writable field of a currency.
func (s *Store) UpdateCurrency(ctx context.Context, c models.Currency) (models.Currency, error) {
	var updated models.Currency
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if c.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE currencies SET is_default = FALSE, updated_at = NOW() WHERE is_default AND id <> $1`, c.ID); err != nil {
				return mapError(err)
			}
		}
		row := tx.QueryRow(ctx, `
			UPDATE currencies
			SET code = $2, name = $3, symbol = $4, decimal_digits = $5, ratio = $6, is_default = $7, updated_at = NOW()
			WHERE id = $1
			RETURNING `+currencyColumns, c.ID, c.Code, c.Name, c.Symbol, c.DecimalDigits, c.Ratio, c.IsDefault)
		var err error
		updated, err = scanCurrency(row)
		return err
	})
	return updated, err
}

// DeleteCurrency removes a currency. Currencies referenced by transactions yield storage.ErrConflict.
func (s *Store) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM currencies WHERE id = $1`, id))
}

// SetDefaultCurrency moves the default flag in a single statement, so readers see either the
// old default or the new one and never zero or two. An unknown id touches nothing.
// It can be picked as a deadlock victim against WithLedgerTx and is then rerun.
func (s *Store) SetDefaultCurrency(ctx context.Context, id uuid.UUID) error {
	var tag pgconn.CommandTag
	err := retry(ctx, ledgerTxAttempts, func() error {
		var err error
		tag, err = s.pool.Exec(ctx, `
			UPDATE currencies
			SET is_default = (id = $1),
				updated_at = CASE WHEN is_default <> (id = $1) THEN NOW() ELSE updated_at END
			WHERE EXISTS (SELECT 1 FROM currencies WHERE id = $1)`, id)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func getCurrency(ctx context.Context, q querier, id uuid.UUID, lock bool) (models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE id = $1`
	if lock {
		query += ` FOR SHARE`
	}
	return scanCurrency(q.QueryRow(ctx, query, id))
}

func getDefaultCurrency(ctx context.Context, q querier, lock bool) (models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE is_default`
	if lock {
		query += ` FOR SHARE`
	}
	return scanCurrency(q.QueryRow(ctx, query))
}

func scanCurrency(row pgx.Row) (models.Currency, error) {
	var c models.Currency
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.DecimalDigits, &c.Ratio, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Currency{}, mapError(err)
	}
	return c, nil
}
