package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

const transactionColumns = `t.id, t.amount, t.transaction_type, t.status, t.description, t.date, t.category,
	t.currency_id, t.loft_id, t.ratio_at_transaction, t.equivalent_amount_default_currency, c.symbol,
	t.created_at, t.updated_at`

// ledgerTx runs ledger queries on one open transaction. Currency reads take share locks so a
// concurrent default switch waits until the snapshot has been written.
type ledgerTx struct {
	tx pgx.Tx
}

var _ storage.LedgerQueries = ledgerTx{}

// ledgerTxAttempts bounds reruns of a ledger transaction chosen as a deadlock victim.
const ledgerTxAttempts = 3

// WithLedgerTx runs fn inside one database transaction. The share locks it takes can deadlock
// against SetDefaultCurrency, which locks every currency row; the losing transaction is rerun.
func (s *Store) WithLedgerTx(ctx context.Context, fn func(storage.LedgerQueries) error) error {
	attempt := 0
	return retry(ctx, ledgerTxAttempts, func() error {
		attempt++
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			return fn(ledgerTx{tx: tx})
		})
		if isRetryable(err) {
			s.log.Warn("ledger transaction aborted", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
}

func (l ledgerTx) GetCurrency(ctx context.Context, id uuid.UUID) (models.Currency, error) {
	return getCurrency(ctx, l.tx, id, true)
}

// GetDefaultCurrency reads the default under a share lock. A lookup that waited on a concurrent
// default switch re-checks the old row and finds nothing, so one fresh read follows.
func (l ledgerTx) GetDefaultCurrency(ctx context.Context) (models.Currency, error) {
	c, err := getDefaultCurrency(ctx, l.tx, true)
	if errors.Is(err, storage.ErrNotFound) {
		return getDefaultCurrency(ctx, l.tx, true)
	}
	return c, err
}

func (l ledgerTx) InsertTransaction(ctx context.Context, t models.Transaction) (uuid.UUID, error) {
	var id uuid.UUID
	err := l.tx.QueryRow(ctx, `
		INSERT INTO transactions (
			amount, transaction_type, status, description, date, category,
			currency_id, loft_id, ratio_at_transaction, equivalent_amount_default_currency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		t.Amount, t.Type, t.Status, t.Description, t.Date, t.Category,
		t.CurrencyID, t.LoftID, t.RatioAtTransaction, t.EquivalentAmountDefaultCurrency,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, mapError(err)
	}
	return id, nil
}

func (l ledgerTx) UpdateTransaction(ctx context.Context, t models.Transaction) error {
	return expectRow(l.tx.Exec(ctx, `
		UPDATE transactions SET
			amount = $2, transaction_type = $3, status = $4, description = $5, date = $6, category = $7,
			currency_id = $8, loft_id = $9, ratio_at_transaction = $10, equivalent_amount_default_currency = $11,
			updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Amount, t.Type, t.Status, t.Description, t.Date, t.Category,
		t.CurrencyID, t.LoftID, t.RatioAtTransaction, t.EquivalentAmountDefaultCurrency,
	))
}

// GetTransaction fetches one transaction with its currency symbol.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN currencies c ON c.id = t.currency_id
		WHERE t.id = $1`, id)
	return scanTransaction(row)
}

// ListTransactions returns transactions matching filter, newest first.
func (s *Store) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Type != "" {
		add("t.transaction_type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("t.status = $%d", filter.Status)
	}
	if filter.LoftID != nil {
		add("t.loft_id = $%d", *filter.LoftID)
	}
	if filter.CurrencyID != nil {
		add("t.currency_id = $%d", *filter.CurrencyID)
	}
	if !filter.From.IsZero() {
		add("t.date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("t.date <= $%d", filter.To)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions t LEFT JOIN currencies c ON c.id = t.currency_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, mapError(rows.Err())
}

// DeleteTransaction hard-deletes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return expectRow(s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id))
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.Amount, &t.Type, &t.Status, &t.Description, &t.Date, &t.Category,
		&t.CurrencyID, &t.LoftID, &t.RatioAtTransaction, &t.EquivalentAmountDefaultCurrency, &t.CurrencySymbol,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	return t, nil
}
