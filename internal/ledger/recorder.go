package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/metrics"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

// ErrTransactionNotFound is returned when a transaction id does not exist.
var ErrTransactionNotFound = errors.New("transaction not found")

// Recorder writes transactions and snapshots their conversion into the default currency.
type Recorder struct {
	store   storage.TransactionStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewRecorder creates a Recorder. m may be nil.
func NewRecorder(store storage.TransactionStore, log *zap.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, log: log, metrics: m}
}

// Create validates in, snapshots the conversion and inserts the transaction.
func (r *Recorder) Create(ctx context.Context, in models.TransactionInput) (uuid.UUID, error) {
	t, err := in.Transaction()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = r.store.WithLedgerTx(ctx, func(q storage.LedgerQueries) error {
		r.snapshot(ctx, q, &t)
		var err error
		id, err = q.InsertTransaction(ctx, t)
		return err
	})
	if err != nil {
		return uuid.Nil, transactionError("create transaction", err)
	}
	r.metrics.TransactionRecorded(t.RatioAtTransaction.Valid)
	return id, nil
}

// Update validates in and rewrites transaction id, taking a fresh snapshot.
func (r *Recorder) Update(ctx context.Context, id uuid.UUID, in models.TransactionInput) (uuid.UUID, error) {
	t, err := in.Transaction()
	if err != nil {
		return uuid.Nil, err
	}
	t.ID = id

	err = r.store.WithLedgerTx(ctx, func(q storage.LedgerQueries) error {
		r.snapshot(ctx, q, &t)
		return q.UpdateTransaction(ctx, t)
	})
	if err != nil {
		return uuid.Nil, transactionError("update transaction", err)
	}
	r.metrics.TransactionRecorded(t.RatioAtTransaction.Valid)
	return id, nil
}

// snapshot fills the conversion fields of t. Resolution failures leave both fields null
// and never abort the save.
func (r *Recorder) snapshot(ctx context.Context, q storage.LedgerQueries, t *models.Transaction) {
	t.RatioAtTransaction = decimal.NullDecimal{}
	t.EquivalentAmountDefaultCurrency = decimal.NullDecimal{}
	if t.CurrencyID == nil {
		return
	}
	log := logger.FromContext(ctx).With(zap.String("currency_id", t.CurrencyID.String()))

	selected, err := q.GetCurrency(ctx, *t.CurrencyID)
	if err != nil {
		log.Warn("conversion skipped: selected currency unresolved", zap.Error(err))
		return
	}
	def, err := q.GetDefaultCurrency(ctx)
	if err != nil {
		log.Warn("conversion skipped: default currency unresolved", zap.Error(err))
		return
	}
	snap, ok := Convert(t.Amount, selected, def)
	if !ok {
		log.Warn("conversion skipped: non-positive ratio",
			zap.String("selected_ratio", selected.Ratio.String()),
			zap.String("default_ratio", def.Ratio.String()))
		return
	}
	t.RatioAtTransaction = decimal.NewNullDecimal(snap.Ratio)
	t.EquivalentAmountDefaultCurrency = decimal.NewNullDecimal(snap.Equivalent)
}

// Get returns one transaction with its stored snapshot.
func (r *Recorder) Get(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	t, err := r.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, transactionError("get transaction", err)
	}
	return t, nil
}

// List returns transactions matching filter, newest first.
func (r *Recorder) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	out, err := r.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// Delete hard-deletes transaction id.
func (r *Recorder) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.DeleteTransaction(ctx, id); err != nil {
		return transactionError("delete transaction", err)
	}
	return nil
}

func transactionError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
