package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

var (
	ErrDuplicateCode    = errors.New("currency code already exists")
	ErrCurrencyNotFound = errors.New("currency not found")
)

// Ledger manages currencies and the single default currency.
type Ledger struct {
	store storage.CurrencyStore
	log   *zap.Logger
}

// NewLedger creates a Ledger backed by store.
func NewLedger(store storage.CurrencyStore, log *zap.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// List returns every currency, default first.
func (l *Ledger) List(ctx context.Context) ([]models.Currency, error) {
	currencies, err := l.store.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return currencies, nil
}

// Get returns one currency.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (models.Currency, error) {
	c, err := l.store.GetCurrency(ctx, id)
	if err != nil {
		return models.Currency{}, currencyError("get currency", err)
	}
	return c, nil
}

// Create validates in and stores a new currency. When in.IsDefault is set the previous
// default is cleared in the same write.
func (l *Ledger) Create(ctx context.Context, in models.CurrencyInput) (models.Currency, error) {
	c, err := in.Currency()
	if err != nil {
		return models.Currency{}, err
	}
	created, err := l.store.CreateCurrency(ctx, c)
	if err != nil {
		return models.Currency{}, currencyError("create currency", err)
	}
	logger.FromContext(ctx).Info("currency created",
		zap.String("code", created.Code),
		zap.String("ratio", created.Ratio.String()),
		zap.Bool("default", created.IsDefault))
	return created, nil
}

// Update changes only the fields present in in; everything else keeps its stored value.
func (l *Ledger) Update(ctx context.Context, id uuid.UUID, in models.CurrencyInput) (models.Currency, error) {
	existing, err := l.store.GetCurrency(ctx, id)
	if err != nil {
		return models.Currency{}, currencyError("update currency", err)
	}
	c, err := in.Apply(existing)
	if err != nil {
		return models.Currency{}, err
	}
	updated, err := l.store.UpdateCurrency(ctx, c)
	if err != nil {
		return models.Currency{}, currencyError("update currency", err)
	}
	return updated, nil
}

// Delete removes currency id. Currencies still referenced by transactions yield storage.ErrConflict.
func (l *Ledger) Delete(ctx context.Context, id uuid.UUID) error {
	if err := l.store.DeleteCurrency(ctx, id); err != nil {
		return currencyError("delete currency", err)
	}
	return nil
}

// SetDefault makes id the only default currency. An unknown id leaves the current default in place.
func (l *Ledger) SetDefault(ctx context.Context, id uuid.UUID) error {
	if err := l.store.SetDefaultCurrency(ctx, id); err != nil {
		return currencyError("set default currency", err)
	}
	logger.FromContext(ctx).Info("default currency changed", zap.String("currency_id", id.String()))
	return nil
}

func currencyError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrCurrencyNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrDuplicateCode
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Snapshot is the conversion frozen onto a transaction when it is saved.
type Snapshot struct {
	Ratio      decimal.Decimal
	Equivalent decimal.Decimal
}

// Convert expresses amount of the selected currency in the default currency.
// The cross ratio is selected/default rounded to 8 places and the equivalent is
// amount times that ratio rounded to 2 places. ok is false for non-positive ratios.
func Convert(amount decimal.Decimal, selected, def models.Currency) (Snapshot, bool) {
	if !selected.Ratio.IsPositive() || !def.Ratio.IsPositive() {
		return Snapshot{}, false
	}
	ratio := selected.Ratio.DivRound(def.Ratio, 8)
	return Snapshot{
		Ratio:      ratio,
		Equivalent: amount.Mul(ratio).Round(2),
	}, true
}
