package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
	"github.com/hongminglow/loft-be/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newLedger(t *testing.T) (*Ledger, *Recorder, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewLedger(store, zap.NewNop()), NewRecorder(store, zap.NewNop(), nil), store
}

func currencyInput(code, ratio string, isDefault bool) models.CurrencyInput {
	r := dec(ratio)
	return models.CurrencyInput{Code: code, Name: code + " money", Symbol: code[:1], Ratio: &r, IsDefault: &isDefault}
}

func txInput(amount string, currencyID *uuid.UUID) models.TransactionInput {
	return models.TransactionInput{
		Amount:     dec(amount),
		Type:       string(models.TransactionExpense),
		Status:     string(models.StatusCompleted),
		Date:       "2024-03-01",
		Category:   "maintenance",
		CurrencyID: currencyID,
	}
}

func TestConvert(t *testing.T) {
	usd := models.Currency{Ratio: dec("1")}
	eur := models.Currency{Ratio: dec("0.85")}
	gbp := models.Currency{Ratio: dec("1.25")}

	snap, ok := Convert(dec("100"), eur, usd)
	require.True(t, ok)
	assertDecimal(t, "0.85", snap.Ratio)
	assertDecimal(t, "85.00", snap.Equivalent)

	snap, ok = Convert(dec("100"), eur, gbp)
	require.True(t, ok)
	assertDecimal(t, "0.68", snap.Ratio)
	assertDecimal(t, "68", snap.Equivalent)

	snap, ok = Convert(dec("10"), usd, models.Currency{Ratio: dec("3")})
	require.True(t, ok)
	assertDecimal(t, "0.33333333", snap.Ratio)
	assertDecimal(t, "3.33", snap.Equivalent)

	_, ok = Convert(dec("10"), usd, models.Currency{Ratio: decimal.Zero})
	assert.False(t, ok)
}

func TestCreateTransactionSnapshotsConversion(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)

	_, err := l.Create(ctx, currencyInput("USD", "1.0", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)

	id, err := r.Create(ctx, txInput("100", &eur.ID))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.RatioAtTransaction.Valid)
	require.True(t, got.EquivalentAmountDefaultCurrency.Valid)
	assertDecimal(t, "0.85", got.RatioAtTransaction.Decimal)
	assertDecimal(t, "85.0", got.EquivalentAmountDefaultCurrency.Decimal)
	assertDecimal(t, "100", got.Amount)
	assert.Equal(t, models.TransactionExpense, got.Type)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CurrencySymbol)
	assert.Equal(t, "E", *got.CurrencySymbol)
}

func TestStoredSnapshotSurvivesRatioAndDefaultChanges(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)
	id, err := r.Create(ctx, txInput("100", &eur.ID))
	require.NoError(t, err)

	require.NoError(t, l.SetDefault(ctx, eur.ID))
	_, err = l.Update(ctx, usd.ID, currencyInput("USD", "1.18", false))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assertDecimal(t, "0.85", got.RatioAtTransaction.Decimal)
	assertDecimal(t, "85", got.EquivalentAmountDefaultCurrency.Decimal)
}

func TestUpdateTransactionTakesFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)

	_, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)
	id, err := r.Create(ctx, txInput("100", &eur.ID))
	require.NoError(t, err)

	_, err = l.Update(ctx, eur.ID, currencyInput("EUR", "0.9", false))
	require.NoError(t, err)
	_, err = r.Update(ctx, id, txInput("200", &eur.ID))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assertDecimal(t, "0.9", got.RatioAtTransaction.Decimal)
	assertDecimal(t, "180", got.EquivalentAmountDefaultCurrency.Decimal)
}

func TestMissingDefaultStoresNullSnapshot(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)

	core, logs := observer.New(zapcore.WarnLevel)
	ctx = logger.WithContext(ctx, zap.New(core))

	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)

	id, err := r.Create(ctx, txInput("100", &eur.ID))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.RatioAtTransaction.Valid)
	assert.False(t, got.EquivalentAmountDefaultCurrency.Valid)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 1, logs.FilterMessageSnippet("default currency unresolved").Len())
}

func TestTransactionWithoutCurrencyHasNoSnapshot(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)
	_, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)

	id, err := r.Create(ctx, txInput("42.50", nil))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.RatioAtTransaction.Valid)
	assert.Nil(t, got.CurrencySymbol)
}

func TestTransactionReferencingMissingCurrencyFails(t *testing.T) {
	ctx := context.Background()
	_, r, store := newLedger(t)

	ghost := uuid.New()
	_, err := r.Create(ctx, txInput("10", &ghost))
	assert.ErrorIs(t, err, storage.ErrConflict)

	list, err := r.List(ctx, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 1, store.CallCount("WithLedgerTx"))
}

func TestTransactionValidationRunsBeforeStorage(t *testing.T) {
	ctx := context.Background()
	_, r, store := newLedger(t)

	_, err := r.Create(ctx, txInput("0", nil))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.Equal(t, 0, store.TotalCalls())
}

func TestTransactionNotFound(t *testing.T) {
	ctx := context.Background()
	_, r, _ := newLedger(t)

	_, err := r.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	_, err = r.Update(ctx, uuid.New(), txInput("10", nil))
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.ErrorIs(t, r.Delete(ctx, uuid.New()), ErrTransactionNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	_, r, _ := newLedger(t)

	id, err := r.Create(ctx, txInput("10", nil))
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, id))

	_, err = r.Get(ctx, id)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestListTransactionsFilters(t *testing.T) {
	ctx := context.Background()
	_, r, _ := newLedger(t)

	income := txInput("10", nil)
	income.Type = string(models.TransactionIncome)
	income.Date = "2024-02-01"
	_, err := r.Create(ctx, income)
	require.NoError(t, err)
	_, err = r.Create(ctx, txInput("20", nil))
	require.NoError(t, err)

	all, err := r.List(ctx, models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.TransactionExpense, all[0].Type)

	only, err := r.List(ctx, models.TransactionFilter{Type: models.TransactionIncome})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assertDecimal(t, "10", only[0].Amount)
}

func TestCurrencyCodeIsUnique(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t)

	_, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	_, err = l.Create(ctx, currencyInput("usd", "2", false))
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCurrencyRejectsNonPositiveRatio(t *testing.T) {
	ctx := context.Background()
	l, _, store := newLedger(t)

	for _, ratio := range []string{"0", "-0.5"} {
		_, err := l.Create(ctx, currencyInput("DZD", ratio, false))
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ratio", verr.Field)
	}
	assert.Equal(t, 0, store.TotalCalls())
}

func TestSetDefaultKeepsSingleDefault(t *testing.T) {
	ctx := context.Background()
	l, _, store := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)
	dzd, err := l.Create(ctx, currencyInput("DZD", "0.0074", true))
	require.NoError(t, err)
	assert.Equal(t, 1, store.DefaultCount())

	require.NoError(t, l.SetDefault(ctx, eur.ID))
	assert.Equal(t, 1, store.DefaultCount())

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, eur.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)

	got, err := l.Get(ctx, usd.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
	got, err = l.Get(ctx, dzd.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
}

func TestSetDefaultUnknownLeavesDefaultUnchanged(t *testing.T) {
	ctx := context.Background()
	l, _, store := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)

	assert.ErrorIs(t, l.SetDefault(ctx, uuid.New()), ErrCurrencyNotFound)
	assert.Equal(t, 1, store.DefaultCount())
	got, err := l.Get(ctx, usd.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
}

func TestConcurrentSetDefault(t *testing.T) {
	ctx := context.Background()
	l, _, store := newLedger(t)

	var ids []uuid.UUID
	for _, code := range []string{"USD", "EUR", "GBP", "DZD", "JPY"} {
		c, err := l.Create(ctx, currencyInput(code, "1", false))
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			assert.NoError(t, l.SetDefault(ctx, id))
			assert.LessOrEqual(t, store.DefaultCount(), 1)
		}(ids[i%len(ids)])
	}
	wg.Wait()
	assert.Equal(t, 1, store.DefaultCount())
}

func TestDeleteCurrency(t *testing.T) {
	ctx := context.Background()
	l, r, _ := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)
	_, err = r.Create(ctx, txInput("5", &usd.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, l.Delete(ctx, usd.ID), storage.ErrConflict)
	require.NoError(t, l.Delete(ctx, eur.ID))
	assert.ErrorIs(t, l.Delete(ctx, eur.ID), ErrCurrencyNotFound)
}

func TestUpdateUnknownCurrency(t *testing.T) {
	_, err := NewLedger(memory.New(), zap.NewNop()).Update(context.Background(), uuid.New(), currencyInput("USD", "1", false))
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestPartialCurrencyUpdateKeepsRatioAndDefault(t *testing.T) {
	ctx := context.Background()
	l, r, store := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)
	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)

	renamed, err := l.Update(ctx, eur.ID, models.CurrencyInput{Name: "Euro"})
	require.NoError(t, err)
	assert.Equal(t, "Euro", renamed.Name)
	assert.Equal(t, "EUR", renamed.Code)
	assertDecimal(t, "0.85", renamed.Ratio)

	renamed, err = l.Update(ctx, usd.ID, models.CurrencyInput{Code: "USD", Name: "US dollar", Symbol: "$"})
	require.NoError(t, err)
	assert.True(t, renamed.IsDefault)
	assert.Equal(t, 1, store.DefaultCount())

	id, err := r.Create(ctx, txInput("100", &eur.ID))
	require.NoError(t, err)
	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.EquivalentAmountDefaultCurrency.Valid)
	assertDecimal(t, "85", got.EquivalentAmountDefaultCurrency.Decimal)
}

func TestUpdateCannotClearDefault(t *testing.T) {
	ctx := context.Background()
	l, _, store := newLedger(t)

	usd, err := l.Create(ctx, currencyInput("USD", "1", true))
	require.NoError(t, err)

	_, err = l.Update(ctx, usd.ID, currencyInput("USD", "1", false))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "isDefault", verr.Field)
	assert.Equal(t, 1, store.DefaultCount())
}

func TestUpdateRejectsNonPositiveRatio(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t)

	eur, err := l.Create(ctx, currencyInput("EUR", "0.85", false))
	require.NoError(t, err)
	zero := decimal.Zero
	_, err = l.Update(ctx, eur.ID, models.CurrencyInput{Ratio: &zero})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := l.Get(ctx, eur.ID)
	require.NoError(t, err)
	assertDecimal(t, "0.85", got.Ratio)
}
