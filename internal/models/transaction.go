package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType separates money coming in from money going out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// TransactionStatus tracks settlement of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// DateLayout is the calendar-date format used for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry.
//
// RatioAtTransaction and EquivalentAmountDefaultCurrency are snapshots taken when the
// transaction is saved; later ratio edits never rewrite them.
type Transaction struct {
	ID                              uuid.UUID           `json:"id"`
	Amount                          decimal.Decimal     `json:"amount"`
	Type                            TransactionType     `json:"transaction_type"`
	Status                          TransactionStatus   `json:"status"`
	Description                     string              `json:"description"`
	Date                            time.Time           `json:"date"`
	Category                        string              `json:"category"`
	CurrencyID                      *uuid.UUID          `json:"currency_id,omitempty"`
	LoftID                          *uuid.UUID          `json:"loft_id,omitempty"`
	RatioAtTransaction              decimal.NullDecimal `json:"ratio_at_transaction"`
	EquivalentAmountDefaultCurrency decimal.NullDecimal `json:"equivalent_amount_default_currency"`
	CurrencySymbol                  *string             `json:"currency_symbol,omitempty"`
	CreatedAt                       time.Time           `json:"created_at"`
	UpdatedAt                       time.Time           `json:"updated_at"`
}

// MarshalJSON writes Date as a calendar date.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain: plain(t), Date: t.Date.Format(DateLayout)})
}

// UnmarshalJSON accepts the calendar date written by MarshalJSON or an RFC 3339 timestamp.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		t.Date = time.Time{}
		return nil
	}
	date, err := ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("transaction date: %w", err)
	}
	t.Date = date
	return nil
}

// TransactionInput is the writable subset of a transaction as submitted by callers.
type TransactionInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"transaction_type"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	CurrencyID  *uuid.UUID      `json:"currency_id,omitempty"`
	LoftID      *uuid.UUID      `json:"loft_id,omitempty"`
}

// Transaction validates the input. Snapshot fields are left empty for the recorder to fill.
func (in TransactionInput) Transaction() (Transaction, error) {
	if !in.Amount.IsPositive() {
		return Transaction{}, invalid("amount", "must be positive")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return Transaction{}, invalid("amount", "must have at most 2 decimal places")
	}
	t := Transaction{
		Amount:      in.Amount,
		Type:        TransactionType(strings.TrimSpace(in.Type)),
		Status:      TransactionStatus(strings.TrimSpace(in.Status)),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		CurrencyID:  nonNilUUID(in.CurrencyID),
		LoftID:      nonNilUUID(in.LoftID),
	}
	switch t.Type {
	case TransactionIncome, TransactionExpense:
	default:
		return Transaction{}, invalid("transaction_type", "must be income or expense")
	}
	switch t.Status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return Transaction{}, invalid("status", "must be pending, completed or failed")
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Transaction{}, invalid("date", err.Error())
	}
	t.Date = date
	return t, nil
}

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	Type       TransactionType
	Status     TransactionStatus
	LoftID     *uuid.UUID
	CurrencyID *uuid.UUID
	From       time.Time
	To         time.Time
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Message: "is required"}
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ValidationError{Message: "must be YYYY-MM-DD"}
	}
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func nonNilUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}
