package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is a unit of account with a conversion ratio relative to the default currency.
type Currency struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	DecimalDigits int             `json:"decimal_digits"`
	Ratio         decimal.Decimal `json:"ratio"`
	IsDefault     bool            `json:"isDefault"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CurrencyInput is the writable subset of a currency. Nil fields are absent from the request.
type CurrencyInput struct {
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Symbol        string           `json:"symbol"`
	DecimalDigits *int             `json:"decimalDigits,omitempty"`
	Ratio         *decimal.Decimal `json:"ratio,omitempty"`
	IsDefault     *bool            `json:"isDefault,omitempty"`
}

// Currency validates the input and returns the new currency it describes.
// A missing ratio defaults to 1 and missing decimal digits to 2.
func (in CurrencyInput) Currency() (Currency, error) {
	return in.overlay(Currency{DecimalDigits: 2, Ratio: decimal.NewFromInt(1)})
}

// Apply overlays the fields present in the input onto existing. Blank strings and nil
// fields keep the stored value. The default flag can only be moved, never cleared.
func (in CurrencyInput) Apply(existing Currency) (Currency, error) {
	if in.IsDefault != nil && !*in.IsDefault && existing.IsDefault {
		return Currency{}, invalid("isDefault", "cannot be cleared; make another currency the default instead")
	}
	return in.overlay(existing)
}

func (in CurrencyInput) overlay(c Currency) (Currency, error) {
	if code := strings.TrimSpace(in.Code); code != "" {
		c.Code = strings.ToUpper(code)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if symbol := strings.TrimSpace(in.Symbol); symbol != "" {
		c.Symbol = symbol
	}
	if in.DecimalDigits != nil {
		c.DecimalDigits = *in.DecimalDigits
	}
	if in.Ratio != nil {
		c.Ratio = *in.Ratio
	}
	if in.IsDefault != nil {
		c.IsDefault = *in.IsDefault
	}

	switch {
	case c.Code == "":
		return Currency{}, invalid("code", "is required")
	case len(c.Code) > 3:
		return Currency{}, invalid("code", "must be at most 3 characters")
	case c.Name == "":
		return Currency{}, invalid("name", "is required")
	case len(c.Name) > 50:
		return Currency{}, invalid("name", "must be at most 50 characters")
	case c.Symbol == "":
		return Currency{}, invalid("symbol", "is required")
	case len([]rune(c.Symbol)) > 3:
		return Currency{}, invalid("symbol", "must be at most 3 characters")
	case c.DecimalDigits < 0 || c.DecimalDigits > 8:
		return Currency{}, invalid("decimalDigits", "must be between 0 and 8")
	case !c.Ratio.IsPositive():
		return Currency{}, invalid("ratio", "must be a positive number")
	}
	return c, nil
}
