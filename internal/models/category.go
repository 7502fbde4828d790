package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category labels transactions; its type mirrors the transaction type it applies to.
type Category struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (in CategoryInput) Category() (Category, error) {
	c := Category{
		Name:        strings.TrimSpace(in.Name),
		Description: optional(in.Description),
		Type:        TransactionType(strings.TrimSpace(in.Type)),
	}
	if c.Name == "" {
		return Category{}, invalid("name", "is required")
	}
	if c.Type != TransactionIncome && c.Type != TransactionExpense {
		return Category{}, invalid("type", "must be income or expense")
	}
	return c, nil
}
