package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

func TestRespondErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &models.ValidationError{Field: "ratio", Message: "must be a positive number"}, http.StatusBadRequest},
		{"duplicate code", ledger.ErrDuplicateCode, http.StatusBadRequest},
		{"currency not found", ledger.ErrCurrencyNotFound, http.StatusNotFound},
		{"transaction not found", ledger.ErrTransactionNotFound, http.StatusNotFound},
		{"storage not found", fmt.Errorf("get loft: %w", storage.ErrNotFound), http.StatusNotFound},
		{"already exists", storage.ErrAlreadyExists, http.StatusConflict},
		{"fk conflict", fmt.Errorf("delete currency: %w", storage.ErrConflict), http.StatusConflict},
		{"unexpected", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	assert.NotContains(t, rec.Body.String(), "password authentication")
}

func TestParseTransactionFilter(t *testing.T) {
	loft := uuid.New()
	f, err := parseTransactionFilter(url.Values{
		"type":    {"expense"},
		"status":  {"pending"},
		"loft_id": {loft.String()},
		"from":    {"2024-01-01"},
		"to":      {"2024-01-31"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionExpense, f.Type)
	assert.Equal(t, models.StatusPending, f.Status)
	require.NotNil(t, f.LoftID)
	assert.Equal(t, loft, *f.LoftID)
	assert.Nil(t, f.CurrencyID)
	assert.Equal(t, 31, f.To.Day())

	_, err = parseTransactionFilter(url.Values{"currency_id": {"x"}})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency_id", verr.Field)

	_, err = parseTransactionFilter(url.Values{"from": {"yesterday"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "from", verr.Field)
}
