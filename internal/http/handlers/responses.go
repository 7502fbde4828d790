package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/storage"
)

// respondError maps domain and storage errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ledger.ErrDuplicateCode):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrCurrencyNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "record already exists")
	case errors.Is(err, storage.ErrConflict):
		respond.Error(w, http.StatusConflict, "record is referenced or references a missing record")
	default:
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID parses the {id} route parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
