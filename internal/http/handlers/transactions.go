package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/middleware"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/models/dto"
)

// TransactionHandler exposes the transaction recorder.
type TransactionHandler struct {
	recorder *ledger.Recorder
}

// NewTransactionHandler constructs the handler.
func NewTransactionHandler(rec *ledger.Recorder) *TransactionHandler {
	return &TransactionHandler{recorder: rec}
}

// Routes attaches /api/transactions. Managers may write, only admins delete.
func (h *TransactionHandler) Routes(r chi.Router) {
	r.Route("/api/transactions", func(r chi.Router) {
		r.Use(middleware.RequireRole())
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleManager)).Post("/", h.handleCreate)
		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleManager)).Put("/{id}", h.handleUpdate)
		r.With(middleware.RequireRole(models.RoleAdmin)).Delete("/{id}", h.handleDelete)
	})
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := h.recorder.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if out == nil {
		out = []models.Transaction{}
	}
	respond.JSON(w, http.StatusOK, "transactions", out)
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.recorder.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction", t)
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.recorder.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondSaved(w, r, http.StatusCreated, "transaction created", id)
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.TransactionInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.recorder.Update(r.Context(), id, in); err != nil {
		respondError(w, r, err)
		return
	}
	h.respondSaved(w, r, http.StatusOK, "transaction updated", id)
}

func (h *TransactionHandler) respondSaved(w http.ResponseWriter, r *http.Request, status int, message string, id uuid.UUID) {
	t, err := h.recorder.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, status, message, t)
}

func (h *TransactionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.recorder.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction deleted", dto.IDResponse{ID: id})
}

func parseTransactionFilter(q url.Values) (models.TransactionFilter, error) {
	f := models.TransactionFilter{
		Type:   models.TransactionType(q.Get("type")),
		Status: models.TransactionStatus(q.Get("status")),
	}
	for key, dst := range map[string]**uuid.UUID{"loft_id": &f.LoftID, "currency_id": &f.CurrencyID} {
		if raw := q.Get(key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return f, &models.ValidationError{Field: key, Message: "must be a UUID"}
			}
			*dst = &id
		}
	}
	for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if raw := q.Get(key); raw != "" {
			d, err := models.ParseDate(raw)
			if err != nil {
				return f, &models.ValidationError{Field: key, Message: "must be YYYY-MM-DD"}
			}
			*dst = d
		}
	}
	return f, nil
}
