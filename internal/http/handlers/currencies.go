package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/ledger"
	"github.com/hongminglow/loft-be/internal/middleware"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/models/dto"
)

// CurrencyHandler exposes the currency ledger.
type CurrencyHandler struct {
	ledger *ledger.Ledger
}

// NewCurrencyHandler constructs the handler.
func NewCurrencyHandler(l *ledger.Ledger) *CurrencyHandler {
	return &CurrencyHandler{ledger: l}
}

// Routes attaches /api/currencies. Reads need a session, writes need an admin.
func (h *CurrencyHandler) Routes(r chi.Router) {
	r.Route("/api/currencies", func(r chi.Router) {
		r.Use(middleware.RequireRole())
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/", h.handleCreate)
			r.Put("/", h.handleSetDefault)
			r.Patch("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

func (h *CurrencyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.ledger.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "currencies", currencies)
}

func (h *CurrencyHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	currency, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "currency", currency)
}

func (h *CurrencyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.CurrencyInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	currency, err := h.ledger.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "currency created", currency)
}

func (h *CurrencyHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.CurrencyInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	currency, err := h.ledger.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "currency updated", currency)
}

// handleSetDefault answers 400 for both a missing id and an unknown one.
func (h *CurrencyHandler) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var req dto.SetDefaultCurrencyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == nil {
		respond.Error(w, http.StatusBadRequest, "currency id is required")
		return
	}
	if err := h.ledger.SetDefault(r.Context(), *req.ID); err != nil {
		if errors.Is(err, ledger.ErrCurrencyNotFound) {
			respond.Error(w, http.StatusBadRequest, "currency not found")
			return
		}
		respondError(w, r, err)
		return
	}
	currency, err := h.ledger.Get(r.Context(), *req.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "default currency updated", currency)
}

func (h *CurrencyHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "currency deleted", dto.IDResponse{ID: id})
}
