package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/masapos/api/internal/middleware"
)

// PaymentMethodStore defines the database methods needed by payment method
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type PaymentMethodStore interface {
	ListPaymentMethods(ctx context.Context, activeOnly bool) ([]database.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, arg database.CreatePaymentMethodParams) (database.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, arg database.UpdatePaymentMethodParams) (database.PaymentMethod, error)
}

// PaymentMethodHandler manages the tender types a payment may name.
type PaymentMethodHandler struct {
	store PaymentMethodStore
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(store PaymentMethodStore) *PaymentMethodHandler {
	return &PaymentMethodHandler{store: store}
}

// RegisterRoutes registers payment method endpoints: /payment-methods
func (h *PaymentMethodHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.RoleAdmin, enum.RoleManager))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
}

// --- Request / Response types ---

type paymentMethodRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
	Active    *bool  `json:"active"`
}

type paymentMethodResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	Active    bool      `json:"active"`
}

func toPaymentMethodResponse(m database.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{ID: m.ID, Name: m.Name, SortOrder: m.SortOrder, Active: m.Active}
}

func decodePaymentMethod(w http.ResponseWriter, r *http.Request) (paymentMethodRequest, bool) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	if req.Active == nil {
		active := true
		req.Active = &active
	}
	return req, true
}

// --- Handlers ---

// List returns payment methods in display order. ?active=true hides
// disabled ones, which is what the POS pay dialog asks for.
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	methods, err := h.store.ListPaymentMethods(r.Context(), activeOnly)
	if err != nil {
		internalError(w, "list payment methods", err)
		return
	}

	resp := make([]paymentMethodResponse, len(methods))
	for i, m := range methods {
		resp[i] = toPaymentMethodResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a payment method, or updates the one with the same name.
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePaymentMethod(w, r)
	if !ok {
		return
	}

	m, err := h.store.CreatePaymentMethod(r.Context(), database.CreatePaymentMethodParams{
		Name:      req.Name,
		SortOrder: req.SortOrder,
		Active:    *req.Active,
	})
	if err != nil {
		internalError(w, "create payment method", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentMethodResponse(m))
}

// Update edits a payment method. Deactivating one makes new payments with
// it fail; recorded payments keep the name.
func (h *PaymentMethodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "payment method ID")
	if !ok {
		return
	}
	req, ok := decodePaymentMethod(w, r)
	if !ok {
		return
	}

	m, err := h.store.UpdatePaymentMethod(r.Context(), database.UpdatePaymentMethodParams{
		ID:        id,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		Active:    *req.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment method not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "payment method name already exists")
			return
		}
		internalError(w, "update payment method", err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentMethodResponse(m))
}
