package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/masapos/api/internal/middleware"
)

// IncomeStore defines the database methods needed by income handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type IncomeStore interface {
	ListIncomeRecords(ctx context.Context, branchID uuid.UUID) ([]database.IncomeRecord, error)
	CreateIncomeRecord(ctx context.Context, arg database.CreateIncomeRecordParams) (database.IncomeRecord, error)
	UpdateIncomeRecord(ctx context.Context, arg database.UpdateIncomeRecordParams) (database.IncomeRecord, error)
	DeleteIncomeRecord(ctx context.Context, arg database.DeleteIncomeRecordParams) (uuid.UUID, error)
}

// IncomeHandler handles manually recorded income outside the POS.
type IncomeHandler struct {
	store IncomeStore
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(store IncomeStore) *IncomeHandler {
	return &IncomeHandler{store: store}
}

// RegisterRoutes registers income endpoints: /branches/{bid}/income
func (h *IncomeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.RoleAdmin, enum.RoleManager))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type incomeRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type incomeResponse struct {
	ID          uuid.UUID `json:"id"`
	BranchID    uuid.UUID `json:"branch_id"`
	Amount      string    `json:"amount"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toIncomeResponse(rec database.IncomeRecord) incomeResponse {
	return incomeResponse{
		ID:          rec.ID,
		BranchID:    rec.BranchID,
		Amount:      money(rec.Amount),
		Description: optionalText(rec.Description),
		CreatedAt:   rec.CreatedAt,
	}
}

func decodeIncome(w http.ResponseWriter, r *http.Request) (incomeRequest, bool) {
	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "amount is required")
		return req, false
	}
	return req, true
}

func writeAmountError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNegativeAmount) {
		writeError(w, http.StatusBadRequest, "amount must be >= 0")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid amount")
}

// List returns the branch's income records, newest first.
func (h *IncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	records, err := h.store.ListIncomeRecords(r.Context(), branchID)
	if err != nil {
		internalError(w, "list income", err)
		return
	}

	resp := make([]incomeResponse, len(records))
	for i, rec := range records {
		resp[i] = toIncomeResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create records income.
func (h *IncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	req, ok := decodeIncome(w, r)
	if !ok {
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeAmountError(w, err)
		return
	}

	rec, err := h.store.CreateIncomeRecord(r.Context(), database.CreateIncomeRecordParams{
		BranchID:    branchID,
		Amount:      amount,
		Description: textOrNull(req.Description),
	})
	if err != nil {
		internalError(w, "create income", err)
		return
	}

	writeJSON(w, http.StatusCreated, toIncomeResponse(rec))
}

// Update edits an income record.
func (h *IncomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "income ID")
	if !ok {
		return
	}
	req, ok := decodeIncome(w, r)
	if !ok {
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeAmountError(w, err)
		return
	}

	rec, err := h.store.UpdateIncomeRecord(r.Context(), database.UpdateIncomeRecordParams{
		ID:          id,
		BranchID:    branchID,
		Amount:      amount,
		Description: textOrNull(req.Description),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		internalError(w, "update income", err)
		return
	}

	writeJSON(w, http.StatusOK, toIncomeResponse(rec))
}

// Delete removes an income record.
func (h *IncomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "income ID")
	if !ok {
		return
	}

	if _, err := h.store.DeleteIncomeRecord(r.Context(), database.DeleteIncomeRecordParams{ID: id, BranchID: branchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		internalError(w, "delete income", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
