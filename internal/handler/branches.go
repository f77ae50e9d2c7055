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

// BranchStore defines the database methods needed by branch handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BranchStore interface {
	ListBranches(ctx context.Context) ([]database.Branch, error)
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	CreateBranch(ctx context.Context, arg database.CreateBranchParams) (database.Branch, error)
	UpdateBranch(ctx context.Context, arg database.UpdateBranchParams) (database.Branch, error)
	SoftDeleteBranch(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// BranchHandler handles branch CRUD endpoints.
type BranchHandler struct {
	store BranchStore
}

// NewBranchHandler creates a new BranchHandler.
func NewBranchHandler(store BranchStore) *BranchHandler {
	return &BranchHandler{store: store}
}

// RegisterRoutes registers the branch collection. Expected to be mounted at
// /branches behind Authenticate. Creating is ADMIN only.
func (h *BranchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireRole(enum.RoleAdmin)).Post("/", h.Create)
}

// RegisterItemRoutes registers single-branch endpoints. Expected to be
// mounted at /branches/{bid} so they share the branch-scoped subrouter.
func (h *BranchHandler) RegisterItemRoutes(r chi.Router) {
	r.Get("/", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.RoleAdmin))
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// --- Request / Response types ---

type branchRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type branchResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBranchResponse(b database.Branch) branchResponse {
	return branchResponse{
		ID:        b.ID,
		Code:      b.Code,
		Name:      b.Name,
		Address:   optionalText(b.Address),
		Phone:     optionalText(b.Phone),
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (req branchRequest) validate() string {
	if req.Code == "" {
		return "code is required"
	}
	if req.Name == "" {
		return "name is required"
	}
	return ""
}

// --- Handlers ---

// List returns every active branch to ADMIN and only the caller's own
// branch to everyone else.
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.store.ListBranches(r.Context())
	if err != nil {
		internalError(w, "list branches", err)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	resp := make([]branchResponse, 0, len(branches))
	for _, b := range branches {
		if claims != nil && claims.Role != enum.RoleAdmin && b.ID != claims.BranchID {
			continue
		}
		resp = append(resp, toBranchResponse(b))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single branch.
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role != enum.RoleAdmin && claims.BranchID != id {
		writeError(w, http.StatusForbidden, "access denied for this branch")
		return
	}

	b, err := h.store.GetBranch(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		internalError(w, "get branch", err)
		return
	}

	writeJSON(w, http.StatusOK, toBranchResponse(b))
}

// Create adds a branch.
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	b, err := h.store.CreateBranch(r.Context(), database.CreateBranchParams{
		Code:    req.Code,
		Name:    req.Name,
		Address: textOrNull(req.Address),
		Phone:   textOrNull(req.Phone),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "branch code already exists")
			return
		}
		internalError(w, "create branch", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBranchResponse(b))
}

// Update replaces a branch's editable fields.
func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	b, err := h.store.UpdateBranch(r.Context(), database.UpdateBranchParams{
		ID:      id,
		Code:    req.Code,
		Name:    req.Name,
		Address: textOrNull(req.Address),
		Phone:   textOrNull(req.Phone),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "branch code already exists")
			return
		}
		internalError(w, "update branch", err)
		return
	}

	writeJSON(w, http.StatusOK, toBranchResponse(b))
}

// Delete soft-deletes a branch.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	if _, err := h.store.SoftDeleteBranch(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		internalError(w, "delete branch", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
