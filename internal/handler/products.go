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
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProductsByBranch(ctx context.Context, branchID uuid.UUID) ([]database.Product, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SoftDeleteProduct(ctx context.Context, arg database.SoftDeleteProductParams) (uuid.UUID, error)
}

// ProductHandler handles product CRUD endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers product CRUD endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/products
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type productRequest struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	MenuCategory string `json:"menu_category"`
}

type productResponse struct {
	ID           uuid.UUID `json:"id"`
	BranchID     uuid.UUID `json:"branch_id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	MenuCategory *string   `json:"menu_category"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		BranchID:     p.BranchID,
		Name:         p.Name,
		Price:        money(p.Price),
		MenuCategory: optionalText(p.MenuCategory),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// --- Helpers ---

func isValidMenuCategory(c string) bool {
	switch c {
	case enum.MenuCategoryStar, enum.MenuCategoryPuzzle,
		enum.MenuCategoryPlowHorse, enum.MenuCategoryDog:
		return true
	}
	return false
}

// decodeProduct reads and validates a product body. It writes the 400 and
// returns false on failure.
func decodeProduct(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	if req.Price == "" {
		writeError(w, http.StatusBadRequest, "price is required")
		return req, false
	}
	if req.MenuCategory != "" && !isValidMenuCategory(req.MenuCategory) {
		writeError(w, http.StatusBadRequest, "invalid menu_category")
		return req, false
	}
	return req, true
}

func writePriceError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNegativeAmount) {
		writeError(w, http.StatusBadRequest, "price must be >= 0")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid price")
}

// --- Handlers ---

// List returns all active products for the given branch.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	products, err := h.store.ListProductsByBranch(r.Context(), branchID)
	if err != nil {
		internalError(w, "list products", err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	prodID, ok := urlUUID(w, r, "id", "product ID")
	if !ok {
		return
	}

	product, err := h.store.GetProduct(r.Context(), database.GetProductParams{ID: prodID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, "get product", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Create adds a new product to the given branch.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writePriceError(w, err)
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		BranchID:     branchID,
		Name:         req.Name,
		Price:        price,
		MenuCategory: textOrNull(req.MenuCategory),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		internalError(w, "create product", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update modifies an existing product. Order items keep the name and price
// they were saved with.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	prodID, ok := urlUUID(w, r, "id", "product ID")
	if !ok {
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writePriceError(w, err)
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:           prodID,
		BranchID:     branchID,
		Name:         req.Name,
		Price:        price,
		MenuCategory: textOrNull(req.MenuCategory),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, "update product", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete soft-deletes a product by setting is_active=false.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	prodID, ok := urlUUID(w, r, "id", "product ID")
	if !ok {
		return
	}

	if _, err := h.store.SoftDeleteProduct(r.Context(), database.SoftDeleteProductParams{
		ID:       prodID,
		BranchID: branchID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, "delete product", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
