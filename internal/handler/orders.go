package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// OrderHandler serves order history. Orders are written only through POS
// sessions.
type OrderHandler struct {
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore) *OrderHandler {
	return &OrderHandler{store: store}
}

// RegisterRoutes registers order endpoints: /branches/{bid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// --- Response types ---

type orderResponse struct {
	ID        uuid.UUID  `json:"id"`
	BranchID  uuid.UUID  `json:"branch_id"`
	TableID   uuid.UUID  `json:"table_id"`
	Status    string     `json:"status"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int32     `json:"quantity"`
	LineTotal   string    `json:"line_total"`
}

type paymentResponse struct {
	ID        uuid.UUID `json:"id"`
	Method    string    `json:"method"`
	Amount    string    `json:"amount"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type orderDetailResponse struct {
	orderResponse
	Items     []orderItemResponse `json:"items"`
	Payments  []paymentResponse   `json:"payments"`
	Total     string              `json:"total"`
	AmountDue string              `json:"amount_due"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		BranchID:  o.BranchID,
		TableID:   o.TableID,
		Status:    string(o.Status),
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
	}
	if o.ClosedAt.Valid {
		t := o.ClosedAt.Time
		resp.ClosedAt = &t
	}
	return resp
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, it := range items {
		resp[i] = orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   money(it.UnitPrice),
			Quantity:    it.Quantity,
			LineTotal:   money(it.LineTotal),
		}
	}
	return resp
}

func toPaymentResponses(payments []database.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = paymentResponse{
			ID:        p.ID,
			Method:    p.Method,
			Amount:    money(p.Amount),
			CreatedBy: p.CreatedBy,
			CreatedAt: p.CreatedAt,
		}
	}
	return resp
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusOpen, enum.OrderStatusPaid, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// --- Handlers ---

// List returns orders, newest first, filtered by ?status= and ?table_id=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	limit, offset := pagination(r)
	params := database.ListOrdersParams{BranchID: branchID, Limit: limit, Offset: offset}

	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("table_id"); s != "" {
		tableID, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid table_id")
			return
		}
		params.TableID = pgtype.UUID{Bytes: tableID, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		internalError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its line items and payments.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	orderID, ok := urlUUID(w, r, "id", "order ID")
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, "get order", err)
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		internalError(w, "list order items", err)
		return
	}
	payments, err := h.store.ListPaymentsByOrder(r.Context(), order.ID)
	if err != nil {
		internalError(w, "list payments", err)
		return
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(database.NumericToDecimal(it.LineTotal))
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(database.NumericToDecimal(p.Amount))
	}
	due := decimal.Max(decimal.Zero, total.Sub(paid))

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         toOrderItemResponses(items),
		Payments:      toPaymentResponses(payments),
		Total:         total.StringFixed(2),
		AmountDue:     due.StringFixed(2),
	})
}
