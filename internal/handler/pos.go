package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/masapos/api/internal/middleware"
	"github.com/masapos/api/internal/service"
	"github.com/shopspring/decimal"
)

// PosOperator is the order lifecycle run against a terminal session.
// Satisfied by *service.PosService.
type PosOperator interface {
	SelectTable(ctx context.Context, sess *service.Session, tableID uuid.UUID) (*service.SessionSnapshot, error)
	AddToPendingCart(ctx context.Context, sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error)
	IncrementPending(sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error)
	DecrementPending(sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error)
	SaveToTable(ctx context.Context, sess *service.Session) (*service.SessionSnapshot, error)
	AdjustSavedItem(ctx context.Context, sess *service.Session, itemID uuid.UUID, delta int32) (*service.SessionSnapshot, error)
	RemoveSavedItem(ctx context.Context, sess *service.Session, itemID uuid.UUID) (*service.SessionSnapshot, error)
	PayFull(ctx context.Context, sess *service.Session, method string) (*service.CheckoutResult, error)
	PaySplit(ctx context.Context, sess *service.Session, entries []service.SplitEntry) (*service.CheckoutResult, error)
	CancelOrder(ctx context.Context, sess *service.Session) (*service.SessionSnapshot, error)
}

// PosHandler exposes terminal sessions over HTTP.
type PosHandler struct {
	sessions *service.SessionRegistry
	pos      PosOperator
}

// NewPosHandler creates a new PosHandler.
func NewPosHandler(sessions *service.SessionRegistry, pos PosOperator) *PosHandler {
	return &PosHandler{sessions: sessions, pos: pos}
}

// RegisterRoutes registers session endpoints.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/pos/sessions
func (h *PosHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.CreateSession)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Put("/table", h.SelectTable)
		r.Post("/cart/items", h.AddToCart)
		r.Post("/cart/items/{pid}/increment", h.IncrementPending)
		r.Post("/cart/items/{pid}/decrement", h.DecrementPending)
		r.Post("/save", h.Save)
		r.Patch("/items/{id}", h.AdjustItem)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/pay", h.PayFull)
		r.Post("/pay/split", h.PaySplit)
		r.Post("/cancel", h.Cancel)
	})
}

// --- Request / Response types ---

type selectTableRequest struct {
	TableID string `json:"table_id"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
}

type adjustItemRequest struct {
	Delta int32 `json:"delta"`
}

type payRequest struct {
	Method string `json:"method"`
}

type splitEntryRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type paySplitRequest struct {
	Payments []splitEntryRequest `json:"payments"`
}

type pendingEntryResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int32     `json:"quantity"`
	LineTotal   string    `json:"line_total"`
}

type sessionResponse struct {
	ID           uuid.UUID              `json:"id"`
	BranchID     uuid.UUID              `json:"branch_id"`
	PersonnelID  uuid.UUID              `json:"personnel_id"`
	State        string                 `json:"state"`
	Table        *tableResponse         `json:"table"`
	Order        *orderResponse         `json:"order"`
	Items        []orderItemResponse    `json:"items"`
	Pending      []pendingEntryResponse `json:"pending"`
	OrderTotal   string                 `json:"order_total"`
	PendingTotal string                 `json:"pending_total"`
}

type checkoutResponse struct {
	Order        orderResponse       `json:"order"`
	Items        []orderItemResponse `json:"items"`
	Payments     []paymentResponse   `json:"payments"`
	Total        string              `json:"total"`
	SalesCreated int                 `json:"sales_created"`
	Session      sessionResponse     `json:"session"`
}

func toSessionResponse(s *service.SessionSnapshot) sessionResponse {
	resp := sessionResponse{
		ID:           s.ID,
		BranchID:     s.BranchID,
		PersonnelID:  s.PersonnelID,
		State:        string(s.State),
		Items:        toOrderItemResponses(s.Items),
		Pending:      make([]pendingEntryResponse, len(s.Pending)),
		OrderTotal:   s.OrderTotal.StringFixed(2),
		PendingTotal: s.PendingTotal.StringFixed(2),
	}
	if s.Table != nil {
		t := toTableResponse(*s.Table)
		resp.Table = &t
	}
	if s.Order != nil {
		o := toOrderResponse(*s.Order)
		resp.Order = &o
	}
	for i, e := range s.Pending {
		resp.Pending[i] = pendingEntryResponse{
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			UnitPrice:   e.UnitPrice.StringFixed(2),
			Quantity:    e.Quantity,
			LineTotal:   e.LineTotal().StringFixed(2),
		}
	}
	return resp
}

func toCheckoutResponse(res *service.CheckoutResult) checkoutResponse {
	return checkoutResponse{
		Order:        toOrderResponse(res.Order),
		Items:        toOrderItemResponses(res.Items),
		Payments:     toPaymentResponses(res.Payments),
		Total:        res.Total.StringFixed(2),
		SalesCreated: res.SalesCreated,
		Session:      toSessionResponse(res.Session),
	}
}

// --- Helpers ---

// writePosError maps service errors to status codes. Unknown errors are
// backend failures.
func writePosError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrPendingItemNotFound),
		errors.Is(err, service.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoTableSelected),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidDelta),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrEmptySplit),
		errors.Is(err, service.ErrSplitMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrTableBusy),
		errors.Is(err, service.ErrNoOpenOrder),
		errors.Is(err, service.ErrOrderNotOpen),
		errors.Is(err, service.ErrPaymentMismatch),
		errors.Is(err, service.ErrOrderHasPayments):
		status = http.StatusConflict
	default:
		internalError(w, "pos operation", err)
		return
	}
	writeError(w, status, err.Error())
}

// session resolves {sid} within the {bid} branch. It writes the error
// response and returns nil on failure.
func (h *PosHandler) session(w http.ResponseWriter, r *http.Request) *service.Session {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return nil
	}
	sid, ok := urlUUID(w, r, "sid", "session ID")
	if !ok {
		return nil
	}
	sess, err := h.sessions.Get(sid, branchID)
	if err != nil {
		writePosError(w, err)
		return nil
	}
	return sess
}

func (h *PosHandler) respond(w http.ResponseWriter, snap *service.SessionSnapshot, err error) {
	if err != nil {
		writePosError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

func (h *PosHandler) respondCheckout(w http.ResponseWriter, res *service.CheckoutResult, err error) {
	if err != nil {
		writePosError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckoutResponse(res))
}

// --- Handlers ---

// CreateSession opens a terminal session for the caller.
func (h *PosHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess := h.sessions.Create(branchID, claims.PersonnelID)
	writeJSON(w, http.StatusCreated, toSessionResponse(sess.Snapshot()))
}

// GetSession returns the session state.
func (h *PosHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess.Snapshot()))
}

// DeleteSession ends a session. Unsaved pending entries are discarded;
// saved orders are untouched.
func (h *PosHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	sid, ok := urlUUID(w, r, "sid", "session ID")
	if !ok {
		return
	}
	if err := h.sessions.Delete(sid, branchID); err != nil {
		writePosError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectTable points the session at a table.
func (h *PosHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req selectTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid table_id")
		return
	}

	snap, err := h.pos.SelectTable(r.Context(), sess, tableID)
	h.respond(w, snap, err)
}

// AddToCart stages one unit of a product.
func (h *PosHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	snap, err := h.pos.AddToPendingCart(r.Context(), sess, productID)
	h.respond(w, snap, err)
}

// IncrementPending adds one unit to a pending entry.
func (h *PosHandler) IncrementPending(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	productID, ok := urlUUID(w, r, "pid", "product ID")
	if !ok {
		return
	}

	snap, err := h.pos.IncrementPending(sess, productID)
	h.respond(w, snap, err)
}

// DecrementPending removes one unit from a pending entry.
func (h *PosHandler) DecrementPending(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	productID, ok := urlUUID(w, r, "pid", "product ID")
	if !ok {
		return
	}

	snap, err := h.pos.DecrementPending(sess, productID)
	h.respond(w, snap, err)
}

// Save flushes the pending cart to the table's order.
func (h *PosHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	snap, err := h.pos.SaveToTable(r.Context(), sess)
	h.respond(w, snap, err)
}

// AdjustItem changes a saved item's quantity by delta.
func (h *PosHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	itemID, ok := urlUUID(w, r, "id", "item ID")
	if !ok {
		return
	}

	var req adjustItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.pos.AdjustSavedItem(r.Context(), sess, itemID, req.Delta)
	h.respond(w, snap, err)
}

// RemoveItem deletes a saved item.
func (h *PosHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	itemID, ok := urlUUID(w, r, "id", "item ID")
	if !ok {
		return
	}

	snap, err := h.pos.RemoveSavedItem(r.Context(), sess, itemID)
	h.respond(w, snap, err)
}

// PayFull settles the order with one payment.
func (h *PosHandler) PayFull(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}

	res, err := h.pos.PayFull(r.Context(), sess, req.Method)
	h.respondCheckout(w, res, err)
}

// PaySplit settles the order with several payments.
func (h *PosHandler) PaySplit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req paySplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entries := make([]service.SplitEntry, len(req.Payments))
	for i, p := range req.Payments {
		entries[i] = service.SplitEntry{Method: p.Method, Amount: p.Amount}
	}

	res, err := h.pos.PaySplit(r.Context(), sess, entries)
	h.respondCheckout(w, res, err)
}

// Cancel voids the open order and frees the table.
func (h *PosHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	snap, err := h.pos.CancelOrder(r.Context(), sess)
	h.respond(w, snap, err)
}
