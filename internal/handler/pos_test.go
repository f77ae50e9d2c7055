package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
	"github.com/masapos/api/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock operator ---

// mockPos records the last call and returns the configured error or a
// snapshot of the session it was handed.
type mockPos struct {
	err         error
	lastTable   uuid.UUID
	lastProduct uuid.UUID
	lastItem    uuid.UUID
	lastDelta   int32
	lastMethod  string
	lastSplit   []service.SplitEntry
	calls       []string
}

func (m *mockPos) snap(name string, sess *service.Session) (*service.SessionSnapshot, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return nil, m.err
	}
	return sess.Snapshot(), nil
}

func (m *mockPos) checkout(name string, sess *service.Session) (*service.CheckoutResult, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return nil, m.err
	}
	return &service.CheckoutResult{
		Order: database.Order{
			ID:       uuid.New(),
			BranchID: sess.BranchID,
			TableID:  uuid.New(),
			Status:   database.OrderStatusPaid,
		},
		Items: []database.OrderItem{{
			ID:          uuid.New(),
			ProductName: "Kopi",
			UnitPrice:   testNumeric("10.00"),
			Quantity:    2,
			LineTotal:   testNumeric("20.00"),
		}},
		Payments: []database.Payment{{ID: uuid.New(), Method: "cash", Amount: testNumeric("20.00")}},
		Total:        decimal.RequireFromString("20"),
		SalesCreated: 1,
		Session:      sess.Snapshot(),
	}, nil
}

func (m *mockPos) SelectTable(_ context.Context, sess *service.Session, tableID uuid.UUID) (*service.SessionSnapshot, error) {
	m.lastTable = tableID
	return m.snap("SelectTable", sess)
}

func (m *mockPos) AddToPendingCart(_ context.Context, sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error) {
	m.lastProduct = productID
	return m.snap("AddToPendingCart", sess)
}

func (m *mockPos) IncrementPending(sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error) {
	m.lastProduct = productID
	return m.snap("IncrementPending", sess)
}

func (m *mockPos) DecrementPending(sess *service.Session, productID uuid.UUID) (*service.SessionSnapshot, error) {
	m.lastProduct = productID
	return m.snap("DecrementPending", sess)
}

func (m *mockPos) SaveToTable(_ context.Context, sess *service.Session) (*service.SessionSnapshot, error) {
	return m.snap("SaveToTable", sess)
}

func (m *mockPos) AdjustSavedItem(_ context.Context, sess *service.Session, itemID uuid.UUID, delta int32) (*service.SessionSnapshot, error) {
	m.lastItem = itemID
	m.lastDelta = delta
	return m.snap("AdjustSavedItem", sess)
}

func (m *mockPos) RemoveSavedItem(_ context.Context, sess *service.Session, itemID uuid.UUID) (*service.SessionSnapshot, error) {
	m.lastItem = itemID
	return m.snap("RemoveSavedItem", sess)
}

func (m *mockPos) PayFull(_ context.Context, sess *service.Session, method string) (*service.CheckoutResult, error) {
	m.lastMethod = method
	return m.checkout("PayFull", sess)
}

func (m *mockPos) PaySplit(_ context.Context, sess *service.Session, entries []service.SplitEntry) (*service.CheckoutResult, error) {
	m.lastSplit = entries
	return m.checkout("PaySplit", sess)
}

func (m *mockPos) CancelOrder(_ context.Context, sess *service.Session) (*service.SessionSnapshot, error) {
	return m.snap("CancelOrder", sess)
}

// --- Helpers ---

type posFixture struct {
	router   *chi.Mux
	sessions *service.SessionRegistry
	pos      *mockPos
	branchID uuid.UUID
	sess     *service.Session
	base     string
}

func setupPos(t *testing.T) *posFixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	sessions := service.NewSessionRegistry(time.Hour, log)
	pos := &mockPos{}
	h := handler.NewPosHandler(sessions, pos)

	r := chi.NewRouter()
	r.Route("/branches/{bid}/pos/sessions", h.RegisterRoutes)

	branchID := uuid.New()
	sess := sessions.Create(branchID, uuid.New())
	return &posFixture{
		router:   r,
		sessions: sessions,
		pos:      pos,
		branchID: branchID,
		sess:     sess,
		base:     "/branches/" + branchID.String() + "/pos/sessions/" + sess.ID.String(),
	}
}

// --- Session lifecycle tests ---

func TestPos_CreateSession(t *testing.T) {
	f := setupPos(t)
	claims := staffClaims(f.branchID)

	rr := doAuthRequest(t, f.router, "POST", "/branches/"+f.branchID.String()+"/pos/sessions/", nil, claims)
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeMap(t, rr)
	assert.Equal(t, "NO_ORDER", resp["state"])
	assert.Equal(t, claims.PersonnelID.String(), resp["personnel_id"])
	assert.Nil(t, resp["table"])
	assert.Equal(t, "0.00", resp["order_total"])
	assert.Equal(t, 2, f.sessions.Len())
}

func TestPos_CreateSession_NoClaims(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "POST", "/branches/"+f.branchID.String()+"/pos/sessions/", nil)
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestPos_GetSession(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "GET", f.base+"/", nil)
	expectStatus(t, rr, http.StatusOK)
	resp := decodeMap(t, rr)
	assert.Equal(t, f.sess.ID.String(), resp["id"])
}

func TestPos_GetSession_OtherBranch(t *testing.T) {
	f := setupPos(t)

	path := "/branches/" + uuid.New().String() + "/pos/sessions/" + f.sess.ID.String() + "/"
	rr := doRequest(t, f.router, "GET", path, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestPos_GetSession_InvalidID(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "GET", "/branches/"+f.branchID.String()+"/pos/sessions/nope/", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestPos_DeleteSession(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "DELETE", f.base+"/", nil)
	expectStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, 0, f.sessions.Len())

	rr = doRequest(t, f.router, "GET", f.base+"/", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Operation routing tests ---

func TestPos_SelectTable(t *testing.T) {
	f := setupPos(t)
	tableID := uuid.New()

	rr := doRequest(t, f.router, "PUT", f.base+"/table", map[string]string{"table_id": tableID.String()})
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, tableID, f.pos.lastTable)
}

func TestPos_SelectTable_InvalidID(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "PUT", f.base+"/table", map[string]string{"table_id": "x"})
	expectStatus(t, rr, http.StatusBadRequest)
	assert.Empty(t, f.pos.calls)
}

func TestPos_CartOperations(t *testing.T) {
	f := setupPos(t)
	productID := uuid.New()

	rr := doRequest(t, f.router, "POST", f.base+"/cart/items", map[string]string{"product_id": productID.String()})
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, productID, f.pos.lastProduct)

	rr = doRequest(t, f.router, "POST", f.base+"/cart/items/"+productID.String()+"/increment", nil)
	expectStatus(t, rr, http.StatusOK)

	rr = doRequest(t, f.router, "POST", f.base+"/cart/items/"+productID.String()+"/decrement", nil)
	expectStatus(t, rr, http.StatusOK)

	rr = doRequest(t, f.router, "POST", f.base+"/save", nil)
	expectStatus(t, rr, http.StatusOK)

	assert.Equal(t, []string{"AddToPendingCart", "IncrementPending", "DecrementPending", "SaveToTable"}, f.pos.calls)
}

func TestPos_AdjustAndRemoveItem(t *testing.T) {
	f := setupPos(t)
	itemID := uuid.New()

	rr := doRequest(t, f.router, "PATCH", f.base+"/items/"+itemID.String(), map[string]int{"delta": -2})
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, itemID, f.pos.lastItem)
	assert.Equal(t, int32(-2), f.pos.lastDelta)

	rr = doRequest(t, f.router, "DELETE", f.base+"/items/"+itemID.String(), nil)
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, "RemoveSavedItem", f.pos.calls[len(f.pos.calls)-1])
}

func TestPos_PayFull(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "POST", f.base+"/pay", map[string]string{"method": "cash"})
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, "cash", f.pos.lastMethod)

	resp := decodeMap(t, rr)
	assert.Equal(t, "20.00", resp["total"])
	assert.Equal(t, float64(1), resp["sales_created"])
	order := resp["order"].(map[string]interface{})
	assert.Equal(t, "paid", order["status"])
	payments := resp["payments"].([]interface{})
	require.Len(t, payments, 1)
	assert.Equal(t, "20.00", payments[0].(map[string]interface{})["amount"])
}

func TestPos_PayFull_MissingMethod(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "POST", f.base+"/pay", map[string]string{})
	expectStatus(t, rr, http.StatusBadRequest)
	assert.Empty(t, f.pos.calls)
}

func TestPos_PaySplit(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "POST", f.base+"/pay/split", map[string]interface{}{
		"payments": []map[string]interface{}{
			{"method": "cash", "amount": "12.50"},
			{"method": "card", "amount": 7.5},
		},
	})
	expectStatus(t, rr, http.StatusOK)
	require.Len(t, f.pos.lastSplit, 2)
	assert.True(t, f.pos.lastSplit[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "card", f.pos.lastSplit[1].Method)
	assert.True(t, f.pos.lastSplit[1].Amount.Equal(decimal.RequireFromString("7.5")))
}

func TestPos_Cancel(t *testing.T) {
	f := setupPos(t)

	rr := doRequest(t, f.router, "POST", f.base+"/cancel", nil)
	expectStatus(t, rr, http.StatusOK)
	assert.Equal(t, []string{"CancelOrder"}, f.pos.calls)
}

// --- Error mapping ---

func TestPos_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrTableNotFound, http.StatusNotFound},
		{service.ErrProductNotFound, http.StatusNotFound},
		{service.ErrPendingItemNotFound, http.StatusNotFound},
		{service.ErrItemNotFound, http.StatusNotFound},
		{service.ErrNoTableSelected, http.StatusBadRequest},
		{service.ErrEmptyCart, http.StatusBadRequest},
		{service.ErrInvalidDelta, http.StatusBadRequest},
		{service.ErrEmptyOrder, http.StatusBadRequest},
		{service.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{service.ErrInvalidAmount, http.StatusBadRequest},
		{service.ErrEmptySplit, http.StatusBadRequest},
		{service.ErrSplitMismatch, http.StatusBadRequest},
		{service.ErrTableBusy, http.StatusConflict},
		{service.ErrNoOpenOrder, http.StatusConflict},
		{service.ErrOrderNotOpen, http.StatusConflict},
		{service.ErrPaymentMismatch, http.StatusConflict},
		{service.ErrOrderHasPayments, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := setupPos(t)
			f.pos.err = tt.err

			rr := doRequest(t, f.router, "POST", f.base+"/save", nil)
			expectStatus(t, rr, tt.want)

			resp := decodeMap(t, rr)
			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp["error"])
			} else {
				assert.Equal(t, tt.err.Error(), resp["error"])
			}
		})
	}
}
