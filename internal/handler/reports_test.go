package handler_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock store ---

type mockReportsStore struct {
	mu          sync.Mutex
	sales       []database.Sale
	summary     database.GetSalesSummaryRow
	products    []database.GetProductSalesRow
	payments    []database.GetPaymentSummaryRow
	income      pgtype.Numeric
	summaryErr  error
	lastRange   database.SalesRangeParams
	lastListArg database.ListSalesParams
}

func (m *mockReportsStore) ListSales(_ context.Context, arg database.ListSalesParams) ([]database.Sale, error) {
	m.lastListArg = arg
	return m.sales, nil
}

func (m *mockReportsStore) GetSalesSummary(_ context.Context, arg database.SalesRangeParams) (database.GetSalesSummaryRow, error) {
	m.mu.Lock()
	m.lastRange = arg
	m.mu.Unlock()
	return m.summary, m.summaryErr
}

func (m *mockReportsStore) GetProductSales(_ context.Context, _ database.SalesRangeParams) ([]database.GetProductSalesRow, error) {
	return m.products, nil
}

func (m *mockReportsStore) GetPaymentSummary(_ context.Context, _ database.SalesRangeParams) ([]database.GetPaymentSummaryRow, error) {
	return m.payments, nil
}

func (m *mockReportsStore) SumIncome(_ context.Context, _ database.SalesRangeParams) (pgtype.Numeric, error) {
	return m.income, nil
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store)
	r := chi.NewRouter()
	r.Route("/branches/{bid}/sales", h.RegisterSalesRoutes)
	r.Route("/branches/{bid}/reports", h.RegisterRoutes)
	return r
}

// --- Sales report tests ---

func TestSalesReport_Aggregates(t *testing.T) {
	store := &mockReportsStore{
		summary: database.GetSalesSummaryRow{OrderCount: 4, QuantitySold: 11, TotalRevenue: testNumeric("250")},
		products: []database.GetProductSalesRow{
			{ProductName: "Kopi", QuantitySold: 8, TotalRevenue: testNumeric("160")},
			{ProductName: "Roti", QuantitySold: 3, TotalRevenue: testNumeric("90")},
		},
		payments: []database.GetPaymentSummaryRow{
			{PaymentMethod: "cash", TransactionCount: 3, TotalAmount: testNumeric("150")},
			{PaymentMethod: "card", TransactionCount: 2, TotalAmount: testNumeric("100")},
		},
	}
	branchID := uuid.New()
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/sales?range=week", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusOK)

	resp := decodeMap(t, rr)
	assert.Equal(t, "week", resp["range"])
	assert.Equal(t, float64(4), resp["order_count"])
	assert.Equal(t, float64(11), resp["quantity_sold"])
	assert.Equal(t, "250.00", resp["total_revenue"])
	assert.Equal(t, "62.50", resp["average_order_value"])

	top := resp["top_products"].([]interface{})
	require.Len(t, top, 2)
	assert.Equal(t, "Kopi", top[0].(map[string]interface{})["product_name"])
	assert.Equal(t, "160.00", top[0].(map[string]interface{})["total_revenue"])

	methods := resp["payment_methods"].([]interface{})
	require.Len(t, methods, 2)
	assert.Equal(t, float64(2), methods[1].(map[string]interface{})["transaction_count"])

	assert.Equal(t, branchID, store.lastRange.BranchID)
	assert.True(t, store.lastRange.From.AddDate(0, 0, 7).Equal(store.lastRange.To))
}

func TestSalesReport_DefaultsToToday(t *testing.T) {
	store := &mockReportsStore{}
	branchID := uuid.New()
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/sales", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusOK)

	resp := decodeMap(t, rr)
	assert.Equal(t, "today", resp["range"])
	assert.Equal(t, "0.00", resp["total_revenue"])
	assert.Equal(t, "0.00", resp["average_order_value"])
	assert.Empty(t, resp["top_products"])
}

func TestSalesReport_InvalidRange(t *testing.T) {
	branchID := uuid.New()
	router := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/sales?range=year", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSalesReport_StoreError(t *testing.T) {
	branchID := uuid.New()
	router := setupReportsRouter(&mockReportsStore{summaryErr: errors.New("db down")})

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/sales", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusInternalServerError)
}

// --- Finance report tests ---

func TestFinanceReport(t *testing.T) {
	store := &mockReportsStore{
		summary: database.GetSalesSummaryRow{TotalRevenue: testNumeric("1000.5")},
		income:  testNumeric("200"),
	}
	branchID := uuid.New()
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/finance?from=2026-01-01&to=2026-01-31", nil, managerClaims(branchID))
	expectStatus(t, rr, http.StatusOK)

	resp := decodeMap(t, rr)
	assert.Equal(t, "1000.50", resp["sales_revenue"])
	assert.Equal(t, "200.00", resp["other_income"])
	assert.Equal(t, "1200.50", resp["total_income"])
	assert.Equal(t, "2026-02-01", store.lastRange.To.Format("2006-01-02"))
}

func TestFinanceReport_StaffForbidden(t *testing.T) {
	branchID := uuid.New()
	router := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/reports/finance", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusForbidden)
}

// --- Sales ledger tests ---

func TestListSales(t *testing.T) {
	orderID := uuid.New()
	store := &mockReportsStore{sales: []database.Sale{
		{
			ID:          uuid.New(),
			OrderID:     pgtype.UUID{Bytes: orderID, Valid: true},
			ProductName: "Kopi",
			Amount:      testNumeric("20"),
			Quantity:    2,
			Total:       testNumeric("40"),
			Status:      "completed",
		},
	}}
	branchID := uuid.New()
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/sales/?from=2026-05-01&to=2026-05-01&limit=5&offset=10", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusOK)

	list := decodeList(t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, orderID.String(), list[0]["order_id"])
	assert.Nil(t, list[0]["product_id"])
	assert.Equal(t, "40.00", list[0]["total"])

	assert.Equal(t, int32(5), store.lastListArg.Limit)
	assert.Equal(t, int32(10), store.lastListArg.Offset)
	assert.Equal(t, "2026-05-01", store.lastListArg.From.Format("2006-01-02"))
	assert.Equal(t, "2026-05-02", store.lastListArg.To.Format("2006-01-02"))
}

func TestListSales_PaginationBounds(t *testing.T) {
	store := &mockReportsStore{}
	branchID := uuid.New()
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/sales/?from=2026-05-01&to=2026-05-01&limit=500&offset=99999999999", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusOK)

	assert.Equal(t, int32(100), store.lastListArg.Limit)
	assert.Equal(t, int32(math.MaxInt32), store.lastListArg.Offset)
}

func TestListSales_BadDate(t *testing.T) {
	branchID := uuid.New()
	router := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/sales/?from=05-01-2026", nil, staffClaims(branchID))
	expectStatus(t, rr, http.StatusBadRequest)
}
