package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/masapos/api/internal/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReportsStore defines the database methods needed by sales and report
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.Sale, error)
	GetSalesSummary(ctx context.Context, arg database.SalesRangeParams) (database.GetSalesSummaryRow, error)
	GetProductSales(ctx context.Context, arg database.SalesRangeParams) ([]database.GetProductSalesRow, error)
	GetPaymentSummary(ctx context.Context, arg database.SalesRangeParams) ([]database.GetPaymentSummaryRow, error)
	SumIncome(ctx context.Context, arg database.SalesRangeParams) (pgtype.Numeric, error)
}

// ReportsHandler handles the sales ledger and report endpoints.
type ReportsHandler struct {
	store ReportsStore
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store, now: time.Now}
}

// RegisterSalesRoutes registers the sales ledger: /branches/{bid}/sales
func (h *ReportsHandler) RegisterSalesRoutes(r chi.Router) {
	r.Get("/", h.ListSales)
}

// RegisterRoutes registers report endpoints: /branches/{bid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.SalesReport)
	r.With(middleware.RequireRole(enum.RoleAdmin, enum.RoleManager)).Get("/finance", h.FinanceReport)
}

// --- Response types ---

type saleResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     *uuid.UUID `json:"order_id"`
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	Amount      string     `json:"amount"`
	Quantity    int32      `json:"quantity"`
	Total       string     `json:"total"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type productSalesResponse struct {
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	TotalRevenue string `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMethod    string `json:"payment_method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

type salesReportResponse struct {
	Range             string                   `json:"range"`
	From              time.Time                `json:"from"`
	To                time.Time                `json:"to"`
	OrderCount        int64                    `json:"order_count"`
	QuantitySold      int64                    `json:"quantity_sold"`
	TotalRevenue      string                   `json:"total_revenue"`
	AverageOrderValue string                   `json:"average_order_value"`
	TopProducts       []productSalesResponse   `json:"top_products"`
	PaymentMethods    []paymentSummaryResponse `json:"payment_methods"`
}

type financeReportResponse struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	SalesRevenue string    `json:"sales_revenue"`
	OtherIncome  string    `json:"other_income"`
	TotalIncome  string    `json:"total_income"`
}

func toSaleResponse(s database.Sale) saleResponse {
	resp := saleResponse{
		ID:          s.ID,
		ProductName: s.ProductName,
		Amount:      money(s.Amount),
		Quantity:    s.Quantity,
		Total:       money(s.Total),
		Description: optionalText(s.Description),
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
	if s.OrderID.Valid {
		id := uuid.UUID(s.OrderID.Bytes)
		resp.OrderID = &id
	}
	if s.ProductID.Valid {
		id := uuid.UUID(s.ProductID.Bytes)
		resp.ProductID = &id
	}
	return resp
}

// --- Helpers ---

var errInvalidRange = errors.New("range must be today, week or month")

// rangeBounds turns a named range into [from, to). Every range ends at the
// next local midnight; "week" is the trailing 7 days and "month" starts on
// the 1st.
func rangeBounds(rng string, now time.Time) (time.Time, time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := midnight.AddDate(0, 0, 1)
	switch rng {
	case enum.RangeToday, "":
		return midnight, to, nil
	case enum.RangeWeek:
		return midnight.AddDate(0, 0, -6), to, nil
	case enum.RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), to, nil
	}
	return time.Time{}, time.Time{}, errInvalidRange
}

// parseDateRange reads inclusive from/to dates (YYYY-MM-DD) and returns
// [from, to) with to moved to the following midnight. Missing params fall
// back to the given defaults, which are used as is.
func parseDateRange(r *http.Request, defFrom, defTo time.Time) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	loc := defTo.Location()
	from, to := defFrom, defTo

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
		}
		to = t.AddDate(0, 0, 1)
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("from must be before to")
	}
	return from, to, nil
}

// --- Handlers ---

// ListSales returns sales rows for [from, to), newest first. Defaults to
// the last 30 days.
func (h *ReportsHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	now := h.now()
	from, to, err := parseDateRange(r, now.AddDate(0, 0, -30), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset := pagination(r)

	sales, err := h.store.ListSales(r.Context(), database.ListSalesParams{
		BranchID: branchID,
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		internalError(w, "list sales", err)
		return
	}

	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toSaleResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SalesReport summarises sales for ?range=today|week|month.
func (h *ReportsHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	rng := r.URL.Query().Get("range")
	from, to, err := rangeBounds(rng, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rng == "" {
		rng = enum.RangeToday
	}
	params := database.SalesRangeParams{BranchID: branchID, From: from, To: to}

	// The three aggregates are independent reads.
	var (
		summary  database.GetSalesSummaryRow
		products []database.GetProductSalesRow
		payments []database.GetPaymentSummaryRow
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		summary, err = h.store.GetSalesSummary(ctx, params)
		return err
	})
	g.Go(func() (err error) {
		products, err = h.store.GetProductSales(ctx, params)
		return err
	})
	g.Go(func() (err error) {
		payments, err = h.store.GetPaymentSummary(ctx, params)
		return err
	})
	if err := g.Wait(); err != nil {
		internalError(w, "sales report", err)
		return
	}

	revenue := database.NumericToDecimal(summary.TotalRevenue)
	avg := decimal.Zero
	if summary.OrderCount > 0 {
		avg = revenue.Div(decimal.NewFromInt(summary.OrderCount))
	}

	resp := salesReportResponse{
		Range:             rng,
		From:              from,
		To:                to,
		OrderCount:        summary.OrderCount,
		QuantitySold:      summary.QuantitySold,
		TotalRevenue:      revenue.StringFixed(2),
		AverageOrderValue: avg.StringFixed(2),
		TopProducts:       make([]productSalesResponse, len(products)),
		PaymentMethods:    make([]paymentSummaryResponse, len(payments)),
	}
	for i, p := range products {
		resp.TopProducts[i] = productSalesResponse{
			ProductName:  p.ProductName,
			QuantitySold: p.QuantitySold,
			TotalRevenue: money(p.TotalRevenue),
		}
	}
	for i, p := range payments {
		resp.PaymentMethods[i] = paymentSummaryResponse{
			PaymentMethod:    p.PaymentMethod,
			TransactionCount: p.TransactionCount,
			TotalAmount:      money(p.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// FinanceReport adds POS sales revenue and manually recorded income for
// [from, to). Defaults to the current month.
func (h *ReportsHandler) FinanceReport(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	monthFrom, monthTo, _ := rangeBounds(enum.RangeMonth, h.now())
	from, to, err := parseDateRange(r, monthFrom, monthTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := database.SalesRangeParams{BranchID: branchID, From: from, To: to}

	summary, err := h.store.GetSalesSummary(r.Context(), params)
	if err != nil {
		internalError(w, "sales summary", err)
		return
	}
	income, err := h.store.SumIncome(r.Context(), params)
	if err != nil {
		internalError(w, "sum income", err)
		return
	}

	sales := database.NumericToDecimal(summary.TotalRevenue)
	other := database.NumericToDecimal(income)
	writeJSON(w, http.StatusOK, financeReportResponse{
		From:         from,
		To:           to,
		SalesRevenue: sales.StringFixed(2),
		OtherIncome:  other.StringFixed(2),
		TotalIncome:  sales.Add(other).StringFixed(2),
	})
}
