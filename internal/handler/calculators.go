package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/masapos/api/internal/calculator"
	"github.com/shopspring/decimal"
)

// CalculatorHandler exposes the stateless payroll and menu calculators.
type CalculatorHandler struct{}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// RegisterRoutes registers calculator endpoints: /calculators
func (h *CalculatorHandler) RegisterRoutes(r chi.Router) {
	r.Post("/salary", h.Salary)
	r.Post("/menu-recommendations", h.MenuRecommendations)
}

// --- Request / Response types ---

// Money fields accept JSON numbers or numeric strings.
type salaryRequest struct {
	BaseSalary         decimal.Decimal  `json:"base_salary"`
	TotalHours         decimal.Decimal  `json:"total_hours"`
	OvertimeHours      decimal.Decimal  `json:"overtime_hours"`
	Bonuses            decimal.Decimal  `json:"bonuses"`
	Deductions         decimal.Decimal  `json:"deductions"`
	HourlyRate         *decimal.Decimal `json:"hourly_rate"`
	OvertimeMultiplier *decimal.Decimal `json:"overtime_multiplier"`
}

type salaryBreakdownResponse struct {
	RegularPay         string `json:"regular_pay"`
	OvertimePay        string `json:"overtime_pay"`
	HourlyRate         string `json:"hourly_rate"`
	OvertimeMultiplier string `json:"overtime_multiplier"`
}

type salaryResponse struct {
	BaseSalary  string                  `json:"base_salary"`
	OvertimePay string                  `json:"overtime_pay"`
	Bonuses     string                  `json:"bonuses"`
	Deductions  string                  `json:"deductions"`
	NetSalary   string                  `json:"net_salary"`
	Breakdown   salaryBreakdownResponse `json:"breakdown"`
}

type menuItemRequest struct {
	MenuItemID      string           `json:"menu_item_id"`
	Category        string           `json:"category"`
	PopularityScore decimal.Decimal  `json:"popularity_score"`
	ProfitMargin    decimal.Decimal  `json:"profit_margin"`
	SellingPrice    *decimal.Decimal `json:"selling_price"`
}

type menuRecommendationRequest struct {
	MenuItems []menuItemRequest `json:"menu_items"`
}

type impactResponse struct {
	RevenueChange *int `json:"revenue_change,omitempty"`
	ProfitChange  *int `json:"profit_change,omitempty"`
}

type recommendationResponse struct {
	MenuItemID     string         `json:"menu_item_id"`
	Category       string         `json:"category"`
	Action         string         `json:"action"`
	Reasoning      string         `json:"reasoning"`
	SuggestedPrice *string        `json:"suggested_price"`
	ExpectedImpact impactResponse `json:"expected_impact"`
}

type menuAnalysisResponse struct {
	Recommendations []recommendationResponse `json:"recommendations"`
	OverallInsights string                   `json:"overall_insights"`
}

// hourlyRatePlaces keeps a derived rate such as 5000/225 precise enough
// that rate × hours reproduces regular_pay to the cent.
const hourlyRatePlaces = 6

func toSalaryResponse(res calculator.SalaryResult) salaryResponse {
	return salaryResponse{
		BaseSalary:  res.BaseSalary.StringFixed(2),
		OvertimePay: res.OvertimePay.StringFixed(2),
		Bonuses:     res.Bonuses.StringFixed(2),
		Deductions:  res.Deductions.StringFixed(2),
		NetSalary:   res.NetSalary.StringFixed(2),
		Breakdown: salaryBreakdownResponse{
			RegularPay:         res.Breakdown.RegularPay.StringFixed(2),
			OvertimePay:        res.Breakdown.OvertimePay.StringFixed(2),
			HourlyRate:         res.Breakdown.HourlyRate.Round(hourlyRatePlaces).String(),
			OvertimeMultiplier: res.Breakdown.OvertimeMultiplier.String(),
		},
	}
}

func toMenuAnalysisResponse(a calculator.MenuAnalysis) menuAnalysisResponse {
	resp := menuAnalysisResponse{
		Recommendations: make([]recommendationResponse, len(a.Recommendations)),
		OverallInsights: a.OverallInsights,
	}
	for i, rec := range a.Recommendations {
		out := recommendationResponse{
			MenuItemID: rec.MenuItemID,
			Category:   rec.Category,
			Action:     rec.Action,
			Reasoning:  rec.Reasoning,
		}
		if rec.SuggestedPrice != nil {
			s := rec.SuggestedPrice.StringFixed(2)
			out.SuggestedPrice = &s
		}
		if rec.ExpectedImpact != nil {
			revenue, profit := rec.ExpectedImpact.RevenueChange, rec.ExpectedImpact.ProfitChange
			out.ExpectedImpact = impactResponse{RevenueChange: &revenue, ProfitChange: &profit}
		}
		resp.Recommendations[i] = out
	}
	return resp
}

// --- Handlers ---

// Salary computes a payslip from the posted figures.
func (h *CalculatorHandler) Salary(w http.ResponseWriter, r *http.Request) {
	var req salaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := calculator.SalaryInput{
		BaseSalary:         req.BaseSalary,
		TotalHours:         req.TotalHours,
		OvertimeHours:      req.OvertimeHours,
		Bonuses:            req.Bonuses,
		Deductions:         req.Deductions,
		HourlyRate:         req.HourlyRate,
		OvertimeMultiplier: req.OvertimeMultiplier,
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSalaryResponse(calculator.Salary(in)))
}

// MenuRecommendations classifies posted menu items into actions.
func (h *CalculatorHandler) MenuRecommendations(w http.ResponseWriter, r *http.Request) {
	var req menuRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MenuItems == nil {
		writeError(w, http.StatusBadRequest, "menu_items is required")
		return
	}

	items := make([]calculator.MenuItem, len(req.MenuItems))
	for i, it := range req.MenuItems {
		items[i] = calculator.MenuItem{
			ID:              it.MenuItemID,
			Category:        it.Category,
			PopularityScore: it.PopularityScore,
			ProfitMargin:    it.ProfitMargin,
			SellingPrice:    it.SellingPrice,
		}
	}

	writeJSON(w, http.StatusOK, toMenuAnalysisResponse(calculator.Recommend(items)))
}
