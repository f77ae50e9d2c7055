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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/auth"
	"github.com/masapos/api/internal/calculator"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/masapos/api/internal/middleware"
	"github.com/shopspring/decimal"
)

// PersonnelStore defines the database methods needed by personnel handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PersonnelStore interface {
	ListPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]database.Personnel, error)
	GetPersonnel(ctx context.Context, arg database.GetPersonnelParams) (database.Personnel, error)
	CreatePersonnel(ctx context.Context, arg database.CreatePersonnelParams) (database.Personnel, error)
	UpdatePersonnel(ctx context.Context, arg database.UpdatePersonnelParams) (database.Personnel, error)
	SetPersonnelPin(ctx context.Context, arg database.SetPersonnelPinParams) (uuid.UUID, error)
	SoftDeletePersonnel(ctx context.Context, arg database.SoftDeletePersonnelParams) (uuid.UUID, error)
	ListAttendance(ctx context.Context, arg database.ListAttendanceParams) ([]database.Attendance, error)
}

// PersonnelHandler handles staff management and payroll endpoints.
type PersonnelHandler struct {
	store PersonnelStore
	now   func() time.Time
}

// NewPersonnelHandler creates a new PersonnelHandler.
func NewPersonnelHandler(store PersonnelStore) *PersonnelHandler {
	return &PersonnelHandler{store: store, now: time.Now}
}

// RegisterRoutes registers personnel endpoints.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/personnel
func (h *PersonnelHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.RoleAdmin, enum.RoleManager))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Put("/{id}/pin", h.SetPin)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/salary", h.Salary)
	})
}

// --- Request / Response types ---

type createPersonnelRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Password   string `json:"password"`
	Pin        string `json:"pin"`
	HourlyRate string `json:"hourly_rate"`
	BaseSalary string `json:"base_salary"`
}

type updatePersonnelRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	HourlyRate string `json:"hourly_rate"`
	BaseSalary string `json:"base_salary"`
}

type setPinRequest struct {
	Pin string `json:"pin"`
}

type personnelResponse struct {
	ID         uuid.UUID `json:"id"`
	BranchID   uuid.UUID `json:"branch_id"`
	FullName   string    `json:"full_name"`
	Email      *string   `json:"email"`
	Role       string    `json:"role"`
	HasPin     bool      `json:"has_pin"`
	HourlyRate *string   `json:"hourly_rate"`
	BaseSalary *string   `json:"base_salary"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type personnelSalaryResponse struct {
	PersonnelID   uuid.UUID      `json:"personnel_id"`
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	Shifts        int            `json:"shifts"`
	TotalHours    string         `json:"total_hours"`
	OvertimeHours string         `json:"overtime_hours"`
	Salary        salaryResponse `json:"salary"`
}

func toPersonnelResponse(p database.Personnel) personnelResponse {
	return personnelResponse{
		ID:         p.ID,
		BranchID:   p.BranchID,
		FullName:   p.FullName,
		Email:      optionalText(p.Email),
		Role:       string(p.Role),
		HasPin:     p.PinHash.Valid,
		HourlyRate: optionalMoney(p.HourlyRate),
		BaseSalary: optionalMoney(p.BaseSalary),
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
	}
}

// --- Helpers ---

func isValidRole(role string) bool {
	switch role {
	case enum.RoleAdmin, enum.RoleManager, enum.RoleStaff:
		return true
	}
	return false
}

// optionalMoneyParam parses an optional money field. Empty means NULL.
func optionalMoneyParam(s string) (pgtype.Numeric, error) {
	if s == "" {
		return pgtype.Numeric{}, nil
	}
	return parseMoney(s)
}

// checkRoleGrant returns an error message when the caller may not assign
// role. Only ADMIN can create or promote ADMIN accounts.
func checkRoleGrant(r *http.Request, role string) string {
	if !isValidRole(role) {
		return "invalid role"
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if role == enum.RoleAdmin && (claims == nil || claims.Role != enum.RoleAdmin) {
		return "only ADMIN can grant the ADMIN role"
	}
	return ""
}

// workedHours sums the closed shifts in rows. Open shifts are ignored until
// the staff member checks out.
func workedHours(rows []database.Attendance) (decimal.Decimal, int) {
	var total time.Duration
	shifts := 0
	for _, a := range rows {
		if !a.CheckOutAt.Valid {
			continue
		}
		total += a.CheckOutAt.Time.Sub(a.CheckInAt)
		shifts++
	}
	return decimal.NewFromFloat(total.Hours()).Round(2), shifts
}

// --- Handlers ---

// List returns the active personnel of the branch.
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	people, err := h.store.ListPersonnelByBranch(r.Context(), branchID)
	if err != nil {
		internalError(w, "list personnel", err)
		return
	}

	resp := make([]personnelResponse, len(people))
	for i, p := range people {
		resp[i] = toPersonnelResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one staff member.
func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "personnel ID")
	if !ok {
		return
	}

	p, err := h.store.GetPersonnel(r.Context(), database.GetPersonnelParams{ID: id, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "personnel not found")
			return
		}
		internalError(w, "get personnel", err)
		return
	}

	writeJSON(w, http.StatusOK, toPersonnelResponse(p))
}

// Create adds a staff member. Password and PIN are hashed before storage.
func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	var req createPersonnelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}
	if req.Role == "" {
		req.Role = enum.RoleStaff
	}
	if msg := checkRoleGrant(r, req.Role); msg != "" {
		status := http.StatusBadRequest
		if isValidRole(req.Role) {
			status = http.StatusForbidden
		}
		writeError(w, status, msg)
		return
	}
	if req.Password != "" && req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required with a password")
		return
	}

	params := database.CreatePersonnelParams{
		BranchID: branchID,
		FullName: req.FullName,
		Email:    textOrNull(req.Email),
		Role:     database.PersonnelRole(req.Role),
	}

	var err error
	if params.HourlyRate, err = optionalMoneyParam(req.HourlyRate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid hourly_rate")
		return
	}
	if params.BaseSalary, err = optionalMoneyParam(req.BaseSalary); err != nil {
		writeError(w, http.StatusBadRequest, "invalid base_salary")
		return
	}

	if req.Password != "" {
		hash, err := auth.HashSecret(req.Password)
		if err != nil {
			internalError(w, "hash password", err)
			return
		}
		params.PasswordHash = textOrNull(hash)
	}
	if req.Pin != "" {
		if err := auth.ValidatePin(req.Pin); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := auth.HashSecret(req.Pin)
		if err != nil {
			internalError(w, "hash pin", err)
			return
		}
		params.PinHash = textOrNull(hash)
	}

	p, err := h.store.CreatePersonnel(r.Context(), params)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "branch not found")
			return
		}
		internalError(w, "create personnel", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPersonnelResponse(p))
}

// Update replaces a staff member's profile fields.
func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "personnel ID")
	if !ok {
		return
	}

	var req updatePersonnelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}
	if req.Role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}
	if msg := checkRoleGrant(r, req.Role); msg != "" {
		status := http.StatusBadRequest
		if isValidRole(req.Role) {
			status = http.StatusForbidden
		}
		writeError(w, status, msg)
		return
	}

	params := database.UpdatePersonnelParams{
		ID:       id,
		BranchID: branchID,
		FullName: req.FullName,
		Email:    textOrNull(req.Email),
		Role:     database.PersonnelRole(req.Role),
	}
	var err error
	if params.HourlyRate, err = optionalMoneyParam(req.HourlyRate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid hourly_rate")
		return
	}
	if params.BaseSalary, err = optionalMoneyParam(req.BaseSalary); err != nil {
		writeError(w, http.StatusBadRequest, "invalid base_salary")
		return
	}

	p, err := h.store.UpdatePersonnel(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "personnel not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		internalError(w, "update personnel", err)
		return
	}

	writeJSON(w, http.StatusOK, toPersonnelResponse(p))
}

// SetPin replaces a staff member's PIN.
func (h *PersonnelHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "personnel ID")
	if !ok {
		return
	}

	var req setPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := auth.ValidatePin(req.Pin); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashSecret(req.Pin)
	if err != nil {
		internalError(w, "hash pin", err)
		return
	}

	if _, err := h.store.SetPersonnelPin(r.Context(), database.SetPersonnelPinParams{
		ID:       id,
		BranchID: branchID,
		PinHash:  hash,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "personnel not found")
			return
		}
		internalError(w, "set pin", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete deactivates a staff member.
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "personnel ID")
	if !ok {
		return
	}

	if _, err := h.store.SoftDeletePersonnel(r.Context(), database.SoftDeletePersonnelParams{
		ID:       id,
		BranchID: branchID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "personnel not found")
			return
		}
		internalError(w, "delete personnel", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Salary computes pay for a date range from closed attendance shifts.
// Hours above the standard month count as overtime. Optional bonuses and
// deductions query params feed straight into the calculator.
func (h *PersonnelHandler) Salary(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "personnel ID")
	if !ok {
		return
	}

	now := h.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	from, to, err := parseDateRange(r, monthStart, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := calculator.SalaryInput{}
	for _, f := range []struct {
		name string
		dst  *decimal.Decimal
	}{{"bonuses", &in.Bonuses}, {"deductions", &in.Deductions}} {
		if s := r.URL.Query().Get(f.name); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+f.name)
				return
			}
			*f.dst = d
		}
	}

	p, err := h.store.GetPersonnel(r.Context(), database.GetPersonnelParams{ID: id, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "personnel not found")
			return
		}
		internalError(w, "get personnel", err)
		return
	}

	rows, err := h.store.ListAttendance(r.Context(), database.ListAttendanceParams{
		BranchID:    branchID,
		PersonnelID: pgtype.UUID{Bytes: id, Valid: true},
		From:        from,
		To:          to,
	})
	if err != nil {
		internalError(w, "list attendance", err)
		return
	}

	hours, shifts := workedHours(rows)
	overtime := decimal.Max(decimal.Zero, hours.Sub(calculator.StandardMonthlyHours))

	in.BaseSalary = database.NumericToDecimal(p.BaseSalary)
	in.TotalHours = hours
	in.OvertimeHours = overtime
	if p.HourlyRate.Valid {
		rate := database.NumericToDecimal(p.HourlyRate)
		in.HourlyRate = &rate
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, personnelSalaryResponse{
		PersonnelID:   p.ID,
		From:          from,
		To:            to,
		Shifts:        shifts,
		TotalHours:    hours.StringFixed(2),
		OvertimeHours: overtime.StringFixed(2),
		Salary:        toSalaryResponse(calculator.Salary(in)),
	})
}
