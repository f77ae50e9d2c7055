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
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
)

// AttendanceStore defines the database methods needed by attendance handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AttendanceStore interface {
	ListPinPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]database.Personnel, error)
	GetLatestAttendance(ctx context.Context, personnelID uuid.UUID) (database.Attendance, error)
	CreateAttendance(ctx context.Context, arg database.CreateAttendanceParams) (database.Attendance, error)
	CheckOutAttendance(ctx context.Context, arg database.CheckOutAttendanceParams) (database.Attendance, error)
	ListAttendance(ctx context.Context, arg database.ListAttendanceParams) ([]database.Attendance, error)
}

// AttendanceHandler handles the time clock.
type AttendanceHandler struct {
	store AttendanceStore
	now   func() time.Time
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(store AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store, now: time.Now}
}

// RegisterPublicRoutes registers the kiosk check-in endpoint, which
// authenticates by PIN instead of a token.
func (h *AttendanceHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/attendance/check-in", h.CheckIn)
}

// RegisterRoutes registers attendance reporting.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/attendance
func (h *AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// --- Request / Response types ---

type checkInRequest struct {
	BranchID string `json:"branch_id"`
	Pin      string `json:"pin"`
	Method   string `json:"method"`
}

type attendanceResponse struct {
	ID          uuid.UUID  `json:"id"`
	PersonnelID uuid.UUID  `json:"personnel_id"`
	Method      string     `json:"method"`
	CheckInAt   time.Time  `json:"check_in_at"`
	CheckOutAt  *time.Time `json:"check_out_at"`
}

type checkInResponse struct {
	Action     string             `json:"action"`
	FullName   string             `json:"full_name"`
	Attendance attendanceResponse `json:"attendance"`
}

func toAttendanceResponse(a database.Attendance) attendanceResponse {
	resp := attendanceResponse{
		ID:          a.ID,
		PersonnelID: a.PersonnelID,
		Method:      string(a.Method),
		CheckInAt:   a.CheckInAt,
	}
	if a.CheckOutAt.Valid {
		t := a.CheckOutAt.Time
		resp.CheckOutAt = &t
	}
	return resp
}

// --- Handlers ---

// CheckIn toggles the caller's shift: it closes an open shift, or opens a
// new one when none is open.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BranchID == "" || req.Pin == "" {
		writeError(w, http.StatusBadRequest, "branch_id and pin are required")
		return
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid branch_id")
		return
	}
	if req.Method == "" {
		req.Method = enum.AttendanceMethodPin
	}
	if req.Method != enum.AttendanceMethodPin && req.Method != enum.AttendanceMethodQR {
		writeError(w, http.StatusBadRequest, "method must be pin or qr")
		return
	}
	method := database.AttendanceMethod(req.Method)

	p, err := findByPin(r.Context(), h.store, branchID, req.Pin)
	if err != nil {
		if errors.Is(err, errPinNoMatch) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, "check-in lookup", err)
		return
	}

	latest, err := h.store.GetLatestAttendance(r.Context(), p.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		internalError(w, "get latest attendance", err)
		return
	}

	if err == nil && !latest.CheckOutAt.Valid {
		a, err := h.store.CheckOutAttendance(r.Context(), database.CheckOutAttendanceParams{
			ID:     latest.ID,
			Method: method,
		})
		if err != nil {
			internalError(w, "check out", err)
			return
		}
		writeJSON(w, http.StatusOK, checkInResponse{Action: "check_out", FullName: p.FullName, Attendance: toAttendanceResponse(a)})
		return
	}

	a, err := h.store.CreateAttendance(r.Context(), database.CreateAttendanceParams{
		PersonnelID: p.ID,
		Method:      method,
	})
	if err != nil {
		internalError(w, "check in", err)
		return
	}
	writeJSON(w, http.StatusCreated, checkInResponse{Action: "check_in", FullName: p.FullName, Attendance: toAttendanceResponse(a)})
}

// List returns shifts of the branch that started in [from, to), optionally
// filtered by personnel_id. Defaults to the last 7 days.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	now := h.now()
	from, to, err := parseDateRange(r, now.AddDate(0, 0, -7), now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := database.ListAttendanceParams{BranchID: branchID, From: from, To: to}
	if s := r.URL.Query().Get("personnel_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid personnel_id")
			return
		}
		params.PersonnelID = pgtype.UUID{Bytes: id, Valid: true}
	}

	rows, err := h.store.ListAttendance(r.Context(), params)
	if err != nil {
		internalError(w, "list attendance", err)
		return
	}

	resp := make([]attendanceResponse, len(rows))
	for i, a := range rows {
		resp[i] = toAttendanceResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}
