package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock store ---

type mockAttendanceStore struct {
	people []database.Personnel
	shifts []database.Attendance
}

func (m *mockAttendanceStore) ListPinPersonnelByBranch(_ context.Context, branchID uuid.UUID) ([]database.Personnel, error) {
	var out []database.Personnel
	for _, p := range m.people {
		if p.BranchID == branchID && p.PinHash.Valid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockAttendanceStore) GetLatestAttendance(_ context.Context, personnelID uuid.UUID) (database.Attendance, error) {
	for i := len(m.shifts) - 1; i >= 0; i-- {
		if m.shifts[i].PersonnelID == personnelID {
			return m.shifts[i], nil
		}
	}
	return database.Attendance{}, pgx.ErrNoRows
}

func (m *mockAttendanceStore) CreateAttendance(_ context.Context, arg database.CreateAttendanceParams) (database.Attendance, error) {
	a := database.Attendance{ID: uuid.New(), PersonnelID: arg.PersonnelID, Method: arg.Method, CheckInAt: time.Now()}
	m.shifts = append(m.shifts, a)
	return a, nil
}

func (m *mockAttendanceStore) CheckOutAttendance(_ context.Context, arg database.CheckOutAttendanceParams) (database.Attendance, error) {
	for i := range m.shifts {
		if m.shifts[i].ID == arg.ID && !m.shifts[i].CheckOutAt.Valid {
			m.shifts[i].CheckOutAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
			return m.shifts[i], nil
		}
	}
	return database.Attendance{}, pgx.ErrNoRows
}

func (m *mockAttendanceStore) ListAttendance(_ context.Context, arg database.ListAttendanceParams) ([]database.Attendance, error) {
	var out []database.Attendance
	for _, a := range m.shifts {
		if arg.PersonnelID.Valid && uuid.UUID(arg.PersonnelID.Bytes) != a.PersonnelID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func setupAttendanceRouter(store *mockAttendanceStore) *chi.Mux {
	h := handler.NewAttendanceHandler(store)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Route("/branches/{bid}/attendance", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCheckIn_TogglesShift(t *testing.T) {
	branchID := uuid.New()
	p := makeTestPersonnel(t, branchID)
	store := &mockAttendanceStore{people: []database.Personnel{p}}
	router := setupAttendanceRouter(store)

	body := map[string]string{"branch_id": branchID.String(), "pin": "1234"}

	rr := doRequest(t, router, "POST", "/attendance/check-in", body)
	expectStatus(t, rr, http.StatusCreated)
	resp := decodeMap(t, rr)
	assert.Equal(t, "check_in", resp["action"])
	assert.Equal(t, p.FullName, resp["full_name"])
	att := resp["attendance"].(map[string]interface{})
	assert.Equal(t, "pin", att["method"])
	assert.Nil(t, att["check_out_at"])

	rr = doRequest(t, router, "POST", "/attendance/check-in", body)
	expectStatus(t, rr, http.StatusOK)
	resp = decodeMap(t, rr)
	assert.Equal(t, "check_out", resp["action"])
	assert.NotNil(t, resp["attendance"].(map[string]interface{})["check_out_at"])

	rr = doRequest(t, router, "POST", "/attendance/check-in", body)
	expectStatus(t, rr, http.StatusCreated)
	require.Len(t, store.shifts, 2)
}

func TestCheckIn_QRMethod(t *testing.T) {
	branchID := uuid.New()
	store := &mockAttendanceStore{people: []database.Personnel{makeTestPersonnel(t, branchID)}}
	router := setupAttendanceRouter(store)

	rr := doRequest(t, router, "POST", "/attendance/check-in", map[string]string{
		"branch_id": branchID.String(),
		"pin":       "1234",
		"method":    "qr",
	})
	expectStatus(t, rr, http.StatusCreated)
	require.Len(t, store.shifts, 1)
	assert.Equal(t, database.AttendanceMethodQr, store.shifts[0].Method)
}

func TestCheckIn_WrongPin(t *testing.T) {
	branchID := uuid.New()
	store := &mockAttendanceStore{people: []database.Personnel{makeTestPersonnel(t, branchID)}}
	router := setupAttendanceRouter(store)

	rr := doRequest(t, router, "POST", "/attendance/check-in", map[string]string{
		"branch_id": branchID.String(),
		"pin":       "0000",
	})
	expectStatus(t, rr, http.StatusUnauthorized)
	assert.Empty(t, store.shifts)
}

func TestCheckIn_Validation(t *testing.T) {
	router := setupAttendanceRouter(&mockAttendanceStore{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing branch", map[string]string{"pin": "1234"}},
		{"missing pin", map[string]string{"branch_id": uuid.New().String()}},
		{"bad branch", map[string]string{"branch_id": "x", "pin": "1234"}},
		{"bad method", map[string]string{"branch_id": uuid.New().String(), "pin": "1234", "method": "face"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", "/attendance/check-in", tt.body)
			expectStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestAttendanceList_FilterByPersonnel(t *testing.T) {
	branchID := uuid.New()
	a, b := uuid.New(), uuid.New()
	store := &mockAttendanceStore{shifts: []database.Attendance{
		{ID: uuid.New(), PersonnelID: a, Method: database.AttendanceMethodPin, CheckInAt: time.Now()},
		{ID: uuid.New(), PersonnelID: b, Method: database.AttendanceMethodPin, CheckInAt: time.Now()},
	}}
	router := setupAttendanceRouter(store)

	rr := doRequest(t, router, "GET", "/branches/"+branchID.String()+"/attendance/?personnel_id="+a.String(), nil)
	expectStatus(t, rr, http.StatusOK)

	list := decodeList(t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, a.String(), list[0]["personnel_id"])
}

func TestAttendanceList_InvalidPersonnel(t *testing.T) {
	router := setupAttendanceRouter(&mockAttendanceStore{})

	rr := doRequest(t, router, "GET", "/branches/"+uuid.New().String()+"/attendance/?personnel_id=x", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}
