package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
)

// --- Mock store ---

type mockBranchStore struct {
	branches map[uuid.UUID]database.Branch
}

func newMockBranchStore() *mockBranchStore {
	return &mockBranchStore{branches: make(map[uuid.UUID]database.Branch)}
}

func (m *mockBranchStore) seed(code, name string) database.Branch {
	b := database.Branch{ID: uuid.New(), Code: code, Name: name, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.branches[b.ID] = b
	return b
}

func (m *mockBranchStore) codeTaken(code string, except uuid.UUID) bool {
	for _, b := range m.branches {
		if b.Code == code && b.ID != except {
			return true
		}
	}
	return false
}

func (m *mockBranchStore) ListBranches(_ context.Context) ([]database.Branch, error) {
	var out []database.Branch
	for _, b := range m.branches {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBranchStore) GetBranch(_ context.Context, id uuid.UUID) (database.Branch, error) {
	b, ok := m.branches[id]
	if !ok || !b.IsActive {
		return database.Branch{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockBranchStore) CreateBranch(_ context.Context, arg database.CreateBranchParams) (database.Branch, error) {
	if m.codeTaken(arg.Code, uuid.Nil) {
		return database.Branch{}, &pgconn.PgError{Code: "23505"}
	}
	b := database.Branch{ID: uuid.New(), Code: arg.Code, Name: arg.Name, Address: arg.Address, Phone: arg.Phone, IsActive: true}
	m.branches[b.ID] = b
	return b, nil
}

func (m *mockBranchStore) UpdateBranch(_ context.Context, arg database.UpdateBranchParams) (database.Branch, error) {
	b, ok := m.branches[arg.ID]
	if !ok || !b.IsActive {
		return database.Branch{}, pgx.ErrNoRows
	}
	if m.codeTaken(arg.Code, arg.ID) {
		return database.Branch{}, &pgconn.PgError{Code: "23505"}
	}
	b.Code, b.Name, b.Address, b.Phone = arg.Code, arg.Name, arg.Address, arg.Phone
	m.branches[b.ID] = b
	return b, nil
}

func (m *mockBranchStore) SoftDeleteBranch(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	b, ok := m.branches[id]
	if !ok || !b.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	b.IsActive = false
	m.branches[id] = b
	return id, nil
}

func setupBranchRouter(store *mockBranchStore) *chi.Mux {
	h := handler.NewBranchHandler(store)
	r := chi.NewRouter()
	r.Route("/branches", func(r chi.Router) {
		h.RegisterRoutes(r)
		r.Route("/{bid}", h.RegisterItemRoutes)
	})
	return r
}

// --- Tests ---

func TestBranchList_AdminSeesAll(t *testing.T) {
	store := newMockBranchStore()
	store.seed("JKT", "Jakarta")
	store.seed("BDG", "Bandung")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/", nil, adminClaims())
	expectStatus(t, rr, http.StatusOK)
	if got := len(decodeList(t, rr)); got != 2 {
		t.Errorf("branches: got %d, want 2", got)
	}
}

func TestBranchList_ManagerSeesOwn(t *testing.T) {
	store := newMockBranchStore()
	own := store.seed("JKT", "Jakarta")
	store.seed("BDG", "Bandung")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/", nil, managerClaims(own.ID))
	expectStatus(t, rr, http.StatusOK)

	list := decodeList(t, rr)
	if len(list) != 1 || list[0]["id"] != own.ID.String() {
		t.Errorf("expected only own branch, got %v", list)
	}
}

func TestBranchGet_OtherBranchForbidden(t *testing.T) {
	store := newMockBranchStore()
	own := store.seed("JKT", "Jakarta")
	other := store.seed("BDG", "Bandung")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+other.ID.String(), nil, staffClaims(own.ID))
	expectStatus(t, rr, http.StatusForbidden)
}

func TestBranchCreate_Admin(t *testing.T) {
	router := setupBranchRouter(newMockBranchStore())

	rr := doAuthRequest(t, router, "POST", "/branches/", map[string]string{
		"code":    "SBY",
		"name":    "Surabaya",
		"address": "Jl. Tunjungan 1",
	}, adminClaims())
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeMap(t, rr)
	if resp["code"] != "SBY" || resp["address"] != "Jl. Tunjungan 1" {
		t.Errorf("unexpected response: %v", resp)
	}
	if resp["phone"] != nil {
		t.Errorf("phone: got %v, want null", resp["phone"])
	}
}

func TestBranchCreate_ManagerForbidden(t *testing.T) {
	router := setupBranchRouter(newMockBranchStore())

	rr := doAuthRequest(t, router, "POST", "/branches/", map[string]string{
		"code": "SBY",
		"name": "Surabaya",
	}, managerClaims(uuid.New()))
	expectStatus(t, rr, http.StatusForbidden)
}

func TestBranchCreate_DuplicateCode(t *testing.T) {
	store := newMockBranchStore()
	store.seed("JKT", "Jakarta")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "POST", "/branches/", map[string]string{
		"code": "JKT",
		"name": "Jakarta 2",
	}, adminClaims())
	expectStatus(t, rr, http.StatusConflict)
}

func TestBranchCreate_MissingName(t *testing.T) {
	router := setupBranchRouter(newMockBranchStore())

	rr := doAuthRequest(t, router, "POST", "/branches/", map[string]string{"code": "X"}, adminClaims())
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestBranchUpdate(t *testing.T) {
	store := newMockBranchStore()
	b := store.seed("JKT", "Jakarta")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/branches/"+b.ID.String(), map[string]string{
		"code":  "JKT",
		"name":  "Jakarta Pusat",
		"phone": "021-555",
	}, adminClaims())
	expectStatus(t, rr, http.StatusOK)

	if got := store.branches[b.ID]; got.Name != "Jakarta Pusat" || got.Phone != (pgtype.Text{String: "021-555", Valid: true}) {
		t.Errorf("branch not updated: %+v", got)
	}
}

func TestBranchDelete(t *testing.T) {
	store := newMockBranchStore()
	b := store.seed("JKT", "Jakarta")
	router := setupBranchRouter(store)

	rr := doAuthRequest(t, router, "DELETE", "/branches/"+b.ID.String(), nil, adminClaims())
	expectStatus(t, rr, http.StatusNoContent)

	rr = doAuthRequest(t, router, "GET", "/branches/"+b.ID.String(), nil, adminClaims())
	expectStatus(t, rr, http.StatusNotFound)
}
