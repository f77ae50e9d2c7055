package handler_test

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock store ---

type mockPaymentMethodStore struct {
	methods map[uuid.UUID]database.PaymentMethod
}

func newMockPaymentMethodStore() *mockPaymentMethodStore {
	return &mockPaymentMethodStore{methods: make(map[uuid.UUID]database.PaymentMethod)}
}

func (m *mockPaymentMethodStore) seed(name string, order int32, active bool) database.PaymentMethod {
	pm := database.PaymentMethod{ID: uuid.New(), Name: name, SortOrder: order, Active: active}
	m.methods[pm.ID] = pm
	return pm
}

func (m *mockPaymentMethodStore) ListPaymentMethods(_ context.Context, activeOnly bool) ([]database.PaymentMethod, error) {
	var out []database.PaymentMethod
	for _, pm := range m.methods {
		if activeOnly && !pm.Active {
			continue
		}
		out = append(out, pm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockPaymentMethodStore) CreatePaymentMethod(_ context.Context, arg database.CreatePaymentMethodParams) (database.PaymentMethod, error) {
	for id, pm := range m.methods {
		if pm.Name == arg.Name {
			pm.SortOrder, pm.Active = arg.SortOrder, arg.Active
			m.methods[id] = pm
			return pm, nil
		}
	}
	return m.seed(arg.Name, arg.SortOrder, arg.Active), nil
}

func (m *mockPaymentMethodStore) UpdatePaymentMethod(_ context.Context, arg database.UpdatePaymentMethodParams) (database.PaymentMethod, error) {
	pm, ok := m.methods[arg.ID]
	if !ok {
		return database.PaymentMethod{}, pgx.ErrNoRows
	}
	for _, other := range m.methods {
		if other.ID != arg.ID && other.Name == arg.Name {
			return database.PaymentMethod{}, &pgconn.PgError{Code: "23505"}
		}
	}
	pm.Name, pm.SortOrder, pm.Active = arg.Name, arg.SortOrder, arg.Active
	m.methods[pm.ID] = pm
	return pm, nil
}

func setupPaymentMethodRouter(store *mockPaymentMethodStore) *chi.Mux {
	h := handler.NewPaymentMethodHandler(store)
	r := chi.NewRouter()
	r.Route("/payment-methods", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestPaymentMethodList_ActiveOnly(t *testing.T) {
	store := newMockPaymentMethodStore()
	store.seed("card", 2, true)
	store.seed("cash", 1, true)
	store.seed("voucher", 3, false)
	router := setupPaymentMethodRouter(store)
	claims := staffClaims(uuid.New())

	rr := doAuthRequest(t, router, "GET", "/payment-methods/", nil, claims)
	expectStatus(t, rr, http.StatusOK)
	assert.Len(t, decodeList(t, rr), 3)

	rr = doAuthRequest(t, router, "GET", "/payment-methods/?active=true", nil, claims)
	expectStatus(t, rr, http.StatusOK)
	list := decodeList(t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, "cash", list[0]["name"])
	assert.Equal(t, "card", list[1]["name"])
}

func TestPaymentMethodCreate_DefaultsActive(t *testing.T) {
	store := newMockPaymentMethodStore()
	router := setupPaymentMethodRouter(store)

	rr := doAuthRequest(t, router, "POST", "/payment-methods/", map[string]interface{}{
		"name":       "qris",
		"sort_order": 4,
	}, managerClaims(uuid.New()))
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeMap(t, rr)
	assert.Equal(t, "qris", resp["name"])
	assert.Equal(t, true, resp["active"])
}

func TestPaymentMethodCreate_StaffForbidden(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore())

	rr := doAuthRequest(t, router, "POST", "/payment-methods/", map[string]string{"name": "qris"}, staffClaims(uuid.New()))
	expectStatus(t, rr, http.StatusForbidden)
}

func TestPaymentMethodCreate_MissingName(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore())

	rr := doAuthRequest(t, router, "POST", "/payment-methods/", map[string]string{}, adminClaims())
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestPaymentMethodUpdate_Deactivate(t *testing.T) {
	store := newMockPaymentMethodStore()
	pm := store.seed("transfer", 3, true)
	router := setupPaymentMethodRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/payment-methods/"+pm.ID.String(), map[string]interface{}{
		"name":       "transfer",
		"sort_order": 3,
		"active":     false,
	}, adminClaims())
	expectStatus(t, rr, http.StatusOK)
	assert.False(t, store.methods[pm.ID].Active)
}

func TestPaymentMethodUpdate_DuplicateName(t *testing.T) {
	store := newMockPaymentMethodStore()
	store.seed("cash", 1, true)
	card := store.seed("card", 2, true)
	router := setupPaymentMethodRouter(store)

	rr := doAuthRequest(t, router, "PUT", "/payment-methods/"+card.ID.String(), map[string]string{"name": "cash"}, adminClaims())
	expectStatus(t, rr, http.StatusConflict)
}

func TestPaymentMethodUpdate_NotFound(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore())

	rr := doAuthRequest(t, router, "PUT", "/payment-methods/"+uuid.New().String(), map[string]string{"name": "x"}, adminClaims())
	expectStatus(t, rr, http.StatusNotFound)
}
