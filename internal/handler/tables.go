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
	"github.com/masapos/api/internal/service"
)

// TableStore defines the database methods needed by zone and table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListZonesByBranch(ctx context.Context, branchID uuid.UUID) ([]database.TableZone, error)
	CreateZone(ctx context.Context, arg database.CreateZoneParams) (database.TableZone, error)
	UpdateZone(ctx context.Context, arg database.UpdateZoneParams) (database.TableZone, error)
	DeleteZone(ctx context.Context, arg database.DeleteZoneParams) (uuid.UUID, error)
	ListTablesByBranch(ctx context.Context, arg database.ListTablesByBranchParams) ([]database.Table, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error)
	DeleteTable(ctx context.Context, arg database.DeleteTableParams) (uuid.UUID, error)
}

// TableHandler handles the floor plan: zones and the tables inside them.
type TableHandler struct {
	store    TableStore
	notifier service.Notifier
}

// NewTableHandler creates a new TableHandler. notifier may be nil.
func NewTableHandler(store TableStore, notifier service.Notifier) *TableHandler {
	return &TableHandler{store: store, notifier: notifier}
}

// RegisterZoneRoutes registers zone endpoints: /branches/{bid}/zones
func (h *TableHandler) RegisterZoneRoutes(r chi.Router) {
	r.Get("/", h.ListZones)
	r.Post("/", h.CreateZone)
	r.Put("/{id}", h.UpdateZone)
	r.Delete("/{id}", h.DeleteZone)
}

// RegisterTableRoutes registers table endpoints: /branches/{bid}/tables
func (h *TableHandler) RegisterTableRoutes(r chi.Router) {
	r.Get("/", h.ListTables)
	r.Get("/{id}", h.GetTable)
	r.Post("/", h.CreateTable)
	r.Put("/{id}", h.UpdateTable)
	r.Delete("/{id}", h.DeleteTable)
}

// --- Request / Response types ---

type zoneRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type zoneResponse struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
}

type tableRequest struct {
	ZoneID   string `json:"zone_id"`
	Name     string `json:"name"`
	Capacity int32  `json:"capacity"`
}

type tableResponse struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	ZoneID    uuid.UUID `json:"zone_id"`
	Name      string    `json:"name"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toZoneResponse(z database.TableZone) zoneResponse {
	return zoneResponse{ID: z.ID, BranchID: z.BranchID, Name: z.Name, SortOrder: z.SortOrder}
}

func toTableResponse(t database.Table) tableResponse {
	return tableResponse{
		ID:        t.ID,
		BranchID:  t.BranchID,
		ZoneID:    t.ZoneID,
		Name:      t.Name,
		Capacity:  t.Capacity,
		Status:    string(t.Status),
		UpdatedAt: t.UpdatedAt,
	}
}

func (h *TableHandler) tablesChanged(branchID uuid.UUID) {
	if h.notifier != nil {
		h.notifier.Notify(branchID, enum.EventTablesChanged)
	}
}

func decodeZone(w http.ResponseWriter, r *http.Request) (zoneRequest, bool) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	return req, true
}

func decodeTable(w http.ResponseWriter, r *http.Request) (tableRequest, uuid.UUID, bool) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, uuid.Nil, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, uuid.Nil, false
	}
	zoneID, err := uuid.Parse(req.ZoneID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid zone_id")
		return req, uuid.Nil, false
	}
	if req.Capacity < 0 {
		writeError(w, http.StatusBadRequest, "capacity must be >= 0")
		return req, uuid.Nil, false
	}
	return req, zoneID, true
}

// =====================
// Zones
// =====================

// ListZones returns the branch's zones in display order.
func (h *TableHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	zones, err := h.store.ListZonesByBranch(r.Context(), branchID)
	if err != nil {
		internalError(w, "list zones", err)
		return
	}

	resp := make([]zoneResponse, len(zones))
	for i, z := range zones {
		resp[i] = toZoneResponse(z)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateZone adds a zone.
func (h *TableHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	req, ok := decodeZone(w, r)
	if !ok {
		return
	}

	z, err := h.store.CreateZone(r.Context(), database.CreateZoneParams{
		BranchID:  branchID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "zone name already exists")
			return
		}
		internalError(w, "create zone", err)
		return
	}

	h.tablesChanged(branchID)
	writeJSON(w, http.StatusCreated, toZoneResponse(z))
}

// UpdateZone renames or reorders a zone.
func (h *TableHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "zone ID")
	if !ok {
		return
	}
	req, ok := decodeZone(w, r)
	if !ok {
		return
	}

	z, err := h.store.UpdateZone(r.Context(), database.UpdateZoneParams{
		ID:        id,
		BranchID:  branchID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "zone not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "zone name already exists")
			return
		}
		internalError(w, "update zone", err)
		return
	}

	h.tablesChanged(branchID)
	writeJSON(w, http.StatusOK, toZoneResponse(z))
}

// DeleteZone removes a zone that has no tables.
func (h *TableHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "zone ID")
	if !ok {
		return
	}

	if _, err := h.store.DeleteZone(r.Context(), database.DeleteZoneParams{ID: id, BranchID: branchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "zone not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "zone still has tables")
			return
		}
		internalError(w, "delete zone", err)
		return
	}

	h.tablesChanged(branchID)
	w.WriteHeader(http.StatusNoContent)
}

// =====================
// Tables
// =====================

// ListTables returns the branch's tables, optionally only those in ?zone_id.
func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}

	params := database.ListTablesByBranchParams{BranchID: branchID}
	if s := r.URL.Query().Get("zone_id"); s != "" {
		zoneID, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid zone_id")
			return
		}
		params.ZoneID = pgtype.UUID{Bytes: zoneID, Valid: true}
	}

	tables, err := h.store.ListTablesByBranch(r.Context(), params)
	if err != nil {
		internalError(w, "list tables", err)
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTable returns one table with its occupancy status.
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "table ID")
	if !ok {
		return
	}

	t, err := h.store.GetTable(r.Context(), database.GetTableParams{ID: id, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		internalError(w, "get table", err)
		return
	}

	writeJSON(w, http.StatusOK, toTableResponse(t))
}

// CreateTable adds an empty table to a zone.
func (h *TableHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	req, zoneID, ok := decodeTable(w, r)
	if !ok {
		return
	}

	t, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		BranchID: branchID,
		ZoneID:   zoneID,
		Name:     req.Name,
		Capacity: req.Capacity,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid zone_id")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "table name already exists")
			return
		}
		internalError(w, "create table", err)
		return
	}

	h.tablesChanged(branchID)
	writeJSON(w, http.StatusCreated, toTableResponse(t))
}

// UpdateTable edits name, zone and capacity. Status is owned by the POS.
func (h *TableHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "table ID")
	if !ok {
		return
	}
	req, zoneID, ok := decodeTable(w, r)
	if !ok {
		return
	}

	t, err := h.store.UpdateTable(r.Context(), database.UpdateTableParams{
		ID:       id,
		BranchID: branchID,
		ZoneID:   zoneID,
		Name:     req.Name,
		Capacity: req.Capacity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid zone_id")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "table name already exists")
			return
		}
		internalError(w, "update table", err)
		return
	}

	h.tablesChanged(branchID)
	writeJSON(w, http.StatusOK, toTableResponse(t))
}

// DeleteTable removes an empty table without order history.
func (h *TableHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	branchID, ok := urlUUID(w, r, "bid", "branch ID")
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "id", "table ID")
	if !ok {
		return
	}

	_, err := h.store.DeleteTable(r.Context(), database.DeleteTableParams{ID: id, BranchID: branchID})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "table has order history")
			return
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			internalError(w, "delete table", err)
			return
		}
		// No row deleted: either unknown or still occupied.
		if _, getErr := h.store.GetTable(r.Context(), database.GetTableParams{ID: id, BranchID: branchID}); getErr == nil {
			writeError(w, http.StatusConflict, "table is occupied")
			return
		}
		writeError(w, http.StatusNotFound, "table not found")
		return
	}

	h.tablesChanged(branchID)
	w.WriteHeader(http.StatusNoContent)
}
