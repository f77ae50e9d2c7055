package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Zones ---

const zoneColumns = `id, branch_id, name, sort_order, created_at`

func scanZone(row rowScanner) (TableZone, error) {
	var i TableZone
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.Name,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const listZonesByBranch = `-- name: ListZonesByBranch :many
SELECT ` + zoneColumns + ` FROM table_zones
WHERE branch_id = $1
ORDER BY sort_order, name
`

func (q *Queries) ListZonesByBranch(ctx context.Context, branchID uuid.UUID) ([]TableZone, error) {
	rows, err := q.db.Query(ctx, listZonesByBranch, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TableZone{}
	for rows.Next() {
		i, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createZone = `-- name: CreateZone :one
INSERT INTO table_zones (branch_id, name, sort_order)
VALUES ($1, $2, $3)
RETURNING ` + zoneColumns

type CreateZoneParams struct {
	BranchID  uuid.UUID `json:"branch_id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
}

func (q *Queries) CreateZone(ctx context.Context, arg CreateZoneParams) (TableZone, error) {
	return scanZone(q.db.QueryRow(ctx, createZone, arg.BranchID, arg.Name, arg.SortOrder))
}

const updateZone = `-- name: UpdateZone :one
UPDATE table_zones
SET name = $3, sort_order = $4
WHERE id = $1 AND branch_id = $2
RETURNING ` + zoneColumns

type UpdateZoneParams struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
}

func (q *Queries) UpdateZone(ctx context.Context, arg UpdateZoneParams) (TableZone, error) {
	return scanZone(q.db.QueryRow(ctx, updateZone, arg.ID, arg.BranchID, arg.Name, arg.SortOrder))
}

const deleteZone = `-- name: DeleteZone :one
DELETE FROM table_zones
WHERE id = $1 AND branch_id = $2
RETURNING id
`

type DeleteZoneParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) DeleteZone(ctx context.Context, arg DeleteZoneParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteZone, arg.ID, arg.BranchID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

// --- Tables ---

const tableColumns = `id, branch_id, zone_id, name, capacity, status, created_at, updated_at`

func scanTable(row rowScanner) (Table, error) {
	var i Table
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.ZoneID,
		&i.Name,
		&i.Capacity,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTablesByBranch = `-- name: ListTablesByBranch :many
SELECT ` + tableColumns + ` FROM tables
WHERE branch_id = $1
  AND ($2::uuid IS NULL OR zone_id = $2)
ORDER BY name
`

type ListTablesByBranchParams struct {
	BranchID uuid.UUID   `json:"branch_id"`
	ZoneID   pgtype.UUID `json:"zone_id"`
}

func (q *Queries) ListTablesByBranch(ctx context.Context, arg ListTablesByBranchParams) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTablesByBranch, arg.BranchID, arg.ZoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Table{}
	for rows.Next() {
		i, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTable = `-- name: GetTable :one
SELECT ` + tableColumns + ` FROM tables
WHERE id = $1 AND branch_id = $2
`

type GetTableParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, arg.ID, arg.BranchID))
}

const getTableForUpdate = `-- name: GetTableForUpdate :one
SELECT ` + tableColumns + ` FROM tables
WHERE id = $1 AND branch_id = $2
FOR UPDATE
`

// GetTableForUpdate locks the table row for the rest of the transaction so
// concurrent terminals serialize on order creation for that table.
func (q *Queries) GetTableForUpdate(ctx context.Context, arg GetTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTableForUpdate, arg.ID, arg.BranchID))
}

const createTable = `-- name: CreateTable :one
INSERT INTO tables (branch_id, zone_id, name, capacity)
VALUES ($1, $2, $3, $4)
RETURNING ` + tableColumns

type CreateTableParams struct {
	BranchID uuid.UUID `json:"branch_id"`
	ZoneID   uuid.UUID `json:"zone_id"`
	Name     string    `json:"name"`
	Capacity int32     `json:"capacity"`
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, arg.BranchID, arg.ZoneID, arg.Name, arg.Capacity))
}

const updateTable = `-- name: UpdateTable :one
UPDATE tables
SET zone_id = $3, name = $4, capacity = $5, updated_at = now()
WHERE id = $1 AND branch_id = $2
RETURNING ` + tableColumns

type UpdateTableParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
	ZoneID   uuid.UUID `json:"zone_id"`
	Name     string    `json:"name"`
	Capacity int32     `json:"capacity"`
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, updateTable,
		arg.ID,
		arg.BranchID,
		arg.ZoneID,
		arg.Name,
		arg.Capacity,
	))
}

const updateTableStatus = `-- name: UpdateTableStatus :one
UPDATE tables
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns

type UpdateTableStatusParams struct {
	ID     uuid.UUID   `json:"id"`
	Status TableStatus `json:"status"`
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status))
}

const deleteTable = `-- name: DeleteTable :one
DELETE FROM tables
WHERE id = $1 AND branch_id = $2 AND status = 'empty'
RETURNING id
`

type DeleteTableParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

// DeleteTable removes an empty table. Occupied tables and tables referenced
// by historical orders cannot be deleted.
func (q *Queries) DeleteTable(ctx context.Context, arg DeleteTableParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteTable, arg.ID, arg.BranchID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
