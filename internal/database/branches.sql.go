package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const branchColumns = `id, code, name, address, phone, is_active, created_at, updated_at`

func scanBranch(row rowScanner) (Branch, error) {
	var i Branch
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.Name,
		&i.Address,
		&i.Phone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBranches = `-- name: ListBranches :many
SELECT ` + branchColumns + ` FROM branches
WHERE is_active = true
ORDER BY name
`

func (q *Queries) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := q.db.Query(ctx, listBranches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Branch{}
	for rows.Next() {
		i, err := scanBranch(rows)
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

const getBranch = `-- name: GetBranch :one
SELECT ` + branchColumns + ` FROM branches
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetBranch(ctx context.Context, id uuid.UUID) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, getBranch, id))
}

const createBranch = `-- name: CreateBranch :one
INSERT INTO branches (code, name, address, phone)
VALUES ($1, $2, $3, $4)
RETURNING ` + branchColumns

type CreateBranchParams struct {
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Address pgtype.Text `json:"address"`
	Phone   pgtype.Text `json:"phone"`
}

func (q *Queries) CreateBranch(ctx context.Context, arg CreateBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, createBranch,
		arg.Code,
		arg.Name,
		arg.Address,
		arg.Phone,
	))
}

const updateBranch = `-- name: UpdateBranch :one
UPDATE branches
SET code = $2, name = $3, address = $4, phone = $5, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING ` + branchColumns

type UpdateBranchParams struct {
	ID      uuid.UUID   `json:"id"`
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Address pgtype.Text `json:"address"`
	Phone   pgtype.Text `json:"phone"`
}

func (q *Queries) UpdateBranch(ctx context.Context, arg UpdateBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, updateBranch,
		arg.ID,
		arg.Code,
		arg.Name,
		arg.Address,
		arg.Phone,
	))
}

const softDeleteBranch = `-- name: SoftDeleteBranch :one
UPDATE branches
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteBranch(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteBranch, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
