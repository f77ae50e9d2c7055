package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, branch_id, name, price, menu_category, is_active, created_at, updated_at`

func scanProduct(row rowScanner) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.Name,
		&i.Price,
		&i.MenuCategory,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProductsByBranch = `-- name: ListProductsByBranch :many
SELECT ` + productColumns + ` FROM products
WHERE branch_id = $1 AND is_active = true
ORDER BY name
`

func (q *Queries) ListProductsByBranch(ctx context.Context, branchID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByBranch, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		i, err := scanProduct(rows)
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

const getProduct = `-- name: GetProduct :one
SELECT ` + productColumns + ` FROM products
WHERE id = $1 AND branch_id = $2 AND is_active = true
`

type GetProductParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

// GetProduct returns an active product of the branch. The POS uses it to
// snapshot name and price into pending cart entries and order items.
func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, arg.ID, arg.BranchID))
}

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (branch_id, name, price, menu_category)
VALUES ($1, $2, $3, $4)
RETURNING ` + productColumns

type CreateProductParams struct {
	BranchID     uuid.UUID      `json:"branch_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	MenuCategory pgtype.Text    `json:"menu_category"`
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.BranchID,
		arg.Name,
		arg.Price,
		arg.MenuCategory,
	))
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $3, price = $4, menu_category = $5, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND is_active = true
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID           uuid.UUID      `json:"id"`
	BranchID     uuid.UUID      `json:"branch_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	MenuCategory pgtype.Text    `json:"menu_category"`
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct,
		arg.ID,
		arg.BranchID,
		arg.Name,
		arg.Price,
		arg.MenuCategory,
	))
}

const softDeleteProduct = `-- name: SoftDeleteProduct :one
UPDATE products
SET is_active = false, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND is_active = true
RETURNING id
`

type SoftDeleteProductParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) SoftDeleteProduct(ctx context.Context, arg SoftDeleteProductParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteProduct, arg.ID, arg.BranchID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
