package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const saleColumns = `id, branch_id, order_id, product_id, product_name, amount, quantity, total, description, status, created_at`

func scanSale(row rowScanner) (Sale, error) {
	var i Sale
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.OrderID,
		&i.ProductID,
		&i.ProductName,
		&i.Amount,
		&i.Quantity,
		&i.Total,
		&i.Description,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const salesExistForOrder = `-- name: SalesExistForOrder :one
SELECT EXISTS (SELECT 1 FROM sales WHERE order_id = $1)
`

func (q *Queries) SalesExistForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, salesExistForOrder, orderID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createSale = `-- name: CreateSale :one
INSERT INTO sales (branch_id, order_id, product_id, product_name, amount, quantity, description, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + saleColumns

type CreateSaleParams struct {
	BranchID    uuid.UUID      `json:"branch_id"`
	OrderID     pgtype.UUID    `json:"order_id"`
	ProductID   pgtype.UUID    `json:"product_id"`
	ProductName string         `json:"product_name"`
	Amount      pgtype.Numeric `json:"amount"`
	Quantity    int32          `json:"quantity"`
	Description pgtype.Text    `json:"description"`
	Status      string         `json:"status"`
}

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, createSale,
		arg.BranchID,
		arg.OrderID,
		arg.ProductID,
		arg.ProductName,
		arg.Amount,
		arg.Quantity,
		arg.Description,
		arg.Status,
	))
}

const listSales = `-- name: ListSales :many
SELECT ` + saleColumns + ` FROM sales
WHERE branch_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

type ListSalesParams struct {
	BranchID uuid.UUID `json:"branch_id"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Limit    int32     `json:"limit"`
	Offset   int32     `json:"offset"`
}

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.Query(ctx, listSales,
		arg.BranchID,
		arg.From,
		arg.To,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Sale{}
	for rows.Next() {
		i, err := scanSale(rows)
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

const getSalesSummary = `-- name: GetSalesSummary :one
SELECT
    count(DISTINCT order_id)::bigint AS order_count,
    COALESCE(SUM(quantity), 0)::bigint AS quantity_sold,
    COALESCE(SUM(total), 0)::numeric AS total_revenue
FROM sales
WHERE branch_id = $1 AND status = 'completed'
  AND created_at >= $2 AND created_at < $3
`

type SalesRangeParams struct {
	BranchID uuid.UUID `json:"branch_id"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

type GetSalesSummaryRow struct {
	OrderCount   int64          `json:"order_count"`
	QuantitySold int64          `json:"quantity_sold"`
	TotalRevenue pgtype.Numeric `json:"total_revenue"`
}

func (q *Queries) GetSalesSummary(ctx context.Context, arg SalesRangeParams) (GetSalesSummaryRow, error) {
	row := q.db.QueryRow(ctx, getSalesSummary, arg.BranchID, arg.From, arg.To)
	var i GetSalesSummaryRow
	err := row.Scan(&i.OrderCount, &i.QuantitySold, &i.TotalRevenue)
	return i, err
}

const getProductSales = `-- name: GetProductSales :many
SELECT
    product_name,
    SUM(quantity)::bigint AS quantity_sold,
    SUM(total)::numeric AS total_revenue
FROM sales
WHERE branch_id = $1 AND status = 'completed'
  AND created_at >= $2 AND created_at < $3
GROUP BY product_name
ORDER BY total_revenue DESC, product_name
LIMIT 20
`

type GetProductSalesRow struct {
	ProductName  string         `json:"product_name"`
	QuantitySold int64          `json:"quantity_sold"`
	TotalRevenue pgtype.Numeric `json:"total_revenue"`
}

func (q *Queries) GetProductSales(ctx context.Context, arg SalesRangeParams) ([]GetProductSalesRow, error) {
	rows, err := q.db.Query(ctx, getProductSales, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetProductSalesRow{}
	for rows.Next() {
		var i GetProductSalesRow
		if err := rows.Scan(&i.ProductName, &i.QuantitySold, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPaymentSummary = `-- name: GetPaymentSummary :many
SELECT
    p.method AS payment_method,
    count(*)::bigint AS transaction_count,
    SUM(p.amount)::numeric AS total_amount
FROM payments p
JOIN orders o ON o.id = p.order_id
WHERE o.branch_id = $1 AND o.status = 'paid'
  AND p.created_at >= $2 AND p.created_at < $3
GROUP BY p.method
ORDER BY total_amount DESC
`

type GetPaymentSummaryRow struct {
	PaymentMethod    string         `json:"payment_method"`
	TransactionCount int64          `json:"transaction_count"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg SalesRangeParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetPaymentSummaryRow{}
	for rows.Next() {
		var i GetPaymentSummaryRow
		if err := rows.Scan(&i.PaymentMethod, &i.TransactionCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
