package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, method, amount, created_by, created_at`

func scanPayment(row rowScanner) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.Amount,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (order_id, method, amount, created_by)
VALUES ($1, $2, $3, $4)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID   uuid.UUID      `json:"order_id"`
	Method    string         `json:"method"`
	Amount    pgtype.Numeric `json:"amount"`
	CreatedBy uuid.UUID      `json:"created_by"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, createPayment,
		arg.OrderID,
		arg.Method,
		arg.Amount,
		arg.CreatedBy,
	))
}

const listPaymentsByOrder = `-- name: ListPaymentsByOrder :many
SELECT ` + paymentColumns + ` FROM payments
WHERE order_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		i, err := scanPayment(rows)
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

const sumPaymentsByOrder = `-- name: SumPaymentsByOrder :one
SELECT COALESCE(SUM(amount), 0)::numeric FROM payments
WHERE order_id = $1
`

func (q *Queries) SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumPaymentsByOrder, orderID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const countPaymentsByOrder = `-- name: CountPaymentsByOrder :one
SELECT count(*) FROM payments
WHERE order_id = $1
`

func (q *Queries) CountPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countPaymentsByOrder, orderID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// --- Payment methods ---

const paymentMethodColumns = `id, name, sort_order, active`

func scanPaymentMethod(row rowScanner) (PaymentMethod, error) {
	var i PaymentMethod
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.SortOrder,
		&i.Active,
	)
	return i, err
}

const listPaymentMethods = `-- name: ListPaymentMethods :many
SELECT ` + paymentMethodColumns + ` FROM payment_methods
WHERE ($1::boolean = false OR active = true)
ORDER BY sort_order, name
`

func (q *Queries) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, listPaymentMethods, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PaymentMethod{}
	for rows.Next() {
		i, err := scanPaymentMethod(rows)
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

const getActivePaymentMethodByName = `-- name: GetActivePaymentMethodByName :one
SELECT ` + paymentMethodColumns + ` FROM payment_methods
WHERE lower(name) = lower($1) AND active = true
`

func (q *Queries) GetActivePaymentMethodByName(ctx context.Context, name string) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, getActivePaymentMethodByName, name))
}

const createPaymentMethod = `-- name: CreatePaymentMethod :one
INSERT INTO payment_methods (name, sort_order, active)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET sort_order = EXCLUDED.sort_order, active = EXCLUDED.active
RETURNING ` + paymentMethodColumns

type CreatePaymentMethodParams struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
	Active    bool   `json:"active"`
}

// CreatePaymentMethod upserts by name so seeding is idempotent.
func (q *Queries) CreatePaymentMethod(ctx context.Context, arg CreatePaymentMethodParams) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, createPaymentMethod, arg.Name, arg.SortOrder, arg.Active))
}

const updatePaymentMethod = `-- name: UpdatePaymentMethod :one
UPDATE payment_methods
SET name = $2, sort_order = $3, active = $4
WHERE id = $1
RETURNING ` + paymentMethodColumns

type UpdatePaymentMethodParams struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	Active    bool      `json:"active"`
}

func (q *Queries) UpdatePaymentMethod(ctx context.Context, arg UpdatePaymentMethodParams) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, updatePaymentMethod,
		arg.ID,
		arg.Name,
		arg.SortOrder,
		arg.Active,
	))
}
