package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const incomeColumns = `id, branch_id, amount, description, created_at`

func scanIncomeRecord(row rowScanner) (IncomeRecord, error) {
	var i IncomeRecord
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.Amount,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const listIncomeRecords = `-- name: ListIncomeRecords :many
SELECT ` + incomeColumns + ` FROM income_records
WHERE branch_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListIncomeRecords(ctx context.Context, branchID uuid.UUID) ([]IncomeRecord, error) {
	rows, err := q.db.Query(ctx, listIncomeRecords, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []IncomeRecord{}
	for rows.Next() {
		i, err := scanIncomeRecord(rows)
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

const createIncomeRecord = `-- name: CreateIncomeRecord :one
INSERT INTO income_records (branch_id, amount, description)
VALUES ($1, $2, $3)
RETURNING ` + incomeColumns

type CreateIncomeRecordParams struct {
	BranchID    uuid.UUID      `json:"branch_id"`
	Amount      pgtype.Numeric `json:"amount"`
	Description pgtype.Text    `json:"description"`
}

func (q *Queries) CreateIncomeRecord(ctx context.Context, arg CreateIncomeRecordParams) (IncomeRecord, error) {
	return scanIncomeRecord(q.db.QueryRow(ctx, createIncomeRecord, arg.BranchID, arg.Amount, arg.Description))
}

const updateIncomeRecord = `-- name: UpdateIncomeRecord :one
UPDATE income_records
SET amount = $3, description = $4
WHERE id = $1 AND branch_id = $2
RETURNING ` + incomeColumns

type UpdateIncomeRecordParams struct {
	ID          uuid.UUID      `json:"id"`
	BranchID    uuid.UUID      `json:"branch_id"`
	Amount      pgtype.Numeric `json:"amount"`
	Description pgtype.Text    `json:"description"`
}

func (q *Queries) UpdateIncomeRecord(ctx context.Context, arg UpdateIncomeRecordParams) (IncomeRecord, error) {
	return scanIncomeRecord(q.db.QueryRow(ctx, updateIncomeRecord,
		arg.ID,
		arg.BranchID,
		arg.Amount,
		arg.Description,
	))
}

const deleteIncomeRecord = `-- name: DeleteIncomeRecord :one
DELETE FROM income_records
WHERE id = $1 AND branch_id = $2
RETURNING id
`

type DeleteIncomeRecordParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) DeleteIncomeRecord(ctx context.Context, arg DeleteIncomeRecordParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteIncomeRecord, arg.ID, arg.BranchID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const sumIncome = `-- name: SumIncome :one
SELECT COALESCE(SUM(amount), 0)::numeric FROM income_records
WHERE branch_id = $1 AND created_at >= $2 AND created_at < $3
`

func (q *Queries) SumIncome(ctx context.Context, arg SalesRangeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumIncome, arg.BranchID, arg.From, arg.To)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}
