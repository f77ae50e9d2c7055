package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const personnelColumns = `id, branch_id, full_name, email, role, password_hash, pin_hash, hourly_rate, base_salary, is_active, created_at, updated_at`

func scanPersonnel(row rowScanner) (Personnel, error) {
	var i Personnel
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.FullName,
		&i.Email,
		&i.Role,
		&i.PasswordHash,
		&i.PinHash,
		&i.HourlyRate,
		&i.BaseSalary,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listPersonnel(ctx context.Context, query string, args ...interface{}) ([]Personnel, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Personnel{}
	for rows.Next() {
		i, err := scanPersonnel(rows)
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

const listPersonnelByBranch = `-- name: ListPersonnelByBranch :many
SELECT ` + personnelColumns + ` FROM personnel
WHERE branch_id = $1 AND is_active = true
ORDER BY full_name
`

func (q *Queries) ListPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]Personnel, error) {
	return q.listPersonnel(ctx, listPersonnelByBranch, branchID)
}

const listPinPersonnelByBranch = `-- name: ListPinPersonnelByBranch :many
SELECT ` + personnelColumns + ` FROM personnel
WHERE branch_id = $1 AND is_active = true AND pin_hash IS NOT NULL
`

// ListPinPersonnelByBranch returns the active personnel of a branch that
// have a PIN set. PINs are hashed, so matching happens in the caller.
func (q *Queries) ListPinPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]Personnel, error) {
	return q.listPersonnel(ctx, listPinPersonnelByBranch, branchID)
}

const getPersonnel = `-- name: GetPersonnel :one
SELECT ` + personnelColumns + ` FROM personnel
WHERE id = $1 AND branch_id = $2 AND is_active = true
`

type GetPersonnelParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) GetPersonnel(ctx context.Context, arg GetPersonnelParams) (Personnel, error) {
	return scanPersonnel(q.db.QueryRow(ctx, getPersonnel, arg.ID, arg.BranchID))
}

const getPersonnelByID = `-- name: GetPersonnelByID :one
SELECT ` + personnelColumns + ` FROM personnel
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetPersonnelByID(ctx context.Context, id uuid.UUID) (Personnel, error) {
	return scanPersonnel(q.db.QueryRow(ctx, getPersonnelByID, id))
}

const getPersonnelByEmail = `-- name: GetPersonnelByEmail :one
SELECT ` + personnelColumns + ` FROM personnel
WHERE lower(email) = lower($1) AND is_active = true
`

func (q *Queries) GetPersonnelByEmail(ctx context.Context, email string) (Personnel, error) {
	return scanPersonnel(q.db.QueryRow(ctx, getPersonnelByEmail, email))
}

const createPersonnel = `-- name: CreatePersonnel :one
INSERT INTO personnel (branch_id, full_name, email, role, password_hash, pin_hash, hourly_rate, base_salary)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + personnelColumns

type CreatePersonnelParams struct {
	BranchID     uuid.UUID      `json:"branch_id"`
	FullName     string         `json:"full_name"`
	Email        pgtype.Text    `json:"email"`
	Role         PersonnelRole  `json:"role"`
	PasswordHash pgtype.Text    `json:"password_hash"`
	PinHash      pgtype.Text    `json:"pin_hash"`
	HourlyRate   pgtype.Numeric `json:"hourly_rate"`
	BaseSalary   pgtype.Numeric `json:"base_salary"`
}

func (q *Queries) CreatePersonnel(ctx context.Context, arg CreatePersonnelParams) (Personnel, error) {
	return scanPersonnel(q.db.QueryRow(ctx, createPersonnel,
		arg.BranchID,
		arg.FullName,
		arg.Email,
		arg.Role,
		arg.PasswordHash,
		arg.PinHash,
		arg.HourlyRate,
		arg.BaseSalary,
	))
}

const updatePersonnel = `-- name: UpdatePersonnel :one
UPDATE personnel
SET full_name = $3, email = $4, role = $5, hourly_rate = $6, base_salary = $7, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND is_active = true
RETURNING ` + personnelColumns

type UpdatePersonnelParams struct {
	ID         uuid.UUID      `json:"id"`
	BranchID   uuid.UUID      `json:"branch_id"`
	FullName   string         `json:"full_name"`
	Email      pgtype.Text    `json:"email"`
	Role       PersonnelRole  `json:"role"`
	HourlyRate pgtype.Numeric `json:"hourly_rate"`
	BaseSalary pgtype.Numeric `json:"base_salary"`
}

func (q *Queries) UpdatePersonnel(ctx context.Context, arg UpdatePersonnelParams) (Personnel, error) {
	return scanPersonnel(q.db.QueryRow(ctx, updatePersonnel,
		arg.ID,
		arg.BranchID,
		arg.FullName,
		arg.Email,
		arg.Role,
		arg.HourlyRate,
		arg.BaseSalary,
	))
}

const setPersonnelPin = `-- name: SetPersonnelPin :one
UPDATE personnel
SET pin_hash = $3, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND is_active = true
RETURNING id
`

type SetPersonnelPinParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
	PinHash  string    `json:"pin_hash"`
}

func (q *Queries) SetPersonnelPin(ctx context.Context, arg SetPersonnelPinParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, setPersonnelPin, arg.ID, arg.BranchID, arg.PinHash)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const softDeletePersonnel = `-- name: SoftDeletePersonnel :one
UPDATE personnel
SET is_active = false, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND is_active = true
RETURNING id
`

type SoftDeletePersonnelParams struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
}

func (q *Queries) SoftDeletePersonnel(ctx context.Context, arg SoftDeletePersonnelParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeletePersonnel, arg.ID, arg.BranchID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

// --- Attendance ---

const attendanceColumns = `id, personnel_id, method, check_in_at, check_out_at`

func scanAttendance(row rowScanner) (Attendance, error) {
	var i Attendance
	err := row.Scan(
		&i.ID,
		&i.PersonnelID,
		&i.Method,
		&i.CheckInAt,
		&i.CheckOutAt,
	)
	return i, err
}

const getLatestAttendance = `-- name: GetLatestAttendance :one
SELECT ` + attendanceColumns + ` FROM attendance
WHERE personnel_id = $1
ORDER BY check_in_at DESC
LIMIT 1
`

func (q *Queries) GetLatestAttendance(ctx context.Context, personnelID uuid.UUID) (Attendance, error) {
	return scanAttendance(q.db.QueryRow(ctx, getLatestAttendance, personnelID))
}

const createAttendance = `-- name: CreateAttendance :one
INSERT INTO attendance (personnel_id, method)
VALUES ($1, $2)
RETURNING ` + attendanceColumns

type CreateAttendanceParams struct {
	PersonnelID uuid.UUID        `json:"personnel_id"`
	Method      AttendanceMethod `json:"method"`
}

func (q *Queries) CreateAttendance(ctx context.Context, arg CreateAttendanceParams) (Attendance, error) {
	return scanAttendance(q.db.QueryRow(ctx, createAttendance, arg.PersonnelID, arg.Method))
}

const checkOutAttendance = `-- name: CheckOutAttendance :one
UPDATE attendance
SET check_out_at = now(), method = $2
WHERE id = $1 AND check_out_at IS NULL
RETURNING ` + attendanceColumns

type CheckOutAttendanceParams struct {
	ID     uuid.UUID        `json:"id"`
	Method AttendanceMethod `json:"method"`
}

func (q *Queries) CheckOutAttendance(ctx context.Context, arg CheckOutAttendanceParams) (Attendance, error) {
	return scanAttendance(q.db.QueryRow(ctx, checkOutAttendance, arg.ID, arg.Method))
}

const listAttendance = `-- name: ListAttendance :many
SELECT a.id, a.personnel_id, a.method, a.check_in_at, a.check_out_at FROM attendance a
JOIN personnel p ON p.id = a.personnel_id
WHERE p.branch_id = $1
  AND ($2::uuid IS NULL OR a.personnel_id = $2)
  AND a.check_in_at >= $3 AND a.check_in_at < $4
ORDER BY a.check_in_at DESC
`

type ListAttendanceParams struct {
	BranchID    uuid.UUID   `json:"branch_id"`
	PersonnelID pgtype.UUID `json:"personnel_id"`
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
}

func (q *Queries) ListAttendance(ctx context.Context, arg ListAttendanceParams) ([]Attendance, error) {
	rows, err := q.db.Query(ctx, listAttendance, arg.BranchID, arg.PersonnelID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Attendance{}
	for rows.Next() {
		i, err := scanAttendance(rows)
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
