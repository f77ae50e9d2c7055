package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type TableStatus string

const (
	TableStatusEmpty    TableStatus = "empty"
	TableStatusOccupied TableStatus = "occupied"
)

type PersonnelRole string

const (
	PersonnelRoleADMIN   PersonnelRole = "ADMIN"
	PersonnelRoleMANAGER PersonnelRole = "MANAGER"
	PersonnelRoleSTAFF   PersonnelRole = "STAFF"
)

type AttendanceMethod string

const (
	AttendanceMethodPin AttendanceMethod = "pin"
	AttendanceMethodQr  AttendanceMethod = "qr"
)

type Branch struct {
	ID        uuid.UUID   `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Address   pgtype.Text `json:"address"`
	Phone     pgtype.Text `json:"phone"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Personnel struct {
	ID           uuid.UUID      `json:"id"`
	BranchID     uuid.UUID      `json:"branch_id"`
	FullName     string         `json:"full_name"`
	Email        pgtype.Text    `json:"email"`
	Role         PersonnelRole  `json:"role"`
	PasswordHash pgtype.Text    `json:"password_hash"`
	PinHash      pgtype.Text    `json:"pin_hash"`
	HourlyRate   pgtype.Numeric `json:"hourly_rate"`
	BaseSalary   pgtype.Numeric `json:"base_salary"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Attendance struct {
	ID          uuid.UUID          `json:"id"`
	PersonnelID uuid.UUID          `json:"personnel_id"`
	Method      AttendanceMethod   `json:"method"`
	CheckInAt   time.Time          `json:"check_in_at"`
	CheckOutAt  pgtype.Timestamptz `json:"check_out_at"`
}

type Product struct {
	ID           uuid.UUID      `json:"id"`
	BranchID     uuid.UUID      `json:"branch_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	MenuCategory pgtype.Text    `json:"menu_category"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type TableZone struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type Table struct {
	ID        uuid.UUID   `json:"id"`
	BranchID  uuid.UUID   `json:"branch_id"`
	ZoneID    uuid.UUID   `json:"zone_id"`
	Name      string      `json:"name"`
	Capacity  int32       `json:"capacity"`
	Status    TableStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Order struct {
	ID        uuid.UUID          `json:"id"`
	BranchID  uuid.UUID          `json:"branch_id"`
	TableID   uuid.UUID          `json:"table_id"`
	Status    OrderStatus        `json:"status"`
	CreatedBy uuid.UUID          `json:"created_by"`
	CreatedAt time.Time          `json:"created_at"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
}

type OrderItem struct {
	ID          uuid.UUID      `json:"id"`
	OrderID     uuid.UUID      `json:"order_id"`
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	UnitPrice   pgtype.Numeric `json:"unit_price"`
	Quantity    int32          `json:"quantity"`
	LineTotal   pgtype.Numeric `json:"line_total"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Payment struct {
	ID        uuid.UUID      `json:"id"`
	OrderID   uuid.UUID      `json:"order_id"`
	Method    string         `json:"method"`
	Amount    pgtype.Numeric `json:"amount"`
	CreatedBy uuid.UUID      `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
}

type PaymentMethod struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	Active    bool      `json:"active"`
}

type Sale struct {
	ID          uuid.UUID      `json:"id"`
	BranchID    uuid.UUID      `json:"branch_id"`
	OrderID     pgtype.UUID    `json:"order_id"`
	ProductID   pgtype.UUID    `json:"product_id"`
	ProductName string         `json:"product_name"`
	Amount      pgtype.Numeric `json:"amount"`
	Quantity    int32          `json:"quantity"`
	Total       pgtype.Numeric `json:"total"`
	Description pgtype.Text    `json:"description"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

type IncomeRecord struct {
	ID          uuid.UUID      `json:"id"`
	BranchID    uuid.UUID      `json:"branch_id"`
	Amount      pgtype.Numeric `json:"amount"`
	Description pgtype.Text    `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}
