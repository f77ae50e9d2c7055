package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusOpen      = "open"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

const (
	TableStatusEmpty    = "empty"
	TableStatusOccupied = "occupied"
)

const (
	SaleStatusCompleted = "completed"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
)

const (
	AttendanceMethodPin = "pin"
	AttendanceMethodQR  = "qr"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	MenuCategoryStar      = "star"
	MenuCategoryPuzzle    = "puzzle"
	MenuCategoryPlowHorse = "plow_horse"
	MenuCategoryDog       = "dog"
)

// Default payment methods inserted by the seed command. Staff may add more.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// Realtime events broadcast to a branch room.
const (
	EventTablesChanged = "tables.changed"
	EventOrdersChanged = "orders.changed"
	EventSalesChanged  = "sales.changed"
)

// Sales report ranges.
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)
