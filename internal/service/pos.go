package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the POS service.
var (
	ErrNoTableSelected      = errors.New("select a table first")
	ErrTableNotFound        = errors.New("table not found in branch")
	ErrTableBusy            = errors.New("table already has an open order")
	ErrProductNotFound      = errors.New("product not found in branch")
	ErrPendingItemNotFound  = errors.New("product is not in the pending cart")
	ErrEmptyCart            = errors.New("pending cart is empty")
	ErrNoOpenOrder          = errors.New("no open order for the selected table")
	ErrOrderNotOpen         = errors.New("order is not open")
	ErrItemNotFound         = errors.New("order item not found")
	ErrInvalidDelta         = errors.New("delta must not be zero")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidPaymentMethod = errors.New("payment method is not active")
	ErrInvalidAmount        = errors.New("payment amount must be > 0")
	ErrEmptySplit           = errors.New("split payment needs at least one entry")
	ErrSplitMismatch        = errors.New("split amounts do not add up to the order total")
	ErrPaymentMismatch      = errors.New("payments do not cover the order total")
	ErrOrderHasPayments     = errors.New("order with recorded payments cannot be cancelled")
)

// paymentTolerance is the largest accepted difference between the sum of
// payments and the order total.
var paymentTolerance = decimal.RequireFromString("0.01")

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PosStore defines the DB methods needed by the POS session controller.
// Satisfied by *database.Queries (and its WithTx variant).
type PosStore interface {
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	GetTableForUpdate(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	GetOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	CountPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	GetActivePaymentMethodByName(ctx context.Context, name string) (database.PaymentMethod, error)
	SalesExistForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error)
}

// NewPosStore creates a PosStore from a DBTX (pool or tx).
type NewPosStore func(db database.DBTX) PosStore

// Notifier receives branch-level change events after a commit.
type Notifier interface {
	Notify(branchID uuid.UUID, event string)
}

// SplitEntry is one instalment of a split payment.
type SplitEntry struct {
	Method string
	Amount decimal.Decimal
}

// CheckoutResult describes a closed order.
type CheckoutResult struct {
	Order        database.Order
	Items        []database.OrderItem
	Payments     []database.Payment
	Total        decimal.Decimal
	SalesCreated int
	Session      *SessionSnapshot
}

// PosService runs the order lifecycle for POS sessions. Every operation
// holds the session lock for its duration; multi-statement writes run in a
// single transaction.
type PosService struct {
	pool     TxBeginner
	store    PosStore
	newStore NewPosStore
	notifier Notifier
}

// NewPosService creates a new PosService. store serves reads outside a
// transaction; newStore binds writes to one. notifier may be nil.
func NewPosService(pool TxBeginner, store PosStore, newStore NewPosStore, notifier Notifier) *PosService {
	return &PosService{pool: pool, store: store, newStore: newStore, notifier: notifier}
}

// SelectTable points the session at a table and hydrates its open order, if
// any. Unsaved pending entries are always discarded.
func (s *PosService) SelectTable(ctx context.Context, sess *Session, tableID uuid.UUID) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	table, err := s.store.GetTable(ctx, database.GetTableParams{ID: tableID, BranchID: sess.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	var order *database.Order
	var items []database.OrderItem
	o, err := s.store.GetOpenOrderByTable(ctx, table.ID)
	switch {
	case err == nil:
		order = &o
		items, err = s.store.ListOrderItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("get open order: %w", err)
	}

	sess.reset()
	sess.table = &table
	sess.order = order
	sess.items = items
	return sess.snapshot(), nil
}

// AddToPendingCart stages one unit of a product for the selected table.
func (s *PosService) AddToPendingCart(ctx context.Context, sess *Session, productID uuid.UUID) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.table == nil {
		return nil, ErrNoTableSelected
	}
	for i := range sess.pending {
		if sess.pending[i].ProductID == productID {
			sess.pending[i].Quantity++
			return sess.snapshot(), nil
		}
	}

	product, err := s.store.GetProduct(ctx, database.GetProductParams{ID: productID, BranchID: sess.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	sess.pending = append(sess.pending, PendingEntry{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   database.NumericToDecimal(product.Price),
		Quantity:    1,
	})
	return sess.snapshot(), nil
}

// IncrementPending adds one unit to a pending entry.
func (s *PosService) IncrementPending(sess *Session, productID uuid.UUID) (*SessionSnapshot, error) {
	return s.adjustPending(sess, productID, 1)
}

// DecrementPending removes one unit; the entry is dropped at zero.
func (s *PosService) DecrementPending(sess *Session, productID uuid.UUID) (*SessionSnapshot, error) {
	return s.adjustPending(sess, productID, -1)
}

func (s *PosService) adjustPending(sess *Session, productID uuid.UUID, delta int32) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i := range sess.pending {
		if sess.pending[i].ProductID != productID {
			continue
		}
		sess.pending[i].Quantity += delta
		if sess.pending[i].Quantity <= 0 {
			sess.pending = append(sess.pending[:i], sess.pending[i+1:]...)
		}
		return sess.snapshot(), nil
	}
	return nil, ErrPendingItemNotFound
}

// SaveToTable flushes the pending cart into the table's open order, creating
// the order (and occupying the table) when none exists. This is the only
// path that creates orders.
func (s *PosService) SaveToTable(ctx context.Context, sess *Session) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.table == nil {
		return nil, ErrNoTableSelected
	}
	if len(sess.pending) == 0 {
		return nil, ErrEmptyCart
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, database.GetTableParams{ID: sess.table.ID, BranchID: sess.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}

	created := false
	order, err := store.GetOpenOrderByTable(ctx, table.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		order, err = store.CreateOrder(ctx, database.CreateOrderParams{
			BranchID:  sess.BranchID,
			TableID:   table.ID,
			CreatedBy: sess.PersonnelID,
		})
		if err != nil {
			if isOpenOrderConflict(err) {
				return nil, ErrTableBusy
			}
			return nil, fmt.Errorf("create order: %w", err)
		}
		table, err = store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     table.ID,
			Status: database.TableStatusOccupied,
		})
		if err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
		created = true
	} else if err != nil {
		return nil, fmt.Errorf("get open order: %w", err)
	}

	for i, entry := range sess.pending {
		// Snapshot the catalog as it is at save time.
		product, err := store.GetProduct(ctx, database.GetProductParams{ID: entry.ProductID, BranchID: sess.BranchID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("pending[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("pending[%d]: get product: %w", i, err)
		}
		if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    entry.Quantity,
		}); err != nil {
			return nil, fmt.Errorf("pending[%d]: create order item: %w", i, err)
		}
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	sess.table = &table
	sess.order = &order
	sess.items = items
	sess.pending = nil

	if created {
		s.notify(sess.BranchID, enum.EventTablesChanged)
	}
	s.notify(sess.BranchID, enum.EventOrdersChanged)
	return sess.snapshot(), nil
}

// AdjustSavedItem changes a saved item's quantity by delta. A resulting
// quantity below 1 deletes the item.
func (s *PosService) AdjustSavedItem(ctx context.Context, sess *Session, itemID uuid.UUID, delta int32) (*SessionSnapshot, error) {
	if delta == 0 {
		return nil, ErrInvalidDelta
	}
	return s.mutateSavedItem(ctx, sess, itemID, func(store PosStore, item database.OrderItem) error {
		qty := item.Quantity + delta
		if qty < 1 {
			return store.DeleteOrderItem(ctx, item.ID)
		}
		_, err := store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
			ID:       item.ID,
			Quantity: qty,
		})
		return err
	})
}

// RemoveSavedItem deletes a saved item from the open order.
func (s *PosService) RemoveSavedItem(ctx context.Context, sess *Session, itemID uuid.UUID) (*SessionSnapshot, error) {
	return s.mutateSavedItem(ctx, sess, itemID, func(store PosStore, item database.OrderItem) error {
		return store.DeleteOrderItem(ctx, item.ID)
	})
}

func (s *PosService) mutateSavedItem(ctx context.Context, sess *Session, itemID uuid.UUID, mutate func(PosStore, database.OrderItem) error) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.order == nil {
		return nil, ErrNoOpenOrder
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, sess)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item.OrderID != order.ID {
		return nil, ErrItemNotFound
	}

	if err := mutate(store, item); err != nil {
		return nil, fmt.Errorf("update order item: %w", err)
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	sess.order = &order
	sess.items = items
	s.notify(sess.BranchID, enum.EventOrdersChanged)
	return sess.snapshot(), nil
}

// PayFull settles the open order with a single payment for its total.
func (s *PosService) PayFull(ctx context.Context, sess *Session, method string) (*CheckoutResult, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.order == nil {
		return nil, ErrNoOpenOrder
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, sess)
	if err != nil {
		return nil, err
	}
	items, total, err := loadItems(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}
	methodName, err := activeMethod(ctx, store, method)
	if err != nil {
		return nil, err
	}

	paid, err := store.SumPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	var payments []database.Payment
	if due := total.Sub(database.NumericToDecimal(paid)); due.IsPositive() {
		p, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:   order.ID,
			Method:    methodName,
			Amount:    database.DecimalToNumeric(due),
			CreatedBy: sess.PersonnelID,
		})
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		payments = append(payments, p)
	}

	return s.finishCheckout(ctx, tx, store, sess, order, items, total, payments)
}

// PaySplit settles the open order with one payment per entry. Each amount
// is rounded to the cent, and the rounded entries must add up to the order
// total within paymentTolerance; otherwise nothing is written.
func (s *PosService) PaySplit(ctx context.Context, sess *Session, entries []SplitEntry) (*CheckoutResult, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySplit
	}
	// Amounts are stored to the cent, so validate what will be stored.
	amounts := make([]decimal.Decimal, len(entries))
	sum := decimal.Zero
	for i, e := range entries {
		if e.Method == "" {
			return nil, fmt.Errorf("entries[%d]: %w", i, ErrInvalidPaymentMethod)
		}
		amounts[i] = e.Amount.Round(2)
		if !amounts[i].IsPositive() {
			return nil, fmt.Errorf("entries[%d]: %w", i, ErrInvalidAmount)
		}
		sum = sum.Add(amounts[i])
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.order == nil {
		return nil, ErrNoOpenOrder
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, sess)
	if err != nil {
		return nil, err
	}
	items, total, err := loadItems(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}
	if sum.Sub(total).Abs().GreaterThan(paymentTolerance) {
		return nil, ErrSplitMismatch
	}

	methods := make([]string, len(entries))
	for i, e := range entries {
		name, err := activeMethod(ctx, store, e.Method)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		methods[i] = name
	}

	payments := make([]database.Payment, 0, len(entries))
	for i := range entries {
		p, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:   order.ID,
			Method:    methods[i],
			Amount:    database.DecimalToNumeric(amounts[i]),
			CreatedBy: sess.PersonnelID,
		})
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: create payment: %w", i, err)
		}
		payments = append(payments, p)
	}

	return s.finishCheckout(ctx, tx, store, sess, order, items, total, payments)
}

// finishCheckout runs the close step, commits, and resets the session.
func (s *PosService) finishCheckout(ctx context.Context, tx pgx.Tx, store PosStore, sess *Session, order database.Order, items []database.OrderItem, total decimal.Decimal, payments []database.Payment) (*CheckoutResult, error) {
	closed, salesCreated, err := closePaidOrder(ctx, store, order, items, total)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	sess.reset()
	s.notify(closed.BranchID, enum.EventTablesChanged)
	s.notify(closed.BranchID, enum.EventOrdersChanged)
	if salesCreated > 0 {
		s.notify(closed.BranchID, enum.EventSalesChanged)
	}

	return &CheckoutResult{
		Order:        closed,
		Items:        items,
		Payments:     payments,
		Total:        total,
		SalesCreated: salesCreated,
		Session:      sess.snapshot(),
	}, nil
}

// closePaidOrder verifies the payments, marks the order paid, frees the
// table and derives sales rows. Sales are written only when none reference
// the order yet, so repeating the step never duplicates them.
func closePaidOrder(ctx context.Context, store PosStore, order database.Order, items []database.OrderItem, total decimal.Decimal) (database.Order, int, error) {
	paid, err := store.SumPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return database.Order{}, 0, fmt.Errorf("sum payments: %w", err)
	}
	if database.NumericToDecimal(paid).Sub(total).Abs().GreaterThan(paymentTolerance) {
		return database.Order{}, 0, ErrPaymentMismatch
	}

	closed, err := store.CloseOrder(ctx, database.CloseOrderParams{
		ID:     order.ID,
		Status: database.OrderStatusPaid,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, 0, ErrOrderNotOpen
		}
		return database.Order{}, 0, fmt.Errorf("close order: %w", err)
	}

	if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     order.TableID,
		Status: database.TableStatusEmpty,
	}); err != nil {
		return database.Order{}, 0, fmt.Errorf("free table: %w", err)
	}

	exists, err := store.SalesExistForOrder(ctx, order.ID)
	if err != nil {
		return database.Order{}, 0, fmt.Errorf("check sales: %w", err)
	}
	if exists {
		return closed, 0, nil
	}

	description := pgtype.Text{String: fmt.Sprintf("table order #%s", order.TableID), Valid: true}
	for _, item := range items {
		if _, err := store.CreateSale(ctx, database.CreateSaleParams{
			BranchID:    order.BranchID,
			OrderID:     pgtype.UUID{Bytes: order.ID, Valid: true},
			ProductID:   pgtype.UUID{Bytes: item.ProductID, Valid: true},
			ProductName: item.ProductName,
			Amount:      item.UnitPrice,
			Quantity:    item.Quantity,
			Description: description,
			Status:      enum.SaleStatusCompleted,
		}); err != nil {
			return database.Order{}, 0, fmt.Errorf("create sale: %w", err)
		}
	}
	return closed, len(items), nil
}

// CancelOrder voids the open order: items are deleted, the order becomes
// cancelled and the table is freed. Orders with payments are rejected.
func (s *PosService) CancelOrder(ctx context.Context, sess *Session) (*SessionSnapshot, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.order == nil {
		return nil, ErrNoOpenOrder
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, sess)
	if err != nil {
		return nil, err
	}

	count, err := store.CountPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	if count > 0 {
		return nil, ErrOrderHasPayments
	}

	if _, err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}
	if _, err := store.CloseOrder(ctx, database.CloseOrderParams{
		ID:     order.ID,
		Status: database.OrderStatusCancelled,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotOpen
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     order.TableID,
		Status: database.TableStatusEmpty,
	}); err != nil {
		return nil, fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	sess.reset()
	s.notify(order.BranchID, enum.EventTablesChanged)
	s.notify(order.BranchID, enum.EventOrdersChanged)
	return sess.snapshot(), nil
}

// lockOpenOrder re-reads the session's order under a row lock. A terminal
// status means another terminal closed it; the session is reset.
func (s *PosService) lockOpenOrder(ctx context.Context, store PosStore, sess *Session) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: sess.order.ID, BranchID: sess.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			sess.reset()
			return database.Order{}, ErrNoOpenOrder
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if order.Status != database.OrderStatusOpen {
		sess.reset()
		return database.Order{}, ErrOrderNotOpen
	}
	return order, nil
}

func (s *PosService) notify(branchID uuid.UUID, event string) {
	if s.notifier != nil {
		s.notifier.Notify(branchID, event)
	}
}

// --- Helpers ---

func loadItems(ctx context.Context, store PosStore, orderID uuid.UUID) ([]database.OrderItem, decimal.Decimal, error) {
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list order items: %w", err)
	}
	if len(items) == 0 {
		return nil, decimal.Zero, ErrEmptyOrder
	}
	return items, itemsTotal(items), nil
}

func activeMethod(ctx context.Context, store PosStore, name string) (string, error) {
	if name == "" {
		return "", ErrInvalidPaymentMethod
	}
	m, err := store.GetActivePaymentMethodByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidPaymentMethod
		}
		return "", fmt.Errorf("get payment method: %w", err)
	}
	return m.Name, nil
}

// isOpenOrderConflict checks for a unique violation on the one-open-order
// per table index (pgconn error code 23505).
func isOpenOrderConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_one_open_per_table"
	}
	return false
}
