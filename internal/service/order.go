package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/metrics"
	"github.com/hostelbites/api/internal/whatsapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	maxRoomNumberLength = 10
	maxNotesLength      = 500
	maxUPIRefLength     = 64
)

// OrderStore defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetCart(ctx context.Context, userID uuid.UUID) (database.Cart, error)
	DeleteCart(ctx context.Context, userID uuid.UUID) error
	GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error)
	SetMenuItemQuantity(ctx context.Context, arg database.SetMenuItemQuantityParams) error
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderDetails(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error)
	DeleteTerminalOrder(ctx context.Context, id uuid.UUID) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderNotifier receives committed order changes. Every method runs after
// commit on a detached context; a returned error is logged and otherwise
// ignored.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order database.Order) error
	OrderStatusChanged(ctx context.Context, order database.Order, previous string) error
	OrderUpdated(ctx context.Context, order database.Order) error
	OrderDeleted(ctx context.Context, order database.Order) error
}

// CustomerOrders is what a signed-in user may do with orders.
type CustomerOrders interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]database.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (database.Order, error)
}

// AdminOrders is what an admin may do with orders.
type AdminOrders interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]database.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next string) (database.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	ClearOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderDetails(ctx context.Context, orderID uuid.UUID, req UpdateOrderDetailsRequest) (database.Order, error)
}

var (
	_ CustomerOrders = (*OrderService)(nil)
	_ AdminOrders    = (*OrderService)(nil)
)

// PlaceOrderRequest is the checkout input. The items come from the user's
// stored cart, not from the request.
type PlaceOrderRequest struct {
	UserID       uuid.UUID
	OrderType    string
	UPIReference string
	Notes        string
	RoomNumber   string
	Whatsapp     string
}

type PlaceOrderResult struct {
	Order database.Order
}

// UpdateOrderDetailsRequest carries admin edits; nil fields are unchanged.
type UpdateOrderDetailsRequest struct {
	Notes        *string
	UPIReference *string
}

type OrderFilter struct {
	Status string
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

type OrderServiceConfig struct {
	DeliveryCharge  decimal.Decimal
	UPIRefMinLength int
	// NotifyTimeout bounds each post-commit notification.
	NotifyTimeout time.Duration
}

// OrderService owns the order lifecycle: placement, status transitions,
// cancellation and clearing. Stock is only mutated here.
type OrderService struct {
	pool     Pool
	newStore NewOrderStore
	notifier OrderNotifier
	cfg      OrderServiceConfig

	wg sync.WaitGroup
}

// NewOrderService creates a new OrderService. notifier may be nil.
func NewOrderService(pool Pool, newStore NewOrderStore, notifier OrderNotifier, cfg OrderServiceConfig) *OrderService {
	if cfg.UPIRefMinLength <= 0 {
		cfg.UPIRefMinLength = 6
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	return &OrderService{pool: pool, newStore: newStore, notifier: notifier, cfg: cfg}
}

// Wait blocks until in-flight notifications have finished.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

// --- Placement ---

type placement struct {
	userID       uuid.UUID
	orderType    string
	upiReference string
	notes        string
	roomNumber   string
	whatsapp     string
}

func (s *OrderService) validatePlacement(req PlaceOrderRequest) (placement, error) {
	p := placement{
		userID:     req.UserID,
		orderType:  req.OrderType,
		notes:      strings.TrimSpace(req.Notes),
		roomNumber: strings.TrimSpace(req.RoomNumber),
	}

	switch req.OrderType {
	case enum.OrderTypeDelivery:
		ref := strings.TrimSpace(req.UPIReference)
		if len(ref) < s.cfg.UPIRefMinLength {
			return p, invalid("upi_reference", "must be at least %d characters for delivery orders", s.cfg.UPIRefMinLength)
		}
		if len(ref) > maxUPIRefLength {
			return p, invalid("upi_reference", "must be at most %d characters", maxUPIRefLength)
		}
		p.upiReference = ref
	case enum.OrderTypeTakeaway:
		p.upiReference = enum.UPIReferenceNone
	default:
		return p, invalid("order_type", "must be one of: %s, %s", enum.OrderTypeDelivery, enum.OrderTypeTakeaway)
	}

	if p.roomNumber == "" || len(p.roomNumber) > maxRoomNumberLength {
		return p, invalid("room_number", "must be 1 to %d characters", maxRoomNumberLength)
	}

	ten, err := whatsapp.Normalize(req.Whatsapp)
	if err != nil {
		return p, invalid("whatsapp", "must be a valid 10-digit Indian mobile number")
	}
	p.whatsapp = ten

	if len(p.notes) > maxNotesLength {
		return p, invalid("notes", "must be at most %d characters", maxNotesLength)
	}
	return p, nil
}

// PlaceOrder turns the user's cart into an order. In one snapshot
// transaction it reads the cart and every menu item it references, checks
// stock for every line, then debits stock, creates the order and deletes
// the cart. Any failing line aborts the whole placement. Serialization
// conflicts with concurrent writers are retried before surfacing
// ErrTransactionConflict.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	p, err := s.validatePlacement(req)
	if err != nil {
		metrics.OrderPlacementFailures.WithLabelValues("validation").Inc()
		return nil, err
	}

	result, err := retryOnConflict(ctx, "place_order", func() (*PlaceOrderResult, error) {
		return s.placeOrderTx(ctx, p)
	})
	if err != nil {
		metrics.OrderPlacementFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlacedTotal.WithLabelValues(result.Order.OrderType).Inc()
	logging.Ctx(ctx).Info().
		Str("order_id", result.Order.ID.String()).
		Str("user_id", result.Order.UserID.String()).
		Str("order_type", result.Order.OrderType).
		Msg("order placed")

	order := result.Order
	s.notifyAsync(ctx, "order_placed", func(ctx context.Context) error {
		return s.notifier.OrderPlaced(ctx, order)
	})
	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrTransactionConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func (s *OrderService) placeOrderTx(ctx context.Context, p placement) (*PlaceOrderResult, error) {
	tx, err := s.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Phase 1: reads ---
	user, err := store.GetUserByID(ctx, p.userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid("user_id", "unknown user")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	cart, err := store.GetCart(ctx, p.userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	entries := sortedEntries(cart.Items)
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	rows, err := store.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	menu := make(map[uuid.UUID]database.MenuItem, len(rows))
	for _, m := range rows {
		menu[m.ID] = m
	}

	// --- Check every line before writing anything ---
	subtotal := decimal.Zero
	lines := make([]database.OrderLine, 0, len(entries))
	newStock := make([]database.SetMenuItemQuantityParams, 0, len(entries))
	for _, e := range entries {
		if e.Quantity <= 0 {
			return nil, invalid("cart", "quantity for %q must be at least 1", e.Name)
		}
		item, ok := menu[e.ID]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: e.ID, Name: e.Name}
		}
		remaining := item.Quantity - e.Quantity
		if remaining < 0 {
			return nil, &InsufficientStockError{
				ItemID:    item.ID,
				Name:      item.Name,
				Requested: e.Quantity,
				Available: item.Quantity,
			}
		}

		price := database.NumericToDecimal(item.SellingPrice)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(e.Quantity)))
		lines = append(lines, database.OrderLine{
			ID:       item.ID,
			Name:     item.Name,
			Price:    price,
			Quantity: e.Quantity,
			ImageURL: item.ImageUrl,
		})
		newStock = append(newStock, database.SetMenuItemQuantityParams{ID: item.ID, Quantity: remaining})
	}

	deliveryCharge := decimal.Zero
	if p.orderType == enum.OrderTypeDelivery {
		deliveryCharge = s.cfg.DeliveryCharge
	}
	total := subtotal.Add(deliveryCharge)
	status, paymentMethod := initialOrderState(p.orderType)

	// --- Phase 2: debit stock ---
	for _, ns := range newStock {
		if err := store.SetMenuItemQuantity(ctx, ns); err != nil {
			return nil, fmt.Errorf("debit stock: %w", err)
		}
	}

	// --- Phase 3: order + cart ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:           user.ID,
		UserName:         user.Name,
		Items:            lines,
		Subtotal:         database.DecimalToNumeric(subtotal),
		DeliveryCharge:   database.DecimalToNumeric(deliveryCharge),
		TotalAmount:      database.DecimalToNumeric(total),
		OrderType:        p.orderType,
		Status:           status,
		PaymentMethod:    paymentMethod,
		UpiTransactionID: p.upiReference,
		Notes:            p.notes,
		RoomNumber:       p.roomNumber,
		Whatsapp:         p.whatsapp,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := store.DeleteCart(ctx, p.userID); err != nil {
		return nil, fmt.Errorf("delete cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &PlaceOrderResult{Order: order}, nil
}

// sortedEntries orders cart lines by item id so every placement touches
// menu rows in the same order.
func sortedEntries(items map[string]database.CartEntry) []database.CartEntry {
	out := make([]database.CartEntry, 0, len(items))
	for _, e := range items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// --- Status transitions ---

// UpdateStatus moves an order to next. Cancellation is delegated to
// CancelOrder so stock is credited back. The write is a compare-and-set on
// the status that was read; losing that race returns ErrStatusChanged.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next string) (database.Order, error) {
	if !isValidOrderStatus(next) {
		return database.Order{}, invalid("status", "unknown status %q", next)
	}
	if next == enum.OrderStatusCancelled {
		return s.CancelOrder(ctx, orderID)
	}

	store := s.newStore(s.pool)
	current, err := s.getOrder(ctx, store, orderID)
	if err != nil {
		return database.Order{}, err
	}

	if err := validateStatusTransition(current.OrderType, current.Status, next); err != nil {
		return database.Order{}, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:       orderID,
		Status:   next,
		Status_2: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusChanged
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	s.afterStatusChange(ctx, updated, current.Status)
	return updated, nil
}

// CancelOrder credits every line's quantity back to stock and marks the
// order cancelled, in one snapshot transaction. Lines whose menu item was
// deleted are skipped. Only payment_pending and preparing orders can be
// cancelled, so a second cancel fails with ErrInvalidTransition instead of
// crediting twice.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	type cancelled struct {
		order    database.Order
		previous string
	}

	res, err := retryOnConflict(ctx, "cancel_order", func() (cancelled, error) {
		order, previous, err := s.cancelOrderTx(ctx, orderID)
		return cancelled{order: order, previous: previous}, err
	})
	if err != nil {
		return database.Order{}, err
	}

	s.afterStatusChange(ctx, res.order, res.previous)
	return res.order, nil
}

func (s *OrderService) cancelOrderTx(ctx context.Context, orderID uuid.UUID) (database.Order, string, error) {
	tx, err := s.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return database.Order{}, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.getOrder(ctx, store, orderID)
	if err != nil {
		return database.Order{}, "", err
	}
	if !isCancellable(order.Status) {
		return database.Order{}, "", &TransitionError{From: order.Status, To: enum.OrderStatusCancelled}
	}

	credit := make(map[uuid.UUID]int32, len(order.Items))
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, line := range order.Items {
		if _, seen := credit[line.ID]; !seen {
			ids = append(ids, line.ID)
		}
		credit[line.ID] += line.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	rows, err := store.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return database.Order{}, "", fmt.Errorf("get menu items: %w", err)
	}
	menu := make(map[uuid.UUID]database.MenuItem, len(rows))
	for _, m := range rows {
		menu[m.ID] = m
	}

	for _, id := range ids {
		item, ok := menu[id]
		if !ok {
			logging.Ctx(ctx).Debug().
				Str("order_id", orderID.String()).
				Str("item_id", id.String()).
				Msg("cancel: menu item deleted, stock not restored")
			continue
		}
		if err := store.SetMenuItemQuantity(ctx, database.SetMenuItemQuantityParams{
			ID:       id,
			Quantity: item.Quantity + credit[id],
		}); err != nil {
			return database.Order{}, "", fmt.Errorf("credit stock: %w", err)
		}
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:       orderID,
		Status:   enum.OrderStatusCancelled,
		Status_2: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, "", ErrStatusChanged
		}
		return database.Order{}, "", fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, "", fmt.Errorf("commit tx: %w", err)
	}
	return updated, order.Status, nil
}

func (s *OrderService) afterStatusChange(ctx context.Context, order database.Order, previous string) {
	metrics.OrderStatusTransitions.WithLabelValues(order.Status).Inc()
	logging.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("from", previous).
		Str("to", order.Status).
		Msg("order status changed")

	s.notifyAsync(ctx, "order_status_changed", func(ctx context.Context) error {
		return s.notifier.OrderStatusChanged(ctx, order, previous)
	})
}

// ClearOrder permanently deletes a delivered or cancelled order.
func (s *OrderService) ClearOrder(ctx context.Context, orderID uuid.UUID) error {
	store := s.newStore(s.pool)
	order, err := s.getOrder(ctx, store, orderID)
	if err != nil {
		return err
	}
	if !isTerminal(order.Status) {
		return ErrOrderNotTerminal
	}

	n, err := store.DeleteTerminalOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	s.notifyAsync(ctx, "order_deleted", func(ctx context.Context) error {
		return s.notifier.OrderDeleted(ctx, order)
	})
	return nil
}

// UpdateOrderDetails lets an admin correct notes or the UPI reference.
func (s *OrderService) UpdateOrderDetails(ctx context.Context, orderID uuid.UUID, req UpdateOrderDetailsRequest) (database.Order, error) {
	if req.Notes == nil && req.UPIReference == nil {
		return database.Order{}, invalid("", "nothing to update")
	}

	arg := database.UpdateOrderDetailsParams{ID: orderID}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if len(notes) > maxNotesLength {
			return database.Order{}, invalid("notes", "must be at most %d characters", maxNotesLength)
		}
		arg.Notes = pgtype.Text{String: notes, Valid: true}
	}
	if req.UPIReference != nil {
		ref := strings.TrimSpace(*req.UPIReference)
		if ref == "" {
			ref = enum.UPIReferenceNone
		}
		if len(ref) > maxUPIRefLength {
			return database.Order{}, invalid("upi_reference", "must be at most %d characters", maxUPIRefLength)
		}
		arg.UpiTransactionID = pgtype.Text{String: ref, Valid: true}
	}

	updated, err := s.newStore(s.pool).UpdateOrderDetails(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update order details: %w", err)
	}

	s.notifyAsync(ctx, "order_updated", func(ctx context.Context) error {
		return s.notifier.OrderUpdated(ctx, updated)
	})
	return updated, nil
}

// --- Reads ---

func (s *OrderService) getOrder(ctx context.Context, store OrderStore, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	return s.getOrder(ctx, s.newStore(s.pool), orderID)
}

// GetUserOrder returns the order only if userID placed it.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (database.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if order.UserID != userID {
		return database.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]database.Order, error) {
	arg := database.ListOrdersParams{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if arg.Limit <= 0 || arg.Limit > 200 {
		arg.Limit = 50
	}
	if arg.Offset < 0 {
		arg.Offset = 0
	}
	if filter.Status != "" {
		if !isValidOrderStatus(filter.Status) {
			return nil, invalid("status", "unknown status %q", filter.Status)
		}
		arg.Status = pgtype.Text{String: filter.Status, Valid: true}
	}
	if filter.UserID != uuid.Nil {
		arg.UserID = pgtype.UUID{Bytes: filter.UserID, Valid: true}
	}

	orders, err := s.newStore(s.pool).ListOrders(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]database.Order, error) {
	return s.ListOrders(ctx, OrderFilter{UserID: userID, Limit: limit, Offset: offset})
}

// --- Notifications ---

// notifyAsync runs fn after the caller's transaction has committed. It gets
// a context that survives the request but is bounded by NotifyTimeout.
func (s *OrderService) notifyAsync(ctx context.Context, event string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := fn(nctx); err != nil {
			logging.Ctx(nctx).Warn().Err(err).Str("event", event).Msg("post-commit notification incomplete")
		}
	}()
}
