package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// memDB is an in-memory stand-in for Postgres under REPEATABLE READ. A
// transaction buffers its writes and, at commit, fails with SQLSTATE 40001
// if any row it wrote was committed by someone else after it read it.
type memDB struct {
	mu    sync.Mutex
	clock int64
	rows  map[string]memRow
	users map[uuid.UUID]database.User

	// beforeCommit runs outside the lock at the start of every Commit.
	beforeCommit func()
	// failCommits makes the next n commits fail with a serialization error.
	failCommits int
	commits     int
}

type memRow struct {
	val any
	ver int64
}

func newMemDB() *memDB {
	return &memDB{rows: map[string]memRow{}, users: map[uuid.UUID]database.User{}}
}

func menuKey(id uuid.UUID) string  { return "menu:" + id.String() }
func cartKey(id uuid.UUID) string  { return "cart:" + id.String() }
func orderKey(id uuid.UUID) string { return "order:" + id.String() }

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

// --- seeding and inspection (bypass transactions) ---

func (db *memDB) addUser(name string) uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := uuid.New()
	db.users[id] = database.User{ID: id, Name: name, Email: name + "@hostel.test", Role: enum.UserRoleUser}
	return id
}

func (db *memDB) addMenuItem(name, price string, stock int32) uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := uuid.New()
	db.clock++
	db.rows[menuKey(id)] = memRow{ver: db.clock, val: database.MenuItem{
		ID:           id,
		Name:         name,
		Category:     "snacks",
		SellingPrice: makeNumeric(price),
		Mrp:          makeNumeric(price),
		Quantity:     stock,
		Available:    true,
	}}
	return id
}

func (db *memDB) deleteMenuItem(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clock++
	delete(db.rows, menuKey(id))
}

func (db *memDB) setCart(userID uuid.UUID, lines map[uuid.UUID]int32) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items := map[string]database.CartEntry{}
	for id, qty := range lines {
		entry := database.CartEntry{ID: id, Quantity: qty}
		if r, ok := db.rows[menuKey(id)]; ok {
			m := r.val.(database.MenuItem)
			entry.Name = m.Name
			entry.Category = m.Category
			entry.SellingPrice = database.NumericToDecimal(m.SellingPrice)
		}
		items[id.String()] = entry
	}
	db.clock++
	db.rows[cartKey(userID)] = memRow{ver: db.clock, val: database.Cart{UserID: userID, Items: items}}
}

func (db *memDB) stock(id uuid.UUID) int32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	r, ok := db.rows[menuKey(id)]
	if !ok {
		return -1
	}
	return r.val.(database.MenuItem).Quantity
}

func (db *memDB) hasCart(userID uuid.UUID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.rows[cartKey(userID)]
	return ok
}

func (db *memDB) orders() []database.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []database.Order
	for k, r := range db.rows {
		if len(k) > 6 && k[:6] == "order:" {
			out = append(out, r.val.(database.Order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- Pool ---

func (db *memDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (db *memDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (db *memDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}

func (db *memDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &memTx{
		db:     db,
		start:  db.clock,
		reads:  map[string]int64{},
		writes: map[string]*memRow{},
	}, nil
}

func (db *memDB) newStore(d database.DBTX) OrderStore {
	if tx, ok := d.(*memTx); ok {
		return &memStore{db: db, tx: tx}
	}
	return &memStore{db: db}
}

// --- Tx ---

type memTx struct {
	db     *memDB
	start  int64
	reads  map[string]int64
	writes map[string]*memRow // nil val means delete
	done   bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if hook := t.db.beforeCommit; hook != nil {
		hook()
	}

	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.failCommits > 0 {
		db.failCommits--
		return serializationFailure()
	}
	for key := range t.writes {
		cur := db.rows[key].ver
		observed, read := t.reads[key]
		if (read && cur != observed) || (!read && cur > t.start) {
			return serializationFailure()
		}
	}

	db.clock++
	for key, w := range t.writes {
		if w.val == nil {
			delete(db.rows, key)
			continue
		}
		db.rows[key] = memRow{val: w.val, ver: db.clock}
	}
	db.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

// --- OrderStore ---

// memStore reads through the transaction's own writes when tx is set and
// writes straight to the committed state otherwise.
type memStore struct {
	db *memDB
	tx *memTx
}

func (s *memStore) get(key string) (any, bool) {
	if s.tx != nil {
		if w, ok := s.tx.writes[key]; ok {
			return w.val, w.val != nil
		}
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.rows[key]
	if s.tx != nil {
		if _, seen := s.tx.reads[key]; !seen {
			s.tx.reads[key] = r.ver
		}
	}
	return r.val, ok
}

func (s *memStore) put(key string, val any) {
	if s.tx != nil {
		s.tx.writes[key] = &memRow{val: val}
		return
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.clock++
	if val == nil {
		delete(s.db.rows, key)
		return
	}
	s.db.rows[key] = memRow{val: val, ver: s.db.clock}
}

func (s *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *memStore) GetCart(ctx context.Context, userID uuid.UUID) (database.Cart, error) {
	v, ok := s.get(cartKey(userID))
	if !ok {
		return database.Cart{}, pgx.ErrNoRows
	}
	return v.(database.Cart), nil
}

func (s *memStore) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	s.get(cartKey(userID))
	s.put(cartKey(userID), nil)
	return nil
}

func (s *memStore) GetMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.MenuItem, error) {
	var out []database.MenuItem
	for _, id := range ids {
		if v, ok := s.get(menuKey(id)); ok {
			out = append(out, v.(database.MenuItem))
		}
	}
	return out, nil
}

func (s *memStore) SetMenuItemQuantity(ctx context.Context, arg database.SetMenuItemQuantityParams) error {
	v, ok := s.get(menuKey(arg.ID))
	if !ok {
		return nil
	}
	if arg.Quantity < 0 {
		return &pgconn.PgError{Code: "23514", Message: "menu_items_quantity_check"}
	}
	m := v.(database.MenuItem)
	m.Quantity = arg.Quantity
	s.put(menuKey(arg.ID), m)
	return nil
}

func (s *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := time.Now()
	o := database.Order{
		ID:               uuid.New(),
		UserID:           arg.UserID,
		UserName:         arg.UserName,
		Items:            arg.Items,
		Subtotal:         arg.Subtotal,
		DeliveryCharge:   arg.DeliveryCharge,
		TotalAmount:      arg.TotalAmount,
		OrderType:        arg.OrderType,
		Status:           arg.Status,
		PaymentMethod:    arg.PaymentMethod,
		UpiTransactionID: arg.UpiTransactionID,
		Notes:            arg.Notes,
		RoomNumber:       arg.RoomNumber,
		Whatsapp:         arg.Whatsapp,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.put(orderKey(o.ID), o)
	return o, nil
}

func (s *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	v, ok := s.get(orderKey(id))
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return v.(database.Order), nil
}

func (s *memStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	var out []database.Order
	for _, o := range s.db.orders() {
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		if arg.UserID.Valid && o.UserID != uuid.UUID(arg.UserID.Bytes) {
			continue
		}
		out = append(out, o)
	}
	if int(arg.Offset) >= len(out) {
		return []database.Order{}, nil
	}
	out = out[arg.Offset:]
	if len(out) > int(arg.Limit) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, err := s.GetOrder(ctx, arg.ID)
	if err != nil {
		return database.Order{}, err
	}
	if o.Status != arg.Status_2 {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = time.Now()
	s.put(orderKey(o.ID), o)
	return o, nil
}

func (s *memStore) UpdateOrderDetails(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error) {
	o, err := s.GetOrder(ctx, arg.ID)
	if err != nil {
		return database.Order{}, err
	}
	if arg.Notes.Valid {
		o.Notes = arg.Notes.String
	}
	if arg.UpiTransactionID.Valid {
		o.UpiTransactionID = arg.UpiTransactionID.String
	}
	s.put(orderKey(o.ID), o)
	return o, nil
}

func (s *memStore) DeleteTerminalOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return 0, nil
	}
	if !isTerminal(o.Status) {
		return 0, nil
	}
	s.put(orderKey(id), nil)
	return 1, nil
}

// --- shared helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}
