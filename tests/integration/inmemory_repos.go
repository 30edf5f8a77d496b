package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.StatusHistory = append([]domain.StatusEntry(nil), o.StatusHistory...)
	return &c
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *inMemoryOrderRepo) GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (r *inMemoryOrderRepo) GetBySwapID(ctx context.Context, swapID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.SwapID != nil && *o.SwapID == swapID {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (r *inMemoryOrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOrderRepo) GetBySwapIDForUpdate(ctx context.Context, tx pgx.Tx, swapID string) (*domain.Order, error) {
	return r.GetBySwapID(ctx, swapID)
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order not found")
	}
	stored.Status = order.Status
	stored.DepositTxHash = order.DepositTxHash
	stored.SettleTxHash = order.SettleTxHash
	stored.CompletedAt = order.CompletedAt
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *inMemoryOrderRepo) AppendHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entry domain.StatusEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found")
	}
	stored.StatusHistory = append(stored.StatusHistory, entry)
	return nil
}

func (r *inMemoryOrderRepo) MarkReminderSent(ctx context.Context, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return false, fmt.Errorf("order not found")
	}
	if stored.ReminderSent {
		return false, nil
	}
	stored.ReminderSent = true
	return true, nil
}

func (r *inMemoryOrderRepo) FindExpiredPending(ctx context.Context, now time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusPending && !o.HasDeposit() && !o.QuoteExpiresAt.After(now) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}

func (r *inMemoryOrderRepo) FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	deadline := now.Add(window)
	for _, o := range r.orders {
		if o.Status != domain.OrderStatusPending || o.ReminderSent {
			continue
		}
		if o.QuoteExpiresAt.After(now) && !o.QuoteExpiresAt.After(deadline) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}

func (r *inMemoryOrderRepo) FindAbandoned(ctx context.Context, now time.Time, maxAge time.Duration) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	cutoff := now.Add(-maxAge)
	for _, o := range r.orders {
		if o.Status != domain.OrderStatusPending || o.HasDeposit() {
			continue
		}
		if !o.CreatedAt.After(cutoff) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}

func (r *inMemoryOrderRepo) FindStuckInFlight(ctx context.Context, now time.Time, staleAfter time.Duration) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inFlight := map[domain.OrderStatus]bool{
		domain.OrderStatusDetecting:  true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusSettling:   true,
		domain.OrderStatusUnderpaid:  true,
		domain.OrderStatusOverpaid:   true,
	}
	var result []domain.Order
	cutoff := now.Add(-staleAfter)
	for _, o := range r.orders {
		if inFlight[o.Status] && !o.UpdatedAt.After(cutoff) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result, nil
}

func (r *inMemoryOrderRepo) List(ctx context.Context, params ports.OrderListParams) ([]domain.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if params.Status != nil && o.Status != *params.Status {
			continue
		}
		if params.From != nil && o.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && o.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Order{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookEventRepo struct {
	mu     sync.RWMutex
	events map[string]*domain.WebhookEvent
}

func newInMemoryWebhookEventRepo() *inMemoryWebhookEventRepo {
	return &inMemoryWebhookEventRepo{events: make(map[string]*domain.WebhookEvent)}
}

func (r *inMemoryWebhookEventRepo) InsertIgnoreDuplicate(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[event.EventID]; exists {
		return false, nil
	}
	c := *event
	r.events[event.EventID] = &c
	return true, nil
}

func (r *inMemoryWebhookEventRepo) GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (r *inMemoryWebhookEventRepo) MarkProcessed(ctx context.Context, eventID string, orderID *uuid.UUID, processingError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("webhook event not found")
	}
	e.Processed = true
	e.OrderID = orderID
	e.ProcessingError = processingError
	return nil
}

func (r *inMemoryWebhookEventRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for id, e := range r.events {
		if e.ReceivedAt.Before(cutoff) {
			delete(r.events, id)
			purged++
		}
	}
	return purged, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, standing
// in for the per-order row locks the real reconciler relies on.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &memTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// memTx is a pgx.Tx that only tracks the serialization lock. Commit and
// the deferred Rollback both run, so the release is once-guarded.
type memTx struct {
	once    sync.Once
	release func()
}

func (t *memTx) done() {
	t.once.Do(t.release)
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

// --- Fake Exchange Provider ---

// fakeExchange is a scriptable ports.SwapProvider. Tests set the swap
// status it should report; checkout flows get deterministic quotes.
type fakeExchange struct {
	mu          sync.Mutex
	nextSwap    int
	quoteExpiry time.Duration
	quotes      map[string]ports.Quote
	statuses    map[string]ports.SwapStatus
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		quoteExpiry: 15 * time.Minute,
		quotes:      make(map[string]ports.Quote),
		statuses:    make(map[string]ports.SwapStatus),
	}
}

func (f *fakeExchange) setQuoteExpiry(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteExpiry = d
}

func (f *fakeExchange) setSwapStatus(swapID string, status ports.SwapStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[swapID] = status
}

func (f *fakeExchange) ListSupportedAssets(ctx context.Context) ([]ports.Asset, error) {
	return []ports.Asset{
		{Asset: "BTC", Network: "bitcoin", Name: "Bitcoin"},
		{Asset: "ETH", Network: "ethereum", Name: "Ether"},
		{Asset: "USDC", Network: "ethereum", Name: "USD Coin"},
	}, nil
}

func (f *fakeExchange) RequestQuote(ctx context.Context, req ports.QuoteRequest) (*ports.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rate := decimal.RequireFromString("0.00001") // deposit units per settle unit
	settle := decimal.Zero
	if req.SettleAmount != nil {
		settle = *req.SettleAmount
	}
	quote := ports.Quote{
		ID:             fmt.Sprintf("quote-%d", len(f.quotes)+1),
		DepositAsset:   req.DepositAsset,
		DepositNetwork: req.DepositNetwork,
		SettleAsset:    req.SettleAsset,
		SettleNetwork:  req.SettleNetwork,
		DepositAmount:  settle.Mul(rate),
		SettleAmount:   settle,
		Rate:           rate,
		ExpiresAt:      time.Now().Add(f.quoteExpiry),
	}
	f.quotes[quote.ID] = quote
	return &quote, nil
}

func (f *fakeExchange) CreateFixedSwap(ctx context.Context, quoteID, settleAddress, refundAddress string) (*ports.Swap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[quoteID]
	if !ok {
		return nil, fmt.Errorf("unknown quote %s", quoteID)
	}
	f.nextSwap++
	swap := &ports.Swap{
		ID:             fmt.Sprintf("swap-%d", f.nextSwap),
		DepositAddress: fmt.Sprintf("deposit-addr-%d", f.nextSwap),
		DepositAmount:  quote.DepositAmount,
		ExpiresAt:      quote.ExpiresAt,
	}
	f.statuses[swap.ID] = ports.SwapStatus{Status: "waiting"}
	return swap, nil
}

func (f *fakeExchange) GetSwapStatus(ctx context.Context, swapID string) (*ports.SwapStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[swapID]
	if !ok {
		return nil, fmt.Errorf("unknown swap %s", swapID)
	}
	return &status, nil
}

// --- Counting Notifier ---

type countingNotifier struct {
	completed atomic.Int64
	expiring  atomic.Int64
}

func (n *countingNotifier) OrderCompleted(ctx context.Context, order *domain.Order) {
	n.completed.Add(1)
}

func (n *countingNotifier) QuoteExpiring(ctx context.Context, order *domain.Order) {
	n.expiring.Add(1)
}
