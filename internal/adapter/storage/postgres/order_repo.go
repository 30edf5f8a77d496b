package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Amounts are stored as text and parsed into decimals on the way out, so
// no precision is lost between the exchange's quote and what we show the
// customer.

const orderColumns = `id, order_number, quote_id, swap_id,
	deposit_asset, deposit_network, deposit_address, deposit_amount, deposit_tx_hash,
	settle_asset, settle_network, settle_address, settle_amount, settle_tx_hash,
	status, quote_expires_at, reminder_sent, completed_at, created_at, updated_at`

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order together with its initial history entries.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.OrderNumber, o.QuoteID, o.SwapID,
		o.DepositAsset, o.DepositNetwork, o.DepositAddress, o.DepositAmount.String(), o.DepositTxHash,
		o.SettleAsset, o.SettleNetwork, o.SettleAddress, o.SettleAmount.String(), o.SettleTxHash,
		o.Status, o.QuoteExpiresAt, o.ReminderSent, o.CompletedAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, entry := range o.StatusHistory {
		if err := r.insertHistory(ctx, r.pool, o.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches an order by UUID, including its status history.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.fetchWithHistory(ctx, query, id)
}

// GetByOrderNumber fetches an order by its human-facing number.
func (r *OrderRepo) GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	return r.fetchWithHistory(ctx, query, number)
}

// GetBySwapID fetches an order by the provider's swap id.
func (r *OrderRepo) GetBySwapID(ctx context.Context, swapID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE swap_id = $1`
	return r.fetchWithHistory(ctx, query, swapID)
}

// GetByIDForUpdate fetches and row-locks an order inside a transaction.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.scanOrder(tx.QueryRow(ctx, query, id))
}

// GetBySwapIDForUpdate fetches and row-locks an order by swap id.
func (r *OrderRepo) GetBySwapIDForUpdate(ctx context.Context, tx pgx.Tx, swapID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE swap_id = $1 FOR UPDATE`
	return r.scanOrder(tx.QueryRow(ctx, query, swapID))
}

// UpdateStatus persists the mutable reconciliation fields within a
// transaction block.
func (r *OrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `UPDATE orders SET status = $1, deposit_tx_hash = $2, settle_tx_hash = $3,
		completed_at = $4, updated_at = $5 WHERE id = $6`

	tag, err := tx.Exec(ctx, query, o.Status, o.DepositTxHash, o.SettleTxHash, o.CompletedAt, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", o.ID)
	}
	return nil
}

// AppendHistory adds one entry to the order's append-only audit trail.
func (r *OrderRepo) AppendHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entry domain.StatusEntry) error {
	return r.insertHistory(ctx, tx, orderID, entry)
}

// execer covers both Pool and pgx.Tx for writes.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *OrderRepo) insertHistory(ctx context.Context, q execer, orderID uuid.UUID, entry domain.StatusEntry) error {
	query := `INSERT INTO order_status_history (order_id, status, note, created_at) VALUES ($1, $2, $3, $4)`
	_, err := q.Exec(ctx, query, orderID, entry.Status, entry.Note, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// MarkReminderSent flips the one-shot reminder flag. The WHERE clause
// decides the race between overlapping sweeps.
func (r *OrderRepo) MarkReminderSent(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `UPDATE orders SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE`
	tag, err := r.pool.Exec(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindExpiredPending returns pending orders whose quote lapsed with no
// deposit observed.
func (r *OrderRepo) FindExpiredPending(ctx context.Context, now time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status = 'pending' AND deposit_tx_hash IS NULL AND quote_expires_at <= $1
		ORDER BY quote_expires_at`
	return r.fetchMany(ctx, query, now)
}

// FindExpiringSoon returns unreminded pending orders whose quote lapses
// within the window.
func (r *OrderRepo) FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status = 'pending' AND deposit_tx_hash IS NULL AND reminder_sent = FALSE
		AND quote_expires_at > $1 AND quote_expires_at <= $2
		ORDER BY quote_expires_at`
	return r.fetchMany(ctx, query, now, now.Add(window))
}

// FindAbandoned returns pending orders with no deposit older than maxAge.
// Scoped to pending on purpose: once a swap is in flight the stuck-order
// rule owns recovery, a missing deposit hash there means a sparse webhook,
// not an abandoned checkout.
func (r *OrderRepo) FindAbandoned(ctx context.Context, now time.Time, maxAge time.Duration) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status = 'pending'
		AND deposit_tx_hash IS NULL AND created_at <= $1
		ORDER BY created_at`
	return r.fetchMany(ctx, query, now.Add(-maxAge))
}

// FindStuckInFlight returns in-flight orders whose last update is older
// than staleAfter.
func (r *OrderRepo) FindStuckInFlight(ctx context.Context, now time.Time, staleAfter time.Duration) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status IN ('detecting', 'processing', 'settling', 'underpaid', 'overpaid')
		AND updated_at <= $1
		ORDER BY updated_at`
	return r.fetchMany(ctx, query, now.Add(-staleAfter))
}

// List fetches orders with filtering and pagination.
func (r *OrderRepo) List(ctx context.Context, params ports.OrderListParams) ([]domain.Order, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+orderColumns+` FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	orders, err := r.fetchMany(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepo) fetchWithHistory(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil || order == nil {
		return order, err
	}

	history, err := r.loadHistory(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history
	return order, nil
}

func (r *OrderRepo) loadHistory(ctx context.Context, orderID uuid.UUID) ([]domain.StatusEntry, error) {
	query := `SELECT status, note, created_at FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusEntry
	for rows.Next() {
		var entry domain.StatusEntry
		if err := rows.Scan(&entry.Status, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return history, nil
}

func (r *OrderRepo) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

// scanOrder scans a single row, translating no-rows into a nil order.
func (r *OrderRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	order, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func scanOrderRow(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var depositAmount, settleAmount string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.QuoteID, &o.SwapID,
		&o.DepositAsset, &o.DepositNetwork, &o.DepositAddress, &depositAmount, &o.DepositTxHash,
		&o.SettleAsset, &o.SettleNetwork, &o.SettleAddress, &settleAmount, &o.SettleTxHash,
		&o.Status, &o.QuoteExpiresAt, &o.ReminderSent, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.DepositAmount, err = decimal.NewFromString(depositAmount); err != nil {
		return nil, fmt.Errorf("parse deposit amount: %w", err)
	}
	if o.SettleAmount, err = decimal.NewFromString(settleAmount); err != nil {
		return nil, fmt.Errorf("parse settle amount: %w", err)
	}
	return o, nil
}
