package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"swapgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWebhooks_SameStatusConverges fires the same settled
// observation from many goroutines with distinct event ids. The per-order
// lock plus the same-status no-op must leave exactly one completed
// transition in the history.
func TestConcurrentWebhooks_SameStatusConverges(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderNumber := createOrder(t, app)
	swapID := swapIDFor(t, app, orderNumber)
	payload := fmt.Sprintf(`{"swap_id":%q,"status":"settled","settle_tx_hash":"0xset"}`, swapID)

	concurrency := 20
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			postWebhook(t, app, fmt.Sprintf("evt-burst-%d", idx), payload)
		}(i)
	}
	wg.Wait()

	order, err := app.orders.GetByOrderNumber(context.Background(), orderNumber)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)
	require.Len(t, order.StatusHistory, 2) // created + completed
	assert.Equal(t, domain.OrderStatusCompleted, order.StatusHistory[1].Status)
	assert.Equal(t, int64(1), app.notifier.completed.Load())
}

// TestConcurrentWebhooks_MixedStatusesConverge delivers the whole status
// progression concurrently and out of order. Whatever interleaving wins,
// the order must end terminal at completed: once settled is applied, the
// terminal guard absorbs every straggler.
func TestConcurrentWebhooks_MixedStatusesConverge(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderNumber := createOrder(t, app)
	swapID := swapIDFor(t, app, orderNumber)

	statuses := []string{"pending", "processing", "settling", "settled", "pending", "processing", "settling", "settled"}
	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(idx int, st string) {
			defer wg.Done()
			payload := fmt.Sprintf(`{"swap_id":%q,"status":%q}`, swapID, st)
			postWebhook(t, app, fmt.Sprintf("evt-mixed-%d", idx), payload)
		}(i, status)
	}
	wg.Wait()

	order, err := app.orders.GetByOrderNumber(context.Background(), orderNumber)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	// The history never records anything after the completed entry.
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, domain.OrderStatusCompleted, last.Status)
}

// TestSequentialWebhooks_HistoryOrder is the deterministic counterpart:
// delivered in order, every hop lands in the audit trail exactly once.
func TestSequentialWebhooks_HistoryOrder(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderNumber := createOrder(t, app)
	swapID := swapIDFor(t, app, orderNumber)

	for i, status := range []string{"pending", "processing", "settling", "settled"} {
		payload := fmt.Sprintf(`{"swap_id":%q,"status":%q}`, swapID, status)
		res := postWebhook(t, app, fmt.Sprintf("evt-seq-%d", i), payload)
		assert.Equal(t, "applied", res["result"])
	}

	order, err := app.orders.GetByOrderNumber(context.Background(), orderNumber)
	require.NoError(t, err)
	require.NotNil(t, order)

	want := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusDetecting,
		domain.OrderStatusProcessing,
		domain.OrderStatusSettling,
		domain.OrderStatusCompleted,
	}
	require.Len(t, order.StatusHistory, len(want))
	for i, entry := range order.StatusHistory {
		assert.Equal(t, want[i], entry.Status)
	}
}

// TestConcurrentSweeps_SingleReminder runs overlapping sweeps against one
// order inside the reminder window. The conditional flag flip decides the
// race: only one sweep sends the reminder.
func TestConcurrentSweeps_SingleReminder(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.exchange.setQuoteExpiry(90 * time.Second) // inside the 2m window
	createOrder(t, app)

	sweeps := 5
	var wg sync.WaitGroup
	reminded := make([]int, sweeps)
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			summary, err := app.monitor.Sweep(context.Background())
			require.NoError(t, err)
			reminded[idx] = summary.Reminded
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range reminded {
		total += n
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(1), app.notifier.expiring.Load())
}

// TestConcurrentCheckouts issues many checkouts in parallel; every order
// gets its own swap and order number.
func TestConcurrentCheckouts(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 20
	numbers := make(chan string, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			numbers <- createOrder(t, app)
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for n := range numbers {
		require.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, concurrency)

	resp, err := http.Get(app.server.URL + "/api/v1/assets")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
