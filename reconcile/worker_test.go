package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templateverse/marketplace-api/cart"
	"github.com/templateverse/marketplace-api/models"
)

type memQueue struct {
	rows     []models.PaymentReconciliation
	resolved map[uint]string
}

func (q *memQueue) Unresolved(_ context.Context, limit int) ([]models.PaymentReconciliation, error) {
	var out []models.PaymentReconciliation
	for _, r := range q.rows {
		if !r.Resolved && q.resolvedOrder(r.ID) == "" {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memQueue) MarkResolved(_ context.Context, id uint, orderID string) error {
	if q.resolved == nil {
		q.resolved = make(map[uint]string)
	}
	q.resolved[id] = orderID
	return nil
}

func (q *memQueue) resolvedOrder(id uint) string { return q.resolved[id] }

type memOrders struct {
	created    []models.Order
	byKey      map[string]*models.Order
	failCreate bool
}

func (o *memOrders) CreateWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if o.failCreate {
		return errors.New("insert failed")
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	o.created = append(o.created, *order)
	if o.byKey == nil {
		o.byKey = make(map[string]*models.Order)
	}
	o.byKey[order.IdempotencyKey] = order
	return nil
}

func (o *memOrders) ByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	if o.byKey == nil {
		return nil, nil
	}
	return o.byKey[key], nil
}

type memPasses struct{ granted []string }

func (p *memPasses) Grant(_ context.Context, userID string, _ float64) error {
	p.granted = append(p.granted, userID)
	return nil
}

func newTestWorker(queue *memQueue) (*Worker, *memOrders, *memPasses) {
	orders := &memOrders{}
	passes := &memPasses{}
	return &Worker{Queue: queue, Orders: orders, Passes: passes}, orders, passes
}

func pendingRow(id uint, paypalOrderID, payload string) models.PaymentReconciliation {
	return models.PaymentReconciliation{
		ID:            id,
		PayPalOrderID: paypalOrderID,
		UserID:        "user-1",
		UserEmail:     "u1@example.com",
		Amount:        59,
		ItemsPayload:  payload,
		Reason:        "captured_unrecorded",
	}
}

func TestRunOnceRepairsUnresolvedRow(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		pendingRow(1, "PAYPAL-ORDER-1", `[{"template_id":"t1","template_title":"Landing Kit","license_type":"regular","price":59}]`),
	}}
	worker, orders, passes := newTestWorker(queue)

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	require.Len(t, orders.created, 1)
	order := orders.created[0]
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, "u1@example.com", order.UserEmail)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, float64(59), order.TotalAmount)
	assert.Equal(t, "PAYPAL-ORDER-1", order.PayPalOrderID)
	assert.Equal(t, "reconcile-PAYPAL-ORDER-1", order.IdempotencyKey)

	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, "t1", order.Items[0].TemplateID)

	assert.Equal(t, order.ID, queue.resolvedOrder(1))
	assert.Empty(t, passes.granted)
}

func TestRunOnceDedupesAgainstExistingOrder(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		pendingRow(1, "PAYPAL-ORDER-1", `[{"template_id":"t1","price":59}]`),
	}}
	worker, orders, _ := newTestWorker(queue)

	// A capture retry already recorded this payment under the replay key.
	existing := models.Order{ID: "existing-order", IdempotencyKey: "reconcile-PAYPAL-ORDER-1"}
	orders.byKey = map[string]*models.Order{existing.IdempotencyKey: &existing}

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	assert.Empty(t, orders.created)
	assert.Equal(t, "existing-order", queue.resolvedOrder(1))
}

func TestRunOnceCorruptPayloadStaysQueued(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		pendingRow(1, "PAYPAL-ORDER-1", `not json`),
	}}
	worker, orders, _ := newTestWorker(queue)

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
	assert.Empty(t, orders.created)
	assert.Empty(t, queue.resolvedOrder(1))

	// Row is still offered on the next pass.
	pending, err := queue.Unresolved(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRunOncePersistenceFailureStaysQueued(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		pendingRow(1, "PAYPAL-ORDER-1", `[{"template_id":"t1","price":59}]`),
	}}
	worker, orders, _ := newTestWorker(queue)
	orders.failCreate = true

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
	assert.Empty(t, queue.resolvedOrder(1))
}

func TestRunOnceGrantsPassForAllAccessLine(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		{
			ID:            2,
			PayPalOrderID: "PAYPAL-ORDER-2",
			UserID:        "user-2",
			UserEmail:     "u2@example.com",
			Amount:        cart.AllAccessPrice,
			ItemsPayload:  `[{"template_id":"all-access","template_title":"All-Access Pass","price":300}]`,
			Reason:        "captured_unrecorded",
		},
	}}
	worker, orders, passes := newTestWorker(queue)

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	require.Len(t, orders.created, 1)
	assert.Equal(t, []string{"user-2"}, passes.granted)
}

func TestRunOnceRepairsMultipleRows(t *testing.T) {
	queue := &memQueue{rows: []models.PaymentReconciliation{
		pendingRow(1, "PAYPAL-ORDER-1", `[{"template_id":"t1","price":59}]`),
		pendingRow(2, "PAYPAL-ORDER-2", `not json`),
		pendingRow(3, "PAYPAL-ORDER-3", `[{"template_id":"t2","price":79}]`),
	}}
	worker, orders, _ := newTestWorker(queue)

	repaired, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)
	assert.Len(t, orders.created, 2)
	assert.NotEmpty(t, queue.resolvedOrder(1))
	assert.Empty(t, queue.resolvedOrder(2))
	assert.NotEmpty(t, queue.resolvedOrder(3))
}
