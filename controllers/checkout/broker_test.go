package checkoutControllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templateverse/marketplace-api/cart"
	"github.com/templateverse/marketplace-api/checkout"
	"github.com/templateverse/marketplace-api/middleware"
	"github.com/templateverse/marketplace-api/models"
	"github.com/templateverse/marketplace-api/paypal"
)

const testJWTSecret = "test-secret"

// ---- fake PayPal ----

type fakePayPal struct {
	tokenCalls   int
	createCalls  int
	captureCalls int
	failCapture  bool
}

func (f *fakePayPal) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			f.tokenCalls++
			w.Write([]byte(`{"access_token":"TEST-TOKEN"}`))
		case strings.HasSuffix(r.URL.Path, "/capture"):
			f.captureCalls++
			if f.failCapture {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_NOT_APPROVED"}]}`))
				return
			}
			w.Write([]byte(`{"id":"PAYPAL-ORDER-1","status":"COMPLETED"}`))
		case r.URL.Path == "/v2/checkout/orders":
			f.createCalls++
			w.Write([]byte(`{"id":"PAYPAL-ORDER-1","status":"CREATED"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// ---- fake stores ----

type fakeCatalog struct{ templates map[string]models.Template }

func (f fakeCatalog) Template(_ context.Context, id string) (*models.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type fakeOrders struct {
	created    []models.Order
	byKey      map[string]*models.Order
	failCreate bool
}

func (f *fakeOrders) CreateWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	f.created = append(f.created, *order)
	if f.byKey == nil {
		f.byKey = make(map[string]*models.Order)
	}
	f.byKey[order.IdempotencyKey] = order
	return nil
}

func (f *fakeOrders) ByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	if f.byKey == nil {
		return nil, nil
	}
	return f.byKey[key], nil
}

type fakePasses struct{ granted []string }

func (f *fakePasses) Grant(_ context.Context, userID string, _ float64) error {
	f.granted = append(f.granted, userID)
	return nil
}

type fakeRecons struct{ recs []models.PaymentReconciliation }

func (f *fakeRecons) Enqueue(_ context.Context, rec *models.PaymentReconciliation) error {
	f.recs = append(f.recs, *rec)
	return nil
}

type fakeCarts struct{ cleared []string }

func (f *fakeCarts) Load(_ context.Context, _ string) (*cart.Store, error) { return cart.NewStore(), nil }
func (f *fakeCarts) Save(_ context.Context, _ string, _ *cart.Store) error { return nil }
func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

// ---- harness ----

type brokerFixture struct {
	router *gin.Engine
	paypal *fakePayPal
	orders *fakeOrders
	passes *fakePasses
	recons *fakeRecons
	carts  *fakeCarts
}

func newBrokerFixture(t *testing.T) *brokerFixture {
	t.Helper()
	t.Setenv("SUPABASE_JWT_SECRET", testJWTSecret)
	gin.SetMode(gin.TestMode)

	pp := &fakePayPal{}
	server := httptest.NewServer(pp.handler())
	t.Cleanup(server.Close)

	f := &brokerFixture{
		paypal: pp,
		orders: &fakeOrders{},
		passes: &fakePasses{},
		recons: &fakeRecons{},
		carts:  &fakeCarts{},
	}

	broker := &Broker{
		PayPal:  paypal.NewClient(paypal.Config{ClientID: "id", Secret: "secret", APIBase: server.URL}),
		Tracker: checkout.NewTracker(),
		Catalog: fakeCatalog{templates: map[string]models.Template{
			"t1": {ID: "t1", Title: "Landing Kit", Price: 59, ExtendedPrice: 299},
			"t2": {ID: "t2", Title: "Dashboard Pro", Price: 79, ExtendedPrice: 349},
		}},
		Orders: f.orders,
		Passes: f.passes,
		Recons: f.recons,
		Carts:  f.carts,
	}

	r := gin.New()
	group := r.Group("/checkout/paypal")
	group.Use(middleware.ValidateToken)
	group.POST("/orders", broker.CreateOrder)
	group.POST("/orders/capture", broker.CaptureOrder)
	group.POST("/orders/cancel", broker.CancelAttempt)
	f.router = r
	return f
}

func bearerToken(t *testing.T, userID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *brokerFixture) post(t *testing.T, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func landingKitCart() map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": "t1", "title": "Landing Kit", "price": 59, "license": "regular"},
		},
		"total": 59,
	}
}

// ---- create broker ----

func TestCreateOrderUnauthenticated(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders", "", landingKitCart())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.paypal.createCalls)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{"items": []map[string]interface{}{}, "total": 0})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Cart is empty")
	assert.Zero(t, f.paypal.createCalls)
}

func TestCreateOrderUnknownTemplate(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{
			"items": []map[string]interface{}{{"id": "ghost", "title": "Ghost", "price": 1, "license": "regular"}},
			"total": 1,
		})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.paypal.createCalls)
}

func TestCreateOrderTamperedTotalRejected(t *testing.T) {
	f := newBrokerFixture(t)

	// Client claims the 59-dollar template costs 1.
	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{
			"items": []map[string]interface{}{{"id": "t1", "title": "Landing Kit", "price": 1, "license": "regular"}},
			"total": 1,
		})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "does not match")
	assert.Zero(t, f.paypal.createCalls)
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"), landingKitCart())

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "PAYPAL-ORDER-1", body["orderId"])
	assert.Equal(t, "user-1", body["userId"])
	assert.Equal(t, "u1@example.com", body["userEmail"])
	assert.NotEmpty(t, body["idempotencyKey"])
	assert.Equal(t, 1, f.paypal.createCalls)
}

func TestCreateOrderAcceptsCartPricedFromCatalog(t *testing.T) {
	f := newBrokerFixture(t)

	// Build the payload the way the cart endpoints do: line price and
	// total derived from the catalog, not the fixed table. t2's catalog
	// price (79) differs from the fixed table on purpose.
	carts := cart.NewStore()
	carts.AddToCart(cart.Item{ID: "t2", Title: "Dashboard Pro", Price: 79, License: cart.LicenseRegular})

	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{"items": carts.CheckoutItems(), "total": carts.TotalPrice()})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.paypal.createCalls)
}

func TestCreateOrderExtendedLicenseUsesCatalogPrice(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{
			"items": []map[string]interface{}{{"id": "t2", "title": "Dashboard Pro", "price": 349, "license": "extended"}},
			"total": 349,
		})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.paypal.createCalls)
}

// ---- capture broker ----

func TestCaptureOrderUnauthenticated(t *testing.T) {
	f := newBrokerFixture(t)

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	w := f.post(t, "/checkout/paypal/orders/capture", "", body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.paypal.captureCalls)
	assert.Empty(t, f.orders.created)
}

func TestCaptureOrderMissingRemoteID(t *testing.T) {
	f := newBrokerFixture(t)

	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), landingKitCart())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "PayPal order ID is required")
}

func TestCaptureOrderHappyPath(t *testing.T) {
	f := newBrokerFixture(t)

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "PAYPAL-ORDER-1", resp["paypalOrderId"])
	assert.NotEmpty(t, resp["orderId"])

	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, resp["orderId"], order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, "u1@example.com", order.UserEmail)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, float64(59), order.TotalAmount)

	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, "t1", order.Items[0].TemplateID)
	assert.Equal(t, "Landing Kit", order.Items[0].TemplateTitle)
	assert.Equal(t, "regular", order.Items[0].LicenseType)
	assert.Equal(t, float64(59), order.Items[0].Price)

	assert.Equal(t, []string{"user-1"}, f.carts.cleared)
	assert.Empty(t, f.passes.granted)
	assert.Equal(t, 1, f.paypal.captureCalls)
}

func TestCaptureOrderCreatesOneItemPerLine(t *testing.T) {
	f := newBrokerFixture(t)

	body := map[string]interface{}{
		"paypalOrderId": "PAYPAL-ORDER-1",
		"items": []map[string]interface{}{
			{"id": "t1", "title": "Landing Kit", "price": 59, "license": "regular"},
			{"id": "t2", "title": "Dashboard Pro", "price": 349, "license": "extended"},
		},
		"total": 408,
	}
	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.orders.created, 1)
	assert.Len(t, f.orders.created[0].Items, 2)
	assert.Equal(t, float64(408), f.orders.created[0].TotalAmount)
}

func TestCaptureOrderIdempotentReplay(t *testing.T) {
	f := newBrokerFixture(t)

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	body["idempotencyKey"] = "attempt-1"

	first := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, f.paypal.captureCalls)
	firstOrderID := decodeBody(t, first)["orderId"]

	second := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, firstOrderID, decodeBody(t, second)["orderId"])

	// Replay never reaches PayPal or writes a second order.
	assert.Equal(t, 1, f.paypal.captureCalls)
	assert.Len(t, f.orders.created, 1)
}

func TestCaptureOrderProviderRejection(t *testing.T) {
	f := newBrokerFixture(t)
	f.paypal.failCapture = true

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "ORDER_NOT_APPROVED")
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.recons.recs)
	assert.Empty(t, f.carts.cleared)
}

func TestCapturePersistenceFailureEnqueuesReconciliation(t *testing.T) {
	f := newBrokerFixture(t)
	f.orders.failCreate = true

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, f.paypal.captureCalls)

	require.Len(t, f.recons.recs, 1)
	rec := f.recons.recs[0]
	assert.Equal(t, "PAYPAL-ORDER-1", rec.PayPalOrderID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, float64(59), rec.Amount)
	assert.Equal(t, "captured_unrecorded", rec.Reason)
	assert.False(t, rec.Resolved)

	var items []models.OrderItem
	require.NoError(t, json.Unmarshal([]byte(rec.ItemsPayload), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].TemplateID)

	// Cart survives so the user can retry.
	assert.Empty(t, f.carts.cleared)
}

func TestCaptureAllAccessGrantsPass(t *testing.T) {
	f := newBrokerFixture(t)

	body := map[string]interface{}{
		"paypalOrderId": "PAYPAL-ORDER-1",
		"items": []map[string]interface{}{
			{"id": cart.AllAccessID, "title": "All-Access Pass", "price": cart.AllAccessPrice, "license": "regular"},
		},
		"total": cart.AllAccessPrice,
	}
	w := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-2", "u2@example.com"), body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user-2"}, f.passes.granted)

	require.Len(t, f.orders.created, 1)
	assert.Equal(t, float64(cart.AllAccessPrice), f.orders.created[0].TotalAmount)
}

func TestCaptureDuplicateSubmissionRejected(t *testing.T) {
	f := newBrokerFixture(t)

	body := landingKitCart()
	body["paypalOrderId"] = "PAYPAL-ORDER-1"
	body["idempotencyKey"] = "attempt-dup"

	first := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)
	require.Equal(t, http.StatusOK, first.Code)

	// Simulate the replayed request racing ahead of the recorded order.
	f.orders.byKey = nil
	second := f.post(t, "/checkout/paypal/orders/capture", bearerToken(t, "user-1", "u1@example.com"), body)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, 1, f.paypal.captureCalls)
}

func TestCancelAttempt(t *testing.T) {
	f := newBrokerFixture(t)

	create := landingKitCart()
	w := f.post(t, "/checkout/paypal/orders", bearerToken(t, "user-1", "u1@example.com"), create)
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeBody(t, w)["idempotencyKey"].(string)

	cancel := f.post(t, "/checkout/paypal/orders/cancel", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{"idempotencyKey": token})
	assert.Equal(t, http.StatusOK, cancel.Code)

	unknown := f.post(t, "/checkout/paypal/orders/cancel", bearerToken(t, "user-1", "u1@example.com"),
		map[string]interface{}{"idempotencyKey": "never-seen"})
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}
