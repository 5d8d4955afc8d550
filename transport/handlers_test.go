package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	catalogmodel "github.com/forresttindall/paradoxlabs/pkg/catalog/domain/model"
	checkoutservice "github.com/forresttindall/paradoxlabs/pkg/checkout/domain/service"
	"github.com/forresttindall/paradoxlabs/pkg/order/domain/model"
	orderservice "github.com/forresttindall/paradoxlabs/pkg/order/domain/service"
)

const testAdminKey = "test-admin-key"

func setup(t *testing.T) (http.Handler, *mockFulfillment, *mockVerifier) {
	t.Helper()
	fulfillment := &mockFulfillment{}
	verifier := &mockVerifier{}
	router := Router(Deps{
		Fulfillment: fulfillment,
		Checkout:    &mockCheckout{},
		Catalog:     &mockCatalog{products: map[uuid.UUID]*catalogmodel.Product{}},
		Verifier:    verifier,
		AdminAPIKey: testAdminKey,
	})
	return router, fulfillment, verifier
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": testAdminKey}
}

func TestAdminAuth(t *testing.T) {
	t.Run("Missing key is rejected", func(t *testing.T) {
		router, fulfillment, _ := setup(t)

		rec := doJSON(t, router, http.MethodGet, "/fulfillment", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, fulfillment.listCalls)
	})

	t.Run("Wrong key is rejected", func(t *testing.T) {
		router, fulfillment, _ := setup(t)

		rec := doJSON(t, router, http.MethodGet, "/fulfillment", nil, map[string]string{"X-Admin-Key": "wrong"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, fulfillment.listCalls)
	})

	t.Run("Preflight passes without a key", func(t *testing.T) {
		router, _, _ := setup(t)

		rec := doJSON(t, router, http.MethodOptions, "/fulfillment", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestListOrdersHandler(t *testing.T) {
	router, fulfillment, _ := setup(t)
	fulfillment.page = &model.OrderPage{
		Orders: []*model.Order{{
			ID:                "pi_1",
			AmountCents:       6400,
			Currency:          "usd",
			PaymentStatus:     "succeeded",
			FulfillmentStatus: model.StatusShipped,
			Customer:          model.Customer{Email: "ada@example.com", Name: "Ada"},
			Items:             []model.Item{{ID: "p1", Name: "Aurora Print", Quantity: 2, Price: 25}},
			Tracking:          model.Tracking{Number: "1Z999", Carrier: "UPS"},
		}},
		TotalCount: 1,
	}

	rec := doJSON(t, router, http.MethodGet, "/fulfillment?status=shipped&limit=10", nil, adminHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusShipped, fulfillment.lastQuery.Status)
	assert.Equal(t, 10, fulfillment.lastQuery.Limit)

	var resp struct {
		Orders []struct {
			OrderNumber       string  `json:"orderNumber"`
			Amount            float64 `json:"amount"`
			FulfillmentStatus string  `json:"fulfillmentStatus"`
			Tracking          struct {
				Number string `json:"number"`
			} `json:"tracking"`
		} `json:"orders"`
		TotalCount int `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "pi_1", resp.Orders[0].OrderNumber)
	assert.Equal(t, 64.0, resp.Orders[0].Amount)
	assert.Equal(t, "shipped", resp.Orders[0].FulfillmentStatus)
	assert.Equal(t, "1Z999", resp.Orders[0].Tracking.Number)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestUpdateOrderHandler(t *testing.T) {
	t.Run("Unknown action", func(t *testing.T) {
		router, _, _ := setup(t)

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"orderId": "pi_1",
			"action":  "mark_lost",
		}, adminHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "is not supported")
	})

	t.Run("Missing order id", func(t *testing.T) {
		router, _, _ := setup(t)

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"action": "mark_processing",
		}, adminHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Shipping without tracking info", func(t *testing.T) {
		router, fulfillment, _ := setup(t)

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"orderId": "pi_1",
			"action":  "mark_shipped",
		}, adminHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Tracking number and carrier are required for shipping")
		assert.Equal(t, 0, fulfillment.shipCalls)
	})

	t.Run("Shipping passes tracking through", func(t *testing.T) {
		router, fulfillment, _ := setup(t)
		fulfillment.result = &model.UpdateResult{
			OrderID: "pi_1",
			Status:  model.StatusShipped,
			Message: "Order marked as shipped and customer notified",
		}

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"orderId": "pi_1",
			"action":  "mark_shipped",
			"trackingInfo": map[string]string{
				"trackingNumber": "1Z999",
				"carrier":        "UPS",
				"trackingUrl":    "https://track.example.com/1Z999",
			},
		}, adminHeaders())

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1Z999", fulfillment.lastTracking.Number)
		assert.Equal(t, "UPS", fulfillment.lastTracking.Carrier)
		assert.Contains(t, rec.Body.String(), "Order marked as shipped and customer notified")
	})

	t.Run("Cancel passes the reason through", func(t *testing.T) {
		router, fulfillment, _ := setup(t)
		fulfillment.result = &model.UpdateResult{
			OrderID: "pi_1",
			Status:  model.StatusCancelled,
			Message: "Order marked as cancelled and customer notified",
		}

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"orderId": "pi_1",
			"action":  "mark_cancelled",
			"reason":  "out of stock",
		}, adminHeaders())

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "out of stock", fulfillment.lastReason)
	})

	t.Run("Unknown order maps to 404", func(t *testing.T) {
		router, fulfillment, _ := setup(t)
		fulfillment.err = model.ErrOrderNotFound

		rec := doJSON(t, router, http.MethodPost, "/fulfillment", map[string]any{
			"orderId": "pi_missing",
			"action":  "mark_processing",
		}, adminHeaders())

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStripeWebhookHandler(t *testing.T) {
	t.Run("Tampered signature is rejected without processing", func(t *testing.T) {
		router, fulfillment, verifier := setup(t)
		verifier.err = errors.New("signature mismatch")

		req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", bytes.NewBufferString("{}"))
		req.Header.Set("Stripe-Signature", "t=1,v1=bad")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, fulfillment.paidCalls)
	})

	t.Run("Successful payment marks the order paid", func(t *testing.T) {
		router, fulfillment, verifier := setup(t)
		verifier.event = &model.WebhookEvent{
			ID:     "evt_1",
			Type:   "payment_intent.succeeded",
			Intent: &model.PaymentIntent{ID: "pi_1"},
		}

		rec := doJSON(t, router, http.MethodPost, "/stripe-webhook", map[string]string{}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, fulfillment.paidCalls)
		assert.Equal(t, "pi_1", fulfillment.lastPaidID)
		assert.Contains(t, rec.Body.String(), `"received":true`)
	})

	t.Run("Processing failure returns 500 for redelivery", func(t *testing.T) {
		router, fulfillment, verifier := setup(t)
		verifier.event = &model.WebhookEvent{
			ID:     "evt_1",
			Type:   "payment_intent.succeeded",
			Intent: &model.PaymentIntent{ID: "pi_1"},
		}
		fulfillment.err = errors.New("gateway unavailable")

		rec := doJSON(t, router, http.MethodPost, "/stripe-webhook", map[string]string{}, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Failed payment is acknowledged without a write", func(t *testing.T) {
		router, fulfillment, verifier := setup(t)
		verifier.event = &model.WebhookEvent{
			ID:     "evt_1",
			Type:   "payment_intent.payment_failed",
			Intent: &model.PaymentIntent{ID: "pi_1"},
		}

		rec := doJSON(t, router, http.MethodPost, "/stripe-webhook", map[string]string{}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, fulfillment.paidCalls)
	})

	t.Run("Unknown event type is acknowledged", func(t *testing.T) {
		router, fulfillment, verifier := setup(t)
		verifier.event = &model.WebhookEvent{ID: "evt_1", Type: "charge.refunded"}

		rec := doJSON(t, router, http.MethodPost, "/stripe-webhook", map[string]string{}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, fulfillment.paidCalls)
		assert.Contains(t, rec.Body.String(), `"received":true`)
	})
}

func TestCreatePaymentIntentHandler(t *testing.T) {
	t.Run("Returns the client secret and totals", func(t *testing.T) {
		router, _, _ := setup(t)

		rec := doJSON(t, router, http.MethodPost, "/api/create-payment-intent", map[string]any{
			"items": []map[string]any{
				{"id": "p1", "name": "Aurora Print", "quantity": 2, "price": 25},
			},
			"customerInfo": map[string]string{"email": "ada@example.com"},
			"shippingInfo": map[string]any{
				"name":    "Ada",
				"address": map[string]string{"line1": "1 Analytical Way", "city": "London"},
			},
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			ClientSecret string `json:"client_secret"`
			OrderTotal   struct {
				Subtotal int64 `json:"subtotal"`
				Total    int64 `json:"total"`
			} `json:"order_total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "cs_test", resp.ClientSecret)
		assert.Equal(t, int64(5000), resp.OrderTotal.Subtotal)
		assert.Equal(t, int64(6400), resp.OrderTotal.Total)
	})

	t.Run("Empty cart is a validation error", func(t *testing.T) {
		router, _, _ := setup(t)

		rec := doJSON(t, router, http.MethodPost, "/api/create-payment-intent", map[string]any{
			"items":        []map[string]any{},
			"customerInfo": map[string]string{"email": "ada@example.com"},
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "validation_error")
	})
}

func TestCatalogHandlers(t *testing.T) {
	productID := uuid.New()
	catalog := &mockCatalog{products: map[uuid.UUID]*catalogmodel.Product{
		productID: {
			ID:            productID,
			Name:          "Aurora Print",
			Description:   "Fine art print",
			PriceCents:    4500,
			StockQuantity: 3,
		},
	}}
	router := Router(Deps{Catalog: catalog, AdminAPIKey: testAdminKey})

	t.Run("List returns available products", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/products", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp []struct {
			ID      string  `json:"id"`
			Price   float64 `json:"price"`
			InStock bool    `json:"inStock"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, productID.String(), resp[0].ID)
		assert.Equal(t, 45.0, resp[0].Price)
		assert.True(t, resp[0].InStock)
	})

	t.Run("Get by id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/products/"+productID.String(), nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Aurora Print")
	})

	t.Run("Unknown id is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/products/"+uuid.NewString(), nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Malformed id is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/products/not-a-uuid", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type mockFulfillment struct {
	page         *model.OrderPage
	result       *model.UpdateResult
	err          error
	listCalls    int
	shipCalls    int
	paidCalls    int
	lastQuery    orderservice.ListOrdersQuery
	lastTracking model.TrackingInfo
	lastReason   string
	lastPaidID   string
}

func (m *mockFulfillment) GetOrder(_ context.Context, id string) (*model.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.Order{ID: id}, nil
}

func (m *mockFulfillment) ListOrders(_ context.Context, query orderservice.ListOrdersQuery) (*model.OrderPage, error) {
	m.listCalls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &model.OrderPage{Orders: []*model.Order{}}, nil
	}
	return m.page, nil
}

func (m *mockFulfillment) SetStatus(_ context.Context, _ string, _ model.FulfillmentStatus, _ *model.TrackingInfo) error {
	return m.err
}

func (m *mockFulfillment) MarkPaid(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.paidCalls++
	m.lastPaidID = id
	return nil
}

func (m *mockFulfillment) MarkShipped(_ context.Context, _ string, tracking model.TrackingInfo) (*model.UpdateResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.shipCalls++
	m.lastTracking = tracking
	return m.result, nil
}

func (m *mockFulfillment) MarkProcessing(_ context.Context, id string) (*model.UpdateResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.UpdateResult{OrderID: id, Status: model.StatusProcessing}, nil
}

func (m *mockFulfillment) MarkDelivered(_ context.Context, id string) (*model.UpdateResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.UpdateResult{OrderID: id, Status: model.StatusDelivered}, nil
}

func (m *mockFulfillment) MarkCancelled(_ context.Context, id string, reason string) (*model.UpdateResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastReason = reason
	return m.result, nil
}

type mockCheckout struct{}

func (m *mockCheckout) CreateOrder(_ context.Context, req checkoutservice.CheckoutRequest) (*checkoutservice.CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, checkoutservice.ErrNoItems
	}
	if req.Customer.Email == "" {
		return nil, checkoutservice.ErrMissingCustomer
	}
	return &checkoutservice.CheckoutResult{
		PaymentIntentID: "pi_new",
		ClientSecret:    "cs_test",
		Totals:          checkoutservice.CalculateTotals(req.Items),
	}, nil
}

type mockCatalog struct {
	products map[uuid.UUID]*catalogmodel.Product
}

func (m *mockCatalog) CreateProduct(_, _, _ string, _ int64, _ int) (*catalogmodel.Product, error) {
	return nil, nil
}
func (m *mockCatalog) ChangeProductPrice(_ uuid.UUID, _ int64) error { return nil }
func (m *mockCatalog) ReceiveStock(_ uuid.UUID, _ int) error         { return nil }
func (m *mockCatalog) ArchiveProduct(_ uuid.UUID) error              { return nil }

func (m *mockCatalog) GetProduct(id uuid.UUID) (*catalogmodel.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, catalogmodel.ErrProductNotFound
}

func (m *mockCatalog) ListProducts() ([]*catalogmodel.Product, error) {
	var all []*catalogmodel.Product
	for _, p := range m.products {
		all = append(all, p)
	}
	return all, nil
}

type mockVerifier struct {
	event *model.WebhookEvent
	err   error
}

func (m *mockVerifier) VerifyEvent(_ []byte, _ string) (*model.WebhookEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}
