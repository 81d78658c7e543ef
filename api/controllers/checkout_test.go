package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmdelacruz/evride-storefront/internal/auth"
	"github.com/lmdelacruz/evride-storefront/internal/cart"
	"github.com/lmdelacruz/evride-storefront/internal/checkout"
	"github.com/lmdelacruz/evride-storefront/internal/orders"
	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	"github.com/lmdelacruz/evride-storefront/pkg/eventbus"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
	"github.com/lmdelacruz/evride-storefront/pkg/types"
)

func newCheckoutService(t *testing.T, backend http.Handler) *checkout.Service {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	api, err := commerce.NewClient(config.UpstreamConfig{BaseURL: server.URL}, session.ContextProvider{}, nil, nil)
	require.NoError(t, err)

	bus := eventbus.New(4)
	cartService, err := cart.NewClient(api, bus, nil)
	require.NoError(t, err)
	authService, err := auth.NewClient(api)
	require.NoError(t, err)
	orderCreator, err := orders.NewClient(api)
	require.NoError(t, err)

	svc, err := checkout.NewService(
		cartService, authService, orderCreator, bus,
		config.PricingConfig{TaxRate: 0.08, ShippingFee: 500, FreeShippingThreshold: 50000},
		config.SessionConfig{},
		config.CheckoutConfig{ClearAttempts: 2, ClearBackoff: time.Millisecond},
		nil, nil,
	)
	require.NoError(t, err)
	return svc
}

func TestCheckoutStateReportsStage(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler := CheckoutState(svc)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body types.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "login", body.Data.(map[string]any)["stage"])

	authedReq := httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	authedReq = authedReq.WithContext(session.WithToken(context.Background(), "tok"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedReq)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "authenticated", body.Data.(map[string]any)["stage"])
}

func TestCheckoutLoginRejectionSurfacesMessage(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid credentials"})
	}))
	handler := CheckoutLogin(svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/login", strings.NewReader(`{"email":"juan@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body types.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "invalid credentials", body.Message)
}

func TestCheckoutLoginValidatesBody(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be contacted")
	}))
	handler := CheckoutLogin(svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/login", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutSubmitValidationDetailsReachClient(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": 1, "product_id": "p-1", "quantity": 1, "price": 1000}},
		})
	}))
	handler := CheckoutSubmit(svc, nil)

	payload := `{
		"shipping": {
			"full_name": "Juan Dela Cruz",
			"email": "juan@example.com",
			"phone": "9123456789",
			"address": "123 Mabini St",
			"city": "Quezon City",
			"province": "Metro Manila",
			"postal_code": "1100"
		},
		"payment_method": "gcash"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(session.WithToken(req.Context(), "tok"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	details, ok := body.Data.(map[string]any)
	require.True(t, ok, "validation details missing: %v", body.Data)
	assert.Contains(t, details, "phone")
}

func TestCheckoutSubmitPlacesOrder(t *testing.T) {
	t.Parallel()

	var orderPosted bool
	svc := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cart" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    []map[string]any{{"id": 1, "product_id": "p-1", "quantity": 2, "price": 1000}},
			})
		case r.URL.Path == "/orders" && r.Method == http.MethodPost:
			orderPosted = true
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"id": 55, "order_number": "EV-55"},
			})
		case r.URL.Path == "/cart/clear":
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
		}
	}))
	handler := CheckoutSubmit(svc, nil)

	payload := `{
		"shipping": {
			"full_name": "Juan Dela Cruz",
			"email": "juan@example.com",
			"phone": "09123456789",
			"address": "123 Mabini St",
			"city": "Quezon City",
			"province": "Metro Manila",
			"postal_code": "1100"
		},
		"payment_method": "cod"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(session.WithToken(req.Context(), "tok"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	require.True(t, orderPosted, "order never reached the backend")

	var body types.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	result := body.Data.(map[string]any)
	confirmation := result["confirmation"].(map[string]any)
	assert.Equal(t, "EV-55", confirmation["order_number"])
	assert.Equal(t, true, result["cart_cleared"])
}
