package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

func newTestCreator(t *testing.T, backendURL, token string) Creator {
	t.Helper()
	api, err := commerce.NewClient(config.UpstreamConfig{BaseURL: backendURL}, session.Static(token), nil, nil)
	if err != nil {
		t.Fatalf("building commerce client: %v", err)
	}
	svc, err := NewClient(api)
	if err != nil {
		t.Fatalf("building orders client: %v", err)
	}
	return svc
}

func TestCreatePostsOrderAndDecodesConfirmation(t *testing.T) {
	t.Parallel()

	var received Order
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding order body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": 991, "order_number": "EV-2026-0991"},
		})
	}))
	defer backend.Close()

	svc := newTestCreator(t, backend.URL, "tok")
	conf, err := svc.Create(context.Background(), Order{
		Items:         []Item{{ProductID: "p-1", Quantity: 2, Price: 45000}},
		PaymentMethod: "gcash",
		Subtotal:      90000,
		Total:         97200,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conf.ID != "991" || conf.OrderNumber != "EV-2026-0991" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if received.IsGuest {
		t.Fatal("checkout orders must not be flagged guest")
	}
	if len(received.Items) != 1 || received.Items[0].ProductID != "p-1" {
		t.Fatalf("order items not relayed: %+v", received.Items)
	}
}

func TestCreateGuestIsRejectedWithoutBackendCall(t *testing.T) {
	t.Parallel()

	contacted := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contacted = true
	}))
	defer backend.Close()

	svc := newTestCreator(t, backend.URL, "")
	_, err := svc.Create(context.Background(), Order{})
	if domain := pkgerrors.As(err); domain == nil || domain.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if contacted {
		t.Fatal("guest create must not contact the backend")
	}
}

func TestCreateSurfacesBackendRejection(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "item out of stock"})
	}))
	defer backend.Close()

	svc := newTestCreator(t, backend.URL, "tok")
	_, err := svc.Create(context.Background(), Order{})
	if err == nil || !strings.Contains(err.Error(), "item out of stock") {
		t.Fatalf("backend message not surfaced: %v", err)
	}
}

func TestCreateToleratesUnparseableAck(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OK")
	}))
	defer backend.Close()

	svc := newTestCreator(t, backend.URL, "tok")
	conf, err := svc.Create(context.Background(), Order{})
	if err != nil {
		t.Fatalf("2xx with garbage body should still place the order: %v", err)
	}
	if conf.ID != "" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
}

func TestProxyRelaysStatusAndBodyVerbatim(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer relay-tok" {
			t.Errorf("authorization header not forwarded, got %q", got)
		}
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"success":false,"message":"duplicate order"}`)
	}))
	defer backend.Close()

	api, err := commerce.NewClient(config.UpstreamConfig{BaseURL: backend.URL}, session.Static(""), nil, nil)
	if err != nil {
		t.Fatalf("building commerce client: %v", err)
	}
	proxy, err := NewProxy(api)
	if err != nil {
		t.Fatalf("building proxy: %v", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer relay-tok")
	status, body, err := proxy.Forward(context.Background(), http.MethodPost, bytes.NewReader([]byte(`{}`)), headers)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if status != http.StatusConflict {
		t.Fatalf("status not relayed, got %d", status)
	}
	if !bytes.Contains(body, []byte("duplicate order")) {
		t.Fatalf("body not relayed verbatim: %s", body)
	}
}

func TestProxyTransportFailureIsInternal(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	api, err := commerce.NewClient(config.UpstreamConfig{BaseURL: backend.URL}, session.Static(""), nil, nil)
	if err != nil {
		t.Fatalf("building commerce client: %v", err)
	}
	proxy, err := NewProxy(api)
	if err != nil {
		t.Fatalf("building proxy: %v", err)
	}

	_, _, err = proxy.Forward(context.Background(), http.MethodPost, bytes.NewReader([]byte(`{}`)), http.Header{})
	if err == nil {
		t.Fatal("expected transport failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("transport failure should map to an internal error, got %v", err)
	}
	if pkgerrors.MetadataFor(typed.Code()).HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("internal errors must answer 500")
	}
}
