package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	"github.com/lmdelacruz/evride-storefront/pkg/eventbus"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

func newTestClient(t *testing.T, backendURL, token string) (Client, *eventbus.Bus) {
	t.Helper()
	api, err := commerce.NewClient(config.UpstreamConfig{BaseURL: backendURL}, session.Static(token), nil, nil)
	if err != nil {
		t.Fatalf("building commerce client: %v", err)
	}
	bus := eventbus.New(4)
	svc, err := NewClient(api, bus, nil)
	if err != nil {
		t.Fatalf("building cart client: %v", err)
	}
	return svc, bus
}

func expectSignal(t *testing.T, sub *eventbus.Subscription, topic eventbus.Topic) {
	t.Helper()
	select {
	case evt := <-sub.Events():
		if evt.Topic != topic {
			t.Fatalf("unexpected topic %q, want %q", evt.Topic, topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("no %q signal received", topic)
	}
}

func expectNoSignal(t *testing.T, sub *eventbus.Subscription) {
	t.Helper()
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected signal %q", evt.Topic)
	default:
	}
}

func TestListGuestReturnsEmptyWithoutCallingBackend(t *testing.T) {
	t.Parallel()

	contacted := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contacted = true
	}))
	defer backend.Close()

	svc, _ := newTestClient(t, backend.URL, "")
	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("guest list must not fail: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("guest list should be empty, got %d items", len(items))
	}
	if contacted {
		t.Fatal("guest list must not contact the backend")
	}
}

func TestListNormalizesItems(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": 12, "product_id": "p-1", "quantity": "2", "price": "1500.50"},
			},
		})
	}))
	defer backend.Close()

	svc, _ := newTestClient(t, backend.URL, "tok")
	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "12" {
		t.Fatalf("numeric id should coerce to string, got %q", item.ID)
	}
	if item.Quantity != 2 || item.Price != 1500.50 {
		t.Fatalf("stringy numbers not coerced: %+v", item)
	}
	if item.Total != 3001 {
		t.Fatalf("total should backfill to price*quantity, got %v", item.Total)
	}
	if item.Name != DefaultProductName || item.Model != DefaultModel || item.Category != DefaultCategory {
		t.Fatalf("display defaults not backfilled: %+v", item)
	}
	if item.Image != PlaceholderImage {
		t.Fatalf("placeholder image not backfilled, got %q", item.Image)
	}
}

func TestMutationsRequireToken(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be contacted")
	}))
	defer backend.Close()

	svc, bus := newTestClient(t, backend.URL, "")
	sub := bus.Subscribe(eventbus.TopicCartUpdated)
	defer sub.Unsubscribe()

	ops := map[string]func() error{
		"add":    func() error { return svc.Add(context.Background(), "p-1", 1, "") },
		"update": func() error { return svc.UpdateQuantity(context.Background(), "i-1", 2) },
		"remove": func() error { return svc.Remove(context.Background(), "i-1") },
		"clear":  func() error { return svc.Clear(context.Background()) },
	}
	for name, op := range ops {
		err := op()
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
	}
	expectNoSignal(t, sub)
}

func TestAddPublishesCartUpdatedAfterSuccess(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["product_id"] != "p-1" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer backend.Close()

	svc, bus := newTestClient(t, backend.URL, "tok")
	sub := bus.Subscribe(eventbus.TopicCartUpdated)
	defer sub.Unsubscribe()

	if err := svc.Add(context.Background(), "p-1", 0, "red"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectSignal(t, sub, eventbus.TopicCartUpdated)
}

func TestAddBackendRejectionSurfacesMessageWithoutSignal(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"out of stock"}`))
	}))
	defer backend.Close()

	svc, bus := newTestClient(t, backend.URL, "tok")
	sub := bus.Subscribe(eventbus.TopicCartUpdated)
	defer sub.Unsubscribe()

	err := svc.Add(context.Background(), "p-1", 1, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "out of stock" {
		t.Fatalf("expected backend message surfaced, got %v", err)
	}
	expectNoSignal(t, sub)
}

func TestClearPublishesBothSignals(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/cart/clear" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"deleted_items":3}`))
	}))
	defer backend.Close()

	svc, bus := newTestClient(t, backend.URL, "tok")
	updated := bus.Subscribe(eventbus.TopicCartUpdated)
	cleared := bus.Subscribe(eventbus.TopicCartCleared)
	defer updated.Unsubscribe()
	defer cleared.Unsubscribe()

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectSignal(t, updated, eventbus.TopicCartUpdated)
	expectSignal(t, cleared, eventbus.TopicCartCleared)
}

func TestMutationToleratesUnreadableAck(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>proxy error page</html>`))
	}))
	defer backend.Close()

	svc, _ := newTestClient(t, backend.URL, "tok")
	if err := svc.UpdateQuantity(context.Background(), "i-1", 3); err != nil {
		t.Fatalf("unreadable 2xx ack should count as success, got %v", err)
	}
}
