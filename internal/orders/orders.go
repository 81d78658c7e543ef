// Package orders talks to the commerce backend's order resource two ways:
// a typed Create used by the checkout flow, and a verbatim Proxy used by
// the pass-through endpoint.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
)

// Order is the document posted to the backend when checkout submits.
// Amounts are pre-computed by the caller so the backend records exactly
// what the shopper saw.
type Order struct {
	Items         []Item   `json:"items"`
	Shipping      Shipping `json:"shipping"`
	PaymentMethod string   `json:"payment_method"`
	Subtotal      float64  `json:"subtotal"`
	ShippingFee   float64  `json:"shipping_fee"`
	Total         float64  `json:"total"`
	IsGuest       bool     `json:"is_guest"`
}

type Item struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Color     string  `json:"color,omitempty"`
}

type Shipping struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Notes      string `json:"notes,omitempty"`
}

// Confirmation is what the backend hands back for a placed order.
type Confirmation struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
}

// Creator submits assembled orders.
type Creator interface {
	Create(ctx context.Context, order Order) (Confirmation, error)
}

type client struct {
	api *commerce.Client
}

func NewClient(api *commerce.Client) (Creator, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &client{api: api}, nil
}

func (c *client) Create(ctx context.Context, order Order) (Confirmation, error) {
	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPost,
		Path:        "/orders",
		JSON:        order,
		RequireAuth: true,
	})
	if err != nil {
		return Confirmation{}, err
	}

	// An unparseable 2xx body is still a placed order; only an explicit
	// success:false is a rejection.
	if !resp.Payload.Success && resp.Payload.Shape != commerce.ShapeUnknown {
		message := resp.Payload.Message
		if message == "" {
			message = "order could not be placed"
		}
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeUpstream, message)
	}

	var conf Confirmation
	if object := resp.Payload.Object(); len(object) > 0 {
		if err := json.Unmarshal(object, &rawConfirmation{&conf}); err != nil {
			return Confirmation{}, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "decode order confirmation")
		}
	}
	return conf, nil
}

// rawConfirmation absorbs numeric or string order ids.
type rawConfirmation struct {
	dest *Confirmation
}

func (r *rawConfirmation) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID          any    `json:"id"`
		OrderNumber string `json:"order_number"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.ID != nil {
		r.dest.ID = fmt.Sprint(probe.ID)
	}
	r.dest.OrderNumber = probe.OrderNumber
	return nil
}

// Proxy forwards order requests verbatim: upstream status and body are
// relayed unchanged, and transport failures collapse to a generic error so
// nothing internal leaks to the client.
type Proxy struct {
	api *commerce.Client
}

func NewProxy(api *commerce.Client) (*Proxy, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &Proxy{api: api}, nil
}

// Forward relays method, body, and auth header to the backend's orders
// route and returns the upstream status and body untouched. A transport
// failure is an internal fault of this gateway, not an upstream verdict,
// so it maps to a plain 500 rather than a relayed status.
func (p *Proxy) Forward(ctx context.Context, method string, body io.Reader, headers http.Header) (int, []byte, error) {
	status, raw, err := p.api.Forward(ctx, method, "/orders", body, headers)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "orders proxy forward")
	}
	return status, raw, nil
}
