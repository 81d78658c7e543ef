// Package cart talks to the commerce backend's cart resource on behalf of
// the storefront: list, add, update quantity, remove, and clear, plus the
// derived order summary. Mutations publish in-process signals so the header
// badge and mini-cart re-fetch without coupling to this package.
package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/eventbus"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
)

// Client exposes cart operations. All operations return errors uniformly;
// the storefront's old mix of thrown errors and swallowed booleans is
// deliberately reconciled here, with ClearWithRetry as the only
// boolean-returning surface.
type Client interface {
	List(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, productID string, quantity int, color string) error
	UpdateQuantity(ctx context.Context, itemID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
}

type client struct {
	api  *commerce.Client
	bus  eventbus.Publisher
	logg *logger.Logger
}

// NewClient builds a cart client over the shared commerce boundary.
func NewClient(api *commerce.Client, bus eventbus.Publisher, logg *logger.Logger) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	return &client{api: api, bus: bus, logg: logg}, nil
}

// List returns the cart lines for the current session. Guests get an empty
// cart, never an error.
func (c *client) List(ctx context.Context) ([]Item, error) {
	if c.api.Token(ctx) == "" {
		return []Item{}, nil
	}

	resp, err := c.api.Do(ctx, commerce.Request{Method: http.MethodGet, Path: "/cart"})
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Payload.Items()))
	for _, raw := range resp.Payload.Items() {
		item, err := decodeItem(raw)
		if err != nil {
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "cart_item", string(raw)), "cart.item_unreadable")
			}
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Add puts a product into the cart. Quantity is floored at one.
func (c *client) Add(ctx context.Context, productID string, quantity int, color string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	body := map[string]any{"product_id": productID, "quantity": quantity}
	if color != "" {
		body["color"] = color
	}

	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPost,
		Path:        "/cart",
		JSON:        body,
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	if err := c.checkAck(ctx, resp, "add to cart failed"); err != nil {
		return err
	}

	c.bus.Publish(ctx, eventbus.TopicCartUpdated)
	return nil
}

// UpdateQuantity sets a line's quantity. Quantity is floored at one;
// removal is a distinct operation.
func (c *client) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if itemID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodPut,
		Path:        "/cart/" + itemID,
		Route:       "/cart/{itemID}",
		JSON:        map[string]any{"quantity": quantity},
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	if err := c.checkAck(ctx, resp, "update quantity failed"); err != nil {
		return err
	}

	c.bus.Publish(ctx, eventbus.TopicCartUpdated)
	return nil
}

// Remove deletes one line from the cart.
func (c *client) Remove(ctx context.Context, itemID string) error {
	if itemID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}

	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodDelete,
		Path:        "/cart/" + itemID,
		Route:       "/cart/{itemID}",
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	if err := c.checkAck(ctx, resp, "remove from cart failed"); err != nil {
		return err
	}

	c.bus.Publish(ctx, eventbus.TopicCartUpdated)
	return nil
}

// Clear empties the cart. Publishes both cart.updated and cart.cleared so
// badge listeners and checkout listeners each get their signal.
func (c *client) Clear(ctx context.Context) error {
	resp, err := c.api.Do(ctx, commerce.Request{
		Method:      http.MethodDelete,
		Path:        "/cart/clear",
		RequireAuth: true,
	})
	if err != nil {
		return err
	}
	if err := c.checkAck(ctx, resp, "clear cart failed"); err != nil {
		return err
	}

	c.bus.Publish(ctx, eventbus.TopicCartUpdated)
	c.bus.Publish(ctx, eventbus.TopicCartCleared)
	return nil
}

// checkAck inspects a 2xx mutation response. An explicit `success:false`
// surfaces the backend's message; an unreadable body on an otherwise-OK
// response counts as success so a cosmetic backend glitch does not fail the
// user's action.
func (c *client) checkAck(ctx context.Context, resp *commerce.Response, fallback string) error {
	payload := resp.Payload
	if payload.Shape == commerce.ShapeUnknown {
		if c.logg != nil {
			c.logg.Warn(ctx, "cart.unreadable_ack_treated_as_success")
		}
		return nil
	}
	if !payload.Success {
		message := payload.Message
		if message == "" {
			message = fallback
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, message)
	}
	return nil
}
