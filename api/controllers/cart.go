package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmdelacruz/evride-storefront/api/responses"
	"github.com/lmdelacruz/evride-storefront/api/validators"
	cartsvc "github.com/lmdelacruz/evride-storefront/internal/cart"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
)

type cartResponse struct {
	Items   []cartsvc.Item  `json:"items"`
	Summary cartsvc.Summary `json:"summary"`
}

// CartList returns the caller's cart with its computed summary. Guests get
// an empty cart, never an error.
func CartList(svc cartsvc.Client, pricing config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse{
			Items:   items,
			Summary: cartsvc.Summarize(items, pricing),
		})
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
}

func CartAdd(svc cartsvc.Client, pricing config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Add(r.Context(), payload.ProductID, payload.Quantity, validators.SanitizeString(payload.Color, 64)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, pricing, logg)
	}
}

// Quantity is deliberately unvalidated here: out-of-range values get
// clamped to the floor of one further down, matching how the add flow
// treats them.
type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func CartUpdate(svc cartsvc.Client, pricing config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateQuantity(r.Context(), itemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, pricing, logg)
	}
}

func CartRemove(svc cartsvc.Client, pricing config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required"))
			return
		}

		if err := svc.Remove(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeCart(w, r, svc, pricing, logg)
	}
}

func CartClear(svc cartsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "cart cleared")
	}
}

// writeCart re-reads the cart after a mutation so the client always renders
// fresh totals. A failed re-read still acknowledges the mutation.
func writeCart(w http.ResponseWriter, r *http.Request, svc cartsvc.Client, pricing config.PricingConfig, logg *logger.Logger) {
	items, err := svc.List(r.Context())
	if err != nil {
		if logg != nil {
			logg.Warn(r.Context(), "cart.reload_failed")
		}
		responses.WriteMessage(w, "cart updated")
		return
	}
	responses.WriteSuccess(w, cartResponse{
		Items:   items,
		Summary: cartsvc.Summarize(items, pricing),
	})
}
