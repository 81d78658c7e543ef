package controllers

import (
	"net/http"

	"github.com/lmdelacruz/evride-storefront/api/middleware"
	"github.com/lmdelacruz/evride-storefront/api/responses"
	"github.com/lmdelacruz/evride-storefront/internal/orders"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
)

// OrdersProxy relays order requests to the commerce backend without
// reshaping them. Reading order history requires credentials and is
// rejected here, before any backend traffic; writes pass through and let
// the backend decide. Upstream answers are relayed verbatim, status
// included.
func OrdersProxy(proxy *orders.Proxy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && middleware.BearerToken(r) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
			return
		}

		status, body, err := proxy.Forward(r.Context(), r.Method, r.Body, r.Header)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, status, body)
	}
}
