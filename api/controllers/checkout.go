package controllers

import (
	"net/http"

	"github.com/lmdelacruz/evride-storefront/api/responses"
	"github.com/lmdelacruz/evride-storefront/api/validators"
	authsvc "github.com/lmdelacruz/evride-storefront/internal/auth"
	checkoutsvc "github.com/lmdelacruz/evride-storefront/internal/checkout"
	"github.com/lmdelacruz/evride-storefront/pkg/enums"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

// CheckoutState reports which stage the caller's checkout sits in, so the
// client knows whether to render the login form, the registration form, or
// the shipping form.
func CheckoutState(svc *checkoutsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := svc.Begin(r.Context())
		responses.WriteSuccess(w, map[string]any{"stage": flow.Stage()})
	}
}

type checkoutLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type checkoutSessionResponse struct {
	Stage   enums.CheckoutStage `json:"stage"`
	Session session.Session     `json:"session"`
	Cart    any                 `json:"cart,omitempty"`
}

func CheckoutLogin(svc *checkoutsvc.Service, store *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow := svc.Begin(r.Context())
		record, items, err := flow.Login(r.Context(), authsvc.Credentials{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			recordLoginFailure(r, store, payload.Email, logg)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		persistSession(r, store, record, logg)
		logSignedIn(r, record, logg)

		responses.WriteSuccess(w, checkoutSessionResponse{
			Stage:   flow.Stage(),
			Session: record,
			Cart:    items,
		})
	}
}

type checkoutRegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,ph_mobile"`
}

func CheckoutRegister(svc *checkoutsvc.Service, store *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flow := svc.Begin(r.Context())
		if err := flow.SwitchTo(enums.CheckoutStageRegister); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, items, err := flow.Register(r.Context(), authsvc.Registration{
			Name:     validators.SanitizeString(payload.Name, 200),
			Email:    payload.Email,
			Password: payload.Password,
			Phone:    payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		persistSession(r, store, record, logg)
		logSignedIn(r, record, logg)

		responses.WriteSuccess(w, checkoutSessionResponse{
			Stage:   flow.Stage(),
			Session: record,
			Cart:    items,
		})
	}
}

func CheckoutSubmit(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := svc.Begin(r.Context())
		if flow.Stage() != enums.CheckoutStageAuthenticated {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order"))
			return
		}

		var payload checkoutsvc.Submission
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := flow.Submit(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// persistSession mirrors the fresh session into Redis when a store is
// wired. Failures are logged and swallowed; the token in the response is
// the source of truth either way.
func persistSession(r *http.Request, store *session.Store, record session.Session, logg *logger.Logger) {
	if store == nil || record.Token == "" {
		return
	}
	if err := store.Save(r.Context(), record.Token, record); err != nil && logg != nil {
		ctx := logg.WithField(r.Context(), "error", err.Error())
		logg.Warn(ctx, "session.persist_failed")
	}
}

// recordLoginFailure tracks repeated bad sign-ins per email when Redis is
// wired. Counting never blocks the response; the backend decides lockout.
func recordLoginFailure(r *http.Request, store *session.Store, email string, logg *logger.Logger) {
	if store == nil || email == "" {
		return
	}
	count, err := store.RecordLoginFailure(r.Context(), email)
	if err != nil || logg == nil {
		return
	}
	ctx := logg.WithField(r.Context(), "failure_count", count)
	logg.Warn(ctx, "checkout.login_failed")
}

func logSignedIn(r *http.Request, record session.Session, logg *logger.Logger) {
	if logg == nil {
		return
	}
	id := record.UserID
	if id == "" {
		id = record.Email
	}
	logg.Info(logg.WithUserID(r.Context(), id), "checkout.signed_in")
}
