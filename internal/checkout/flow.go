// Package checkout orchestrates the path from an anonymous cart to a
// placed order. A Flow is created per request, positioned by the caller's
// session, and walks login or registration before it allows submission.
package checkout

import (
	"context"
	"fmt"

	"github.com/lmdelacruz/evride-storefront/internal/auth"
	"github.com/lmdelacruz/evride-storefront/internal/cart"
	"github.com/lmdelacruz/evride-storefront/internal/orders"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	"github.com/lmdelacruz/evride-storefront/pkg/enums"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/eventbus"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/metrics"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

// Submission is everything the shopper provides at the final step.
type Submission struct {
	Shipping      Shipping            `json:"shipping"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// Result reports a placed order. CartCleared is advisory: a false value
// means the post-order clear gave up after retrying, not that the order
// failed.
type Result struct {
	Confirmation orders.Confirmation `json:"confirmation"`
	Summary      cart.Summary        `json:"summary"`
	CartCleared  bool                `json:"cart_cleared"`
}

// Service carries the collaborators a Flow needs. It is built once at
// startup; Flows are cheap per-request values.
type Service struct {
	cart      cart.Client
	auth      auth.Client
	orders    orders.Creator
	bus       eventbus.Publisher
	pricing   config.PricingConfig
	retry     cart.RetryPolicy
	jwtSecret string
	logg      *logger.Logger
	metrics   *metrics.UpstreamMetrics
}

func NewService(
	cartClient cart.Client,
	authClient auth.Client,
	orderCreator orders.Creator,
	bus eventbus.Publisher,
	pricing config.PricingConfig,
	sessionCfg config.SessionConfig,
	checkoutCfg config.CheckoutConfig,
	logg *logger.Logger,
	m *metrics.UpstreamMetrics,
) (*Service, error) {
	if cartClient == nil || authClient == nil || orderCreator == nil {
		return nil, fmt.Errorf("cart, auth, and orders clients are required")
	}
	return &Service{
		cart:    cartClient,
		auth:    authClient,
		orders:  orderCreator,
		bus:     bus,
		pricing: pricing,
		retry: cart.RetryPolicy{
			Attempts: checkoutCfg.ClearAttempts,
			Backoff:  checkoutCfg.ClearBackoff,
		},
		jwtSecret: sessionCfg.JWTSecret,
		logg:      logg,
		metrics:   m,
	}, nil
}

// Begin positions a new flow from the caller's session token: a live
// session skips straight to the authenticated stage, anything else starts
// at login.
func (s *Service) Begin(ctx context.Context) *Flow {
	stage := enums.CheckoutStageLogin
	if session.IsLive(session.FromContext(ctx), s.jwtSecret) {
		stage = enums.CheckoutStageAuthenticated
	}
	return &Flow{svc: s, stage: stage}
}

// Flow is one shopper's walk through checkout. Stage transitions are
// one-way into authenticated: login and register may toggle between each
// other, but only a successful credential exchange reaches the last stage.
type Flow struct {
	svc   *Service
	stage enums.CheckoutStage
}

func (f *Flow) Stage() enums.CheckoutStage {
	return f.stage
}

// SwitchTo toggles between the login and register forms. The
// authenticated stage is not reachable by switching.
func (f *Flow) SwitchTo(stage enums.CheckoutStage) error {
	if f.stage == enums.CheckoutStageAuthenticated {
		return pkgerrors.New(pkgerrors.CodeValidation, "already signed in")
	}
	switch stage {
	case enums.CheckoutStageLogin, enums.CheckoutStageRegister:
		f.stage = stage
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot switch to stage %q", stage))
	}
}

// Login exchanges credentials, advances to the authenticated stage, and
// refreshes the cart under the new token. A failed refresh is logged and
// swallowed: the shopper is signed in either way.
func (f *Flow) Login(ctx context.Context, creds auth.Credentials) (session.Session, []cart.Item, error) {
	record, err := f.svc.auth.Login(ctx, creds)
	if err != nil {
		return session.Session{}, nil, err
	}
	record, items := f.authenticated(ctx, record)
	return record, items, nil
}

// Register creates the account, then behaves exactly like Login.
func (f *Flow) Register(ctx context.Context, reg auth.Registration) (session.Session, []cart.Item, error) {
	record, err := f.svc.auth.Register(ctx, reg)
	if err != nil {
		return session.Session{}, nil, err
	}
	record, items := f.authenticated(ctx, record)
	return record, items, nil
}

func (f *Flow) authenticated(ctx context.Context, record session.Session) (session.Session, []cart.Item) {
	f.stage = enums.CheckoutStageAuthenticated

	authed := session.WithToken(ctx, record.Token)
	items, err := f.svc.cart.List(authed)
	if err != nil {
		if f.svc.logg != nil {
			lctx := f.svc.logg.WithCheckoutStage(ctx, string(f.stage))
			f.svc.logg.Warn(f.svc.logg.WithField(lctx, "error", err.Error()), "checkout.cart_refresh_failed")
		}
		items = nil
	}
	return record, items
}

// Submit validates the shipping details, assembles the order from the
// live cart, posts it, and clears the cart afterwards. Only an
// authenticated flow may submit.
func (f *Flow) Submit(ctx context.Context, sub Submission) (Result, error) {
	if f.stage != enums.CheckoutStageAuthenticated {
		return Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if err := validateShipping(sub.Shipping); err != nil {
		return Result{}, err
	}
	if !sub.PaymentMethod.IsValid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping details invalid").
			WithDetails(map[string]string{"payment_method": "unsupported payment method"})
	}

	items, err := f.svc.cart.List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	summary := cart.Summarize(items, f.svc.pricing)
	order := buildOrder(items, sub, summary)

	conf, err := f.svc.orders.Create(ctx, order)
	if err != nil {
		return Result{}, err
	}

	cleared := cart.ClearWithRetry(ctx, f.svc.cart, f.svc.retry, f.svc.logg, f.svc.metrics)
	if f.svc.bus != nil {
		f.svc.bus.Publish(ctx, eventbus.TopicOrderPlaced)
	}

	return Result{Confirmation: conf, Summary: summary, CartCleared: cleared}, nil
}

func buildOrder(items []cart.Item, sub Submission, summary cart.Summary) orders.Order {
	lines := make([]orders.Item, 0, len(items))
	for _, item := range items {
		lines = append(lines, orders.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Color:     item.Color,
		})
	}
	return orders.Order{
		Items: lines,
		Shipping: orders.Shipping{
			FullName:   sub.Shipping.FullName,
			Email:      sub.Shipping.Email,
			Phone:      sub.Shipping.Phone,
			Address:    sub.Shipping.Address,
			City:       sub.Shipping.City,
			Province:   sub.Shipping.Province,
			PostalCode: sub.Shipping.PostalCode,
			Notes:      sub.Shipping.Notes,
		},
		PaymentMethod: string(sub.PaymentMethod),
		Subtotal:      summary.Subtotal,
		ShippingFee:   summary.Shipping,
		Total:         summary.Total,
		IsGuest:       false,
	}
}
