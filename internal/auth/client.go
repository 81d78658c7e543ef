// Package auth exchanges credentials with the commerce backend. The
// gateway never stores passwords or mints tokens; it relays the exchange
// and hands the resulting session record to the session store.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type Client interface {
	Login(ctx context.Context, creds Credentials) (session.Session, error)
	Register(ctx context.Context, reg Registration) (session.Session, error)
}

type client struct {
	api *commerce.Client
}

func NewClient(api *commerce.Client) (Client, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &client{api: api}, nil
}

func (c *client) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	return c.exchange(ctx, "/auth/login", creds, "login failed")
}

func (c *client) Register(ctx context.Context, reg Registration) (session.Session, error) {
	return c.exchange(ctx, "/auth/register", reg, "registration failed")
}

func (c *client) exchange(ctx context.Context, path string, body any, fallback string) (session.Session, error) {
	resp, err := c.api.Do(ctx, commerce.Request{
		Method: http.MethodPost,
		Path:   path,
		JSON:   body,
	})
	if err != nil {
		return session.Session{}, err
	}

	payload := resp.Payload
	if !payload.Success {
		message := payload.Message
		if message == "" {
			message = fallback
		}
		return session.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	}

	record, err := decodeSession(payload.Object())
	if err != nil {
		return session.Session{}, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "decode auth response")
	}
	if record.Token == "" {
		return session.Session{}, pkgerrors.New(pkgerrors.CodeBadResponse, "auth response carried no token")
	}
	return record, nil
}

func decodeSession(raw json.RawMessage) (session.Session, error) {
	if len(raw) == 0 {
		return session.Session{}, fmt.Errorf("empty auth payload")
	}
	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID    any    `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return session.Session{}, err
	}
	record := session.Session{
		Token: payload.Token,
		Name:  payload.User.Name,
		Email: payload.User.Email,
	}
	if payload.User.ID != nil {
		record.UserID = fmt.Sprint(payload.User.ID)
	}
	return record, nil
}
