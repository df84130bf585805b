// internal/api/auth.go
//
// Account operations: register, login, logout. Login and logout change the
// session only through cookies the server sets on the jar.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// SessionCookie is the cookie the API stores the JWT in.
const SessionCookie = "jwt"

// Register creates an account.
func (c *Client) Register(ctx context.Context, p Profile) (*Account, error) {
	const op = "register"
	body, _, err := c.doJSON(ctx, op, http.MethodPost, "/register", p)
	if err != nil {
		return nil, err
	}
	return decodeAccount(op, body)
}

// Login authenticates; on success the server sets the session cookie.
// Some API builds answer an unknown email with 404; that is still a
// credentials failure and comes back as ErrAuth.
func (c *Client) Login(ctx context.Context, cr Credentials) (*LoginResult, error) {
	const op = "login"
	body, res, err := c.doJSON(ctx, op, http.MethodPost, "/login", cr)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind == ErrNotFound {
			e.Kind = ErrAuth
		}
		return nil, err
	}
	_, env, err := unwrap(op, body)
	if err != nil {
		return nil, err
	}
	out := &LoginResult{Message: env.Message, Account: env.User.toAccount()}
	for _, ck := range res.Cookies() {
		if ck.Name == SessionCookie {
			out.Token = ck.Value
		}
	}
	return out, nil
}

// Logout asks the server to clear the session cookie. It is safe to call
// without a session.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.doJSON(ctx, "logout", http.MethodPost, "/logout", nil)
	return err
}

// decodeAccount accepts {user: {...}}, {data: {...}} and a bare account.
func decodeAccount(op string, body []byte) (*Account, error) {
	payload, env, err := unwrap(op, body)
	if err != nil {
		return nil, err
	}
	if env.User != nil {
		return env.User.toAccount(), nil
	}
	if payload == nil {
		return &Account{}, nil
	}
	var w wireAccount
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, unparseable(op, err)
	}
	return w.toAccount(), nil
}
