// internal/session/resolver.go
//
// Client-side session resolution from the cookie-carried JWT.
//
// The token is decoded WITHOUT signature verification. The result only
// drives UI decisions (which actions to offer, when to send the user to
// login); the API verifies the token on every call and remains the only
// authorization check.
//
// Nothing is cached: every method re-reads the raw cookie, so a session
// moves Unauthenticated -> Authenticated -> Expired/Invalid ->
// Unauthenticated purely as a function of the cookie and the clock.

package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/api"
)

// ErrDecode marks a token that could not be decoded.
var ErrDecode = errors.New("malformed session token")

// identityClaims are tried in order for the user id.
var identityClaims = []string{"sub", "userId", "id"}

// Claims are the decoded fields of a session token.
type Claims struct {
	Subject   string    // first non-empty of sub, userId, id
	IssuedAt  time.Time // zero when iat is absent
	ExpiresAt time.Time // zero when exp is absent
}

// Session is the identity derived from the current cookie.
type Session struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Decode parses token's claims without verifying its signature.
func Decode(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	// An unknown alg still leaves the claims decoded; only shape matters here.
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrDecode, err)
	}
	iat, err := mc.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: iat: %v", ErrDecode, err)
	}
	c := &Claims{Subject: subject(mc)}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// subject returns the first usable identity claim.
func subject(mc jwt.MapClaims) string {
	for _, k := range identityClaims {
		switch v := mc[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}

// Resolver answers session questions from a cookie store.
type Resolver struct {
	store Store
	name  string
	now   func() time.Time
}

// NewResolver reads the session token from cookie name in store.
func NewResolver(store Store, name string) *Resolver {
	if name == "" {
		name = api.SessionCookie
	}
	return &Resolver{store: store, name: name, now: time.Now}
}

// CurrentToken returns the raw token, if a non-empty cookie exists.
func (r *Resolver) CurrentToken() (string, bool) {
	if r == nil || r.store == nil {
		return "", false
	}
	v, ok := r.store.Get(r.name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// claims decodes the current token; ok is false when absent or malformed.
func (r *Resolver) claims() (*Claims, bool) {
	tok, ok := r.CurrentToken()
	if !ok {
		return nil, false
	}
	c, err := Decode(tok)
	if err != nil {
		log.Debug().Err(err).Msg("session token rejected")
		return nil, false
	}
	return c, true
}

// CurrentUserID returns the token subject. Expiry is not checked here.
func (r *Resolver) CurrentUserID() (string, bool) {
	c, ok := r.claims()
	if !ok || c.Subject == "" {
		return "", false
	}
	return c.Subject, true
}

// IsAuthenticated is true iff a token is present, decodes, and its exp (if
// any) is strictly in the future.
func (r *Resolver) IsAuthenticated() bool {
	c, ok := r.claims()
	return ok && r.live(c)
}

func (r *Resolver) live(c *Claims) bool {
	return c.ExpiresAt.IsZero() || c.ExpiresAt.After(r.now())
}

// Current returns the derived Session, or nil when the cookie is absent,
// malformed or expired.
func (r *Resolver) Current() *Session {
	c, ok := r.claims()
	if !ok || c.Subject == "" || !r.live(c) {
		return nil
	}
	return &Session{UserID: c.Subject, IssuedAt: c.IssuedAt, ExpiresAt: c.ExpiresAt}
}

// ClearSession expires the local cookie. It completes whether or not the
// server-side logout ran.
func (r *Resolver) ClearSession() {
	if r == nil || r.store == nil {
		return
	}
	r.store.Expire(r.name)
}

// IsOwner reports whether userID owns post. Absent ids never own anything.
func IsOwner(post *api.Post, userID string) bool {
	if post == nil || post.OwnerID == "" || userID == "" {
		return false
	}
	return post.OwnerID == userID
}
