package session

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/goblog/internal/api"
)

// mapStore is a Store backed by a plain map.
type mapStore map[string]string

func (m mapStore) Cookies(*url.URL) []*http.Cookie { return nil }

func (m mapStore) SetCookies(*url.URL, []*http.Cookie) {}

func (m mapStore) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m mapStore) Expire(name string) { delete(m, name) }

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return tok
}

func resolverWith(token string) *Resolver {
	st := mapStore{}
	if token != "" {
		st["jwt"] = token
	}
	return NewResolver(st, "jwt")
}

func TestResolver_AbsentOrMalformedCookie(t *testing.T) {
	cases := map[string]string{
		"absent":          "",
		"garbage":         "not-a-token",
		"two segments":    "abc.def",
		"bad base64":      "###.###.###",
		"non-json claims": "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig",
		"string exp":      sign(t, jwt.MapClaims{"sub": "1", "exp": "tomorrow"}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			r := resolverWith(tok)
			assert.NotPanics(t, func() {
				assert.False(t, r.IsAuthenticated())
				assert.Nil(t, r.Current())
			})
			if name != "string exp" {
				_, ok := r.CurrentUserID()
				assert.False(t, ok)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("nope")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestResolver_ExpiredToken(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(-time.Minute).Unix()})
	r := resolverWith(tok)

	assert.False(t, r.IsAuthenticated())
	assert.Nil(t, r.Current())

	// Identity is still readable; only validity is time-bound.
	id, ok := r.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "7", id)
}

func TestResolver_ExpiryIsStrict(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := resolverWith(sign(t, jwt.MapClaims{"sub": "7", "exp": now.Unix()}))
	r.now = func() time.Time { return now }
	assert.False(t, r.IsAuthenticated())

	r.now = func() time.Time { return now.Add(-time.Second) }
	assert.True(t, r.IsAuthenticated())
}

func TestResolver_ValidToken(t *testing.T) {
	iat := time.Now().Add(-time.Hour).Truncate(time.Second)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	r := resolverWith(sign(t, jwt.MapClaims{"sub": "42", "iat": iat.Unix(), "exp": exp.Unix()}))

	assert.True(t, r.IsAuthenticated())
	s := r.Current()
	require.NotNil(t, s)
	assert.Equal(t, "42", s.UserID)
	assert.True(t, s.IssuedAt.Equal(iat))
	assert.True(t, s.ExpiresAt.Equal(exp))
}

func TestResolver_NoExpiryIsAuthenticated(t *testing.T) {
	r := resolverWith(sign(t, jwt.MapClaims{"sub": "1"}))
	assert.True(t, r.IsAuthenticated())
}

func TestResolver_IdentityClaimPriority(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"sub wins", jwt.MapClaims{"sub": "s", "userId": "u", "id": "i"}, "s"},
		{"userId before id", jwt.MapClaims{"userId": "u", "id": "i"}, "u"},
		{"id last", jwt.MapClaims{"id": "i"}, "i"},
		{"numeric id", jwt.MapClaims{"id": 12}, "12"},
		{"empty sub skipped", jwt.MapClaims{"sub": "", "userId": "u"}, "u"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := resolverWith(sign(t, tc.claims)).CurrentUserID()
			assert.True(t, ok)
			assert.Equal(t, tc.want, id)
		})
	}

	_, ok := resolverWith(sign(t, jwt.MapClaims{"username": "x"})).CurrentUserID()
	assert.False(t, ok)
}

func TestResolver_UnsignedTokenStillDecodes(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "9"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	id, ok := resolverWith(tok).CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "9", id)
}

func TestResolver_ClearSession(t *testing.T) {
	r := resolverWith(sign(t, jwt.MapClaims{"sub": "1"}))
	require.True(t, r.IsAuthenticated())

	r.ClearSession()
	assert.False(t, r.IsAuthenticated())
	_, ok := r.CurrentToken()
	assert.False(t, ok)

	// Clearing twice is fine.
	assert.NotPanics(t, r.ClearSession)
}

func TestIsOwner(t *testing.T) {
	post := &api.Post{ID: "1", OwnerID: "5"}

	assert.True(t, IsOwner(post, "5"))
	assert.False(t, IsOwner(post, "6"))
	assert.False(t, IsOwner(post, ""))
	assert.False(t, IsOwner(nil, "5"))
	assert.False(t, IsOwner(&api.Post{ID: "2"}, ""))
	assert.False(t, IsOwner(&api.Post{ID: "2"}, "5"))
}
