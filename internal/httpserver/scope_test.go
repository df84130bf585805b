package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/goblog/internal/api"
)

func pageWithToken(t *testing.T, exp time.Time) page {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()}).
		SignedString([]byte("any"))
	require.NoError(t, err)

	gw, err := api.New("http://api.test/api")
	require.NoError(t, err)
	s := &Server{gw: gw, opts: Options{CookieName: api.SessionCookie}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: tok})
	return s.scopeFor(httptest.NewRecorder(), req).page("Post", nil)
}

func TestPage_OwnerControlsFollowSessionExpiry(t *testing.T) {
	owns := funcs["owns"].(func(any, string) bool)
	post := api.Post{ID: "5", OwnerID: "1"}

	live := pageWithToken(t, time.Now().Add(time.Hour))
	assert.True(t, live.Authenticated)
	assert.Equal(t, "1", live.UserID)
	assert.True(t, owns(post, live.UserID))

	stale := pageWithToken(t, time.Now().Add(-time.Minute))
	assert.False(t, stale.Authenticated)
	assert.Empty(t, stale.UserID)
	assert.False(t, owns(post, stale.UserID))
}
