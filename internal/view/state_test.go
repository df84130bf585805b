package view

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/goblog/internal/api"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, Loading, Start[int]().Status)

	ok := Resolve(3, nil)
	assert.True(t, ok.IsLoaded())
	assert.Equal(t, 3, ok.Data)

	apiErr := &api.Error{Op: "list posts", Status: http.StatusInternalServerError, Message: "db down", Kind: api.ErrServer}
	bad := Resolve(0, apiErr)
	assert.True(t, bad.IsError())
	assert.Equal(t, "db down", bad.Message)
	assert.ErrorIs(t, bad.Err, api.ErrServer)
}

func TestNavigation_FirstRedirectWins(t *testing.T) {
	var n Navigation
	assert.Nil(t, n.Pending())

	assert.True(t, n.Schedule(PathLogin, 1500*time.Millisecond))
	assert.False(t, n.Schedule(PathLogin, 1500*time.Millisecond))
	assert.False(t, n.Schedule(PathHome, 0))

	r := n.Pending()
	if assert.NotNil(t, r) {
		assert.Equal(t, PathLogin, r.To)
		assert.False(t, r.Immediate())
		assert.Equal(t, 1.5, r.Seconds())
	}

	n.Cancel()
	assert.Nil(t, n.Pending())
	assert.True(t, n.Schedule(PathHome, 0))
	assert.True(t, n.Pending().Immediate())
}

func TestRoute(t *testing.T) {
	auth := &api.Error{Status: 401, Kind: api.ErrAuth}
	forbidden := &api.Error{Status: 403, Kind: api.ErrForbidden}

	to, ok := Route(auth, "4")
	assert.True(t, ok)
	assert.Equal(t, "/login", to)

	to, ok = Route(forbidden, "4")
	assert.True(t, ok)
	assert.Equal(t, "/posts/4", to)

	to, ok = Route(forbidden, "")
	assert.True(t, ok)
	assert.Equal(t, "/my/posts", to)

	_, ok = Route(errors.New("boom"), "4")
	assert.False(t, ok)
}
