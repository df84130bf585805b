package api_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/blogapi"
	"github.com/robalobadob/goblog/internal/session"
	"github.com/robalobadob/goblog/internal/view"
)

// startAPI runs the stand-in API on a fresh database with 10 posts per page.
func startAPI(t *testing.T) string {
	t.Helper()
	db, err := blogapi.OpenDB(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewUnstartedServer(nil)
	base := "http://" + ts.Listener.Addr().String() + "/api"
	srv := blogapi.New(blogapi.NewStore(db), blogapi.NewMemoryImages(), blogapi.Options{
		Secret:     "integration",
		PageSize:   10,
		PublicURL:  base,
		BcryptCost: bcrypt.MinCost,
	})
	ts.Config.Handler = srv.Router()
	ts.Start()
	t.Cleanup(ts.Close)
	return base
}

// signedIn registers and logs in a fresh account on its own client.
func signedIn(t *testing.T, base, email string) *api.Client {
	t.Helper()
	c, err := api.New(base)
	require.NoError(t, err)
	ctx := context.Background()

	acct, err := c.Register(ctx, api.Profile{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, email, acct.Email)

	res, err := c.Login(ctx, api.Credentials{Email: email, Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.Account)
	assert.Equal(t, acct.ID, res.Account.ID)
	return c
}

func TestIntegration_CreateThenGet(t *testing.T) {
	base := startAPI(t)
	c := signedIn(t, base, "ada@x.io")
	ctx := context.Background()

	created, err := c.CreatePost(ctx, api.PostInput{Title: "T", Description: "D", ImageURL: ""})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := c.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "D", got.Description)
	assert.Equal(t, "Ada Lovelace", got.Owner.DisplayName())
	assert.Equal(t, got.Owner.ID, got.OwnerID)

	_, err = c.GetPost(ctx, "9999")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestIntegration_Pagination(t *testing.T) {
	base := startAPI(t)
	c := signedIn(t, base, "ada@x.io")
	ctx := context.Background()
	for i := 1; i <= 30; i++ {
		_, err := c.CreatePost(ctx, api.PostInput{Title: fmt.Sprintf("post %d", i), Description: "d"})
		require.NoError(t, err)
	}

	page, err := c.ListPosts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 10)
	for i, p := range page.Items {
		assert.Equal(t, fmt.Sprintf("post %d", 11+i), p.Title)
	}
}

func TestIntegration_NonOwnerUpdateIsForbidden(t *testing.T) {
	base := startAPI(t)
	owner := signedIn(t, base, "owner@x.io")
	other := signedIn(t, base, "other@x.io")
	ctx := context.Background()

	p, err := owner.CreatePost(ctx, api.PostInput{Title: "mine", Description: "d"})
	require.NoError(t, err)

	_, err = other.UpdatePost(ctx, p.ID, api.PostInput{Title: "stolen", Description: "d"})
	require.ErrorIs(t, err, api.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, api.Status(err))

	to, ok := view.Route(err, p.ID)
	assert.True(t, ok)
	assert.Equal(t, view.PathPost(p.ID), to)

	err = other.DeletePost(ctx, p.ID)
	assert.ErrorIs(t, err, api.ErrForbidden)

	got, err := owner.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestIntegration_OwnPostsAndDelete(t *testing.T) {
	base := startAPI(t)
	c := signedIn(t, base, "ada@x.io")
	ctx := context.Background()

	a, err := c.CreatePost(ctx, api.PostInput{Title: "a", Description: "d"})
	require.NoError(t, err)
	_, err = c.CreatePost(ctx, api.PostInput{Title: "b", Description: "d"})
	require.NoError(t, err)

	own, err := c.ListOwnPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	require.NoError(t, c.DeletePost(ctx, a.ID))
	own, err = c.ListOwnPosts(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "b", own[0].Title)
}

func TestIntegration_UnauthenticatedList(t *testing.T) {
	base := startAPI(t)
	c, err := api.New(base)
	require.NoError(t, err)

	_, err = c.ListPosts(context.Background(), 1)
	require.ErrorIs(t, err, api.ErrAuth)
	to, ok := view.Route(err, "")
	assert.True(t, ok)
	assert.Equal(t, view.PathLogin, to)

	// Logout without a session is harmless.
	assert.NoError(t, c.Logout(context.Background()))
}

func TestIntegration_LogoutEndsSession(t *testing.T) {
	base := startAPI(t)
	c := signedIn(t, base, "ada@x.io")
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	_, err := c.ListOwnPosts(ctx)
	assert.ErrorIs(t, err, api.ErrAuth)
}

func TestIntegration_BadLogin(t *testing.T) {
	base := startAPI(t)
	c, err := api.New(base)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), api.Credentials{Email: "nobody@x.io", Password: "password123"})
	assert.ErrorIs(t, err, api.ErrAuth)
	assert.Equal(t, "Invalid email or password", api.Message(err))

	_, err = c.Register(context.Background(), api.Profile{Email: "bad", Password: "password123"})
	assert.ErrorIs(t, err, api.ErrValidation)
}

func TestIntegration_UploadThenCreate(t *testing.T) {
	base := startAPI(t)
	c := signedIn(t, base, "ada@x.io")
	ctx := context.Background()

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 1<<20-8)...)
	p, err := c.CreatePostWithImage(ctx, api.PostInput{Title: "pic", Description: "d"},
		&api.Image{Name: "one.png", ContentType: "image/png", Data: png})
	require.NoError(t, err)
	require.NotEmpty(t, p.ImageURL)

	res, err := http.Get(p.ImageURL)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, len(png), res.ContentLength)

	// Update without a new image keeps the stored one.
	updated, err := c.UpdatePostWithImage(ctx, p.ID, api.PostInput{Title: "pic 2", Description: "d"}, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ImageURL, updated.ImageURL)
}

func TestIntegration_OversizeUploadNeverReachesServer(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := api.New(ts.URL + "/api")
	require.NoError(t, err)
	_, err = c.UploadImage(context.Background(), api.Image{Name: "huge.jpg", ContentType: "image/jpeg", Data: make([]byte, 6<<20)})
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Zero(t, calls)
}

func TestIntegration_SessionCookieStaysOnAPIHost(t *testing.T) {
	var leaked string
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(api.SessionCookie); err == nil {
			leaked = c.Value
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer foreign.Close()
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, foreign.URL+"/steal", http.StatusFound)
	}))
	defer apiSrv.Close()

	gw, err := api.New(apiSrv.URL + "/api")
	require.NoError(t, err)
	browserReq := httptest.NewRequest(http.MethodGet, "/", nil)
	browserReq.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: "browser-session-token"})
	store := session.NewRequestStore(httptest.NewRecorder(), browserReq, api.SessionCookie, false)

	_, err = gw.WithCookieJar(store).ListOwnPosts(context.Background())
	assert.ErrorIs(t, err, api.ErrServer)
	assert.Empty(t, leaked)
}
