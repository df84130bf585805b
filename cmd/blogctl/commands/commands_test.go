package commands

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/blogapi"
)

func startAPI(t *testing.T) string {
	t.Helper()
	db, err := blogapi.OpenDB(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewUnstartedServer(nil)
	base := "http://" + ts.Listener.Addr().String() + "/api"
	ts.Config.Handler = blogapi.New(blogapi.NewStore(db), blogapi.NewMemoryImages(), blogapi.Options{
		Secret:     "cli-test",
		PublicURL:  base,
		BcryptCost: bcrypt.MinCost,
	}).Router()
	ts.Start()
	t.Cleanup(ts.Close)
	return base
}

// cli runs blogctl against one API with one cookie jar file.
type cli struct {
	t    *testing.T
	base string
	jar  string
}

func newCLI(t *testing.T, base string) *cli {
	return &cli{t: t, base: base, jar: filepath.Join(t.TempDir(), "cookies.json")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", c.base, "--jar", c.jar}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) signup(email string) {
	c.t.Helper()
	c.must("register", "--email", email, "--password", "password123", "--first-name", "Ada", "--last-name", "Lovelace")
	c.must("login", "--email", email, "--password", "password123")
}

var createdRe = regexp.MustCompile(`Created post (\d+)`)

func TestCLI_SessionLifecycle(t *testing.T) {
	base := startAPI(t)
	c := newCLI(t, base)

	assert.Contains(t, c.must("whoami"), "not logged in")

	c.signup("ada@x.io")
	assert.Contains(t, c.must("whoami"), "user 1")

	raw, err := os.ReadFile(c.jar)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"`+api.SessionCookie+`"`)

	assert.Contains(t, c.must("logout"), "Logged out")
	assert.Contains(t, c.must("whoami"), "not logged in")

	_, err = c.run("posts", "create", "-t", "T", "-d", "D")
	assert.ErrorContains(t, err, "not logged in")
}

func TestCLI_PostsRoundTrip(t *testing.T) {
	base := startAPI(t)
	c := newCLI(t, base)
	c.signup("ada@x.io")

	m := createdRe.FindStringSubmatch(c.must("posts", "create", "-t", "Hello", "-d", "First post"))
	require.Len(t, m, 2)
	id := m[1]

	out := c.must("posts", "show", id)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "First post")
	assert.Contains(t, out, "by Ada Lovelace")
	assert.Contains(t, out, "yours")

	assert.Contains(t, c.must("posts", "list"), "page 1 of 1")
	assert.Contains(t, c.must("posts", "mine"), "Hello")

	c.must("posts", "edit", id, "-t", "Hello again", "-d", "Edited")
	assert.Contains(t, c.must("posts", "show", id), "Hello again")

	c.must("posts", "delete", id)
	_, err := c.run("posts", "show", id)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestCLI_OwnerOnlyEdits(t *testing.T) {
	base := startAPI(t)
	owner := newCLI(t, base)
	owner.signup("owner@x.io")
	id := createdRe.FindStringSubmatch(owner.must("posts", "create", "-t", "mine", "-d", "d"))[1]

	other := newCLI(t, base)
	other.signup("other@x.io")
	assert.NotContains(t, other.must("posts", "show", id), "yours")

	_, err := other.run("posts", "edit", id, "-t", "x", "-d", "y")
	assert.ErrorContains(t, err, "belongs to someone else")
	_, err = other.run("posts", "delete", id)
	assert.ErrorContains(t, err, "belongs to someone else")

	assert.Contains(t, owner.must("posts", "show", id), "mine")
}

func TestCLI_Upload(t *testing.T) {
	base := startAPI(t)
	c := newCLI(t, base)
	c.signup("ada@x.io")
	dir := t.TempDir()

	small := filepath.Join(dir, "small.png")
	require.NoError(t, os.WriteFile(small, bytes.Repeat([]byte{1}, 1<<20), 0o600))
	assert.Contains(t, c.must("upload", small), "/api/uploads/")

	big := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(big, make([]byte, 6<<20), 0o600))
	_, err := c.run("upload", big)
	assert.ErrorIs(t, err, api.ErrValidation)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err = c.run("posts", "create", "-t", "T", "-d", "D", "-i", txt)
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Contains(t, c.must("posts", "mine"), "no posts")
}

func TestLoadImage_Types(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pic.gif")
	require.NoError(t, os.WriteFile(p, []byte("GIF89a"), 0o600))

	img, err := loadImage(p)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", img.ContentType)
	assert.Equal(t, "pic.gif", img.Name)

	img, err = loadImage("")
	assert.NoError(t, err)
	assert.Nil(t, img)
}
