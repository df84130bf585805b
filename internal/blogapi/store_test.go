package blogapi

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_DuplicateAndLookupFailure(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	st := NewStore(db)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &User{Email: "ada@x.io", PasswordHash: "h"}))
	assert.ErrorIs(t, st.CreateUser(ctx, &User{Email: "ADA@x.io", PasswordHash: "h"}), errEmailTaken)

	// A broken database is reported, not mistaken for a free email.
	require.NoError(t, db.Close())
	err = st.CreateUser(ctx, &User{Email: "new@x.io", PasswordHash: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errEmailTaken)
	assert.Contains(t, err.Error(), "lookup email")
}
