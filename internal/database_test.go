package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/docs-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase_CreatesFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	db, err := OpenDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Schema is idempotent
	require.NoError(t, EnsureSchema(db))
}

func TestOpenDatabase_Memory(t *testing.T) {
	db, err := OpenDatabase(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, UpsertStateKV(ctx, db, "k", "v"))

	got, ok, err := QueryStateKV(ctx, db, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestQueryStateKV(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertState(t, db, "docs_chat.session_id", "abc123")
	ctx := context.Background()

	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "present", key: "docs_chat.session_id", want: "abc123", wantOK: true},
		{name: "absent", key: "missing", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := QueryStateKV(ctx, db, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpsertAndDeleteStateKV(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, UpsertStateKV(ctx, db, "k", "one"))
	require.NoError(t, UpsertStateKV(ctx, db, "k", "two"))
	assert.Equal(t, "two", testutil.ReadState(t, db, "k"))

	require.NoError(t, DeleteStateKV(ctx, db, "k"))
	assert.Equal(t, "", testutil.ReadState(t, db, "k"))

	// Deleting again is fine
	require.NoError(t, DeleteStateKV(ctx, db, "k"))
}

func TestQueryStateKV_ClosedDB(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	require.NoError(t, db.Close())

	_, _, err := QueryStateKV(context.Background(), db, "k")
	assert.Error(t, err)
}
