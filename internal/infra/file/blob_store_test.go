package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "blobs.json")

	store, err := NewBlobStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "quizLeaderboard")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "quizLeaderboard", `[{"score":40}]`))
	require.NoError(t, store.Set(ctx, "dailyChallengeLastPlayed", "2024-05-10"))

	reopened, err := NewBlobStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "quizLeaderboard")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"score":40}]`, v)

	require.NoError(t, reopened.Delete(ctx, "quizLeaderboard"))
	_, ok, err = store.Get(ctx, "quizLeaderboard")
	require.NoError(t, err)
	require.False(t, ok)

	v, _, _ = store.Get(ctx, "dailyChallengeLastPlayed")
	require.Equal(t, "2024-05-10", v)
}

func TestBlobStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	store, err := NewBlobStore(path)
	require.NoError(t, err)
	_, _, err = store.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestBlobStoreRequiresPath(t *testing.T) {
	_, err := NewBlobStore("")
	require.Error(t, err)
}
