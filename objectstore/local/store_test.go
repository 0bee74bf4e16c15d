package local_test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catphotos"
	"catphotos/objectstore/local"
)

func newTestStore(t *testing.T) (*local.Store, *local.Signer) {
	t.Helper()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	signer := local.NewSigner("http://localhost:8380", []byte("secret"))
	return local.NewStore(root, signer), signer
}

func TestStore_PutAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	data := []byte("jpeg bytes")
	require.NoError(t, store.Put(ctx, "family-123/photo-1.jpg", data, "image/jpeg"))

	f, err := store.Get(ctx, "family-123/photo-1.jpg")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStore_Put_Overwrite(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", []byte("first"), "image/jpeg"))
	require.NoError(t, store.Put(ctx, "key", []byte("second"), "image/jpeg"))

	f, err := store.Get(ctx, "key")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "family-123/missing.jpg")
	assert.ErrorIs(t, err, catphotos.ErrNotFound)
}

func TestStore_Put_CancelledContext(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "key", []byte("data"), "image/jpeg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_PresignedURLsVerify(t *testing.T) {
	store, signer := newTestStore(t)
	ctx := context.Background()

	putURL, err := store.PresignPut(ctx, "family-123/photo-1.jpg", "image/jpeg", time.Minute)
	require.NoError(t, err)
	getURL, err := store.PresignGet(ctx, "family-123/photo-1.jpg", time.Minute)
	require.NoError(t, err)

	for method, signed := range map[string]string{
		http.MethodPut: putURL,
		http.MethodGet: getURL,
	} {
		u, parseErr := url.Parse(signed)
		require.NoError(t, parseErr)
		assert.NoError(t, signer.Verify(method, "family-123/photo-1.jpg",
			u.Query().Get("expires"), u.Query().Get("sig")))
	}
}
