package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")

	require.NoError(t, d.Put(ctx, "products/1/a.jpg", strings.NewReader("jpeg"), "image/jpeg"))
	ok, err := d.Exists(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := d.Get(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "http://localhost:8080/storage/products/1/a.jpg", d.URL("/products/1/a.jpg"))

	require.NoError(t, d.Delete(ctx, "products/1/a.jpg"))
	ok, err = d.Exists(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, d.Delete(ctx, "products/1/a.jpg"))
}

func TestLocalDiskMissing(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "")
	_, err := d.Get(context.Background(), "nope.json")
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestLocalDiskPutOverwrites(t *testing.T) {
	ctx := context.Background()
	d := storage.NewLocalDisk(t.TempDir(), "")
	require.NoError(t, d.Put(ctx, "cart.json", strings.NewReader("first"), "application/json"))
	require.NoError(t, d.Put(ctx, "cart.json", strings.NewReader("second"), "application/json"))

	data, err := d.Get(ctx, "cart.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalDiskRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	d := storage.NewLocalDisk(t.TempDir(), "")
	for _, key := range []string{"../outside.txt", "products/../../x", "", "/"} {
		err := d.Put(ctx, key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, storage.ErrBadKey, key)
	}
}

func TestManagerRegisterAndDefault(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "")
	storage.RegisterDisk("test", d)
	storage.SetDefault("test")
	t.Cleanup(func() { storage.SetDefault("local") })

	got, err := storage.Use("test")
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Same(t, d, storage.Default())

	_, err = storage.Use("missing")
	assert.Error(t, err)
}
