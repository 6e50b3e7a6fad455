package credential

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	gets   int
	setErr error
	getErr error
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memStore) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func TestKeeper_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, v := range []string{"abc123", " padded-key\t", "ключ"} {
		store := newMemStore()
		k := NewKeeper(ctx, store, "", nil)
		assert.False(t, k.Has())

		require.NoError(t, k.Set(ctx, v))
		assert.True(t, k.Has())
		stored, ok := store.value(Key)
		assert.True(t, ok)
		got, ok := k.Resolve(ctx)
		assert.True(t, ok)
		assert.Equal(t, stored, got)

		require.NoError(t, k.Clear(ctx))
		assert.False(t, k.Has())
		_, ok = store.value(Key)
		assert.False(t, ok)
		_, ok = k.Resolve(ctx)
		assert.False(t, ok)
	}
}

func TestKeeper_EmptySetIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	k := NewKeeper(ctx, store, "", nil)

	require.NoError(t, k.Set(ctx, ""))
	require.NoError(t, k.Set(ctx, "   \n"))
	assert.False(t, k.Has())

	require.NoError(t, k.Set(ctx, "abc123"))
	require.NoError(t, k.Set(ctx, "  "))
	assert.True(t, k.Has())
	v, _ := k.Resolve(ctx)
	assert.Equal(t, "abc123", v)
}

func TestKeeper_LoadsFromStoreAtStart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.values[Key] = "persisted"

	k := NewKeeper(ctx, store, "from-env", nil)
	assert.True(t, k.Has())
	v, ok := k.Resolve(ctx)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestKeeper_SeedUsedOnlyForSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	k := NewKeeper(ctx, store, " from-env ", nil)
	v, ok := k.Resolve(ctx)
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)
	_, stored := store.value(Key)
	assert.False(t, stored)
}

func TestKeeper_ResolveReadsStoreWhenMirrorEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	k := NewKeeper(ctx, store, "", nil)
	assert.False(t, k.Has())

	// Значение появилось в хранилище уже после старта.
	require.NoError(t, store.Set(ctx, Key, "late"))
	v, ok := k.Resolve(ctx)
	assert.True(t, ok)
	assert.Equal(t, "late", v)
	assert.True(t, k.Has())
}

func TestKeeper_FailedSaveKeepsMirror(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	k := NewKeeper(ctx, store, "", nil)
	require.NoError(t, k.Set(ctx, "old"))

	store.setErr = errors.New("disk full")
	assert.Error(t, k.Set(ctx, "new"))

	v, _ := k.Resolve(ctx)
	assert.Equal(t, "old", v)
	stored, _ := store.value(Key)
	assert.Equal(t, "old", stored)
}

func TestKeeper_StoreReadErrorIsNotConfigured(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.getErr = errors.New("locked")

	k := NewKeeper(ctx, store, "", nil)
	_, ok := k.Resolve(ctx)
	assert.False(t, ok)
}

func TestKeeper_NilStore(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(ctx, nil, "", nil)
	require.NoError(t, k.Set(ctx, "abc"))
	assert.True(t, k.Has())
	require.NoError(t, k.Clear(ctx))
	assert.False(t, k.Has())
}
