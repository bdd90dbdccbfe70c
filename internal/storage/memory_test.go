package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Set(ctx, ScopeLocal, map[string]any{
		"notes":         []string{"a", "b"},
		"unsplashBgUrl": "https://example.com/bg.jpg",
	}))

	values, err := s.Get(ctx, ScopeLocal, "notes", "unsplashBgUrl", "missing")
	require.NoError(t, err)
	assert.Len(t, values, 2)
	assert.JSONEq(t, `["a","b"]`, string(values["notes"]))

	var url string
	found, err := Decode(values, "unsplashBgUrl", &url)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.com/bg.jpg", url)

	found, err = Decode(values, "missing", &url)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStorageScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Set(ctx, ScopeSync, map[string]any{"theme": "dark"}))

	local, err := s.Get(ctx, ScopeLocal, "theme")
	require.NoError(t, err)
	assert.Empty(t, local)

	synced, err := s.Get(ctx, ScopeSync, "theme")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"dark"`), synced["theme"])
}

func TestMemoryStorageRejectsUnknownScope(t *testing.T) {
	s := NewMemoryStorage()
	_, err := s.Get(context.Background(), Scope("session"), "x")
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), Scope("session"), map[string]any{"x": 1}))
}

func TestMemoryStorageHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStorage()
	assert.ErrorIs(t, s.Set(ctx, ScopeLocal, map[string]any{"x": 1}), context.Canceled)
}

func TestDecodeReportsMalformedValue(t *testing.T) {
	var n int
	found, err := Decode(map[string]json.RawMessage{"n": json.RawMessage(`"nope"`)}, "n", &n)
	assert.True(t, found)
	assert.Error(t, err)
}
