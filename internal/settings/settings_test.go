package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	svc := NewService(storage.NewMemoryStorage(), zap.NewNop())

	s, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Settings{Theme: "glass", SearchEngine: "google", TemperatureUnit: "c"}, s)
}

func TestLoadMigratesLegacyLocalSettings(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, storage.ScopeLocal, map[string]any{
		models.KeyUserName: "Ada",
		models.KeyTheme:    "dark",
	}))
	svc := NewService(store, zap.NewNop())

	s, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.UserName)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, "google", s.SearchEngine)

	synced, err := store.Get(ctx, storage.ScopeSync, models.SettingsKeys...)
	require.NoError(t, err)
	assert.Len(t, synced, 2)
	assert.JSONEq(t, `"Ada"`, string(synced[models.KeyUserName]))
}

func TestLoadPrefersSyncScope(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, storage.ScopeLocal, map[string]any{models.KeyUserName: "Old"}))
	require.NoError(t, store.Set(ctx, storage.ScopeSync, map[string]any{models.KeyLocation: "Oslo"}))
	svc := NewService(store, zap.NewNop())

	s, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", s.Location)
	assert.Empty(t, s.UserName)
}

func TestSaveAndSetters(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	svc := NewService(store, zap.NewNop())

	require.NoError(t, svc.Save(ctx, models.Settings{UserName: "  Lin ", Location: " Paris ", TemperatureUnit: "f"}))
	require.ErrorIs(t, svc.SetUserName(ctx, "   "), ErrEmptyName)
	require.NoError(t, svc.SetTheme(ctx, ThemeLight))
	require.ErrorIs(t, svc.SetTheme(ctx, "neon"), ErrUnknownTheme)

	s, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{
		Theme:           "light",
		UserName:        "Lin",
		SearchEngine:    "google",
		Location:        "Paris",
		TemperatureUnit: "f",
	}, s)

	require.NoError(t, svc.SetUserName(ctx, " Max "))
	values, err := store.Get(ctx, storage.ScopeSync, models.KeyUserName)
	require.NoError(t, err)
	var name string
	require.NoError(t, json.Unmarshal(values[models.KeyUserName], &name))
	assert.Equal(t, "Max", name)

	require.ErrorIs(t, svc.SetTemperatureUnit(ctx, "k"), ErrUnknownUnit)
	require.NoError(t, svc.SetTemperatureUnit(ctx, UnitCelsius))
	require.ErrorIs(t, svc.SetSearchEngine(ctx, "altavista"), ErrUnknownEngine)
	require.NoError(t, svc.SetSearchEngine(ctx, "yahoo"))

	s, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", s.TemperatureUnit)
	assert.Equal(t, "yahoo", s.SearchEngine)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hi Ada", Greeting("Ada"))
	assert.Equal(t, "aesthetic", Greeting("  "))
}

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		name   string
		engine string
		query  string
		want   string
		ok     bool
	}{
		{"bare domain", "google", "example.com", "https://example.com", true},
		{"full url", "bing", "http://example.com/a", "http://example.com/a", true},
		{"query with spaces", "duckduckgo", "go 1.21 release", "https://duckduckgo.com/?q=go+1.21+release", true},
		{"yahoo uses p", "yahoo", "weather", "https://search.yahoo.com/search?p=weather", true},
		{"unknown engine", "altavista", "cats & dogs", "https://www.google.com/search?q=cats+%26+dogs", true},
		{"empty", "google", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SearchTarget(tt.engine, tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "Search DuckDuckGo or type a URL", Placeholder("duckduckgo"))
	assert.Equal(t, "Search Google or type a URL", Placeholder(""))
	assert.Equal(t, "Ecosia", EngineName("ecosia"))
	assert.Empty(t, EngineName("nope"))
	assert.Equal(t, []string{"bing", "duckduckgo", "ecosia", "google", "yahoo"}, Engines())
}
