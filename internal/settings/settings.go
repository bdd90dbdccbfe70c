// Package settings loads and saves the small user preferences kept in the
// sync scope, and derives the strings the surfaces show from them.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeGlass = "glass"

	DefaultTheme           = ThemeGlass
	DefaultSearchEngine    = "google"
	DefaultTemperatureUnit = "c"

	UnitCelsius    = "c"
	UnitFahrenheit = "f"
)

var (
	ErrEmptyName     = errors.New("name is empty")
	ErrUnknownTheme  = errors.New("unknown theme")
	ErrUnknownUnit   = errors.New("unknown temperature unit")
	ErrUnknownEngine = errors.New("unknown search engine")
)

type engine struct {
	name      string
	searchURL string
}

var engines = map[string]engine{
	"google":     {"Google", "https://www.google.com/search?q="},
	"bing":       {"Bing", "https://www.bing.com/search?q="},
	"duckduckgo": {"DuckDuckGo", "https://duckduckgo.com/?q="},
	"yahoo":      {"Yahoo", "https://search.yahoo.com/search?p="},
	"ecosia":     {"Ecosia", "https://www.ecosia.org/search?q="},
}

type Service struct {
	store  storage.Storage
	logger *zap.Logger
}

func NewService(store storage.Storage, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Load reads the sync scope. When it holds no settings at all, values left in
// the local scope by older installs are copied over to sync first.
func (s *Service) Load(ctx context.Context) (models.Settings, error) {
	values, err := s.store.Get(ctx, storage.ScopeSync, models.SettingsKeys...)
	if err != nil {
		return models.Settings{}, fmt.Errorf("error loading settings: %w", err)
	}
	settings, found := decode(values)

	if found == 0 {
		legacy, err := s.store.Get(ctx, storage.ScopeLocal, models.SettingsKeys...)
		if err != nil {
			return models.Settings{}, fmt.Errorf("error loading legacy settings: %w", err)
		}
		var n int
		settings, n = decode(legacy)
		if n > 0 {
			if err := s.store.Set(ctx, storage.ScopeSync, toValues(legacy)); err != nil {
				s.logger.Warn("Failed to migrate settings to sync scope", zap.Error(err))
			} else {
				s.logger.Info("Migrated settings to sync scope", zap.Int("keys", n))
			}
		}
	}

	return WithDefaults(settings), nil
}

// Save stores every setting, defaults included.
func (s *Service) Save(ctx context.Context, settings models.Settings) error {
	settings.UserName = strings.TrimSpace(settings.UserName)
	settings.Location = strings.TrimSpace(settings.Location)
	settings = WithDefaults(settings)

	err := s.store.Set(ctx, storage.ScopeSync, map[string]any{
		models.KeyTheme:           settings.Theme,
		models.KeyUserName:        settings.UserName,
		models.KeySearchEngine:    settings.SearchEngine,
		models.KeyLocation:        settings.Location,
		models.KeyTemperatureUnit: settings.TemperatureUnit,
	})
	if err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}

func (s *Service) SetUserName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := s.store.Set(ctx, storage.ScopeSync, map[string]any{models.KeyUserName: name}); err != nil {
		return fmt.Errorf("error saving user name: %w", err)
	}
	return nil
}

func (s *Service) SetTheme(ctx context.Context, theme string) error {
	switch theme {
	case ThemeLight, ThemeDark, ThemeGlass:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	if err := s.store.Set(ctx, storage.ScopeSync, map[string]any{models.KeyTheme: theme}); err != nil {
		return fmt.Errorf("error saving theme: %w", err)
	}
	return nil
}

func (s *Service) SetTemperatureUnit(ctx context.Context, unit string) error {
	switch unit {
	case UnitCelsius, UnitFahrenheit:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if err := s.store.Set(ctx, storage.ScopeSync, map[string]any{models.KeyTemperatureUnit: unit}); err != nil {
		return fmt.Errorf("error saving temperature unit: %w", err)
	}
	return nil
}

func (s *Service) SetSearchEngine(ctx context.Context, engineKey string) error {
	if EngineName(engineKey) == "" {
		return fmt.Errorf("%w: %q", ErrUnknownEngine, engineKey)
	}
	if err := s.store.Set(ctx, storage.ScopeSync, map[string]any{models.KeySearchEngine: engineKey}); err != nil {
		return fmt.Errorf("error saving search engine: %w", err)
	}
	return nil
}

// Engines lists the supported search engine keys, sorted.
func Engines() []string {
	keys := make([]string, 0, len(engines))
	for key := range engines {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func WithDefaults(s models.Settings) models.Settings {
	if s.Theme == "" {
		s.Theme = DefaultTheme
	}
	if s.SearchEngine == "" {
		s.SearchEngine = DefaultSearchEngine
	}
	if s.TemperatureUnit == "" {
		s.TemperatureUnit = DefaultTemperatureUnit
	}
	return s
}

// Greeting is the headline shown above the notes.
func Greeting(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return "Hi " + name
	}
	return "aesthetic"
}

// SearchTarget turns what was typed into the search bar into the address to
// open. Input with a dot and no spaces is treated as an address.
func SearchTarget(engineKey, query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	if strings.Contains(query, ".") && !strings.Contains(query, " ") {
		if strings.HasPrefix(query, "http") {
			return query, true
		}
		return "https://" + query, true
	}
	return lookupEngine(engineKey).searchURL + url.QueryEscape(query), true
}

func Placeholder(engineKey string) string {
	return fmt.Sprintf("Search %s or type a URL", lookupEngine(engineKey).name)
}

// EngineName reports the display name, or "" for an unknown engine.
func EngineName(engineKey string) string {
	return engines[engineKey].name
}

func lookupEngine(key string) engine {
	if e, ok := engines[key]; ok {
		return e
	}
	return engines[DefaultSearchEngine]
}

// decode reads the string settings and counts the non-empty ones.
func decode(values map[string]json.RawMessage) (models.Settings, int) {
	var s models.Settings
	fields := map[string]*string{
		models.KeyTheme:           &s.Theme,
		models.KeyUserName:        &s.UserName,
		models.KeySearchEngine:    &s.SearchEngine,
		models.KeyLocation:        &s.Location,
		models.KeyTemperatureUnit: &s.TemperatureUnit,
	}
	found := 0
	for key, dst := range fields {
		var v string
		if ok, err := storage.Decode(values, key, &v); err != nil || !ok {
			continue
		}
		if v != "" {
			*dst = v
			found++
		}
	}
	return s, found
}

func toValues(raw map[string]json.RawMessage) map[string]any {
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		values[k] = v
	}
	return values
}
