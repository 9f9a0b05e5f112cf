package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsAdmin = (*SettingsService)(nil)

// Source aliases domain.SettingSource for brevity inside the package.
type Source = domain.SettingSource

const (
	SourceDefault = domain.SettingSourceDefault
	SourceFile    = domain.SettingSourceFile
	SourceEnv     = domain.SettingSourceEnv
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
)

// setting binds a config file key and an environment variable to a field.
type setting struct {
	key    string
	env    string
	kind   valueKind
	secret bool
	apply  func(*domain.Settings, string) error
	read   func(domain.Settings) string
}

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingsTable = []setting{
	{key: "llm.provider", env: "SERCHA_LLM_PROVIDER", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.LLM.Provider = domain.AIProvider(v); return nil },
		read:  func(s domain.Settings) string { return string(s.LLM.Provider) }},
	{key: "llm.model", env: "SERCHA_LLM_MODEL", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.LLM.Model = v; return nil },
		read:  func(s domain.Settings) string { return s.LLM.Model }},
	{key: "llm.base_url", env: "SERCHA_LLM_BASE_URL", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.LLM.BaseURL = v; return nil },
		read:  func(s domain.Settings) string { return s.LLM.BaseURL }},
	{key: "llm.api_key", env: "SERCHA_LLM_API_KEY", kind: kindString, secret: true,
		apply: func(s *domain.Settings, v string) error { s.LLM.APIKey = v; return nil },
		read:  func(s domain.Settings) string { return s.LLM.APIKey }},
	{key: "llm.temperature", env: "SERCHA_LLM_TEMPERATURE", kind: kindFloat,
		apply: func(s *domain.Settings, v string) error { return parseFloat(v, &s.LLM.Temperature) },
		read:  func(s domain.Settings) string { return strconv.FormatFloat(s.LLM.Temperature, 'g', -1, 64) }},
	{key: "llm.max_tokens", env: "SERCHA_LLM_MAX_TOKENS", kind: kindInt,
		apply: func(s *domain.Settings, v string) error { return parseInt(v, &s.LLM.MaxTokens) },
		read:  func(s domain.Settings) string { return strconv.Itoa(s.LLM.MaxTokens) }},

	{key: "embedding.provider", env: "SERCHA_EMBEDDING_PROVIDER", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Embedding.Provider = domain.AIProvider(v); return nil },
		read:  func(s domain.Settings) string { return string(s.Embedding.Provider) }},
	{key: "embedding.model", env: "SERCHA_EMBEDDING_MODEL", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Embedding.Model = v; return nil },
		read:  func(s domain.Settings) string { return s.Embedding.Model }},
	{key: "embedding.base_url", env: "SERCHA_EMBEDDING_BASE_URL", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Embedding.BaseURL = v; return nil },
		read:  func(s domain.Settings) string { return s.Embedding.BaseURL }},
	{key: "embedding.api_key", env: "SERCHA_EMBEDDING_API_KEY", kind: kindString, secret: true,
		apply: func(s *domain.Settings, v string) error { s.Embedding.APIKey = v; return nil },
		read:  func(s domain.Settings) string { return s.Embedding.APIKey }},
	{key: "embedding.batch_size", env: "SERCHA_EMBEDDING_BATCH_SIZE", kind: kindInt,
		apply: func(s *domain.Settings, v string) error { return parseInt(v, &s.Embedding.BatchSize) },
		read:  func(s domain.Settings) string { return strconv.Itoa(s.Embedding.BatchSize) }},

	{key: "chunk.size", env: "SERCHA_CHUNK_SIZE", kind: kindInt,
		apply: func(s *domain.Settings, v string) error { return parseInt(v, &s.Chunk.Size) },
		read:  func(s domain.Settings) string { return strconv.Itoa(s.Chunk.Size) }},
	{key: "chunk.overlap", env: "SERCHA_CHUNK_OVERLAP", kind: kindInt,
		apply: func(s *domain.Settings, v string) error { return parseInt(v, &s.Chunk.Overlap) },
		read:  func(s domain.Settings) string { return strconv.Itoa(s.Chunk.Overlap) }},
	{key: "retrieval.k", env: "SERCHA_RETRIEVAL_K", kind: kindInt,
		apply: func(s *domain.Settings, v string) error { return parseInt(v, &s.RetrievalK) },
		read:  func(s domain.Settings) string { return strconv.Itoa(s.RetrievalK) }},

	{key: "index.backend", env: "SERCHA_INDEX_BACKEND", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Index.Backend = domain.IndexBackend(v); return nil },
		read:  func(s domain.Settings) string { return string(s.Index.Backend) }},
	{key: "index.data_dir", env: "SERCHA_DATA_DIR", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Index.DataDir = v; return nil },
		read:  func(s domain.Settings) string { return s.Index.DataDir }},
	{key: "index.collection", env: "SERCHA_COLLECTION", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Index.Collection = v; return nil },
		read:  func(s domain.Settings) string { return s.Index.Collection }},
	{key: "index.postgres_dsn", env: "SERCHA_POSTGRES_DSN", kind: kindString, secret: true,
		apply: func(s *domain.Settings, v string) error { s.Index.PostgresDSN = v; return nil },
		read:  func(s domain.Settings) string { return s.Index.PostgresDSN }},
	{key: "index.qdrant_url", env: "SERCHA_QDRANT_URL", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Index.QdrantURL = v; return nil },
		read:  func(s domain.Settings) string { return s.Index.QdrantURL }},
	{key: "index.qdrant_api_key", env: "SERCHA_QDRANT_API_KEY", kind: kindString, secret: true,
		apply: func(s *domain.Settings, v string) error { s.Index.QdrantAPIKey = v; return nil },
		read:  func(s domain.Settings) string { return s.Index.QdrantAPIKey }},

	{key: "fetch.timeout", env: "SERCHA_FETCH_TIMEOUT", kind: kindDuration,
		apply: func(s *domain.Settings, v string) error { return parseDuration(v, &s.Fetch.Timeout) },
		read:  func(s domain.Settings) string { return s.Fetch.Timeout.String() }},
	{key: "fetch.user_agent", env: "SERCHA_FETCH_USER_AGENT", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Fetch.UserAgent = v; return nil },
		read:  func(s domain.Settings) string { return s.Fetch.UserAgent }},
	{key: "fetch.max_bytes", env: "SERCHA_FETCH_MAX_BYTES", kind: kindInt,
		apply: func(s *domain.Settings, v string) error {
			var n int
			if err := parseInt(v, &n); err != nil {
				return err
			}
			s.Fetch.MaxBodyBytes = int64(n)
			return nil
		},
		read: func(s domain.Settings) string { return strconv.FormatInt(s.Fetch.MaxBodyBytes, 10) }},
	{key: "fetch.requests_per_second", env: "SERCHA_FETCH_RPS", kind: kindFloat,
		apply: func(s *domain.Settings, v string) error { return parseFloat(v, &s.Fetch.RequestsPerSecond) },
		read:  func(s domain.Settings) string { return strconv.FormatFloat(s.Fetch.RequestsPerSecond, 'g', -1, 64) }},

	{key: "lock.redis_addr", env: "SERCHA_REDIS_ADDR", kind: kindString,
		apply: func(s *domain.Settings, v string) error { s.Lock.RedisAddr = v; return nil },
		read:  func(s domain.Settings) string { return s.Lock.RedisAddr }},
	{key: "lock.ttl", env: "SERCHA_LOCK_TTL", kind: kindDuration,
		apply: func(s *domain.Settings, v string) error { return parseDuration(v, &s.Lock.TTL) },
		read:  func(s domain.Settings) string { return s.Lock.TTL.String() }},
}

// SettingsService resolves settings from defaults, the config file and the
// environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
	validator   driven.AIConfigValidator

	settings domain.Settings
	sources  map[string]Source
}

// NewSettingsService creates a settings service. configStore may be nil.
// A nil getenv reads the process environment.
func NewSettingsService(configStore driven.ConfigStore, getenv func(string) string) *SettingsService {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &SettingsService{
		configStore: configStore,
		getenv:      getenv,
		settings:    domain.DefaultSettings(),
		sources:     map[string]Source{},
	}
}

// SetValidator sets the connectivity checker used by Check.
func (s *SettingsService) SetValidator(v driven.AIConfigValidator) {
	s.validator = v
}

// Load resolves and validates the effective settings.
func (s *SettingsService) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()
	sources := make(map[string]Source, len(settingsTable))

	for _, st := range settingsTable {
		sources[st.key] = SourceDefault

		if s.configStore != nil {
			if raw, ok := s.configStore.Get(st.key); ok {
				if err := st.apply(&settings, fmt.Sprint(raw)); err != nil {
					return settings, fmt.Errorf("%s in %s: %w", st.key, s.configStore.Path(), err)
				}
				sources[st.key] = SourceFile
			}
		}

		if v := strings.TrimSpace(s.getenv(st.env)); v != "" {
			if err := st.apply(&settings, v); err != nil {
				return settings, fmt.Errorf("%s: %w", st.env, err)
			}
			sources[st.key] = SourceEnv
		}
	}

	if s.configStore != nil {
		for _, key := range s.configStore.Keys() {
			if _, ok := lookupSetting(key); !ok {
				logger.Warn("ignoring unknown setting %q in %s", key, s.configStore.Path())
			}
		}
	}

	s.applyKeyFallbacks(&settings, sources)
	if settings.LLM.Provider == domain.AIProviderGroq && settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModel
	}

	if err := validateSettings(settings); err != nil {
		return settings, err
	}

	s.settings = settings
	s.sources = sources
	return settings, nil
}

// applyKeyFallbacks fills API keys from the provider's conventional
// variable, e.g. GROQ_API_KEY.
func (s *SettingsService) applyKeyFallbacks(settings *domain.Settings, sources map[string]Source) {
	if settings.LLM.APIKey == "" {
		if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
			if v := s.getenv(env); v != "" {
				settings.LLM.APIKey = v
				sources["llm.api_key"] = SourceEnv
			}
		}
	}
	if settings.Embedding.APIKey == "" {
		if env := settings.Embedding.Provider.APIKeyEnv(); env != "" {
			if v := s.getenv(env); v != "" {
				settings.Embedding.APIKey = v
				sources["embedding.api_key"] = SourceEnv
			}
		}
	}
}

// Get returns the settings from the last successful Load, or the defaults.
func (s *SettingsService) Get() domain.Settings {
	return s.settings
}

// RequireLLM fails with ErrMissingAPIKey when the LLM provider needs a key
// and none is set.
func (s *SettingsService) RequireLLM() error {
	llm := s.settings.LLM
	if llm.Provider.RequiresAPIKey() && llm.APIKey == "" {
		return fmt.Errorf("%w: set %s or SERCHA_LLM_API_KEY", domain.ErrMissingAPIKey, llm.Provider.APIKeyEnv())
	}
	if !llm.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrInvalidInput, llm.Provider)
	}
	return nil
}

// Entries lists every effective setting with secrets masked.
func (s *SettingsService) Entries() []domain.SettingEntry {
	entries := make([]domain.SettingEntry, 0, len(settingsTable))
	for _, st := range settingsTable {
		value := st.read(s.settings)
		if st.secret {
			value = MaskSecret(value)
		}
		source := s.sources[st.key]
		if source == "" {
			source = SourceDefault
		}
		entries = append(entries, domain.SettingEntry{
			Key: st.key, Env: st.env, Value: value, Source: source, Secret: st.secret,
		})
	}
	return entries
}

// Set validates and persists one setting to the config file.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return errors.New("no config file available")
	}
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	candidate := s.settings
	if err := st.apply(&candidate, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := validateSettings(candidate); err != nil {
		return err
	}

	typed, err := typedValue(st.kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	s.settings = candidate
	s.sources[key] = SourceFile
	return nil
}

// Unset removes key from the config file so the default or environment
// value applies again.
func (s *SettingsService) Unset(key string) error {
	if s.configStore == nil {
		return errors.New("no config file available")
	}
	if _, ok := lookupSetting(key); !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	_, err := s.Load()
	return err
}

// Keys returns every supported setting key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// Check pings the configured embedding and LLM providers.
func (s *SettingsService) Check(ctx context.Context) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator.ValidateEmbedding(ctx, s.settings.Embedding); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := s.validator.ValidateLLM(ctx, s.settings.LLM); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// MaskSecret keeps the last four characters of long secrets.
func MaskSecret(v string) string {
	switch {
	case v == "":
		return ""
	case len(v) <= 8:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

func validateSettings(settings domain.Settings) error {
	if !settings.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	return settings.Validate()
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

func typedValue(kind valueKind, v string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(strings.TrimSpace(v))
	case kindFloat:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return v, nil
	}
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, v)
	}
	*dst = n
	return nil
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, v)
	}
	*dst = f
	return nil
}

// parseDuration accepts Go durations ("30s") or bare seconds ("30").
func parseDuration(v string, dst *time.Duration) error {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %q is not a duration", domain.ErrInvalidInput, v)
	}
	*dst = d
	return nil
}
