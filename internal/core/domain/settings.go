package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is Groq's OpenAI-compatible cloud API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGroq || p == AIProviderAnthropic
}

// APIKeyEnv returns the conventional environment variable holding this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies a vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendMemory   IndexBackend = "memory"
	IndexBackendPgvector IndexBackend = "pgvector"
	IndexBackendQdrant   IndexBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendSQLite, IndexBackendMemory, IndexBackendPgvector, IndexBackendQdrant:
		return true
	default:
		return false
	}
}

// Persistent returns true if the backend survives process restarts.
func (b IndexBackend) Persistent() bool {
	return b != IndexBackendMemory
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// IsConfigured returns true if the LLM provider is usable.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// BatchSize caps the texts sent per embedding request (0 = adapter default).
	BatchSize int
}

// IsConfigured returns true if the embedding provider is usable.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Provider != AIProviderOllama && e.Provider != AIProviderOpenAI {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkSettings controls document splitting.
type ChunkSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters carried between consecutive chunks.
	Overlap int
}

// IndexSettings selects and configures the vector index backend.
type IndexSettings struct {
	Backend    IndexBackend
	DataDir    string
	Collection string

	// PostgresDSN is used by the pgvector backend.
	PostgresDSN string

	// QdrantURL and QdrantAPIKey are used by the qdrant backend.
	QdrantURL    string
	QdrantAPIKey string
}

// FetchSettings controls the web fetcher.
type FetchSettings struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64

	// RequestsPerSecond throttles sequential fetches (0 = unlimited).
	RequestsPerSecond float64
}

// LockSettings configures the optional cross-process rebuild lock.
type LockSettings struct {
	// RedisAddr enables the redis lock when non-empty.
	RedisAddr string
	TTL       time.Duration
}

// Settings is the complete runtime configuration.
type Settings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Chunk     ChunkSettings
	Index     IndexSettings
	Fetch     FetchSettings
	Lock      LockSettings

	// RetrievalK is the number of chunks retrieved per question.
	RetrievalK int
}

// Default setting values.
const (
	DefaultLLMProvider       = AIProviderGroq
	DefaultLLMModel          = "llama-3.3-70b-versatile"
	DefaultLLMTemperature    = 0.5
	DefaultLLMMaxTokens      = 500
	DefaultEmbeddingProvider = AIProviderOllama
	DefaultEmbeddingModel    = "all-minilm"
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultRetrievalK        = 3
	DefaultDataDir           = "resources/vectorstore"
	DefaultCollection        = "documents"
	DefaultFetchTimeout      = 30 * time.Second
	DefaultUserAgent         = "sercha-rag/0.1 (+https://github.com/custodia-labs/sercha-rag)"
	DefaultMaxBodyBytes      = 10 << 20
	DefaultLockTTL           = 10 * time.Minute
)

// DefaultSettings returns settings populated with built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			Provider:    DefaultLLMProvider,
			Model:       DefaultLLMModel,
			Temperature: DefaultLLMTemperature,
			MaxTokens:   DefaultLLMMaxTokens,
		},
		Embedding: EmbeddingSettings{
			Provider: DefaultEmbeddingProvider,
			Model:    DefaultEmbeddingModel,
		},
		Chunk: ChunkSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			DataDir:    DefaultDataDir,
			Collection: DefaultCollection,
		},
		Fetch: FetchSettings{
			Timeout:      DefaultFetchTimeout,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Lock: LockSettings{
			TTL: DefaultLockTTL,
		},
		RetrievalK: DefaultRetrievalK,
	}
}

// Validate checks settings that would make a run meaningless.
// A missing LLM key is not checked here; see LLMSettings.IsConfigured.
func (s Settings) Validate() error {
	if s.Chunk.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, s.Chunk.Size)
	}
	if s.Chunk.Overlap < 0 || s.Chunk.Overlap >= s.Chunk.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d",
			ErrInvalidInput, s.Chunk.Size, s.Chunk.Overlap)
	}
	if s.RetrievalK <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidInput, s.RetrievalK)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidInput, s.Index.Backend)
	}
	if s.Index.Collection == "" {
		return fmt.Errorf("%w: collection name is empty", ErrInvalidInput)
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in [0, 2], got %g", ErrInvalidInput, s.LLM.Temperature)
	}
	if s.LLM.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens must not be negative", ErrInvalidInput)
	}
	switch s.Index.Backend {
	case IndexBackendPgvector:
		if s.Index.PostgresDSN == "" {
			return fmt.Errorf("%w: pgvector backend needs a postgres DSN", ErrInvalidInput)
		}
	case IndexBackendQdrant:
		if s.Index.QdrantURL == "" {
			return fmt.Errorf("%w: qdrant backend needs a URL", ErrInvalidInput)
		}
	}
	return nil
}

// EmbeddingDimensions returns known embedding model dimensions.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// SettingSource tells where an effective setting came from.
type SettingSource string

// Setting sources, in increasing precedence.
const (
	SettingSourceDefault SettingSource = "default"
	SettingSourceFile    SettingSource = "file"
	SettingSourceEnv     SettingSource = "env"
)

// SettingEntry is one effective setting for display. Secret values are masked.
type SettingEntry struct {
	Key    string        `json:"key"`
	Env    string        `json:"env"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
	Secret bool          `json:"secret"`
}
