package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// APIKeyEnv returns the environment variable holding this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects where index artifacts are persisted.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendSQLite stores artifacts as rows next to the documents table.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendFilesystem stores artifacts as files under <dir>/<user>/<blob>.
	IndexBackendFilesystem IndexBackend = "filesystem"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendSQLite || b == IndexBackendFilesystem
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds index storage and retrieval configuration.
type IndexSettings struct {
	// Backend is where index artifacts live.
	Backend IndexBackend

	// Dir is the root directory for the filesystem backend.
	Dir string

	// TopK is the number of neighbours retrieved per query.
	TopK int

	// Cache keeps one loaded session per user across queries.
	Cache bool
}

// RebuildSettings holds rebuild job configuration.
type RebuildSettings struct {
	// RetryBackoff is the wait before retrying a failed document embedding.
	RetryBackoff time.Duration

	// Interval is how often the scheduler rebuilds every user's index.
	// Zero disables periodic rebuilds.
	Interval time.Duration
}

// UpstreamSettings throttles calls to AI providers.
type UpstreamSettings struct {
	// RateLimit is the sustained requests per second. Zero means unlimited.
	RateLimit float64

	// Burst is the token bucket size.
	Burst int
}

// Settings holds all process configuration. It is built once at startup
// and passed by value into constructors.
type Settings struct {
	// DataDir holds the database, index files and prompts.
	DataDir string

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Index holds index storage settings.
	Index IndexSettings

	// Rebuild holds rebuild job settings.
	Rebuild RebuildSettings

	// Upstream holds AI provider throttling.
	Upstream UpstreamSettings

	// QueryTimeout bounds a single query end to end. Zero means none.
	QueryTimeout time.Duration
}

// DefaultSettings returns settings with sensible defaults.
// API keys are left empty and must come from the environment or config file.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
			TopK:    DefaultTopK,
		},
		Rebuild: RebuildSettings{
			RetryBackoff: 5 * time.Second,
		},
		Upstream: UpstreamSettings{
			RateLimit: 5,
			Burst:     5,
		},
		QueryTimeout: 2 * time.Minute,
	}
}

// Validate checks the settings every command relies on.
func (s Settings) Validate() error {
	if !s.Index.Backend.IsValid() {
		return &ConfigError{Key: "index.backend", Reason: "must be sqlite or filesystem"}
	}
	if s.Index.TopK <= 0 {
		return &ConfigError{Key: "index.top_k", Env: "TOP_K", Reason: "must be positive"}
	}
	if s.Rebuild.RetryBackoff < 0 {
		return &ConfigError{Key: "rebuild.retry_backoff", Reason: "must not be negative"}
	}
	return nil
}

// ValidateEmbedding checks the embedding provider is usable.
func (s Settings) ValidateEmbedding() error {
	e := s.Embedding
	if !e.Provider.IsValid() {
		return &ConfigError{Key: "embedding.provider", Reason: "is not a known provider"}
	}
	if e.Provider == AIProviderAnthropic {
		return &ConfigError{Key: "embedding.provider", Reason: "anthropic does not support embeddings"}
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return &ConfigError{Key: "embedding.api_key", Env: e.Provider.APIKeyEnv(), Reason: "is required"}
	}
	return nil
}

// ValidateLLM checks the answer generation provider is usable.
func (s Settings) ValidateLLM() error {
	l := s.LLM
	if !l.Provider.IsValid() {
		return &ConfigError{Key: "llm.provider", Reason: "is not a known provider"}
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return &ConfigError{Key: "llm.api_key", Env: l.Provider.APIKeyEnv(), Reason: "is required"}
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
