package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// ValueKind is the type a configuration key holds.
type ValueKind int

// Value kinds for known keys.
const (
	KindString ValueKind = iota
	KindSecret
	KindInt
	KindFloat
	KindBool
	KindDuration
)

// Key describes a known configuration key.
type Key struct {
	Name        string
	Kind        ValueKind
	Env         string
	Description string
}

// Environment variables read by LoadSettings.
const (
	EnvDataDir        = "DOCRAG_DATA_DIR"
	EnvEmbeddingModel = "EMBEDDING_MODEL"
	EnvGPTModel       = "GPT_MODEL"
	EnvTopK           = "TOP_K"
)

var knownKeys = []Key{
	{Name: "data_dir", Kind: KindString, Env: EnvDataDir, Description: "Directory for the database, indexes and prompts"},
	{Name: "embedding.provider", Kind: KindString, Description: "Embedding provider (openai, ollama)"},
	{Name: "embedding.model", Kind: KindString, Env: EnvEmbeddingModel, Description: "Embedding model name"},
	{Name: "embedding.base_url", Kind: KindString, Description: "Embedding API endpoint override"},
	{Name: "embedding.api_key", Kind: KindSecret, Description: "Embedding API key"},
	{Name: "llm.provider", Kind: KindString, Description: "Answer provider (openai, anthropic, ollama)"},
	{Name: "llm.model", Kind: KindString, Env: EnvGPTModel, Description: "Answer model name"},
	{Name: "llm.base_url", Kind: KindString, Description: "Answer API endpoint override"},
	{Name: "llm.api_key", Kind: KindSecret, Description: "Answer API key"},
	{Name: "index.backend", Kind: KindString, Description: "Index artifact storage (sqlite, filesystem)"},
	{Name: "index.dir", Kind: KindString, Description: "Root directory for the filesystem backend"},
	{Name: "index.top_k", Kind: KindInt, Env: EnvTopK, Description: "Documents retrieved per query"},
	{Name: "index.cache", Kind: KindBool, Description: "Keep loaded indexes in memory between queries"},
	{Name: "rebuild.retry_backoff", Kind: KindDuration, Description: "Wait before retrying a failed embedding"},
	{Name: "rebuild.interval", Kind: KindDuration, Description: "Periodic rebuild interval (0 disables)"},
	{Name: "upstream.rate_limit", Kind: KindFloat, Description: "AI requests per second (0 is unlimited)"},
	{Name: "upstream.burst", Kind: KindInt, Description: "AI request burst size"},
	{Name: "query.timeout", Kind: KindDuration, Description: "Upper bound for one query"},
}

// KnownKeys returns every configuration key docrag reads.
func KnownKeys() []Key {
	out := make([]Key, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// LookupKey finds a known key by name.
func LookupKey(name string) (Key, bool) {
	for _, k := range knownKeys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// ParseValue converts a command-line string into the stored type for name.
func ParseValue(name, raw string) (any, error) {
	key, ok := LookupKey(name)
	if !ok {
		return nil, &domain.ConfigError{Key: name, Reason: "is not a known key"}
	}
	raw = strings.TrimSpace(raw)

	switch key.Kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &domain.ConfigError{Key: name, Env: key.Env, Reason: "must be an integer"}
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &domain.ConfigError{Key: name, Reason: "must be a number"}
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &domain.ConfigError{Key: name, Reason: "must be true or false"}
		}
		return b, nil
	case KindDuration:
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, &domain.ConfigError{Key: name, Reason: "must be a duration such as 5s or 1h"}
		}
		return raw, nil
	default:
		switch name {
		case "embedding.provider":
			return parseProvider(name, raw, domain.AllEmbeddingProviders())
		case "llm.provider":
			return parseProvider(name, raw, domain.AllLLMProviders())
		}
		return raw, nil
	}
}

func parseProvider(name, raw string, allowed []domain.AIProvider) (any, error) {
	names := make([]string, len(allowed))
	for i, p := range allowed {
		if string(p) == raw {
			return raw, nil
		}
		names[i] = string(p)
	}
	return nil, &domain.ConfigError{Key: name, Reason: "must be one of " + strings.Join(names, ", ")}
}

// FormatValue renders a stored value for display, masking secrets.
func FormatValue(key Key, value any) string {
	s := fmt.Sprint(value)
	if key.Kind != KindSecret || s == "" {
		return s
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// LoadDotEnv loads .env files into the process environment.
// Missing files are ignored; existing variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadSettings builds settings from defaults, then the config store, then
// environment variables. lookupEnv defaults to os.LookupEnv.
func LoadSettings(store driven.ConfigStore, lookupEnv func(string) (string, bool)) (domain.Settings, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	s := domain.DefaultSettings()
	r := reader{store: store}

	s.DataDir = r.str("data_dir", s.DataDir)
	s.Embedding.Provider = domain.AIProvider(r.str("embedding.provider", string(s.Embedding.Provider)))
	s.Embedding.Model = r.str("embedding.model", "")
	s.Embedding.BaseURL = r.str("embedding.base_url", "")
	s.Embedding.APIKey = r.str("embedding.api_key", "")
	s.LLM.Provider = domain.AIProvider(r.str("llm.provider", string(s.LLM.Provider)))
	s.LLM.Model = r.str("llm.model", "")
	s.LLM.BaseURL = r.str("llm.base_url", "")
	s.LLM.APIKey = r.str("llm.api_key", "")
	s.Index.Backend = domain.IndexBackend(r.str("index.backend", string(s.Index.Backend)))
	s.Index.Dir = r.str("index.dir", "")
	s.Index.TopK = r.integer("index.top_k", s.Index.TopK)
	s.Index.Cache = r.boolean("index.cache", s.Index.Cache)
	s.Rebuild.RetryBackoff = r.duration("rebuild.retry_backoff", s.Rebuild.RetryBackoff)
	s.Rebuild.Interval = r.duration("rebuild.interval", s.Rebuild.Interval)
	s.Upstream.RateLimit = r.float("upstream.rate_limit", s.Upstream.RateLimit)
	s.Upstream.Burst = r.integer("upstream.burst", s.Upstream.Burst)
	s.QueryTimeout = r.duration("query.timeout", s.QueryTimeout)
	if r.err != nil {
		return domain.Settings{}, r.err
	}

	if v, ok := lookupEnv(EnvDataDir); ok && v != "" {
		s.DataDir = v
	}
	if v, ok := lookupEnv(EnvEmbeddingModel); ok && v != "" {
		s.Embedding.Model = v
	}
	if v, ok := lookupEnv(EnvGPTModel); ok && v != "" {
		s.LLM.Model = v
	}
	if v, ok := lookupEnv(EnvTopK); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domain.Settings{}, &domain.ConfigError{Key: "index.top_k", Env: EnvTopK, Reason: "must be an integer"}
		}
		s.Index.TopK = n
	}
	if env := s.Embedding.Provider.APIKeyEnv(); env != "" {
		if v, ok := lookupEnv(env); ok && v != "" {
			s.Embedding.APIKey = v
		}
	}
	if env := s.LLM.Provider.APIKeyEnv(); env != "" {
		if v, ok := lookupEnv(env); ok && v != "" {
			s.LLM.APIKey = v
		}
	}

	if s.Embedding.Model == "" {
		s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
	}
	if s.LLM.Model == "" {
		s.LLM.Model = domain.DefaultLLMModels()[s.LLM.Provider]
	}
	if s.DataDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return domain.Settings{}, &domain.ConfigError{Key: "data_dir", Env: EnvDataDir, Reason: "could not be resolved"}
		}
		s.DataDir = dir
	}
	if s.Index.Dir == "" {
		s.Index.Dir = filepath.Join(s.DataDir, "indexes")
	}

	if err := s.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

// reader pulls typed values out of a ConfigStore, keeping the first type error.
type reader struct {
	store driven.ConfigStore
	err   error
}

func (r *reader) value(key string) (any, bool) {
	if r.store == nil || r.err != nil {
		return nil, false
	}
	return r.store.Get(key)
}

func (r *reader) fail(key, reason string) {
	if r.err == nil {
		r.err = &domain.ConfigError{Key: key, Reason: reason}
	}
}

func (r *reader) str(key, def string) string {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	s, isStr := v.(string)
	if !isStr {
		r.fail(key, "must be a string")
		return def
	}
	return s
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	r.fail(key, "must be an integer")
	return def
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	r.fail(key, "must be a number")
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	r.fail(key, "must be true or false")
	return def
}

// duration accepts Go duration strings or whole seconds.
func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	switch d := v.(type) {
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int64:
		return time.Duration(d) * time.Second
	case int:
		return time.Duration(d) * time.Second
	}
	r.fail(key, "must be a duration such as 5s or 1h")
	return def
}
