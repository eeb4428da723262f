// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingStore: Document records and their embeddings, keyed by user
//   - IndexStore: Per-user blob storage for serialized index artifacts
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil for commands that do not need them:
//
//   - EmbeddingService: Generates vector embeddings. Required to rebuild or query.
//   - LLMService: Generates answers. Required to answer queries.
//   - PromptStore: User-editable prompt templates. Defaults are used when nil.
//   - SchedulerStore: Persists periodic rebuild state.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
