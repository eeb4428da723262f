// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The write path (IndexService) embeds pending documents, builds a flat
// index per user and persists it. The read path (QueryService) loads that
// index into an IndexSession, retrieves the nearest documents and asks the
// LLM for an answer.
package services
