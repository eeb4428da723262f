// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable answer prompt templates
//
// LoadSettings combines defaults, the config file and environment variables
// into domain.Settings.
package file
