package model

import "fmt"

// ProviderError wraps a failure talking to a search or scrape backend
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GenerationError means structured LLM output could not be produced or decoded
type GenerationError struct {
	Step string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigurationError is returned when a run cannot start with the given settings
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
