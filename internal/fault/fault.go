// Package fault defines the error taxonomy shared by the store, the
// provider adapters and the orchestrator. Callers classify failures with
// errors.As; nothing in here is ever swallowed on the way up.
package fault

import "fmt"

// ValidationError marks malformed caller input. It is terminal: no state
// was mutated when one of these is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StorageKind narrows a persistence failure.
type StorageKind string

const (
	StorageConnectionLost      StorageKind = "connection_lost"
	StorageConstraintViolation StorageKind = "constraint_violation"
	StorageTimeout             StorageKind = "timeout"
	StorageUnknown             StorageKind = "unknown"
)

// StorageError wraps a persistence-layer failure. The orchestrator aborts
// the current turn step on one of these; retrying is the caller's business.
type StorageError struct {
	Kind StorageKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProviderKind narrows an adapter failure for user-facing messaging. The
// orchestrator treats every kind the same way: the user message already
// persisted stays, nothing is rolled back, no retry happens in-core.
type ProviderKind string

const (
	ProviderUnauthorized      ProviderKind = "unauthorized"
	ProviderRateLimited       ProviderKind = "rate_limited"
	ProviderTimeout           ProviderKind = "timeout"
	ProviderUnavailable       ProviderKind = "unavailable"
	ProviderMalformedResponse ProviderKind = "malformed_response"
)

// ProviderError wraps a completion failure from one of the adapters.
type ProviderError struct {
	Kind     ProviderKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
