package nosql

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every error a Driver, Server or Manager returns
// matches exactly one of the first four.
var (
	ErrConfiguration   = errors.New("nosql: configuration error")
	ErrConnection      = errors.New("nosql: connection error")
	ErrKeyNotFound     = errors.New("nosql: key not found")
	ErrOperationFailed = errors.New("nosql: operation failed")

	// Causes carried by *ConnectionError when the manager itself fails.
	ErrNoDataSource  = errors.New("data source not set")
	ErrManagerClosed = errors.New("connection manager closed")
)

// ConfigurationError reports a DataSource that is missing a required field
// or has the wrong type for the adapter. Raised at connect time only.
type ConfigurationError struct {
	Backend string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("nosql %s: configuration: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("nosql %s: configuration: %s: %s", e.Backend, e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ConnectionError reports a failure to establish or keep the backend connection.
// Message is the backend's diagnostic. Err is only set for causes owned by this
// package (ErrNoDataSource, ErrManagerClosed), never for vendor errors.
type ConnectionError struct {
	Backend string
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Backend == "" {
		return "nosql: connection: " + msg
	}
	return fmt.Sprintf("nosql %s: connection: %s", e.Backend, msg)
}

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

func (e *ConnectionError) Unwrap() error { return e.Err }

// KeyNotFoundError reports a get/delete/increment/decrement on an absent key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string { return fmt.Sprintf("nosql: key not found: %q", e.Key) }

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// OperationFailedError is any other backend failure during a data operation.
type OperationFailedError struct {
	Backend string
	Op      string
	Key     string // empty for namespace-wide ops such as flush
	Message string
}

func (e *OperationFailedError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("nosql %s: %s failed: %s", e.Backend, e.Op, e.Message)
	}
	return fmt.Sprintf("nosql %s: %s %q failed: %s", e.Backend, e.Op, e.Key, e.Message)
}

func (e *OperationFailedError) Is(target error) bool { return target == ErrOperationFailed }

// NewConfigurationError is a shorthand for adapters.
func NewConfigurationError(backend, field, reason string) *ConfigurationError {
	return &ConfigurationError{Backend: backend, Field: field, Reason: reason}
}

// NewConnectionError converts a vendor connect failure. Only its message survives.
func NewConnectionError(backend string, err error) *ConnectionError {
	return &ConnectionError{Backend: backend, Message: message(err)}
}

// NewOperationFailedError converts a vendor data-operation failure. Only its message survives.
func NewOperationFailedError(backend, op, key string, err error) *OperationFailedError {
	return &OperationFailedError{Backend: backend, Op: op, Key: key, Message: message(err)}
}

// NewKeyNotFoundError returns the not-found error for key.
func NewKeyNotFoundError(key string) *KeyNotFoundError {
	return &KeyNotFoundError{Key: key}
}

// IsKeyNotFound reports whether err is (or wraps) a KeyNotFound error.
func IsKeyNotFound(err error) bool { return errors.Is(err, ErrKeyNotFound) }

func message(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
