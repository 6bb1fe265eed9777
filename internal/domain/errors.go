package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "connect", "send", "receive")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrSourceUnavailable is returned when the symbol loader fails or comes up short.
	ErrSourceUnavailable = errors.New("symbol source unavailable")

	// ErrRange is returned by Catalog.SetActiveRange for a window outside the catalog.
	ErrRange = errors.New("invalid active range")

	// ErrInvalidCatalog is returned when a partition cannot be derived (zero users, symbols or clients).
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrInvalidArgument is returned for caller-supplied values outside their domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAllocation is returned when the packet pool has no free request packet.
	ErrAllocation = errors.New("packet allocation failed")

	// ErrPack is returned when a packet item references a missing name.
	ErrPack = errors.New("pack failed")

	// ErrConnectionFailed is returned when the server cannot be reached. It's usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected is returned when Send/Receive run before Connect.
	ErrNotConnected = errors.New("not connected")

	// ErrTimeout is returned when no response arrives within the receive timeout.
	ErrTimeout = errors.New("receive timeout")

	// ErrStopped is returned when a receive is abandoned because the caller is shutting down.
	ErrStopped = errors.New("receive stopped")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
