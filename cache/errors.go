package cache

import "errors"

// Storage errors.
var (
	// ErrCacheMiss indicates no valid entry exists for the key. It is a
	// control-flow signal, not a failure.
	ErrCacheMiss = errors.New("cache: miss")

	// ErrInvalidCapacity indicates a non-positive LRU capacity.
	ErrInvalidCapacity = errors.New("cache: capacity must be a positive integer")

	// ErrCopyFailed indicates a value could not be deep-copied.
	ErrCopyFailed = errors.New("cache: deep copy failed")

	// ErrNilStore indicates a nil Store was provided.
	ErrNilStore = errors.New("cache: store is nil")
)

// Key derivation errors.
var (
	// ErrInvalidTemplate indicates the template does not match the signature.
	ErrInvalidTemplate = errors.New("cache: invalid key template")

	// ErrAlreadyRegistered indicates Register was called more than once.
	ErrAlreadyRegistered = errors.New("cache: keyer already registered")

	// ErrNotRegistered indicates Key was called before Register.
	ErrNotRegistered = errors.New("cache: keyer not registered")

	// ErrMissingArgument indicates a template parameter was neither passed
	// nor has a default.
	ErrMissingArgument = errors.New("cache: missing argument")

	// ErrUnhashableArgument indicates an argument value cannot be encoded
	// into a key.
	ErrUnhashableArgument = errors.New("cache: unhashable argument")

	// ErrNilKeyer indicates a nil Keyer was provided.
	ErrNilKeyer = errors.New("cache: keyer is nil")
)

// Memoizer errors.
var (
	// ErrNilFunc indicates a nil function was provided.
	ErrNilFunc = errors.New("cache: function is nil")

	// ErrTypeMismatch indicates a cached value is not of the memoized
	// function's result type.
	ErrTypeMismatch = errors.New("cache: cached value has unexpected type")

	// ErrInvalidConfig indicates an invalid store configuration.
	ErrInvalidConfig = errors.New("cache: invalid config")
)
