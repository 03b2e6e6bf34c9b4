package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNilChecker indicates a nil checker was registered.
	ErrNilChecker = errors.New("health: nil checker")

	// ErrNilStore indicates a StoreChecker was created without a store.
	ErrNilStore = errors.New("health: nil store")

	// ErrInvalidConfig indicates a checker configuration is out of range.
	ErrInvalidConfig = errors.New("health: invalid config")
)
