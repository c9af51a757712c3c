package domain

import "errors"

// RejectError is returned by a matcher that refuses a request.
// A rejection never stops the run.
type RejectError struct {
	Op      string // "submit" or "cancel"
	OrderID string
	Err     error
}

func (e *RejectError) Error() string {
	return e.Op + " " + e.OrderID + ": " + e.Err.Error()
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

// NewRejectError wraps err for the request with the given id.
func NewRejectError(op, orderID string, err error) *RejectError {
	return &RejectError{Op: op, OrderID: orderID, Err: err}
}

// IsRejection reports whether err is a matcher rejection.
func IsRejection(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInvalidScenario is returned when a scenario fails validation.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrUnknownStrategy is returned for a participant strategy name nobody registered.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrRunNotFound is returned by storage lookups.
	ErrRunNotFound = errors.New("run not found")
)
