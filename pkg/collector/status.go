package collector

import "errors"

// Status is the per-pool failure class. The numeric values double as the
// process exit status; in batch mode the last failing pool's status wins,
// a known limitation kept for compatibility with existing wrappers.
type Status int

const (
	StatusOK                   Status = 0
	StatusRefreshFailed        Status = 1
	StatusConfigLookupFailed   Status = 2
	StatusMissingVdevStats     Status = 3
	StatusMissingExtendedStats Status = 6
)

// statusError carries a failure class up through the visitors so only the
// sampler decides how to react.
type statusError struct {
	status Status
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() error { return e.err }

func withStatus(status Status, err error) error {
	return &statusError{status: status, err: err}
}

// statusOf extracts the failure class from an error chain.
func statusOf(err error) Status {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return StatusConfigLookupFailed
}
