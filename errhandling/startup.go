package errhandling

import "sync"

var startup struct {
	mu   sync.Mutex
	errs []error
}

// RecordStartupError keeps err until a service handles pre-execution errors.
// It is used by code that runs before logging and error handling exist.
func RecordStartupError(err error) {
	if err == nil {
		return
	}
	startup.mu.Lock()
	startup.errs = append(startup.errs, err)
	startup.mu.Unlock()
}

// PendingStartupErrors returns the number of recorded, unhandled startup errors.
func PendingStartupErrors() int {
	startup.mu.Lock()
	defer startup.mu.Unlock()
	return len(startup.errs)
}

func drainStartupErrors() []error {
	startup.mu.Lock()
	defer startup.mu.Unlock()
	errs := startup.errs
	startup.errs = nil
	return errs
}
