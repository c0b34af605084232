package kis

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrOriginFormat means the portal answered but the body had an
// unexpected shape (unparseable HTML, non-JSON list, ...).
var ErrOriginFormat = errors.New("origin returned data in an unexpected format")

// NetworkError wraps connectivity failures, including timeouts.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is a non-2xx answer that survived all retries.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.Code)
}
