package transport

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks authorization loss (HTTP 403 or a page served to an
// anonymous visitor). The engine treats it as fatal; everything else is
// retryable.
var ErrUnauthorized = errors.New("unauthorized")

// RequestError is a non-2xx response that is not an authorization failure.
type RequestError struct {
	Status int
	URL    string
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: status %d (%s)", e.Status, e.URL)
}
