package fleet

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider      = errors.New("fleet: unknown provider")
	ErrMissingCredentials   = errors.New("fleet: missing credentials")
	ErrAuthenticationFailed = errors.New("fleet: authentication failed")
	ErrMalformedResponse    = errors.New("fleet: malformed provider response")
	ErrDateRangeTooLarge    = errors.New("fleet: trip date range too large")
)

// RequestError reports a non-2xx provider response, carrying the HTTP status
// and the response body for diagnosis.
type RequestError struct {
	Provider ProviderType
	Status   int
	Body     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fleet: %s request failed with status %d: %s", e.Provider, e.Status, e.Body)
}

// IsAuthStatus reports whether the response status indicates rejected
// credentials rather than a transient or server-side failure.
func (e *RequestError) IsAuthStatus() bool {
	return e.Status == 401 || e.Status == 403
}
