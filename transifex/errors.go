package transifex

import "fmt"

// TransportError reports a request that failed or returned a non-2xx status.
// StatusCode is 0 when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not valid JSON or whose
// embedded YAML content cannot be decoded.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
