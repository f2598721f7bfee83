package circle

import "fmt"

// AuthError reports a login attempt rejected by the authorization
// endpoint, or a login response that carried no usable session.
type AuthError struct {
	StatusCode int
	Reason     string
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authorization failed (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("authorization rejected with status %d", e.StatusCode)
}

// HTTPError reports a transport-level failure or an undecodable
// response body.
type HTTPError struct {
	URL string
	Err error
}

func (e *HTTPError) Error() string { return fmt.Sprintf("request %s: %v", e.URL, e.Err) }

func (e *HTTPError) Unwrap() error { return e.Err }

// StatusError reports a non-success response status on a path where
// the caller may keep previously fetched data instead of failing.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s: unexpected status %d", e.URL, e.StatusCode)
}
