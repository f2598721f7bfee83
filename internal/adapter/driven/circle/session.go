// Package circle implements the camera ports against the Logi Circle
// cloud video service.
package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the control-plane endpoint of the cloud service.
const DefaultBaseURL = "https://video.logi.com"

// sessionCookie is the cookie issued by the authorization endpoint and
// required on every authenticated request.
const sessionCookie = "prod_session"

// authState tracks where the session stands in its lifecycle. It is
// transitioned only by login outcomes and observed 401 responses, so
// it cannot drift from what the service last reported.
type authState int

const (
	stateUnauthenticated authState = iota
	stateAuthenticated
	stateExpired
)

// Session owns the credentials and authentication state for one
// account. Every accessory derived from it shares the same Session;
// login attempts are funneled through a single-flight group so
// concurrent callers wait on one in-flight login instead of stacking
// redundant ones. The session cookie itself lives in the transport's
// cookie jar, not in this struct.
type Session struct {
	email    string
	password string
	base     *url.URL
	http     *http.Client

	login singleflight.Group

	mu    sync.Mutex
	state authState
}

// NewSession creates a Session against the production service
// endpoint. httpClient must carry a cookie jar.
func NewSession(email, password string, httpClient *http.Client) (*Session, error) {
	return NewSessionWithBaseURL(email, password, httpClient, DefaultBaseURL)
}

// NewSessionWithBaseURL creates a Session against an alternate service
// endpoint. This constructor is intended for testing, allowing an
// httptest server to stand in for the service.
func NewSessionWithBaseURL(email, password string, httpClient *http.Client, baseURL string) (*Session, error) {
	if httpClient == nil || httpClient.Jar == nil {
		return nil, fmt.Errorf("http client with a cookie jar is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Session{
		email:    email,
		password: password,
		base:     u,
		http:     httpClient,
	}, nil
}

// NewHTTPClient builds the http.Client a Session expects: a cookie jar
// keyed by registrable domain, default transport otherwise.
func NewHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &http.Client{Jar: jar}, nil
}

// NeedsLogin reports whether the next authenticated request must be
// preceded by a login: the state machine is not in Authenticated, or
// the cookie jar no longer holds the session cookie (jar-side expiry
// is invisible to the state machine). Derived on every call.
func (s *Session) NeedsLogin() bool {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	return st != stateAuthenticated || !s.hasSessionCookie()
}

// Login authenticates with the stored credentials. On success the
// service's session cookie lands in the transport's jar and the state
// machine moves to Authenticated; any failure leaves the session
// Unauthenticated.
func (s *Session) Login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"email":    s.email,
		"password": s.password,
	})
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	u := s.controlURL("api", "accounts", "authorization")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.setState(stateUnauthenticated)
		return &HTTPError{URL: u, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.setState(stateUnauthenticated)
		return &AuthError{StatusCode: resp.StatusCode}
	}

	if !s.hasSessionCookie() {
		s.setState(stateUnauthenticated)
		return &AuthError{StatusCode: resp.StatusCode, Reason: "no " + sessionCookie + " cookie in response"}
	}

	s.setState(stateAuthenticated)
	slog.Debug("session established", "email", s.email)
	return nil
}

// EnsureAuthenticated logs in when the session needs it and is a no-op
// otherwise. Concurrent callers share one in-flight login; callers
// queued behind a login that just finished observe its result through
// the state machine instead of triggering another.
func (s *Session) EnsureAuthenticated(ctx context.Context) error {
	if !s.NeedsLogin() {
		return nil
	}

	_, err, _ := s.login.Do("login", func() (any, error) {
		if !s.NeedsLogin() {
			return nil, nil
		}
		return nil, s.Login(ctx)
	})
	return err
}

// FetchJSON issues an authenticated GET and decodes the JSON response
// body into dst. The response status is recorded for the state machine
// whatever the outcome of decoding.
func (s *Session) FetchJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return &HTTPError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	s.RecordStatus(resp.StatusCode)

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &HTTPError{URL: rawURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// RecordStatus feeds an observed response status into the auth state
// machine. Every authenticated request reports its status here; a 401
// expires the session so the next operation logs in first.
func (s *Session) RecordStatus(code int) {
	if code == http.StatusUnauthorized {
		s.setState(stateExpired)
	}
}

func (s *Session) setState(st authState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) hasSessionCookie() bool {
	for _, c := range s.http.Jar.Cookies(s.base) {
		if c.Name == sessionCookie {
			return true
		}
	}
	return false
}

// controlURL joins path segments onto the control-plane base URL.
func (s *Session) controlURL(parts ...string) string {
	return s.base.JoinPath(parts...).String()
}
