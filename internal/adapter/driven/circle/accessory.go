package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sergeymaysak/logicircle/internal/domain/model"
	"github.com/sergeymaysak/logicircle/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CameraDevice = (*Accessory)(nil)

// activityQuery is the fixed filter the activities endpoint expects:
// newest-first scan, capped at 80 events, all relevance levels.
var activityQuery = map[string]any{
	"extraFields":        []string{"activitySet"},
	"operator":           "<=",
	"limit":              80,
	"scanDirectionNewer": true,
	"filter":             "relevanceLevel = 0 OR relevanceLevel >= 1",
}

// Accessory implements the driven.CameraDevice port for one camera.
// It holds the shared *Session injected by the Registry; the Registry
// guarantees the session outlives every accessory derived from it.
type Accessory struct {
	session *Session

	mu   sync.Mutex
	spec model.AccessorySpec
}

func newAccessory(session *Session, spec model.AccessorySpec) *Accessory {
	return &Accessory{session: session, spec: spec}
}

// Name returns the display name as last reported by the service.
func (a *Accessory) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec.Name
}

// AccessoryID returns the service-assigned accessory identifier.
func (a *Accessory) AccessoryID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec.AccessoryID
}

// NodeID returns the media node host serving this camera's image.
func (a *Accessory) NodeID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec.NodeID
}

// RefreshInfo re-fetches this accessory's metadata. A response status
// >= 400 leaves the stored spec untouched and is returned as a
// *StatusError; composite callers log it and keep going.
func (a *Accessory) RefreshInfo(ctx context.Context) error {
	if err := a.session.EnsureAuthenticated(ctx); err != nil {
		return err
	}

	u := a.session.controlURL("api", "accessories", a.AccessoryID())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building accessory info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.session.http.Do(req)
	if err != nil {
		return &HTTPError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	a.session.RecordStatus(resp.StatusCode)

	if resp.StatusCode >= 400 {
		return &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	var spec model.AccessorySpec
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		return &HTTPError{URL: u, Err: fmt.Errorf("decoding accessory info: %w", err)}
	}

	a.mu.Lock()
	a.spec = spec
	a.mu.Unlock()
	return nil
}

// FetchSnapshot retrieves a fresh still image from the camera's media
// node. Metadata is refreshed first so the request uses current node
// routing; a refresh failure is logged and does not block the image.
// The second EnsureAuthenticated covers a session that expired during
// the refresh. Only the final image request can fail the caller.
func (a *Accessory) FetchSnapshot(ctx context.Context) ([]byte, error) {
	if err := a.session.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	if err := a.RefreshInfo(ctx); err != nil {
		slog.Warn("accessory info refresh failed", "accessory", a.AccessoryID(), "error", err)
	}

	if err := a.session.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	u := a.imageURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := a.session.http.Do(req)
	if err != nil {
		return nil, &HTTPError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	a.session.RecordStatus(resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{URL: u, Err: err}
	}
	return data, nil
}

// FetchActivities lists recorded activity events for this camera in
// the server's newest-first order. The response must carry an
// activities array; anything else is a decode failure, never an empty
// result.
func (a *Accessory) FetchActivities(ctx context.Context) ([]model.ActivityEvent, error) {
	if err := a.session.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(activityQuery)
	if err != nil {
		return nil, fmt.Errorf("encoding activity query: %w", err)
	}

	u := a.session.controlURL("api", "accessories", a.AccessoryID(), "activities")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building activities request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := a.session.http.Do(req)
	if err != nil {
		return nil, &HTTPError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	a.session.RecordStatus(resp.StatusCode)

	var decoded struct {
		Activities []model.ActivityEvent `json:"activities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &HTTPError{URL: u, Err: fmt.Errorf("decoding activities: %w", err)}
	}
	if decoded.Activities == nil {
		return nil, &HTTPError{URL: u, Err: fmt.Errorf("response has no activities field")}
	}
	return decoded.Activities, nil
}

// imageURL builds the media-node still-image URL. The anticache value
// is the current wall clock in milliseconds, defeating intermediary
// caching of the image endpoint.
func (a *Accessory) imageURL() string {
	u := url.URL{
		Scheme:   a.session.base.Scheme,
		Host:     a.NodeID(),
		Path:     "/api/accessories/" + a.AccessoryID() + "/image",
		RawQuery: fmt.Sprintf("anticache=%d", time.Now().UnixMilli()),
	}
	return u.String()
}
