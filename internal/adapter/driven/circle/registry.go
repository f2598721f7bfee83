package circle

import (
	"context"

	"github.com/sergeymaysak/logicircle/internal/domain/model"
	"github.com/sergeymaysak/logicircle/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CameraRegistry = (*Registry)(nil)

// Registry enumerates the camera accessories registered to the account
// behind its Session. It owns the Session shared by the accessories it
// creates.
type Registry struct {
	session *Session
}

// NewRegistry creates a Registry on top of an authenticated session.
func NewRegistry(session *Session) *Registry {
	return &Registry{session: session}
}

// ListCameras fetches the accessory list and returns one device per
// spec, in server-provided order. Each call constructs fresh devices;
// none inherit identity from a prior enumeration. A login failure
// aborts the listing with no partial result.
func (r *Registry) ListCameras(ctx context.Context) ([]driven.CameraDevice, error) {
	if err := r.session.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	var specs []model.AccessorySpec
	if err := r.session.FetchJSON(ctx, r.session.controlURL("api", "accessories"), &specs); err != nil {
		return nil, err
	}

	cameras := make([]driven.CameraDevice, 0, len(specs))
	for _, spec := range specs {
		cameras = append(cameras, newAccessory(r.session, spec))
	}
	return cameras, nil
}
