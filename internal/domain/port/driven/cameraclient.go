package driven

import (
	"context"

	"github.com/sergeymaysak/logicircle/internal/domain/model"
)

// CameraDevice defines the driven port for one camera accessory
// registered with the cloud service. Implementations share a single
// authenticated session; each operation re-authenticates lazily before
// issuing its request.
type CameraDevice interface {
	Name() string
	AccessoryID() string
	NodeID() string

	// RefreshInfo re-fetches accessory metadata, replacing it in place
	// on success. A response status >= 400 leaves prior metadata
	// untouched and is reported as a soft error the caller may discard.
	RefreshInfo(ctx context.Context) error
	// FetchSnapshot retrieves a fresh still image (raw encoded bytes).
	FetchSnapshot(ctx context.Context) ([]byte, error)
	// FetchActivities lists recorded activity events, newest first.
	FetchActivities(ctx context.Context) ([]model.ActivityEvent, error)
}

// CameraRegistry defines the driven port for enumerating the camera
// accessories registered to an account.
type CameraRegistry interface {
	// ListCameras returns one device per registered accessory, in
	// server-provided order. An authentication failure aborts the
	// listing; no partial result is returned.
	ListCameras(ctx context.Context) ([]CameraDevice, error)
}
