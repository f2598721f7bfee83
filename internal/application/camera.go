// Package application contains the host-facing services built on the
// camera ports.
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sergeymaysak/logicircle/internal/domain/port/driven"
)

// DefaultImageTimeout bounds a single snapshot fetch on the
// host-facing image path.
const DefaultImageTimeout = 10 * time.Second

// DefaultFrameInterval is the polling hint exposed to hosts that
// render the snapshot feed as a frame sequence.
const DefaultFrameInterval = 200 * time.Millisecond

// Camera is the host-facing adapter around one camera device. Image
// degrades to the last successfully fetched frame on timeout or
// transport failure; camera consumers prefer a stale frame over a gap
// in the stream.
type Camera struct {
	device  driven.CameraDevice
	timeout time.Duration

	mu        sync.Mutex
	lastImage []byte
}

// NewCamera wraps a device with the default image timeout.
func NewCamera(device driven.CameraDevice) *Camera {
	return NewCameraWithTimeout(device, DefaultImageTimeout)
}

// NewCameraWithTimeout wraps a device with a caller-chosen timeout.
// Shorter timeouts are used by tests simulating slow transports.
func NewCameraWithTimeout(device driven.CameraDevice, timeout time.Duration) *Camera {
	return &Camera{device: device, timeout: timeout}
}

// Name returns the camera's display name.
func (c *Camera) Name() string { return c.device.Name() }

// FrameInterval returns the suggested delay between Image calls.
func (c *Camera) FrameInterval() time.Duration { return DefaultFrameInterval }

// Image returns a fresh snapshot, falling back to the last successful
// one when the bounded fetch fails. It returns nil until a first fetch
// has succeeded.
func (c *Camera) Image(ctx context.Context) []byte {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.device.FetchSnapshot(ctx)
	if err != nil {
		slog.Error("snapshot fetch failed, serving last image",
			"camera", c.device.AccessoryID(),
			"error", err,
		)
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lastImage
	}

	c.mu.Lock()
	c.lastImage = data
	c.mu.Unlock()
	return data
}

// Device exposes the underlying port for operations beyond the image
// path, such as metadata refresh and activity listing.
func (c *Camera) Device() driven.CameraDevice { return c.device }
