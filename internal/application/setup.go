package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sergeymaysak/logicircle/internal/domain/port/driven"
)

// Setup authenticates and enumerates the account's cameras, returning
// one host adapter per accessory. Any failure aborts the whole setup;
// the host surfaces it as a single "setup failed, retry after fixing"
// notification rather than a partial camera list.
func Setup(ctx context.Context, registry driven.CameraRegistry) ([]*Camera, error) {
	return SetupWithTimeout(ctx, registry, DefaultImageTimeout)
}

// SetupWithTimeout is Setup with a configurable per-image timeout for
// the created cameras.
func SetupWithTimeout(ctx context.Context, registry driven.CameraRegistry, imageTimeout time.Duration) ([]*Camera, error) {
	devices, err := registry.ListCameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("camera setup: %w", err)
	}

	cameras := make([]*Camera, 0, len(devices))
	for _, d := range devices {
		cameras = append(cameras, NewCameraWithTimeout(d, imageTimeout))
	}

	slog.Info("camera setup complete", "cameras", len(cameras))
	return cameras, nil
}
