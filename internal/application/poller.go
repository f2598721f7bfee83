package application

import (
	"context"
	"log/slog"
	"time"
)

// SnapshotSink receives polled snapshot frames.
type SnapshotSink interface {
	WriteSnapshot(ctx context.Context, cameraName string, data []byte) error
}

// SnapshotPoller periodically fetches every camera's image and hands
// the frames to a sink. Per-camera failures are logged and do not stop
// the loop; the image path itself already degrades to the last known
// frame.
type SnapshotPoller struct {
	cameras  []*Camera
	sink     SnapshotSink
	interval time.Duration
}

// NewSnapshotPoller creates a poller over the given cameras.
func NewSnapshotPoller(cameras []*Camera, sink SnapshotSink, interval time.Duration) *SnapshotPoller {
	return &SnapshotPoller{
		cameras:  cameras,
		sink:     sink,
		interval: interval,
	}
}

// Start runs an immediate poll cycle, then polls on the configured
// interval. Start blocks until the context is canceled.
func (p *SnapshotPoller) Start(ctx context.Context) {
	p.pollAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("snapshot poller stopped")
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

// pollAll fetches one frame per camera and writes it to the sink.
func (p *SnapshotPoller) pollAll(ctx context.Context) {
	start := time.Now()

	var failures int
	for _, cam := range p.cameras {
		if ctx.Err() != nil {
			return
		}

		data := cam.Image(ctx)
		if data == nil {
			failures++
			continue
		}

		if err := p.sink.WriteSnapshot(ctx, cam.Name(), data); err != nil {
			slog.Error("snapshot write failed", "camera", cam.Name(), "error", err)
			failures++
		}
	}

	slog.Info("poll cycle complete",
		"cameras", len(p.cameras),
		"failures", failures,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
