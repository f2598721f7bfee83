// Command logicircle is a small host for the Logi Circle camera
// client: it authenticates, enumerates the account's cameras, and
// either prints them, dumps snapshots or activities once, or keeps
// polling snapshots to disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/sergeymaysak/logicircle/internal/adapter/driven/circle"
	"github.com/sergeymaysak/logicircle/internal/application"
	"github.com/sergeymaysak/logicircle/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"api_base", cfg.APIBase,
		"email", cfg.Email,
		"poll_interval", cfg.PollInterval,
		"snapshot_timeout", cfg.SnapshotTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := circle.NewHTTPClient()
	if err != nil {
		return err
	}

	session, err := circle.NewSessionWithBaseURL(cfg.Email, cfg.Password, httpClient, cfg.APIBase)
	if err != nil {
		return err
	}
	registry := circle.NewRegistry(session)

	cameras, err := application.SetupWithTimeout(ctx, registry, cfg.SnapshotTimeout)
	if err != nil {
		return fmt.Errorf("setup failed, retry after fixing: %w", err)
	}

	command := "cameras"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "cameras":
		return listCameras(cameras)
	case "snapshot":
		return dumpSnapshots(ctx, cameras, cfg.SnapshotDir)
	case "activities":
		return dumpActivities(ctx, cameras)
	case "watch":
		sink := &dirSink{dir: cfg.SnapshotDir}
		poller := application.NewSnapshotPoller(cameras, sink, cfg.PollInterval)
		poller.Start(ctx)
		return nil
	default:
		return fmt.Errorf("unknown command %q: expected cameras, snapshot, activities or watch", command)
	}
}

// listCameras prints one line per registered camera.
func listCameras(cameras []*application.Camera) error {
	for _, cam := range cameras {
		fmt.Printf("%s\t%s\t%s\n", cam.Device().AccessoryID(), cam.Device().NodeID(), cam.Name())
	}
	return nil
}

// dumpSnapshots writes one snapshot per camera into dir.
func dumpSnapshots(ctx context.Context, cameras []*application.Camera, dir string) error {
	sink := &dirSink{dir: dir}
	for _, cam := range cameras {
		data := cam.Image(ctx)
		if data == nil {
			slog.Error("no image available", "camera", cam.Name())
			continue
		}
		if err := sink.WriteSnapshot(ctx, cam.Name(), data); err != nil {
			return err
		}
	}
	return nil
}

// dumpActivities prints each camera's activity events as raw JSON lines.
func dumpActivities(ctx context.Context, cameras []*application.Camera) error {
	for _, cam := range cameras {
		events, err := cam.Device().FetchActivities(ctx)
		if err != nil {
			slog.Error("activity fetch failed", "camera", cam.Name(), "error", err)
			continue
		}
		fmt.Printf("%s: %d activities\n", cam.Name(), len(events))
		for _, ev := range events {
			fmt.Println(string(ev))
		}
	}
	return nil
}

// dirSink writes snapshot frames to a directory, one file per camera,
// overwritten on every poll cycle.
type dirSink struct {
	dir string
}

func (s *dirSink) WriteSnapshot(_ context.Context, cameraName string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, sanitizeName(cameraName)+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	slog.Debug("snapshot written", "camera", cameraName, "path", path, "bytes", len(data))
	return nil
}

// sanitizeName makes a camera display name safe to use as a file name.
func sanitizeName(name string) string {
	mapper := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}
	sanitized := strings.Map(mapper, name)
	if sanitized == "" {
		return "camera"
	}
	return sanitized
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
