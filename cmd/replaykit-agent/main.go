// Package main implements the replaykit-agent binary. It runs the recording
// pipeline against a simulated view tree so the full capture, diff, segment,
// and upload path can be exercised outside a host application.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/replaykit/replaykit/internal/config"
	"github.com/replaykit/replaykit/internal/recorder"
	"github.com/replaykit/replaykit/internal/replay"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

type flags struct {
	configPath    string
	applicationID string
	duration      time.Duration
	viewInterval  time.Duration
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to YAML or JSON config file")
	flag.StringVar(&f.applicationID, "app-id", "demo-app", "application identifier published in RUM context")
	flag.DurationVar(&f.duration, "duration", 0, "how long to record before exiting (0 runs until signal)")
	flag.DurationVar(&f.viewInterval, "view-interval", 5*time.Second, "interval between simulated view changes")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	cfg := config.DefaultConfig()
	if f.configPath != "" {
		loaded, err := config.LoadFromFile(f.configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	logger := telemetry.NewLogger(os.Stderr, cfg.Log.Level)

	sim := newSimulatedApp()
	feature, err := replay.New(cfg, sim, logger)
	if err != nil {
		log.Fatalf("Failed to initialize replay feature: %v", err)
	}

	feature.Start()
	log.Printf("Recording session %s (data dir %s)", feature.SessionID(), cfg.DataDir)

	// Publish an initial RUM context, then rotate views on a timer.
	feature.Bus().PublishContext(types.RUMContext{
		ApplicationID: f.applicationID,
		SessionID:     feature.SessionID(),
		ViewID:        sim.currentView(),
		Timestamp:     time.Now().UnixMilli(),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	viewTicker := time.NewTicker(f.viewInterval)
	defer viewTicker.Stop()

	var deadline <-chan time.Time
	if f.duration > 0 {
		deadline = time.After(f.duration)
	}

loop:
	for {
		select {
		case <-viewTicker.C:
			view := sim.nextView()
			feature.Bus().PublishContext(types.RUMContext{
				ApplicationID: f.applicationID,
				SessionID:     feature.SessionID(),
				ViewID:        view,
				Timestamp:     time.Now().UnixMilli(),
			})
			log.Printf("View changed to %s", view)
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down...", sig)
			break loop
		case <-deadline:
			log.Printf("Recording duration elapsed, shutting down...")
			break loop
		}
	}

	feature.Stop()
	printStats(feature.Stats().Snapshot())
}

func printStats(s telemetry.StatsSnapshot) {
	fmt.Printf("ticks fired=%d skipped=%d\n", s.TicksFired, s.TicksSkipped)
	fmt.Printf("snapshots captured=%d\n", s.SnapshotsCaptured)
	fmt.Printf("records written=%d dropped=%d\n", s.RecordsWritten, s.RecordsDropped)
	fmt.Printf("segments closed=%d discarded=%d\n", s.SegmentsClosed, s.SegmentsDiscarded)
	fmt.Printf("resources persisted=%d deduped=%d\n", s.ResourcesPersisted, s.ResourcesDeduped)
	fmt.Printf("uploads succeeded=%d failed=%d\n", s.UploadsSucceeded, s.UploadsFailed)
}

// simulatedApp produces a small view hierarchy that mutates between captures,
// standing in for a real UI toolkit adapter.
type simulatedApp struct {
	views   []string
	viewIdx int
	counter int
	rng     *rand.Rand
}

func newSimulatedApp() *simulatedApp {
	return &simulatedApp{
		views: []string{"view-home", "view-detail", "view-settings"},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *simulatedApp) currentView() string {
	return a.views[a.viewIdx]
}

func (a *simulatedApp) nextView() string {
	a.viewIdx = (a.viewIdx + 1) % len(a.views)
	return a.views[a.viewIdx]
}

// ViewTree returns the current simulated hierarchy. A label mutates every few
// calls so incremental records carry real mutations.
func (a *simulatedApp) ViewTree() []*recorder.Element {
	a.counter++
	root := &recorder.Element{
		ID:    "root",
		Frame: types.Rect{Width: 390, Height: 844},
		Children: []*recorder.Element{
			{
				ID:    "title",
				Frame: types.Rect{X: 16, Y: 60, Width: 358, Height: 32},
				Text:  "Replay Demo",
			},
			{
				ID:    "counter",
				Frame: types.Rect{X: 16, Y: 100, Width: 358, Height: 24},
				Text:  fmt.Sprintf("Updates: %d", a.counter/3),
			},
			{
				ID:      "search",
				Frame:   types.Rect{X: 16, Y: 140, Width: 358, Height: 44},
				Text:    "search query",
				IsInput: true,
			},
		},
	}
	if a.rng.Intn(4) == 0 {
		root.Children = append(root.Children, &recorder.Element{
			ID:    fmt.Sprintf("toast-%d", a.counter),
			Frame: types.Rect{X: 16, Y: 780, Width: 358, Height: 40},
			Text:  "Saved",
		})
	}
	return []*recorder.Element{root}
}
