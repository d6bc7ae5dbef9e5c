// Package replay wires the recording pipeline together: the coordinator
// state machine driven by scheduler ticks, and the feature composition root
// that owns every component's lifecycle.
package replay

import (
	"sync"
	"time"

	"github.com/replaykit/replaykit/internal/processor"
	"github.com/replaykit/replaykit/internal/recorder"
	"github.com/replaykit/replaykit/internal/rum"
	"github.com/replaykit/replaykit/internal/sampler"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

// State is the coordinator's recording state.
type State int

const (
	// StateStopped: recording is off.
	StateStopped State = iota
	// StateWaitingForContext: started, but RUM has no active session/view.
	StateWaitingForContext
	// StateRecording: an active RUM context exists and ticks are recorded.
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateWaitingForContext:
		return "waitingForContext"
	case StateRecording:
		return "recording"
	default:
		return "stopped"
	}
}

// Coordinator orchestrates one recording session. On each tick it reads the
// current RUM context, gates on the sampler (keyed by session and view id,
// so a view is recorded all-or-nothing within one session), captures
// synchronously on the main context, and
// hands the result off to the background processors without blocking.
type Coordinator struct {
	sampler   *sampler.Sampler
	recorder  *recorder.Recorder
	snapshots *processor.SnapshotProcessor
	resources *processor.ResourceProcessor
	bus       *rum.Bus
	privacy   types.PrivacyLevel
	log       telemetry.Logger
	stats     *telemetry.PipelineStats

	mu    sync.Mutex
	state State
}

// NewCoordinator creates a coordinator in the stopped state.
func NewCoordinator(smp *sampler.Sampler, rec *recorder.Recorder, snapshots *processor.SnapshotProcessor, resources *processor.ResourceProcessor, bus *rum.Bus, privacy types.PrivacyLevel, log telemetry.Logger, stats *telemetry.PipelineStats) *Coordinator {
	return &Coordinator{
		sampler:   smp,
		recorder:  rec,
		snapshots: snapshots,
		resources: resources,
		bus:       bus,
		privacy:   privacy,
		log:       log,
		stats:     stats,
	}
}

// Start transitions stopped -> waitingForContext.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		c.state = StateWaitingForContext
	}
}

// Stop transitions any state -> stopped. In-flight background work drains
// separately; stopping only withholds future captures.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateStopped
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tick runs on the main queue. The capture is synchronous and bounded: UI
// element state is only safely readable there, and the tick must finish
// before the next boundary fires.
func (c *Coordinator) Tick(now time.Time) {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return
	}

	ctx := c.bus.Current()
	if !ctx.IsValid() {
		// Session ended or no view yet: withhold recording. Not an error.
		c.state = StateWaitingForContext
		c.mu.Unlock()
		return
	}
	c.state = StateRecording
	c.mu.Unlock()

	if !c.sampler.Sample(ctx.SessionID, ctx.ViewID) {
		return
	}

	result := c.recorder.Capture(ctx.ViewID, now, c.privacy)
	c.stats.SnapshotCaptured(result.Placeholders)

	// Snapshot first, then its resources: both land on the same serial
	// queue, preserving relative order.
	c.snapshots.Submit(result.Snapshot, ctx)
	c.resources.Submit(result.Resources)

	c.bus.PublishReplayAvailable(ctx.ViewID)
}
