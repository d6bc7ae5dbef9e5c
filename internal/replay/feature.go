package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/replaykit/replaykit/internal/catalog"
	"github.com/replaykit/replaykit/internal/config"
	"github.com/replaykit/replaykit/internal/executor"
	"github.com/replaykit/replaykit/internal/lifecycle"
	"github.com/replaykit/replaykit/internal/processor"
	"github.com/replaykit/replaykit/internal/recorder"
	"github.com/replaykit/replaykit/internal/rum"
	"github.com/replaykit/replaykit/internal/sampler"
	"github.com/replaykit/replaykit/internal/scheduler"
	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/internal/upload"
	"github.com/replaykit/replaykit/internal/writer"
	"github.com/replaykit/replaykit/pkg/types"
)

// catalogRegistrar routes closed segments and persisted resources into the
// upload catalog. Runs on the background queue.
type catalogRegistrar struct {
	catalog *catalog.Catalog
	log     telemetry.Logger
}

func (r *catalogRegistrar) SegmentClosed(seg writer.ClosedSegment) {
	err := r.catalog.Register(context.Background(), catalog.Entry{
		ID:            seg.ID.String(),
		Kind:          catalog.KindSegment,
		ApplicationID: seg.ApplicationID,
		SessionID:     seg.SessionID,
		ViewID:        seg.ViewID,
		ObjectPath:    seg.ObjectPath,
		RecordCount:   seg.RecordCount,
		StartMs:       seg.StartMs,
		EndMs:         seg.EndMs,
		SizeBytes:     seg.RawBytes,
		Privacy:       string(seg.Privacy),
	})
	if err != nil {
		r.log.Errorf("replay: failed to register segment %s: %v", seg.ID, err)
	}
}

func (r *catalogRegistrar) ResourcePersisted(res types.Resource, objectPath string) {
	err := r.catalog.Register(context.Background(), catalog.Entry{
		ID:          res.ID,
		Kind:        catalog.KindResource,
		ObjectPath:  objectPath,
		ContentType: res.ContentType,
		SizeBytes:   int64(len(res.Data)),
	})
	if err != nil {
		r.log.Errorf("replay: failed to register resource %s: %v", res.ID, err)
	}
}

// Feature is the session replay composition root. It constructs and owns the
// scheduler, coordinator, recorder, processors, writer, catalog, storage, and
// uploader; nothing in the pipeline is process-global.
type Feature struct {
	cfg       *config.Config
	log       telemetry.Logger
	stats     *telemetry.PipelineStats
	bus       *rum.Bus
	states    *lifecycle.Observer
	mainQ     *executor.Serial
	bgQ       *executor.Serial
	store     storage.ObjectStorage
	cat       *catalog.Catalog
	segWriter *writer.SegmentWriter
	registrar *catalogRegistrar
	coord     *Coordinator
	sched     *scheduler.Scheduler
	uploader  *upload.Uploader
	sessionID string

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds the feature from configuration and the host's tree provider.
func New(cfg *config.Config, provider recorder.TreeProvider, log telemetry.Logger) (*Feature, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	if log == nil {
		log = telemetry.NopLogger{}
	}

	store, err := buildStorage(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}

	stats := telemetry.NewPipelineStats()
	bus := rum.NewBus(32)
	states := lifecycle.NewObserver(4)
	mainQ := executor.NewSerial("main")
	bgQ := executor.NewSerial("replay-processing")

	registrar := &catalogRegistrar{catalog: cat, log: log}

	segWriter := writer.New(writer.Config{
		MaxBytes: cfg.Replay.MaxSegmentBytes,
		MaxSpan:  cfg.Replay.MaxSegmentDuration,
		Privacy:  cfg.PrivacyLevel(),
	}, store, registrar, log, stats)

	snapshots := processor.NewSnapshotProcessor(bgQ, segWriter, bus, log, stats)
	resources := processor.NewResourceProcessor(bgQ, store, registrar, log, stats)

	rec := recorder.New(provider, cfg.Replay.InlineImageThreshold)
	smp := sampler.New(cfg.EffectiveSamplingRate())

	coord := NewCoordinator(smp, rec, snapshots, resources, bus, cfg.PrivacyLevel(), log, stats)
	sched := scheduler.New(cfg.Replay.TickInterval, mainQ, states, coord.Tick, log, stats)

	f := &Feature{
		cfg:       cfg,
		log:       log,
		stats:     stats,
		bus:       bus,
		states:    states,
		mainQ:     mainQ,
		bgQ:       bgQ,
		store:     store,
		cat:       cat,
		segWriter: segWriter,
		registrar: registrar,
		coord:     coord,
		sched:     sched,
		sessionID: uuid.NewString(),
	}

	if cfg.Upload.Enabled {
		builder := upload.NewRequestBuilder(cfg.Upload.Endpoint)
		f.uploader = upload.NewUploader(cat, store, builder, nil,
			cfg.Upload.Interval, cfg.Upload.BatchSize, log, stats)
	}

	return f, nil
}

func buildStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	default:
		return storage.NewLocalStorage(cfg.Storage.Path)
	}
}

// Start begins recording. Idempotent while running.
func (f *Feature) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running || f.stopped {
		return
	}
	f.running = true

	var ctx context.Context
	ctx, f.cancel = context.WithCancel(context.Background())

	// Re-register segments orphaned by a previous run before new ones close.
	f.bgQ.Submit(func() {
		writer.Recover(ctx, f.store, f.segmentKnown, f.registrar, f.log)
	})

	// Force-close open segments when the app backgrounds; the scheduler
	// suspends itself from the same observer.
	stateCh := f.states.Subscribe("replay-feature")
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for state := range stateCh {
			if state == lifecycle.StateBackground {
				f.bgQ.Submit(f.segWriter.CloseAll)
			}
		}
	}()

	if f.uploader != nil {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.uploader.Run(ctx)
		}()
	}

	f.coord.Start()
	f.sched.Start()
	f.log.Infof("replay: recording started session=%s interval=%v sampling=%v%%",
		f.sessionID, f.cfg.Replay.TickInterval, f.cfg.EffectiveSamplingRate())
}

// segmentKnown reports whether the catalog already tracks a segment id.
func (f *Feature) segmentKnown(id string) bool {
	known, err := f.cat.Has(context.Background(), id)
	if err != nil {
		f.log.Warnf("replay: catalog lookup failed for %s: %v", id, err)
		return true // do not re-register on a broken catalog
	}
	return known
}

// Stop halts recording, drains queued background work so partial segments
// flush, makes the uploader's final pass, and releases resources. Terminal:
// a stopped feature cannot be restarted.
func (f *Feature) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	f.stopped = true
	f.mu.Unlock()

	f.sched.Stop()
	f.coord.Stop()

	// Drain the main queue first: a tick already submitted may still enqueue
	// background work.
	f.mainQ.Close()

	f.bgQ.Submit(f.segWriter.CloseAll)
	f.bgQ.Close()

	f.states.Unsubscribe("replay-feature")
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()

	if err := f.cat.Close(); err != nil {
		f.log.Warnf("replay: failed to close catalog: %v", err)
	}
	f.log.Infof("replay: recording stopped session=%s", f.sessionID)
}

// Bus returns the RUM context channel. The RUM collaborator publishes
// context updates here and may subscribe for replay-availability events.
func (f *Feature) Bus() *rum.Bus {
	return f.bus
}

// Lifecycle returns the application state observer the host adapter feeds.
func (f *Feature) Lifecycle() *lifecycle.Observer {
	return f.states
}

// Stats returns the pipeline diagnostic counters.
func (f *Feature) Stats() *telemetry.PipelineStats {
	return f.stats
}

// SessionID returns the recording session identifier.
func (f *Feature) SessionID() string {
	return f.sessionID
}

// State returns the coordinator state.
func (f *Feature) State() State {
	return f.coord.State()
}
