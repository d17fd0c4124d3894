package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clipbeat/internal/beats"
	"clipbeat/internal/config"
	"clipbeat/internal/logging"
	"clipbeat/internal/media/ffmpeg"
	"clipbeat/internal/media/ffprobe"
	"clipbeat/internal/notifications"
	"clipbeat/internal/queue"
	"clipbeat/internal/render"
	"clipbeat/internal/services"
	"clipbeat/internal/services/aubio"
	"clipbeat/internal/services/whisper"
	"clipbeat/internal/subtitles"
)

// ErrTaskNotFound is returned when a task identifier is unknown.
var ErrTaskNotFound = errors.New("task not found")

// ErrCancelled marks a task whose terminal outcome was cancellation. It is a
// distinct outcome, not a pipeline failure.
var ErrCancelled = errors.New("task cancelled")

// Prober exposes the media duration probe the pipeline needs.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Services bundles the external capability providers. Tests substitute fakes.
type Services struct {
	NewTranscriber func(model, language string) subtitles.Transcriber
	Detector       beats.Detector
	Prober         Prober
	Orchestrator   *render.Orchestrator
}

// DefaultServices wires the real external tools from configuration.
func DefaultServices(cfg *config.Config, logger *slog.Logger) Services {
	return Services{
		NewTranscriber: func(model, language string) subtitles.Transcriber {
			return whisper.NewService(whisper.Config{
				Binary:   cfg.Subtitles.WhisperBinary,
				Model:    model,
				Language: language,
			})
		},
		Detector: aubio.NewService(cfg.Beats.AubioBinary),
		Prober:   ffprobe.NewInspector(cfg.Render.FFprobeBinary),
		Orchestrator: render.NewOrchestrator(render.Options{
			Runner:            ffmpeg.NewRunner(cfg.Render.FFmpegBinary),
			Logger:            logger,
			Preset:            cfg.Render.Preset,
			AudioBitrate:      cfg.Render.AudioBitrate,
			KeepTempOnFailure: cfg.Render.KeepTempOnFailure,
		}),
	}
}

// Manager owns the task state machine: submission, concurrent execution,
// cancellation, progress fan-out, and result retrieval.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	services Services
	notifier notifications.Service

	pollInterval time.Duration
	workLock     *flock.Flock

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	slots   chan struct{}
	hubs    map[int64]*Hub
	cancels map[int64]context.CancelFunc
	wake    chan struct{}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, svcs Services) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxJobs := cfg.Workflow.MaxConcurrentJobs
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		services:     svcs,
		notifier:     notifications.NewService(cfg),
		pollInterval: time.Second,
		slots:        make(chan struct{}, maxJobs),
		hubs:         make(map[int64]*Hub),
		cancels:      make(map[int64]context.CancelFunc),
		wake:         make(chan struct{}, 1),
	}
}

// Start acquires the workspace lock, fails tasks stranded mid-stage by an
// earlier crash, and begins dispatching pending tasks.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	if err := m.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(m.cfg.Paths.WorkspaceDir, "clipbeat.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return errors.New("workspace is locked by another clipbeat instance")
	}
	m.workLock = lock

	if failed, err := m.store.FailStuckProcessing(ctx); err != nil {
		m.logger.Warn("fail stuck tasks", logging.Error(err))
	} else if failed > 0 {
		m.logger.Info("failed tasks stranded by previous run", logging.Int64("count", failed))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.dispatch(runCtx)
	return nil
}

// Stop halts dispatching, cancels in-flight tasks, and releases the lock.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	lock := m.workLock
	m.workLock = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	if lock != nil {
		_ = lock.Unlock()
	}
}

// Submit validates the spec and enqueues a task. Validation failures surface
// synchronously and the job never enters the queue.
func (m *Manager) Submit(ctx context.Context, spec JobSpec) (*queue.Task, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	raw, err := spec.Marshal()
	if err != nil {
		return nil, err
	}

	task, err := m.store.NewTask(ctx, raw)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.hubs[task.ID] = NewHub()
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return task, nil
}

// Observe attaches a progress observer to a task. The channel carries events
// published after subscription and closes after the terminal event. A task
// already terminal yields its terminal marker immediately.
func (m *Manager) Observe(ctx context.Context, taskID int64) (<-chan Event, error) {
	task, err := m.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	m.mu.Lock()
	hub, ok := m.hubs[taskID]
	if !ok {
		hub = NewHub()
		m.hubs[taskID] = hub
	}
	m.mu.Unlock()

	if task.IsTerminal() && !hub.Closed() {
		hub.Publish(terminalEvent(task))
	}
	return hub.Subscribe(), nil
}

// Cancel requests cooperative cancellation. A pending task is cancelled
// immediately; a running one is interrupted at its current stage.
func (m *Manager) Cancel(ctx context.Context, taskID int64) error {
	task, err := m.store.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if task.IsTerminal() {
		return nil
	}

	m.mu.Lock()
	cancelRun, running := m.cancels[taskID]
	m.mu.Unlock()
	if running {
		cancelRun()
		return nil
	}

	task.SetCancelled()
	if err := m.store.Update(ctx, task); err != nil {
		return err
	}
	m.hubFor(taskID).Publish(terminalEvent(task))
	return nil
}

// Result returns the artifact locator of a completed task. Polling before
// the terminal state fails with a not-ready marker; a cancelled task reports
// cancellation as its own outcome.
func (m *Manager) Result(ctx context.Context, taskID int64) (string, error) {
	task, err := m.store.GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", ErrTaskNotFound
	}

	switch task.Status {
	case queue.StatusCompleted:
		return task.ArtifactPath, nil
	case queue.StatusFailed:
		return "", services.Wrap(services.ErrRender, "result", "retrieve", task.ErrorMessage, nil)
	case queue.StatusCancelled:
		return "", ErrCancelled
	default:
		return "", services.Wrap(services.ErrNotReady, "result", "retrieve",
			fmt.Sprintf("task %d is %s", taskID, task.Status), nil)
	}
}

// dispatch claims pending tasks as execution slots free up. It is the only
// goroutine reading the pending queue, so claiming needs no extra locking.
func (m *Manager) dispatch(ctx context.Context) {
	defer m.wg.Done()

	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			m.sweepExpired(ctx)
			continue
		default:
		}

		task, err := m.store.NextForStatuses(ctx, queue.StatusPending)
		if err != nil {
			m.logger.Error("fetch next pending task", logging.Error(err))
			m.waitForWork(ctx)
			continue
		}
		if task == nil {
			m.waitForWork(ctx)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case m.slots <- struct{}{}:
		}

		// Register the cancel func before claiming so a concurrent Cancel
		// always either cancels the task context or persists the cancelled
		// status first, in which case the claim fails its transition check
		// and the task is never resurrected.
		taskCtx, cancelRun := context.WithCancel(ctx)
		m.mu.Lock()
		m.cancels[task.ID] = cancelRun
		m.mu.Unlock()

		// Claim before spawning so the next loop iteration skips it.
		task.Status = queue.StatusTranscribing
		task.SetProgress(EventStageWhisper, "transcription started", 0)
		if err := m.store.Update(ctx, task); err != nil {
			m.logger.Warn("claim task", logging.Int64(logging.FieldTaskID, task.ID), logging.Error(err))
			m.mu.Lock()
			delete(m.cancels, task.ID)
			m.mu.Unlock()
			cancelRun()
			<-m.slots
			continue
		}

		m.wg.Add(1)
		go m.runTask(taskCtx, cancelRun, task)
	}
}

func (m *Manager) waitForWork(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) sweepExpired(ctx context.Context) {
	retention := time.Duration(m.cfg.Workflow.RetentionHours) * time.Hour
	if retention <= 0 {
		return
	}
	removed, err := m.store.SweepExpired(ctx, time.Now().Add(-retention))
	if err != nil {
		m.logger.Warn("sweep expired tasks", logging.Error(err))
		return
	}
	if removed > 0 {
		m.logger.Info("swept expired tasks", logging.Int64("count", removed))
		m.mu.Lock()
		for id, hub := range m.hubs {
			if hub.Closed() {
				delete(m.hubs, id)
			}
		}
		m.mu.Unlock()
	}
}

// runTask drives one claimed task through every stage. The task context and
// cancel func are created by dispatch so cancellation has no blind spot
// between the claim and the worker starting up.
func (m *Manager) runTask(ctx context.Context, cancelRun context.CancelFunc, task *queue.Task) {
	defer m.wg.Done()
	defer func() { <-m.slots }()
	defer cancelRun()

	defer func() {
		m.mu.Lock()
		delete(m.cancels, task.ID)
		m.mu.Unlock()
	}()

	correlationID := uuid.NewString()
	logger := m.logger.With(
		logging.Int64(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldCorrelationID, correlationID),
	)
	ctxWithTask := services.WithRequestID(services.WithTaskID(ctx, task.ID), correlationID)

	spec, err := UnmarshalJobSpec(task.JobSpecJSON)
	if err != nil {
		m.failTask(task, err)
		return
	}

	workDir := filepath.Join(m.cfg.Paths.WorkspaceDir, fmt.Sprintf("task-%d", task.ID))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		m.failTask(task, fmt.Errorf("create task workspace: %w", err))
		return
	}

	run := &taskRun{
		manager: m,
		task:    task,
		spec:    spec,
		hub:     m.hubFor(task.ID),
		workDir: workDir,
	}

	err = m.runStages(ctxWithTask, logger, run)
	switch {
	case err == nil:
		run.hub.Publish(Event{Stage: EventStageDone, Message: task.ArtifactPath, Percent: 100})
		logger.Info("task completed", logging.String("artifact", task.ArtifactPath))
		if notifyErr := m.notifier.NotifyTaskCompleted(context.WithoutCancel(ctx), task.ID, task.ArtifactPath); notifyErr != nil {
			logger.Warn("send completion notification", logging.Error(notifyErr))
		}
		_ = os.RemoveAll(workDir)
	case errors.Is(err, context.Canceled):
		task.SetCancelled()
		if updateErr := m.store.Update(context.WithoutCancel(ctx), task); updateErr != nil {
			logger.Error("persist cancellation", logging.Error(updateErr))
		}
		run.hub.Publish(terminalEvent(task))
		logger.Info("task cancelled")
		_ = os.RemoveAll(workDir)
	default:
		m.failTask(task, err)
		logger.Error("task failed", logging.Error(err))
		if notifyErr := m.notifier.NotifyTaskFailed(context.WithoutCancel(ctx), task.ID, task.ErrorMessage); notifyErr != nil {
			logger.Warn("send failure notification", logging.Error(notifyErr))
		}
		if !m.cfg.Render.KeepTempOnFailure {
			_ = os.RemoveAll(workDir)
		}
	}
}

// runStages executes the stage table in order. A stage failure stops the
// walk; cancellation is honored between and within stages.
func (m *Manager) runStages(ctx context.Context, logger *slog.Logger, run *taskRun) error {
	for i, stg := range run.stages() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The claim already moved the task into the first processing status.
		if i > 0 {
			run.task.Status = stg.processingStatus
			run.task.SetProgress(stg.eventStage, fmt.Sprintf("%s started", stg.name), 0)
			if err := m.store.Update(ctx, run.task); err != nil {
				return fmt.Errorf("persist processing transition: %w", err)
			}
			run.hub.Publish(Event{Stage: stg.eventStage, Message: fmt.Sprintf("%s started", stg.name), Percent: 0})
		}

		stageStart := time.Now()
		stageLogger := logger.With(logging.String(logging.FieldStage, stg.name))
		stageLogger.Info("stage started")

		if err := stg.handler.Prepare(ctx, run.task); err != nil {
			return err
		}
		if err := stg.handler.Execute(ctx, run.task); err != nil {
			return err
		}

		run.task.Status = stg.doneStatus
		if err := m.store.Update(ctx, run.task); err != nil {
			return fmt.Errorf("persist stage result: %w", err)
		}
		stageLogger.Info("stage completed", logging.Duration("stage_duration", time.Since(stageStart)))
	}
	return nil
}

func (m *Manager) failTask(task *queue.Task, err error) {
	task.SetFailed(services.Message(err))
	if updateErr := m.store.Update(context.Background(), task); updateErr != nil {
		m.logger.Error("persist failure", logging.Int64(logging.FieldTaskID, task.ID), logging.Error(updateErr))
	}
	m.hubFor(task.ID).Publish(terminalEvent(task))
}

func (m *Manager) hubFor(taskID int64) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	hub, ok := m.hubs[taskID]
	if !ok {
		hub = NewHub()
		m.hubs[taskID] = hub
	}
	return hub
}

// terminalEvent maps a terminal task state onto its stream marker.
func terminalEvent(task *queue.Task) Event {
	switch task.Status {
	case queue.StatusCompleted:
		return Event{Stage: EventStageDone, Message: task.ArtifactPath, Percent: 100}
	case queue.StatusCancelled:
		return Event{Stage: EventStageCancelled, Message: queue.CancelledMessage, Percent: 0}
	default:
		return Event{Stage: EventStageError, Message: task.ErrorMessage, Percent: 0}
	}
}
