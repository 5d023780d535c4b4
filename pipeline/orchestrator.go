package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"homesite_sync/metrics"
	"homesite_sync/models"
	"homesite_sync/storage"
)

var ErrUnknownStep = errors.New("unknown step")

// Journal records step runs; storage.SQLiteStore implements it.
type Journal interface {
	CreateRun(run *models.ScrapeRun) (int64, error)
	UpdateRun(run *models.ScrapeRun) error
	Log(runID *int64, level models.LogLevel, message, step string) error
}

type Orchestrator struct {
	steps   map[string]Step
	order   []string
	journal Journal
	metrics *metrics.Metrics
	logger  *zap.Logger

	paused atomic.Bool
	// run serializes steps; services are not safe for concurrent runs.
	run sync.Mutex
}

func NewOrchestrator(steps []Step, journal Journal, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		steps:   make(map[string]Step, len(steps)),
		journal: journal,
		metrics: m,
		logger:  logger,
	}
	for _, s := range steps {
		o.Register(s)
	}
	return o
}

func (o *Orchestrator) Register(step Step) {
	if _, exists := o.steps[step.Name]; !exists {
		o.order = append(o.order, step.Name)
	}
	o.steps[step.Name] = step
}

// Steps lists registered steps in registration order.
func (o *Orchestrator) Steps() []Step {
	out := make([]Step, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.steps[name])
	}
	return out
}

func (o *Orchestrator) HasStep(name string) bool {
	_, ok := o.steps[name]
	return ok
}

// RunStep runs one step under a journal record. Item failures are in the
// returned stats; only a step that could not run at all returns an error.
func (o *Orchestrator) RunStep(ctx context.Context, name string, opts Options) (models.StepStats, error) {
	step, ok := o.steps[name]
	if !ok {
		return models.StepStats{}, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}

	o.run.Lock()
	defer o.run.Unlock()

	run := &models.ScrapeRun{
		RunUUID:   uuid.NewString(),
		Step:      name,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if o.journal != nil {
		id, err := o.journal.CreateRun(run)
		if err != nil {
			return models.StepStats{}, fmt.Errorf("create run: %w", err)
		}
		run.ID = id
	}
	log := o.logger.With(zap.String("run_id", run.RunUUID), zap.String("step", name))
	o.log(log, run, models.LogLevelInfo, "starting step")

	if o.metrics != nil {
		o.metrics.StepsRunning.Inc()
		defer o.metrics.StepsRunning.Dec()
	}

	stats, err := step.Run(ctx, opts)

	now := time.Now()
	run.FinishedAt = &now
	run.Apply(stats)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Message = err.Error()
		o.log(log, run, models.LogLevelError, fmt.Sprintf("step failed: %v", err))
	} else {
		run.Status = models.RunStatusCompleted
		run.Message = summary(stats)
		o.log(log, run, models.LogLevelInfo, "step completed: "+run.Message)
	}
	if o.journal != nil {
		if uerr := o.journal.UpdateRun(run); uerr != nil {
			log.Warn("update run failed", zap.Error(uerr))
		}
	}
	o.metrics.ObserveStep(name, run.Status, run.Duration(), stats)

	return stats, err
}

// RunAll runs the full sync in order and stops at the first step that
// fails outright. It does nothing while paused.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	return o.RunAllWith(ctx, Options{})
}

// RunAllWith is RunAll with filters applied to every step.
func (o *Orchestrator) RunAllWith(ctx context.Context, opts Options) error {
	if o.IsPaused() {
		o.logger.Info("pipeline is paused, skipping run")
		return nil
	}
	for _, name := range FullSync {
		if !o.HasStep(name) {
			continue
		}
		if _, err := o.RunStep(ctx, name, opts); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (o *Orchestrator) Pause() {
	o.paused.Store(true)
	o.logger.Info("pipeline paused")
}

func (o *Orchestrator) Resume() {
	o.paused.Store(false)
	o.logger.Info("pipeline resumed")
}

func (o *Orchestrator) IsPaused() bool {
	return o.paused.Load()
}

// HandleCommand executes one queued command.
func (o *Orchestrator) HandleCommand(ctx context.Context, cmd *models.Command) error {
	params, err := storage.ParseCommandParams(cmd)
	if err != nil {
		return err
	}

	switch cmd.Command {
	case models.CmdRunAll:
		return o.RunAllWith(ctx, OptionsFromParams(params))
	case models.CmdRunStep:
		if o.IsPaused() {
			o.logger.Info("pipeline is paused, skipping step", zap.String("step", params.Step))
			return nil
		}
		_, err := o.RunStep(ctx, params.Step, OptionsFromParams(params))
		return err
	case models.CmdPause:
		o.Pause()
	case models.CmdResume:
		o.Resume()
	default:
		return fmt.Errorf("unknown command: %s", cmd.Command)
	}
	return nil
}

func (o *Orchestrator) MarshalStatus() ([]byte, error) {
	names := make([]string, len(o.order))
	copy(names, o.order)
	return json.Marshal(map[string]any{
		"paused": o.IsPaused(),
		"steps":  names,
	})
}

func (o *Orchestrator) log(log *zap.Logger, run *models.ScrapeRun, level models.LogLevel, message string) {
	switch level {
	case models.LogLevelError:
		log.Error(message)
	case models.LogLevelWarn:
		log.Warn(message)
	default:
		log.Info(message)
	}
	if o.journal != nil && run.ID != 0 {
		if err := o.journal.Log(&run.ID, level, message, run.Step); err != nil {
			log.Warn("journal log failed", zap.Error(err))
		}
	}
}

func summary(s models.StepStats) string {
	msg := fmt.Sprintf("%d processed, %d succeeded, %d skipped, %d errors", s.Processed, s.Succeeded, s.Skipped, s.Errors)
	if len(s.Unmatched) > 0 {
		msg += fmt.Sprintf(", %d unmatched", len(s.Unmatched))
	}
	return msg
}
