package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/models"
)

// Runner is what the scheduler drives; pipeline.Orchestrator implements it.
type Runner interface {
	RunAll(ctx context.Context) error
	HandleCommand(ctx context.Context, cmd *models.Command) error
}

// CommandQueue is the pending command table the daemon polls.
type CommandQueue interface {
	GetPendingCommands() ([]models.Command, error)
	MarkCommandProcessed(id int64) error
}

const defaultPollInterval = 2 * time.Second

type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Runner
	queue  CommandQueue
	logger *zap.Logger

	cron         *cron.Cron
	ticker       *time.Ticker
	pollInterval time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func New(cfg config.SchedulerConfig, runner Runner, queue CommandQueue, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:          cfg,
		runner:       runner,
		queue:        queue,
		logger:       logger,
		cron:         cron.New(),
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.queue != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.pollCommands(ctx)
		}()
	}

	switch {
	case s.cfg.Cron != "":
		s.logger.Info("starting scheduler", zap.String("cron", s.cfg.Cron))
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.runAll(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	case s.cfg.Interval > 0:
		s.logger.Info("starting scheduler", zap.Duration("interval", s.cfg.Interval))
		s.ticker = time.NewTicker(s.cfg.Interval)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.runAll(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	default:
		s.logger.Info("no schedule configured, daemon will only respond to commands")
	}
	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.runner.RunAll(ctx)
}

func (s *Scheduler) runAll(ctx context.Context) {
	if err := s.runner.RunAll(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.drainCommands(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drainCommands runs every pending command in queue order. A command is
// marked processed even when it fails so it is never retried.
func (s *Scheduler) drainCommands(ctx context.Context) {
	cmds, err := s.queue.GetPendingCommands()
	if err != nil {
		s.logger.Error("get commands failed", zap.Error(err))
		return
	}

	for i := range cmds {
		cmd := &cmds[i]
		log := s.logger.With(zap.Int64("command_id", cmd.ID), zap.String("command", string(cmd.Command)))
		log.Info("processing command")
		if err := s.runner.HandleCommand(ctx, cmd); err != nil {
			log.Error("command failed", zap.Error(err))
		}
		if err := s.queue.MarkCommandProcessed(cmd.ID); err != nil {
			log.Error("mark command processed failed", zap.Error(err))
		}
	}
}
