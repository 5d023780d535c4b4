// Package admin exposes the daemon over HTTP: health, metrics, the run
// journal and the command queue.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"homesite_sync/models"
	"homesite_sync/pipeline"
)

// CommandStore is the journal and queue the handlers read and write.
type CommandStore interface {
	EnqueueCommand(cmd models.CommandType, params models.CommandParams) (int64, error)
	RecentRuns(limit int) ([]models.ScrapeRun, error)
	RunLogs(runID int64) ([]models.ScrapeLog, error)
}

type Server struct {
	orch     *pipeline.Orchestrator
	store    CommandStore
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	http     *http.Server
}

func New(addr string, orch *pipeline.Orchestrator, store CommandStore, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{orch: orch, store: store, gatherer: gatherer, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	router.GET("/status", s.status)
	router.GET("/runs", s.listRuns)
	router.GET("/runs/:id/logs", s.runLogs)
	router.POST("/runs", s.enqueue(models.CmdRunAll))
	router.POST("/runs/:step", s.runStep)
	router.POST("/pause", s.enqueue(models.CmdPause))
	router.POST("/resume", s.enqueue(models.CmdResume))
	return router
}

func (s *Server) Start() error {
	s.logger.Info("admin server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	steps := make([]gin.H, 0)
	for _, step := range s.orch.Steps() {
		steps = append(steps, gin.H{"name": step.Name, "description": step.Description})
	}
	c.JSON(http.StatusOK, gin.H{
		"paused":    s.orch.IsPaused(),
		"steps":     steps,
		"full_sync": pipeline.FullSync,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		s.internalError(c, "list runs", err)
		return
	}
	if runs == nil {
		runs = []models.ScrapeRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) runLogs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	logs, err := s.store.RunLogs(id)
	if err != nil {
		s.internalError(c, "run logs", err)
		return
	}
	if logs == nil {
		logs = []models.ScrapeLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) runStep(c *gin.Context) {
	step := c.Param("step")
	if !s.orch.HasStep(step) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown step: " + step})
		return
	}

	var params models.CommandParams
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	params.Step = step
	s.queue(c, models.CmdRunStep, params)
}

func (s *Server) enqueue(cmd models.CommandType) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.queue(c, cmd, models.CommandParams{})
	}
}

func (s *Server) queue(c *gin.Context, cmd models.CommandType, params models.CommandParams) {
	id, err := s.store.EnqueueCommand(cmd, params)
	if err != nil {
		s.internalError(c, "enqueue command", err)
		return
	}
	s.logger.Info("command queued", zap.Int64("command_id", id), zap.String("command", string(cmd)), zap.String("step", params.Step))
	c.JSON(http.StatusAccepted, gin.H{"id": id, "command": cmd, "params": params})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
