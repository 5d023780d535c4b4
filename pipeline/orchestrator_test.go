package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"homesite_sync/metrics"
	"homesite_sync/models"
	"homesite_sync/services"
	"homesite_sync/storage"
)

type recorder struct {
	calls []string
	opts  []Options
}

func (r *recorder) step(name string, stats models.StepStats, err error) Step {
	return Step{Name: name, Run: func(ctx context.Context, opts Options) (models.StepStats, error) {
		r.calls = append(r.calls, name)
		r.opts = append(r.opts, opts)
		return stats, err
	}}
}

func newJournal(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fullSyncSteps(r *recorder, failAt string) []Step {
	var steps []Step
	for _, name := range FullSync {
		var err error
		if name == failAt {
			err = errors.New("listing unavailable")
		}
		steps = append(steps, r.step(name, models.StepStats{Processed: 2, Succeeded: 2}, err))
	}
	return append(steps, r.step(StepCleanupAreas, models.StepStats{}, nil))
}

func TestRunAllOrder(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator(fullSyncSteps(r, ""), newJournal(t), nil, zaptest.NewLogger(t))

	require.NoError(t, o.RunAll(context.Background()))
	assert.Equal(t, FullSync, r.calls)
	assert.NotContains(t, r.calls, StepCleanupAreas)
}

func TestRunAllWithPassesFilters(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator(fullSyncSteps(r, ""), nil, nil, nil)

	require.NoError(t, o.RunAllWith(context.Background(), Options{State: "texas"}))
	require.Len(t, r.opts, len(FullSync))
	for _, opts := range r.opts {
		assert.Equal(t, "texas", opts.State)
	}
}

func TestRunAllStopsAtFailedStep(t *testing.T) {
	r := &recorder{}
	journal := newJournal(t)
	o := NewOrchestrator(fullSyncSteps(r, StepLinkAreas), journal, nil, nil)

	err := o.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), StepLinkAreas)
	assert.Equal(t, []string{StepCommunities, StepAreas, StepLinkAreas}, r.calls)

	runs, err := journal.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, StepLinkAreas, runs[0].Step)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, "listing unavailable", runs[0].Message)
	assert.Equal(t, models.RunStatusCompleted, runs[1].Status)
}

func TestRunStepJournalAndMetrics(t *testing.T) {
	r := &recorder{}
	journal := newJournal(t)
	m := metrics.New(prometheus.NewRegistry())
	stats := models.StepStats{Processed: 4, Succeeded: 2, Skipped: 1, Errors: 1, Unmatched: []string{"Aria (community: oak)"}}
	o := NewOrchestrator([]Step{r.step(StepLinkHousePlans, stats, nil)}, journal, m, nil)

	got, err := o.RunStep(context.Background(), StepLinkHousePlans, Options{State: "texas"})
	require.NoError(t, err)
	assert.Equal(t, stats, got)
	assert.Equal(t, "texas", r.opts[0].State)

	runs, err := journal.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 4, run.Processed)
	assert.Equal(t, 1, run.Errors)
	assert.NotEmpty(t, run.RunUUID)
	assert.NotNil(t, run.FinishedAt)
	assert.Contains(t, run.Message, "1 unmatched")

	logs, err := journal.RunLogs(run.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "starting step", logs[0].Message)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepRunsTotal.WithLabelValues(StepLinkHousePlans, "completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StepsRunning))
}

func TestRunStepUnknown(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, nil)
	_, err := o.RunStep(context.Background(), "nope", Options{})
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestPauseSkipsRunAll(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator(fullSyncSteps(r, ""), nil, nil, nil)
	o.Pause()
	require.NoError(t, o.RunAll(context.Background()))
	assert.Empty(t, r.calls)

	o.Resume()
	require.NoError(t, o.RunAll(context.Background()))
	assert.Len(t, r.calls, len(FullSync))
}

func TestHandleCommand(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator(fullSyncSteps(r, ""), nil, nil, nil)
	ctx := context.Background()

	params, _ := json.Marshal(models.CommandParams{Step: StepCleanupAreas, DryRun: true})
	require.NoError(t, o.HandleCommand(ctx, &models.Command{Command: models.CmdRunStep, Params: params}))
	assert.Equal(t, []string{StepCleanupAreas}, r.calls)
	assert.True(t, r.opts[0].DryRun)

	require.NoError(t, o.HandleCommand(ctx, &models.Command{Command: models.CmdPause}))
	assert.True(t, o.IsPaused())
	require.NoError(t, o.HandleCommand(ctx, &models.Command{Command: models.CmdRunStep, Params: params}))
	assert.Len(t, r.calls, 1)

	require.NoError(t, o.HandleCommand(ctx, &models.Command{Command: models.CmdResume}))
	assert.False(t, o.IsPaused())

	bad, _ := json.Marshal(models.CommandParams{Step: "nope"})
	assert.ErrorIs(t, o.HandleCommand(ctx, &models.Command{Command: models.CmdRunStep, Params: bad}), ErrUnknownStep)
	assert.Error(t, o.HandleCommand(ctx, &models.Command{Command: "explode"}))
}

func TestStepsKeepsRegistrationOrder(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator([]Step{r.step("b", models.StepStats{}, nil), r.step("a", models.StepStats{}, nil)}, nil, nil, nil)
	o.Register(r.step("b", models.StepStats{}, nil))

	var names []string
	for _, s := range o.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)

	status, err := o.MarshalStatus()
	require.NoError(t, err)
	assert.JSONEq(t, `{"paused":false,"steps":["b","a"]}`, string(status))
}

func seedDryRunStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Mutate(context.Background(),
		storage.CreateOrReplace(models.Document{"_id": "texas-oak-grove", "_type": models.TypeCommunity, "name": "Oak Grove"}),
		storage.CreateOrReplace(models.Document{
			"_id":          "texas-oak-grove-plan-aria",
			"_type":        models.TypeFloorPlan,
			"name":         "Aria",
			"communityRef": map[string]any{"_type": "reference", "_ref": "texas-oak-grove", "_weak": true},
		}),
		storage.CreateOrReplace(models.Document{"_id": "area-texasaustin", "_type": models.TypeArea, "name": "Austin"}),
	))
	return mem
}

func buildServices(store storage.DocumentStore) Services {
	return Services{
		Linker:      services.NewLinker(store, nil),
		Cleanup:     services.NewCleanupService(store, nil),
		Maintenance: services.NewMaintenanceService(store, nil),
	}
}

func runStepCommand(t *testing.T, o *Orchestrator, params models.CommandParams) {
	t.Helper()
	data, err := json.Marshal(params)
	require.NoError(t, err)
	require.NoError(t, o.HandleCommand(context.Background(), &models.Command{ID: 1, Command: models.CmdRunStep, Params: data}))
}

func TestQueuedDryRunDoesNotWrite(t *testing.T) {
	mem := seedDryRunStore(t)
	o := NewOrchestrator(DefaultSteps(mem, buildServices, zaptest.NewLogger(t)), nil, nil, nil)
	writes := len(mem.Log)

	runStepCommand(t, o, models.CommandParams{Step: StepLinkFloorPlans, DryRun: true})
	runStepCommand(t, o, models.CommandParams{Step: StepCleanupAreas, DryRun: true})

	assert.Len(t, mem.Log, writes)
	assert.Nil(t, mem.Get("texas-oak-grove")["floorPlans"])
	assert.NotNil(t, mem.Get("area-texasaustin"))

	runStepCommand(t, o, models.CommandParams{Step: StepLinkFloorPlans})

	assert.Len(t, mem.Log, writes+1)
	assert.NotNil(t, mem.Get("texas-oak-grove")["floorPlans"])
}

func TestDryRunStepReportsStats(t *testing.T) {
	mem := seedDryRunStore(t)
	o := NewOrchestrator(DefaultSteps(mem, buildServices, nil), nil, nil, nil)

	stats, err := o.RunStep(context.Background(), StepLinkFloorPlans, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Nil(t, mem.Get("texas-oak-grove")["floorPlans"])
}
