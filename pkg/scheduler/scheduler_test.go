package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/estimator"
	"github.com/dos-group/group-adaptive-scheduler/pkg/policy"
	"github.com/dos-group/group-adaptive-scheduler/pkg/resourcemanager"
	"github.com/dos-group/group-adaptive-scheduler/pkg/telemetry"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
	"github.com/dos-group/group-adaptive-scheduler/pkg/updater"
)

func newTestClusterN(caps ...int) *cluster.Cluster {
	nodes := make([]*types.Node, len(caps))
	slots := make(map[string]types.ClusterSlot, len(caps))
	names := []string{"n1", "n2", "n3", "n4"}
	for i, c := range caps {
		nodes[i] = types.NewNode(names[i], c)
		slots[names[i]] = types.Slot1
	}
	return cluster.New(nodes, slots, nil)
}

type recordingReporter struct {
	summaries chan telemetry.Summary
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{summaries: make(chan telemetry.Summary, 1)}
}

func (r *recordingReporter) Report(s telemetry.Summary) {
	select {
	case r.summaries <- s:
	default:
	}
}

func newTestSchedulerRoundRobin(t *testing.T, caps ...int) (*Scheduler, *recordingReporter) {
	t.Helper()
	c := newTestClusterN(caps...)
	est := estimator.NewDefault()
	pol := policy.NewRoundRobin()
	rm := resourcemanager.NewInMemory(5 * time.Millisecond)
	reporter := newRecordingReporter()

	s := New(c, est, pol, rm, reporter, nil, "")
	upd := updater.New(c, est, s, time.Hour, false)
	s.AttachUpdater(upd)
	return s, reporter
}

func TestTrivialApplicationAdmitsAndRuns(t *testing.T) {
	s, reporter := newTestSchedulerRoundRobin(t, 4)
	app := types.NewApplication("job", "g1", 2)
	s.Add(app)

	s.Start()

	select {
	case summary := <-reporter.summaries:
		assert.Equal(t, 1, summary.ApplicationsScheduled)
	case <-time.After(2 * time.Second):
		t.Fatal("run never finalized")
	}

	assert.Zero(t, s.QueueLen())
}

func TestMultipleApplicationsAllAdmittedInCapacityOrder(t *testing.T) {
	s, reporter := newTestSchedulerRoundRobin(t, 4, 4)
	s.AddAll([]*types.Application{
		types.NewApplication("a", "g1", 2),
		types.NewApplication("b", "g1", 2),
		types.NewApplication("c", "g1", 2),
	})

	s.Start()

	select {
	case summary := <-reporter.summaries:
		assert.Equal(t, 3, summary.ApplicationsScheduled)
	case <-time.After(2 * time.Second):
		t.Fatal("run never finalized")
	}
}

func TestApplicationTooLargeForClusterNeverAdmits(t *testing.T) {
	s, _ := newTestSchedulerRoundRobin(t, 2)
	app := types.NewApplication("huge", "g1", 10)
	s.Add(app)

	s.Start()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, s.QueueLen(), "an application that can never fit stays queued, not dropped")
	assert.Zero(t, s.ScheduledApplications())

	s.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestSchedulerRoundRobin(t, 4)
	s.Start()
	s.Stop()
	require.NotPanics(t, func() { s.Stop() })
}
