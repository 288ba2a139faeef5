package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/log"
	"github.com/dos-group/group-adaptive-scheduler/pkg/metrics"
	"github.com/dos-group/group-adaptive-scheduler/pkg/persistence"
	"github.com/dos-group/group-adaptive-scheduler/pkg/policy"
	"github.com/dos-group/group-adaptive-scheduler/pkg/resourcemanager"
	"github.com/dos-group/group-adaptive-scheduler/pkg/telemetry"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
	"github.com/dos-group/group-adaptive-scheduler/pkg/updater"
)

// ErrNoApplicationCanBeScheduled re-exports the policy package's control-flow
// sentinel: a round found nothing admissible right now, not a fault.
var ErrNoApplicationCanBeScheduled = policy.ErrNoApplicationCanBeScheduled

// randomArrivalRate is the number of synthetic extra arrivals to draw after
// the Nth admission, cycling every 30 admissions. Carried over verbatim from
// the original implementation's background-arrival noise table.
var randomArrivalRate = [30]int{
	0, 0, 0, 0, 0, 1, 2, 0, 0, 0,
	1, 0, 2, 0, 2, 1, 0, 2, 2, 0,
	0, 1, 0, 0, 0, 0, 1, 0, 0, 0,
}

// Estimator is the subset of estimator.Complementarity/estimator.Benchmark
// the scheduler depends on directly: ranking (via policy.Estimator), snapshot
// persistence on finalize, and the Print dump.
type Estimator interface {
	policy.Estimator
	Save(w persistence.Writer, path string) error
	Print()
}

// ArrivalSource supplies an additional application when random-arrival
// simulation is active. A nil source disables the feature even if
// ActivateRandomArrival is set.
type ArrivalSource func() *types.Application

// Scheduler is the admission loop: it holds the pending queue, decides what
// to admit next via a Policy, places admitted applications onto the
// cluster, and hands them to a resource manager to actually run.
type Scheduler struct {
	mu      sync.Mutex
	queue   []*types.Application
	cluster *cluster.Cluster

	estimator       Estimator
	policy          *policy.Policy
	resourceManager resourcemanager.Manager
	updater         *updater.Updater
	telemetry       telemetry.Reporter

	rnd *rand.Rand

	ActivateRandomArrival bool
	ArrivalSource         ArrivalSource
	RoundInterval         time.Duration

	persistenceWriter persistence.Writer
	snapshotPath      string

	scheduledAppsNum int
	waitingTimes     []int
	startedAt        time.Time

	started bool
	stopped bool

	logger zerolog.Logger
}

// New builds a scheduler with no updater attached yet. persistenceWriter and
// snapshotPath may be left nil/empty if the caller doesn't want estimator
// snapshots persisted on finalize.
//
// The updater is wired in a second step via AttachUpdater because it needs
// the scheduler itself as its Locker (see Lock/Unlock below), and Go can't
// express that circular dependency in one constructor call.
func New(c *cluster.Cluster, est Estimator, pol *policy.Policy, rm resourcemanager.Manager, reporter telemetry.Reporter, persistenceWriter persistence.Writer, snapshotPath string) *Scheduler {
	return &Scheduler{
		cluster:           c,
		estimator:         est,
		policy:            pol,
		resourceManager:   rm,
		telemetry:         reporter,
		rnd:               rand.New(rand.NewSource(time.Now().UnixNano())),
		persistenceWriter: persistenceWriter,
		snapshotPath:      snapshotPath,
		logger:            log.WithComponent("scheduler"),
	}
}

// AttachUpdater wires the periodic estimator updater that Start will drive.
func (s *Scheduler) AttachUpdater(upd *updater.Updater) {
	s.updater = upd
}

// Lock and Unlock satisfy updater.Locker, letting the updater serialize its
// estimator reads and writes against the scheduler's own critical section.
func (s *Scheduler) Lock()   { s.mu.Lock() }
func (s *Scheduler) Unlock() { s.mu.Unlock() }

// Add enqueues a single application.
func (s *Scheduler) Add(app *types.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, app)
	metrics.QueueLength.Set(float64(len(s.queue)))
}

// AddAll enqueues a batch of applications, preserving order.
func (s *Scheduler) AddAll(apps []*types.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, apps...)
	metrics.QueueLength.Set(float64(len(s.queue)))
}

// Start records the run's start time, begins the estimator updater, and
// runs an initial admission round. Idempotent: a second Start is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	if s.updater != nil {
		s.updater.Start()
	}

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.scheduleLocked()
	}()
}

// Stop halts the estimator updater. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	if s.updater != nil {
		s.updater.Stop()
	}
}

// scheduleLocked drives one admission round: keep admitting while something
// fits, stopping as soon as the policy reports nothing schedulable. Callers
// must hold s.mu.
func (s *Scheduler) scheduleLocked() {
	for len(s.queue) > 0 {
		if err := s.scheduleApplicationLocked(); err != nil {
			if errors.Is(err, ErrNoApplicationCanBeScheduled) {
				metrics.NoApplicationCanBeScheduledTotal.Inc()
				return
			}
			s.logger.Error().Err(err).Msg("scheduling attempt failed")
			return
		}
		if s.RoundInterval > 0 {
			time.Sleep(s.RoundInterval)
		}
	}
}

// scheduleApplicationLocked performs one admission: select, decrement
// waiting time for the round that admits it, place, register as running,
// and hand off to the resource manager. Callers must hold s.mu.
func (s *Scheduler) scheduleApplicationLocked() error {
	ctx := &policy.Context{
		Queue:            &s.queue,
		Cluster:          s.cluster,
		Estimator:        s.estimator,
		Rand:             s.rnd,
		ScheduledAppsNum: s.scheduledAppsNum,
	}

	app, existingGroup, err := s.policy.GetApplicationToSchedule(ctx)
	if err != nil {
		return err
	}

	// A policy's selection is expected to already fit (baseSelect,
	// adaptiveSelect, and groupSelectLoop all check this themselves), but
	// GroupAdaptiveExtend's waiting-time fairness override picks the longest
	// waiting application without a fit check, so it is re-checked here
	// uniformly for every policy. An app that doesn't fit goes back to the
	// queue head rather than being admitted short of its container count.
	if app.NumContainers > s.cluster.AvailableContainers() {
		ctx.Prepend(app)
		return ErrNoApplicationCanBeScheduled
	}

	// The round that admits an application doesn't count against its own
	// wait: the bump already happened for every other round it spent queued.
	if app.WaitingTime != 0 {
		app.WaitingTime--
	}

	app.State = types.AppStatePlacing
	if err := s.policy.PlaceContainers(ctx, app, existingGroup); err != nil {
		app.Error = err
		app.State = types.AppStateFinished
		metrics.ApplicationsFailed.Inc()
		return fmt.Errorf("place containers for application %s: %w", app.ID, err)
	}

	s.cluster.AddRunning(app)
	s.scheduledAppsNum++
	s.waitingTimes = append(s.waitingTimes, app.WaitingTime)

	metrics.ApplicationsScheduled.Inc()
	metrics.WaitingTime.Observe(float64(app.WaitingTime))
	metrics.RunningApplications.Inc()
	metrics.QueueLength.Set(float64(len(s.queue)))

	if err := s.resourceManager.Start(context.Background(), app, s.onFinished); err != nil {
		return fmt.Errorf("start application %s: %w", app.ID, err)
	}

	s.drawRandomArrivals()

	return nil
}

// drawRandomArrivals appends synthetic work to the tail of the queue when
// random-arrival simulation is enabled, cycling through the 30-entry
// arrival-rate table by admission count. Callers must hold s.mu.
func (s *Scheduler) drawRandomArrivals() {
	if !s.ActivateRandomArrival || s.ArrivalSource == nil {
		return
	}
	n := randomArrivalRate[s.scheduledAppsNum%len(randomArrivalRate)]
	for i := 0; i < n; i++ {
		if extra := s.ArrivalSource(); extra != nil {
			s.queue = append(s.queue, extra)
		}
	}
}

// onFinished is the resource manager's completion callback: it frees the
// application's cluster footprint, and either finalizes the run (queue
// empty, nothing left running) or attempts another admission round.
func (s *Scheduler) onFinished(app *types.Application) {
	s.mu.Lock()
	app.State = types.AppStateFinished
	s.cluster.RemoveApplication(app)
	metrics.RunningApplications.Dec()

	done := len(s.queue) == 0 && !s.cluster.HasApplicationRunning()
	if !done {
		s.scheduleLocked()
	}
	s.mu.Unlock()

	if done {
		if err := s.finalize(); err != nil {
			s.logger.Error().Err(err).Msg("finalize failed")
		}
	}
}

// finalize stops the scheduler, persists the estimator's learned state if a
// writer was configured, and reports the run summary to telemetry.
func (s *Scheduler) finalize() error {
	s.Stop()

	var result *multierror.Error

	if s.persistenceWriter != nil && s.snapshotPath != "" {
		if err := s.estimator.Save(s.persistenceWriter, s.snapshotPath); err != nil {
			result = multierror.Append(result, fmt.Errorf("save estimator snapshot: %w", err))
		}
		if err := s.persistenceWriter.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close persistence writer: %w", err))
		}
	}

	s.mu.Lock()
	summary := telemetry.Summary{
		WaitingTimes:          append([]int(nil), s.waitingTimes...),
		Elapsed:               time.Since(s.startedAt),
		ApplicationsScheduled: s.scheduledAppsNum,
	}
	s.mu.Unlock()

	if s.telemetry != nil {
		s.telemetry.Report(summary)
	}

	s.logger.Info().
		Int("applications_scheduled", summary.ApplicationsScheduled).
		Dur("elapsed", summary.Elapsed).
		Msg("run finalized")

	return result.ErrorOrNil()
}

// QueueLen returns the current pending queue length.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// ScheduledApplications returns how many applications have been admitted so
// far this run.
func (s *Scheduler) ScheduledApplications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduledAppsNum
}
