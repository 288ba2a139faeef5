package updater

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/log"
	"github.com/dos-group/group-adaptive-scheduler/pkg/metrics"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// DefaultInterval is the default period between estimator updates.
const DefaultInterval = 60 * time.Second

// Estimator is the subset of estimator.Complementarity/estimator.Benchmark
// the updater depends on.
type Estimator interface {
	UpdateApp(target *types.Application, peers []*types.Application, observedRate float64)
	Print()
}

// Locker is satisfied by *sync.Mutex; the scheduler passes its own lock so
// the updater can serialize with admission when the estimator is not
// itself safe for concurrent updates.
type Locker interface {
	Lock()
	Unlock()
}

// Updater is a recurring timer that snapshots cluster state and feeds
// leave-one-out observations into the estimator. It never mutates the
// queue or cluster topology — only estimator state.
type Updater struct {
	cluster         *cluster.Cluster
	estimator       Estimator
	lock            Locker
	interval        time.Duration
	printEstimation bool

	logger zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates an updater. lock is the scheduler's own critical-section
// lock; it is acquired around each tick's estimator update.
func New(c *cluster.Cluster, e Estimator, lock Locker, interval time.Duration, printEstimation bool) *Updater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Updater{
		cluster:         c,
		estimator:       e,
		lock:            lock,
		interval:        interval,
		printEstimation: printEstimation,
		logger:          log.WithComponent("updater"),
	}
}

// Start begins the periodic update loop on its own goroutine.
func (u *Updater) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopCh != nil {
		return // already running
	}
	u.stopCh = make(chan struct{})
	u.done = make(chan struct{})

	go u.run(u.stopCh, u.done)
}

// Stop cancels the periodic updater. Idempotent: calling it twice, or
// before Start, is a no-op.
func (u *Updater) Stop() {
	u.mu.Lock()
	stopCh := u.stopCh
	done := u.done
	u.stopCh = nil
	u.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (u *Updater) run(stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.tick()
		case <-stopCh:
			return
		}
	}
}

func (u *Updater) tick() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.EstimatorUpdateLatency)

	u.lock.Lock()
	observations := u.cluster.AppsUsage()
	u.lock.Unlock()

	for _, obs := range observations {
		if len(obs.Apps) == 0 || !obs.Sample.IsNotIdle() {
			metrics.EstimatorSamplesSkippedIdle.Inc()
			continue
		}
		rate := obs.Sample.Rate()
		for _, pair := range LeaveOneOut(len(obs.Apps)) {
			target := obs.Apps[pair.Out]
			peers := make([]*types.Application, len(pair.Rest))
			for i, idx := range pair.Rest {
				peers[i] = obs.Apps[idx]
			}

			u.lock.Lock()
			u.estimator.UpdateApp(target, peers, rate)
			u.lock.Unlock()

			metrics.EstimatorSamplesObserved.Inc()
		}
	}

	if u.printEstimation {
		u.estimator.Print()
	}

	u.logger.Debug().Int("nodes", len(observations)).Msg("estimator update tick complete")
}

// LeaveOnePair is one leave-one-out datapoint: Out is the left-out index,
// Rest is every other index in the original slice, in order.
type LeaveOnePair struct {
	Out  int
	Rest []int
}

// LeaveOneOut returns, for a slice of length n, every (out, rest) pairing:
// n pairs total, each holding one index out and the remaining n-1 indices.
// Resolves the open question in spec.md §9: out is always a single
// integer index, never a one-element slice.
func LeaveOneOut(n int) []LeaveOnePair {
	pairs := make([]LeaveOnePair, n)
	for out := 0; out < n; out++ {
		rest := make([]int, 0, n-1)
		for i := 0; i < n; i++ {
			if i != out {
				rest = append(rest, i)
			}
		}
		pairs[out] = LeaveOnePair{Out: out, Rest: rest}
	}
	return pairs
}
