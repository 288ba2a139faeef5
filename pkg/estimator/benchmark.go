package estimator

import (
	"fmt"

	"github.com/dos-group/group-adaptive-scheduler/pkg/persistence"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// Benchmark is a composite estimator that fans UpdateApp out to every
// inner estimator (so several learning strategies can be compared against
// identical input) and delegates ranking to the first.
type Benchmark struct {
	inner []*Complementarity
}

// NewBenchmark wraps inner estimators; inner must be non-empty.
func NewBenchmark(inner []*Complementarity) *Benchmark {
	return &Benchmark{inner: inner}
}

// UpdateApp records the datapoint against every inner estimator.
func (b *Benchmark) UpdateApp(target *types.Application, peers []*types.Application, observedRate float64) {
	for _, e := range b.inner {
		e.UpdateApp(target, peers, observedRate)
	}
}

// BestAppIndex delegates ranking to the first inner estimator.
func (b *Benchmark) BestAppIndex(scheduled []types.NamedWeight, candidates []*types.Application) int {
	return b.inner[0].BestAppIndex(scheduled, candidates)
}

// ArgsortJobs delegates ranking to the first inner estimator.
func (b *Benchmark) ArgsortJobs(scheduled []types.NamedWeight, candidates []*types.Application) []int {
	return b.inner[0].ArgsortJobs(scheduled, candidates)
}

// BestGroupIndex delegates ranking to the first inner estimator.
func (b *Benchmark) BestGroupIndex(scheduled []types.NamedWeight, candidates []*types.Application) (string, string) {
	return b.inner[0].BestGroupIndex(scheduled, candidates)
}

// Save persists every inner estimator, each under its own suffixed path.
func (b *Benchmark) Save(w persistence.Writer, path string) error {
	for i, e := range b.inner {
		if err := e.Save(w, fmt.Sprintf("%s.%d", path, i)); err != nil {
			return fmt.Errorf("save benchmark estimator %d: %w", i, err)
		}
	}
	return nil
}

// Print logs every inner estimator's snapshot.
func (b *Benchmark) Print() {
	for _, e := range b.inner {
		e.Print()
	}
}
