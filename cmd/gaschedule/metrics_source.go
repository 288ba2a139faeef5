package main

import (
	"math/rand"

	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// syntheticMetrics stands in for a real monitoring backend: it reports a
// uniformly random, always-active usage rate per node. Useful for running
// an experiment file end to end without wiring a real metrics source.
type syntheticMetrics struct {
	rnd *rand.Rand
}

func newSyntheticMetrics(seed int64) *syntheticMetrics {
	return &syntheticMetrics{rnd: rand.New(rand.NewSource(seed))}
}

func (s *syntheticMetrics) Sample(_ string) types.UsageSample {
	return types.StaticRate{NotIdle: true, RateVal: s.rnd.Float64()}
}
