package policy

import "github.com/dos-group/group-adaptive-scheduler/pkg/types"

// DefaultAdaptiveJobsToPeek is Adaptive's default peek-window size.
const DefaultAdaptiveJobsToPeek = 8

// NewAdaptive builds the Adaptive policy: selection asks the estimator to
// rank the peek window against the currently-running apps, admitting the
// best-fitting candidate; placement reuses RoundRobin's.
func NewAdaptive(jobsToPeek int) *Policy {
	if jobsToPeek <= 0 {
		jobsToPeek = DefaultAdaptiveJobsToPeek
	}
	p := &Policy{
		Name:         "adaptive",
		JobsToPeek:   jobsToPeek,
		WaitingLimit: -1,
	}
	p.GetApplicationToSchedule = func(ctx *Context) (*types.Application, string, error) {
		return adaptiveSelect(ctx, p.JobsToPeek)
	}
	p.PlaceContainers = func(ctx *Context, app *types.Application, _ string) error {
		return placeRoundRobin(ctx, app)
	}
	return p
}

func adaptiveSelect(ctx *Context, jobsToPeek int) (*types.Application, string, error) {
	scheduledWeighted := ctx.Cluster.ApplicationsByName(true)
	available := ctx.Cluster.AvailableContainers()

	index := peekWindow(ctx, jobsToPeek)
	bumpWaitingTimes(ctx, index)

	for len(index) > 0 {
		candidates := make([]*types.Application, len(index))
		for i, qi := range index {
			candidates[i] = ctx.At(qi)
		}

		localBest := ctx.Estimator.BestAppIndex(scheduledWeighted, candidates)
		queueIdx := index[localBest]
		bestApp := ctx.At(queueIdx)

		if bestApp.NumContainers <= available {
			return ctx.Pop(queueIdx), "", nil
		}

		index = append(index[:localBest:localBest], index[localBest+1:]...)
	}

	return nil, "", ErrNoApplicationCanBeScheduled
}
