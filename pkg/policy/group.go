package policy

import (
	"math/rand"

	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// DefaultGroupJobsToPeek is GroupAdaptive's and GroupAdaptiveExtend's
// default peek-window size.
const DefaultGroupJobsToPeek = 6

func removeAt(idx []int, i int) []int {
	return append(idx[:i:i], idx[i+1:]...)
}

// placeWithGroup assigns app to a cluster slot: if existingGroup carries no
// preference, the app starts a fresh slot (SLOT_1, or SLOT_2 if something
// is already running); otherwise it colocates with the slot of a running
// app from existingGroup.
func placeWithGroup(ctx *Context, app *types.Application, existingGroup string) error {
	if existingGroup == "" {
		slot := types.Slot1
		if ctx.Cluster.HasApplicationRunning() {
			slot = types.Slot2
		}
		app.Slot = slot
		return placeOnNodes(app, ctx.Cluster.NodesInSlot(slot))
	}

	var coLocated *types.Application
	for _, nw := range ctx.Cluster.ApplicationsByName(false) {
		if nw.App.Group == existingGroup {
			coLocated = nw.App
			break
		}
	}
	if coLocated == nil {
		return nil
	}

	app.Slot = coLocated.Slot
	var nodes []*types.Node
	for addr := range coLocated.Nodes {
		nodes = append(nodes, ctx.Cluster.Node(addr))
	}
	return placeOnNodes(app, nodes)
}

func placeOnNodes(app *types.Application, nodes []*types.Node) error {
	for _, node := range nodes {
		if app.RemainingContainers() == 0 {
			break
		}
		if node.Available() <= 0 {
			continue
		}
		if _, err := place(app, node, defaultPlaceChunk); err != nil {
			return err
		}
	}
	return nil
}

// groupSelectLoop is the selection loop shared by GroupAdaptive and
// GroupAdaptiveExtend: narrow the peek window by the estimator's preferred
// group, picking among matches via pickMatched, until one fits or the
// window is exhausted.
func groupSelectLoop(ctx *Context, index []int, scheduledWeighted []types.NamedWeight, available int, pickMatched func(matchedLocal []int) int) (*types.Application, string, error) {
	for len(index) > 0 {
		candidates := make([]*types.Application, len(index))
		for i, qi := range index {
			candidates[i] = ctx.At(qi)
		}

		bestGroupToSchedule, bestExistingGroup := ctx.Estimator.BestGroupIndex(scheduledWeighted, candidates)

		var matchedLocal []int
		if bestGroupToSchedule != "" {
			for li, qi := range index {
				if ctx.At(qi).Group == bestGroupToSchedule {
					matchedLocal = append(matchedLocal, li)
				}
			}
		}

		var localChosen int
		if len(matchedLocal) == 0 {
			localChosen = ctx.Rand.Intn(len(index))
		} else {
			localChosen = matchedLocal[pickMatched(matchedLocal)]
		}

		queueIdx := index[localChosen]
		app := ctx.At(queueIdx)
		if app.NumContainers <= available {
			return ctx.Pop(queueIdx), bestExistingGroup, nil
		}

		index = removeAt(index, localChosen)
	}

	return nil, "", ErrNoApplicationCanBeScheduled
}

// NewGroupAdaptive builds the GroupAdaptive policy: group-aware selection
// via the estimator's BestGroupIndex, placement by cluster slot.
func NewGroupAdaptive(jobsToPeek int) *Policy {
	if jobsToPeek <= 0 {
		jobsToPeek = DefaultGroupJobsToPeek
	}
	p := &Policy{
		Name:         "group-adaptive",
		JobsToPeek:   jobsToPeek,
		WaitingLimit: -1,
	}
	p.GetApplicationToSchedule = func(ctx *Context) (*types.Application, string, error) {
		scheduledWeighted := ctx.Cluster.ApplicationsByName(false)
		available := ctx.Cluster.AvailableContainers()
		index := peekWindow(ctx, p.JobsToPeek)
		bumpWaitingTimes(ctx, index)

		return groupSelectLoop(ctx, index, scheduledWeighted, available, func(matched []int) int {
			return ctx.Rand.Intn(len(matched))
		})
	}
	p.PlaceContainers = placeWithGroup
	return p
}

// DefaultWaitingLimitMultiple is GroupAdaptiveExtend's waiting-limit
// default expressed as a multiple of jobsToPeek.
const DefaultWaitingLimitMultiple = 2

// NewGroupAdaptiveExtend builds the GroupAdaptiveExtend policy: adds a
// waiting-time fairness override ahead of GroupAdaptive's selection, and
// replaces its uniform draw among matched candidates with one weighted by
// waiting time.
func NewGroupAdaptiveExtend(jobsToPeek, waitingLimit int) *Policy {
	if jobsToPeek <= 0 {
		jobsToPeek = DefaultGroupJobsToPeek
	}
	if waitingLimit == -1 {
		waitingLimit = DefaultWaitingLimitMultiple * jobsToPeek
	}
	p := &Policy{
		Name:         "group-adaptive-extend",
		JobsToPeek:   jobsToPeek,
		WaitingLimit: waitingLimit,
	}
	p.GetApplicationToSchedule = func(ctx *Context) (*types.Application, string, error) {
		scheduledWeighted := ctx.Cluster.ApplicationsByName(false)
		available := ctx.Cluster.AvailableContainers()
		index := peekWindow(ctx, p.JobsToPeek)

		if ctx.ScheduledAppsNum > 2 {
			var lateApp *types.Application
			lateIdx := -1
			for _, qi := range index {
				ctx.At(qi).WaitingTime++
				if ctx.At(qi).WaitingTime > p.WaitingLimit {
					if lateApp == nil || ctx.At(qi).WaitingTime > lateApp.WaitingTime {
						lateApp = ctx.At(qi)
						lateIdx = qi
					}
				}
			}
			if lateApp != nil {
				existingGroup := ""
				if len(scheduledWeighted) > 0 {
					existingGroup = scheduledWeighted[0].App.Group
				}
				return ctx.Pop(lateIdx), existingGroup, nil
			}
		}

		return groupSelectLoop(ctx, index, scheduledWeighted, available, func(matched []int) int {
			weights := make([]float64, len(matched))
			for i, li := range matched {
				weights[i] = float64(ctx.At(index[li]).WaitingTime)
			}
			return weightedChoice(ctx.Rand, weights)
		})
	}
	p.PlaceContainers = placeWithGroup
	return p
}

// weightedChoice draws an index with probability proportional to weights;
// when every weight is zero it falls back to a uniform draw.
func weightedChoice(r *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return r.Intn(len(weights))
	}

	target := r.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
