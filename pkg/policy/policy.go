package policy

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// ErrNoApplicationCanBeScheduled is a control-flow signal, not a fault: the
// current round cannot admit anything. It must never surface to callers
// beyond the round-loop boundary.
var ErrNoApplicationCanBeScheduled = errors.New("no application can be scheduled")

// ErrInvalidPlacement marks placement of zero or negative containers, or
// placement attempted with no candidate node. It is a programming error.
var ErrInvalidPlacement = errors.New("invalid placement")

// defaultPlaceChunk is the default number of containers placed on one node
// per placement call, matching the original's _place/_place_random default.
const defaultPlaceChunk = 4

// Estimator is the subset of estimator.Complementarity/estimator.Benchmark
// the placement policies depend on.
type Estimator interface {
	BestAppIndex(scheduled []types.NamedWeight, candidates []*types.Application) int
	ArgsortJobs(scheduled []types.NamedWeight, candidates []*types.Application) []int
	BestGroupIndex(scheduled []types.NamedWeight, candidates []*types.Application) (bestGroupToSchedule, bestExistingGroup string)
}

// Context bundles everything a policy function needs for one admission
// decision: the live queue (mutable through Pop/Prepend), the cluster, the
// estimator, the shared RNG, and how many applications have been admitted
// so far this run.
type Context struct {
	Queue            *[]*types.Application
	Cluster          *cluster.Cluster
	Estimator        Estimator
	Rand             *rand.Rand
	ScheduledAppsNum int
}

// Len returns the current queue length.
func (ctx *Context) Len() int { return len(*ctx.Queue) }

// At returns the queue entry at index i without removing it.
func (ctx *Context) At(i int) *types.Application { return (*ctx.Queue)[i] }

// Pop removes and returns the queue entry at index i.
func (ctx *Context) Pop(i int) *types.Application {
	q := *ctx.Queue
	app := q[i]
	*ctx.Queue = append(q[:i:i], q[i+1:]...)
	return app
}

// Prepend puts app back at the queue head, used to re-queue after a
// failed admission.
func (ctx *Context) Prepend(app *types.Application) {
	*ctx.Queue = append([]*types.Application{app}, *ctx.Queue...)
}

// peekWindow returns the indices [0, min(jobsToPeek, len(queue))).
func peekWindow(ctx *Context, jobsToPeek int) []int {
	n := jobsToPeek
	if ctx.Len() < n {
		n = ctx.Len()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// bumpWaitingTimes increments WaitingTime for every peek-window app, once
// the third admission onward (the first scheduling round only counts the
// last scheduled app out of four, per the original's comment).
func bumpWaitingTimes(ctx *Context, index []int) {
	if ctx.ScheduledAppsNum <= 2 {
		return
	}
	for _, i := range index {
		ctx.At(i).WaitingTime++
	}
}

// Policy is a capability record over the two operations every placement
// strategy must supply. The five strategies are peers that share
// placement helpers, never an interface hierarchy (see placeRoundRobin,
// shared by RoundRobin, Adaptive, GroupAdaptive, and GroupAdaptiveExtend).
type Policy struct {
	Name         string
	JobsToPeek   int
	WaitingLimit int // -1 means unset; GroupAdaptiveExtend resolves its own default

	GetApplicationToSchedule func(ctx *Context) (app *types.Application, existingGroup string, err error)
	PlaceContainers          func(ctx *Context, app *types.Application, existingGroup string) error
}

// place assigns up to k of app's unplaced containers to node. Placing zero
// is an error, matching spec.md's InvalidPlacement taxonomy.
func place(app *types.Application, node *types.Node, k int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: cannot place %d containers", ErrInvalidPlacement, k)
	}
	if node.Available() <= 0 {
		return 0, fmt.Errorf("%w: node %s has no free slots", ErrInvalidPlacement, node.Address)
	}
	placed := app.Place(node, k)
	if placed == 0 {
		return 0, fmt.Errorf("%w: nothing placed on node %s", ErrInvalidPlacement, node.Address)
	}
	return placed, nil
}

// placeRandom chooses uniformly among non-full nodes, preferring ones that
// don't already host app (to spread containers across the cluster),
// falling back to the unrestricted set if no preferred node exists.
func placeRandom(ctx *Context, app *types.Application, k int) (int, error) {
	nodes := ctx.Cluster.NonFullNodes()
	if len(nodes) == 0 {
		return 0, fmt.Errorf("%w: no non-full nodes available", ErrInvalidPlacement)
	}

	var preferred []*types.Node
	for _, n := range nodes {
		if len(n.Containers[app.ID]) == 0 {
			preferred = append(preferred, n)
		}
	}
	candidates := preferred
	if len(candidates) == 0 {
		candidates = nodes
	}

	node := candidates[ctx.Rand.Intn(len(candidates))]
	return place(app, node, k)
}

// placeRandomLoop places an app's containers entirely through placeRandom,
// the Random policy's only placement strategy.
func placeRandomLoop(ctx *Context, app *types.Application) error {
	scheduled := 0
	for scheduled < app.NumContainers {
		n, err := placeRandom(ctx, app, defaultPlaceChunk)
		if err != nil {
			return err
		}
		scheduled += n
	}
	return nil
}

// placeRoundRobin drains empty nodes first, one _place call per node, then
// falls back to placeRandom for any remaining containers. Shared by
// RoundRobin, Adaptive, GroupAdaptive, and GroupAdaptiveExtend.
func placeRoundRobin(ctx *Context, app *types.Application) error {
	empty := ctx.Cluster.EmptyNodes()
	scheduled := 0

	for len(empty) > 0 && scheduled < app.NumContainers {
		node := empty[len(empty)-1]
		empty = empty[:len(empty)-1]
		n, err := place(app, node, defaultPlaceChunk)
		if err != nil {
			return err
		}
		scheduled += n
	}

	for scheduled < app.NumContainers {
		n, err := placeRandom(ctx, app, defaultPlaceChunk)
		if err != nil {
			return err
		}
		scheduled += n
	}
	return nil
}

// baseSelect is the plain queue-head selection used by Random and
// RoundRobin: take the head of the queue if it fits, else signal that
// nothing can be scheduled right now.
func baseSelect(ctx *Context) (*types.Application, string, error) {
	if ctx.Len() == 0 {
		return nil, "", ErrNoApplicationCanBeScheduled
	}
	app := ctx.At(0)
	if app.NumContainers > ctx.Cluster.AvailableContainers() {
		return nil, "", ErrNoApplicationCanBeScheduled
	}
	return ctx.Pop(0), "", nil
}

// NewRandom builds the Random policy: repeatedly places containers at
// random non-full nodes until the app is fully placed.
func NewRandom() *Policy {
	return &Policy{
		Name:                     "random",
		WaitingLimit:             -1,
		GetApplicationToSchedule: baseSelect,
		PlaceContainers: func(ctx *Context, app *types.Application, _ string) error {
			return placeRandomLoop(ctx, app)
		},
	}
}

// NewRoundRobin builds the RoundRobin policy: drains empty nodes first,
// then falls back to random placement for the remainder.
func NewRoundRobin() *Policy {
	return &Policy{
		Name:                     "roundrobin",
		WaitingLimit:             -1,
		GetApplicationToSchedule: baseSelect,
		PlaceContainers: func(ctx *Context, app *types.Application, _ string) error {
			return placeRoundRobin(ctx, app)
		},
	}
}
