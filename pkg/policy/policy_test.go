package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/estimator"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

func newTestCluster(nodeCaps ...int) *cluster.Cluster {
	nodes := make([]*types.Node, len(nodeCaps))
	slots := make(map[string]types.ClusterSlot, len(nodeCaps))
	for i, capacity := range nodeCaps {
		addr := []string{"n1", "n2", "n3", "n4"}[i]
		nodes[i] = types.NewNode(addr, capacity)
		slots[addr] = types.Slot1
	}
	return cluster.New(nodes, slots, nil)
}

func newTestContext(queue []*types.Application, c *cluster.Cluster) *Context {
	return &Context{
		Queue:     &queue,
		Cluster:   c,
		Estimator: estimator.NewDefault(),
		Rand:      rand.New(rand.NewSource(1)),
	}
}

func TestBaseSelectReturnsHeadWhenFits(t *testing.T) {
	c := newTestCluster(4)
	app := types.NewApplication("a", "g", 2)
	ctx := newTestContext([]*types.Application{app}, c)

	got, existingGroup, err := baseSelect(ctx)

	require.NoError(t, err)
	assert.Same(t, app, got)
	assert.Empty(t, existingGroup)
	assert.Zero(t, ctx.Len())
}

func TestBaseSelectErrorsWhenEmptyQueue(t *testing.T) {
	ctx := newTestContext(nil, newTestCluster(4))

	_, _, err := baseSelect(ctx)

	assert.ErrorIs(t, err, ErrNoApplicationCanBeScheduled)
}

func TestBaseSelectErrorsWhenDoesNotFit(t *testing.T) {
	c := newTestCluster(1)
	app := types.NewApplication("a", "g", 4)
	ctx := newTestContext([]*types.Application{app}, c)

	_, _, err := baseSelect(ctx)

	assert.ErrorIs(t, err, ErrNoApplicationCanBeScheduled)
	assert.Equal(t, 1, ctx.Len(), "a non-fitting head must stay queued")
}

func TestPlaceRandomPrefersNodesNotAlreadyHostingApp(t *testing.T) {
	c := newTestCluster(4, 4)
	app := types.NewApplication("a", "g", 8)
	app.Place(c.Node("n1"), 4)
	ctx := newTestContext(nil, c)

	n, err := placeRandom(ctx, app, 4)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Contains(t, app.Nodes, "n2")
}

func TestPlaceRandomLoopSpreadsAcrossNodesWithinOnePlacementCall(t *testing.T) {
	c := newTestCluster(4, 4)
	app := types.NewApplication("a", "g", 8)
	ctx := newTestContext(nil, c)

	require.NoError(t, placeRandomLoop(ctx, app))

	assert.Zero(t, app.RemainingContainers())
	assert.Len(t, c.Node("n1").Containers[app.ID], 4, "node occupancy must be visible to later chunks of the same placement")
	assert.Len(t, c.Node("n2").Containers[app.ID], 4)
}

func TestPlaceRoundRobinDrainsEmptyNodesFirst(t *testing.T) {
	c := newTestCluster(4, 4)
	app := types.NewApplication("a", "g", 8)
	ctx := newTestContext(nil, c)

	err := placeRoundRobin(ctx, app)

	require.NoError(t, err)
	assert.Zero(t, app.RemainingContainers())
	assert.Contains(t, app.Nodes, "n1")
	assert.Contains(t, app.Nodes, "n2")
}

func TestNewRandomPlacesAllContainers(t *testing.T) {
	c := newTestCluster(4, 4, 4)
	app := types.NewApplication("a", "g", 6)
	ctx := newTestContext([]*types.Application{app}, c)
	p := NewRandom()

	got, existingGroup, err := p.GetApplicationToSchedule(ctx)
	require.NoError(t, err)

	require.NoError(t, p.PlaceContainers(ctx, got, existingGroup))
	assert.Zero(t, got.RemainingContainers())
}

func TestNewRoundRobinPlacesAllContainers(t *testing.T) {
	c := newTestCluster(4, 4, 4)
	app := types.NewApplication("a", "g", 6)
	ctx := newTestContext([]*types.Application{app}, c)
	p := NewRoundRobin()

	got, existingGroup, err := p.GetApplicationToSchedule(ctx)
	require.NoError(t, err)

	require.NoError(t, p.PlaceContainers(ctx, got, existingGroup))
	assert.Zero(t, got.RemainingContainers())
}

func TestPeekWindowClampsToQueueLength(t *testing.T) {
	c := newTestCluster(4)
	apps := []*types.Application{
		types.NewApplication("a", "g", 1),
		types.NewApplication("b", "g", 1),
	}
	ctx := newTestContext(apps, c)

	idx := peekWindow(ctx, 8)

	assert.Equal(t, []int{0, 1}, idx)
}

func TestBumpWaitingTimesSkipsFirstTwoRounds(t *testing.T) {
	c := newTestCluster(4)
	apps := []*types.Application{types.NewApplication("a", "g", 1)}
	ctx := newTestContext(apps, c)
	ctx.ScheduledAppsNum = 2

	bumpWaitingTimes(ctx, []int{0})
	assert.Zero(t, apps[0].WaitingTime)

	ctx.ScheduledAppsNum = 3
	bumpWaitingTimes(ctx, []int{0})
	assert.Equal(t, 1, apps[0].WaitingTime)
}
