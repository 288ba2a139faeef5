package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationStartsQueuedAndUnplaced(t *testing.T) {
	app := NewApplication("job", "g1", 3)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "job", app.Name)
	assert.Equal(t, "g1", app.Group)
	assert.Equal(t, AppStateQueued, app.State)
	assert.Equal(t, 3, app.RemainingContainers())
	assert.Zero(t, app.PlacedContainers())
	assert.Empty(t, app.Nodes)
}

func TestPlacePartialLeavesRemaining(t *testing.T) {
	app := NewApplication("job", "g1", 4)
	n1 := NewNode("n1", 4)

	placed := app.Place(n1, 2)

	assert.Equal(t, 2, placed)
	assert.Equal(t, 2, app.PlacedContainers())
	assert.Equal(t, 2, app.RemainingContainers())
	assert.Equal(t, AppStateQueued, app.State, "partially placed app is not yet running")
	assert.Contains(t, app.Nodes, "n1")
	assert.Len(t, n1.Containers[app.ID], 2, "node occupancy reflects the placement immediately, not deferred")
}

func TestPlaceFullyTransitionsToRunning(t *testing.T) {
	app := NewApplication("job", "g1", 2)

	app.Place(NewNode("n1", 1), 1)
	app.Place(NewNode("n2", 1), 1)

	assert.Equal(t, AppStateRunning, app.State)
	assert.Zero(t, app.RemainingContainers())
	assert.Contains(t, app.Nodes, "n1")
	assert.Contains(t, app.Nodes, "n2")
}

func TestPlaceClampsToRemainingContainers(t *testing.T) {
	app := NewApplication("job", "g1", 2)

	placed := app.Place(NewNode("n1", 5), 5)

	require.Equal(t, 2, placed, "cannot place more than the app still needs")
	assert.Zero(t, app.RemainingContainers())
}

func TestPlaceOnAlreadyFullAppPlacesNothing(t *testing.T) {
	app := NewApplication("job", "g1", 1)
	app.Place(NewNode("n1", 1), 1)

	placed := app.Place(NewNode("n2", 4), 4)

	assert.Zero(t, placed)
	assert.NotContains(t, app.Nodes, "n2")
}

func TestNodeAvailableAndEmptyAndNonFull(t *testing.T) {
	n := NewNode("n1", 4)

	assert.True(t, n.Empty())
	assert.True(t, n.NonFull())
	assert.Equal(t, 4, n.Available())

	n.Containers["app-a"] = []*Container{{Index: 0, Node: "n1"}, {Index: 1, Node: "n1"}}

	assert.False(t, n.Empty())
	assert.True(t, n.NonFull())
	assert.Equal(t, 2, n.Available())
	assert.Equal(t, 2, n.Hosted())

	n.Containers["app-b"] = []*Container{{Index: 0, Node: "n1"}, {Index: 1, Node: "n1"}}

	assert.False(t, n.NonFull())
	assert.Zero(t, n.Available())
}

func TestStaticRateImplementsUsageSample(t *testing.T) {
	var s UsageSample = StaticRate{NotIdle: true, RateVal: 0.42}

	assert.True(t, s.IsNotIdle())
	assert.InDelta(t, 0.42, s.Rate(), 1e-9)
}
