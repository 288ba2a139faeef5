package types

import (
	"time"

	"github.com/google/uuid"
)

// ClusterSlot is a static partition label assigned to every node address at
// construction time. It never changes after cluster init.
type ClusterSlot string

const (
	Slot1 ClusterSlot = "SLOT_1"
	Slot2 ClusterSlot = "SLOT_2"

	// NoSlot marks an application that has not yet been assigned a slot.
	NoSlot ClusterSlot = ""
)

// AppState is the lifecycle state of an Application.
type AppState string

const (
	AppStateQueued   AppState = "queued"
	AppStatePlacing  AppState = "placing"
	AppStateRunning  AppState = "running"
	AppStateFinished AppState = "finished"
)

// Container is a single schedulable resource slot an application owns. It is
// opaque to placement policies beyond its index and the node it ends up on.
type Container struct {
	Index int
	Node  string // node address; empty until placed
}

// Application is an admitted unit of scheduling: N containers that run to
// completion together.
type Application struct {
	ID    string
	Name  string
	Group string // group tag, supplied by the caller at construction; not derived from Name

	NumContainers int
	Containers    []*Container // length NumContainers, in placement order

	Nodes map[string]struct{} // set of node addresses currently hosting any of this app's containers
	Slot  ClusterSlot         // cluster slot this app's containers were placed into

	WaitingTime int // non-negative, bumped once per round while queued
	State       AppState

	CreatedAt time.Time
	Error     error
}

// NewApplication creates an unplaced application with n containers.
func NewApplication(name, group string, n int) *Application {
	containers := make([]*Container, n)
	for i := range containers {
		containers[i] = &Container{Index: i}
	}
	return &Application{
		ID:            uuid.NewString(),
		Name:          name,
		Group:         group,
		NumContainers: n,
		Containers:    containers,
		Nodes:         make(map[string]struct{}),
		State:         AppStateQueued,
		CreatedAt:     time.Now(),
	}
}

// PlacedContainers returns how many of the application's containers already
// have a node assigned.
func (a *Application) PlacedContainers() int {
	n := 0
	for _, c := range a.Containers {
		if c.Node != "" {
			n++
		}
	}
	return n
}

// RemainingContainers returns how many containers still need a node.
func (a *Application) RemainingContainers() int {
	return a.NumContainers - a.PlacedContainers()
}

// Place assigns the next up-to-k unplaced containers to node, recording the
// node in the application's node set and the containers in the node's own
// occupancy map immediately, not deferred until the whole application is
// placed, so a second Place call in the same multi-chunk placement sees an
// accurate Available()/NonFull() for node. It returns the number placed.
func (a *Application) Place(node *Node, k int) int {
	placed := 0
	var newlyPlaced []*Container
	for _, c := range a.Containers {
		if placed >= k {
			break
		}
		if c.Node == "" {
			c.Node = node.Address
			newlyPlaced = append(newlyPlaced, c)
			placed++
		}
	}
	if placed > 0 {
		a.Nodes[node.Address] = struct{}{}
		node.Containers[a.ID] = append(node.Containers[a.ID], newlyPlaced...)
	}
	if a.RemainingContainers() == 0 {
		a.State = AppStateRunning
	}
	return placed
}

// Node is a fixed-capacity container host.
type Node struct {
	Address    string
	Capacity   int
	Containers map[string][]*Container // app ID -> containers it has running here
}

// NewNode creates a node with no hosted containers.
func NewNode(address string, capacity int) *Node {
	return &Node{
		Address:    address,
		Capacity:   capacity,
		Containers: make(map[string][]*Container),
	}
}

// Hosted returns the number of containers currently hosted on this node.
func (n *Node) Hosted() int {
	total := 0
	for _, cs := range n.Containers {
		total += len(cs)
	}
	return total
}

// Available returns the number of free slots on this node.
func (n *Node) Available() int {
	return n.Capacity - n.Hosted()
}

// Empty reports whether the node hosts no containers at all.
func (n *Node) Empty() bool {
	return n.Hosted() == 0
}

// NonFull reports whether the node has at least one free slot.
func (n *Node) NonFull() bool {
	return n.Available() > 0
}

// UsageSample is the contract a metrics collaborator must satisfy. The
// estimator and updater consume only these two operations.
type UsageSample interface {
	IsNotIdle() bool
	Rate() float64
}

// StaticRate is a trivial UsageSample backed by a fixed rate, useful for
// tests and for collaborators that pre-aggregate before handing off a sample.
type StaticRate struct {
	NotIdle bool
	RateVal float64
}

func (s StaticRate) IsNotIdle() bool  { return s.NotIdle }
func (s StaticRate) Rate() float64    { return s.RateVal }

// NodeObservation pairs the applications occupying a node with the usage
// sample observed for that node at one tick.
type NodeObservation struct {
	Apps   []*Application
	Sample UsageSample
}

// NamedWeight is one running application standing for its name, paired with
// how many running applications share that name, as returned by
// Cluster.ApplicationsByName.
type NamedWeight struct {
	App    *Application
	Weight int
}
