package cluster

import (
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// MetricsSource is the external collaborator that supplies per-node usage
// samples. The estimator and updater depend only on the UsageSample it
// returns, not on how the sample is produced.
type MetricsSource interface {
	Sample(node string) types.UsageSample
}

// Cluster is a mapping from node address to node, plus a static side-table
// of cluster slots. It is the scheduler's single mutable shared state;
// callers are expected to hold the scheduler's lock around every method.
type Cluster struct {
	addresses []string // insertion order, for deterministic iteration
	nodes     map[string]*types.Node
	slots     map[string]types.ClusterSlot
	running   map[string]*types.Application // app ID -> app, for apps with ≥1 placed container
	metrics   MetricsSource
}

// New builds a cluster from a fixed node list and its static slot index.
// Both are read-only configuration handed in at construction, never
// reached for as global state.
func New(nodes []*types.Node, slotIndex map[string]types.ClusterSlot, metrics MetricsSource) *Cluster {
	c := &Cluster{
		nodes:   make(map[string]*types.Node, len(nodes)),
		slots:   slotIndex,
		running: make(map[string]*types.Application),
		metrics: metrics,
	}
	for _, n := range nodes {
		c.addresses = append(c.addresses, n.Address)
		c.nodes[n.Address] = n
	}
	return c
}

// SlotOf returns the static cluster slot assigned to a node address.
func (c *Cluster) SlotOf(addr string) types.ClusterSlot {
	return c.slots[addr]
}

// NodesInSlot returns, in insertion order, every node statically assigned to slot.
func (c *Cluster) NodesInSlot(slot types.ClusterSlot) []*types.Node {
	var out []*types.Node
	for _, addr := range c.addresses {
		if c.slots[addr] == slot {
			out = append(out, c.nodes[addr])
		}
	}
	return out
}

// AvailableContainers returns the total number of free container slots
// across the whole cluster.
func (c *Cluster) AvailableContainers() int {
	total := 0
	for _, addr := range c.addresses {
		total += c.nodes[addr].Available()
	}
	return total
}

// EmptyNodes returns, in deterministic (insertion) order, nodes hosting no
// containers at all.
func (c *Cluster) EmptyNodes() []*types.Node {
	var out []*types.Node
	for _, addr := range c.addresses {
		if n := c.nodes[addr]; n.Empty() {
			out = append(out, n)
		}
	}
	return out
}

// NonFullNodes returns, in deterministic order, nodes with at least one
// free slot.
func (c *Cluster) NonFullNodes() []*types.Node {
	var out []*types.Node
	for _, addr := range c.addresses {
		if n := c.nodes[addr]; n.NonFull() {
			out = append(out, n)
		}
	}
	return out
}

// AppsUsage samples every node through the metrics collaborator and returns
// one observation per node: the applications currently occupying it, paired
// with the usage sample reported for it.
func (c *Cluster) AppsUsage() []types.NodeObservation {
	obs := make([]types.NodeObservation, 0, len(c.addresses))
	for _, addr := range c.addresses {
		node := c.nodes[addr]
		apps := c.appsOnNode(node)
		var sample types.UsageSample
		if c.metrics != nil {
			sample = c.metrics.Sample(addr)
		} else {
			sample = types.StaticRate{}
		}
		obs = append(obs, types.NodeObservation{Apps: apps, Sample: sample})
	}
	return obs
}

func (c *Cluster) appsOnNode(node *types.Node) []*types.Application {
	var apps []*types.Application
	for appID := range node.Containers {
		if app, ok := c.running[appID]; ok {
			apps = append(apps, app)
		}
	}
	return apps
}

// Applications returns the currently-running application set. When
// withFullNodes is false, applications that occupy only fully-packed nodes
// are excluded.
func (c *Cluster) Applications(withFullNodes bool) []*types.Application {
	var out []*types.Application
	for _, addr := range c.addresses {
		node := c.nodes[addr]
		if !withFullNodes && !node.NonFull() {
			continue
		}
		for appID := range node.Containers {
			if app, ok := c.running[appID]; ok {
				if !containsApp(out, app) {
					out = append(out, app)
				}
			}
		}
	}
	return out
}

// ApplicationsByName is Applications deduplicated by name, each entry
// carrying the number of running applications sharing that name.
func (c *Cluster) ApplicationsByName(withFullNodes bool) []types.NamedWeight {
	apps := c.Applications(withFullNodes)
	byName := make(map[string]*types.NamedWeight)
	var order []string
	for _, app := range apps {
		if nw, ok := byName[app.Name]; ok {
			nw.Weight++
		} else {
			byName[app.Name] = &types.NamedWeight{App: app, Weight: 1}
			order = append(order, app.Name)
		}
	}
	out := make([]types.NamedWeight, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

func containsApp(apps []*types.Application, app *types.Application) bool {
	for _, a := range apps {
		if a.ID == app.ID {
			return true
		}
	}
	return false
}

// AddRunning registers app as occupying the cluster, once its containers
// have been placed by a policy. Node occupancy is already up to date at this
// point: types.Application.Place records each container on its node as soon
// as it's placed, not deferred until the whole application lands.
func (c *Cluster) AddRunning(app *types.Application) {
	c.running[app.ID] = app
}

// RemoveApplication drops a finished application's containers from every
// node it occupied.
func (c *Cluster) RemoveApplication(app *types.Application) {
	for nodeAddr := range app.Nodes {
		if node, ok := c.nodes[nodeAddr]; ok {
			delete(node.Containers, app.ID)
		}
	}
	delete(c.running, app.ID)
}

// HasApplicationRunning reports whether any application currently occupies
// the cluster.
func (c *Cluster) HasApplicationRunning() bool {
	return len(c.running) > 0
}

// Node returns the node at addr, or nil if unknown.
func (c *Cluster) Node(addr string) *types.Node {
	return c.nodes[addr]
}

// Nodes returns every node in deterministic order.
func (c *Cluster) Nodes() []*types.Node {
	out := make([]*types.Node, 0, len(c.addresses))
	for _, addr := range c.addresses {
		out = append(out, c.nodes[addr])
	}
	return out
}
