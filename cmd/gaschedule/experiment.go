package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// NodeSpec describes one cluster node in an experiment file.
type NodeSpec struct {
	Address  string `yaml:"address"`
	Capacity int    `yaml:"capacity"`
	Slot     string `yaml:"slot"` // "SLOT_1", "SLOT_2", or empty
}

// ApplicationSpec describes one application to enqueue at experiment start.
type ApplicationSpec struct {
	Name       string `yaml:"name"`
	Group      string `yaml:"group"`
	Containers int    `yaml:"containers"`
}

// Experiment is the YAML-loadable description of a scheduler run: the fixed
// cluster topology and the initial batch of applications to queue, the
// direct analogue of the original implementation's experiment script.
type Experiment struct {
	Nodes        []NodeSpec        `yaml:"nodes"`
	Applications []ApplicationSpec `yaml:"applications"`
}

// LoadExperiment reads and parses an experiment file from path.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment file: %w", err)
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse experiment file: %w", err)
	}
	if len(exp.Nodes) == 0 {
		return nil, fmt.Errorf("experiment file declares no nodes")
	}
	return &exp, nil
}

// BuildNodes constructs cluster node objects and the static slot index from
// the experiment's node specs.
func (e *Experiment) BuildNodes() ([]*types.Node, map[string]types.ClusterSlot) {
	nodes := make([]*types.Node, len(e.Nodes))
	slots := make(map[string]types.ClusterSlot, len(e.Nodes))
	for i, n := range e.Nodes {
		capacity := n.Capacity
		if capacity <= 0 {
			capacity = 4
		}
		nodes[i] = types.NewNode(n.Address, capacity)
		slots[n.Address] = types.ClusterSlot(n.Slot)
	}
	return nodes, slots
}

// BuildApplications constructs the initial application queue from the
// experiment's application specs.
func (e *Experiment) BuildApplications() []*types.Application {
	apps := make([]*types.Application, len(e.Applications))
	for i, a := range e.Applications {
		containers := a.Containers
		if containers <= 0 {
			containers = 1
		}
		apps[i] = types.NewApplication(a.Name, a.Group, containers)
	}
	return apps
}
