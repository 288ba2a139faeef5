package main

import (
	"fmt"

	"github.com/dos-group/group-adaptive-scheduler/pkg/policy"
)

// buildPolicy resolves a policy by name, the CLI-facing analogue of the
// original implementation's scheduler-class selection.
func buildPolicy(name string, jobsToPeek, waitingLimit int) (*policy.Policy, error) {
	switch name {
	case "random":
		return policy.NewRandom(), nil
	case "roundrobin":
		return policy.NewRoundRobin(), nil
	case "adaptive":
		return policy.NewAdaptive(jobsToPeek), nil
	case "group-adaptive":
		return policy.NewGroupAdaptive(jobsToPeek), nil
	case "group-adaptive-extend":
		return policy.NewGroupAdaptiveExtend(jobsToPeek, waitingLimit), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want one of: random, roundrobin, adaptive, group-adaptive, group-adaptive-extend)", name)
	}
}
