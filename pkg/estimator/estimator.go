package estimator

import (
	"sort"
	"strings"
	"sync"

	"github.com/VividCortex/ewma"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// NoGroup is the sentinel returned by BestGroupIndex when the estimator has
// no preference — the group-tag analogue of the original's integer -1.
const NoGroup = ""

// defaultCacheSize bounds how many distinct (group, peer-multiset) keys the
// estimator remembers. A long-running cluster can observe far more distinct
// co-location multisets than a short fixed experiment ever would.
const defaultCacheSize = 4096

// Complementarity is an online model of aggregate usage rate keyed on
// (target group tag, multiset of peer group tags). It learns via an
// exponential moving average per key, bounded by an LRU so the key space
// never grows without limit.
type Complementarity struct {
	mu    sync.Mutex
	means *lru.Cache[string, ewma.MovingAverage]
}

// New creates an estimator whose key space is bounded to cacheSize entries.
func New(cacheSize int) *Complementarity {
	cache, _ := lru.New[string, ewma.MovingAverage](cacheSize)
	return &Complementarity{means: cache}
}

// NewDefault creates an estimator with the default key-space bound.
func NewDefault() *Complementarity {
	return New(defaultCacheSize)
}

func key(target string, peers []string) string {
	sorted := append([]string(nil), peers...)
	sort.Strings(sorted)
	return target + "|" + strings.Join(sorted, ",")
}

func groupsOf(apps []*types.Application) []string {
	groups := make([]string, len(apps))
	for i, a := range apps {
		groups[i] = a.Group
	}
	return groups
}

// UpdateApp records a datapoint: with target running alongside peers, the
// cluster-wide rate sample was observedRate. Bounded per-sample cost, no
// rescan of history.
func (c *Complementarity) UpdateApp(target *types.Application, peers []*types.Application, observedRate float64) {
	k := key(target.Group, groupsOf(peers))

	c.mu.Lock()
	defer c.mu.Unlock()

	avg, ok := c.means.Get(k)
	if !ok {
		avg = ewma.NewMovingAverage()
		c.means.Add(k, avg)
	}
	avg.Add(observedRate)
}

func (c *Complementarity) estimate(targetGroup string, peerGroups []string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	avg, ok := c.means.Get(key(targetGroup, peerGroups))
	if !ok {
		return 0, false
	}
	return avg.Value(), true
}

func expandWeighted(scheduled []types.NamedWeight) []string {
	var groups []string
	for _, nw := range scheduled {
		for i := 0; i < nw.Weight; i++ {
			groups = append(groups, nw.App.Group)
		}
	}
	return groups
}

// BestAppIndex returns the index into candidates whose estimated co-run
// quality with scheduled is maximal. Ties break to the lowest index. With
// no data for any candidate, it falls back to index 0 (the queue head).
func (c *Complementarity) BestAppIndex(scheduled []types.NamedWeight, candidates []*types.Application) int {
	peerGroups := expandWeighted(scheduled)

	best := 0
	bestVal := 0.0
	found := false
	for i, cand := range candidates {
		val, ok := c.estimate(cand.Group, peerGroups)
		if !ok {
			continue
		}
		if !found || val > bestVal {
			bestVal, best, found = val, i, true
		}
	}
	return best
}

// ArgsortJobs returns a permutation of indices into candidates, best-first.
// Candidates with no estimate are ranked after all candidates with data,
// preserving their relative order.
func (c *Complementarity) ArgsortJobs(scheduled []types.NamedWeight, candidates []*types.Application) []int {
	peerGroups := expandWeighted(scheduled)

	type scored struct {
		idx   int
		val   float64
		found bool
	}
	scores := make([]scored, len(candidates))
	for i, cand := range candidates {
		val, ok := c.estimate(cand.Group, peerGroups)
		scores[i] = scored{idx: i, val: val, found: ok}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.found != b.found {
			return a.found // found ranks before not-found
		}
		if !a.found {
			return false // preserve relative order among not-found
		}
		return a.val > b.val
	})

	order := make([]int, len(scores))
	for i, s := range scores {
		order[i] = s.idx
	}
	return order
}

// BestGroupIndex is the group-aware variant: it considers every (candidate
// group, already-running group) pairing and returns the pairing with the
// highest estimated rate. Either return value is NoGroup when the
// estimator has no preference.
func (c *Complementarity) BestGroupIndex(scheduled []types.NamedWeight, candidates []*types.Application) (bestGroupToSchedule, bestExistingGroup string) {
	existingGroups := uniqueGroups(scheduled)
	candidateGroups := uniqueGroups(candidatesAsNamedWeight(candidates))

	found := false
	bestVal := 0.0
	for _, cg := range candidateGroups {
		for _, eg := range existingGroups {
			val, ok := c.estimate(cg, []string{eg})
			if !ok {
				continue
			}
			if !found || val > bestVal {
				bestVal = val
				bestGroupToSchedule = cg
				bestExistingGroup = eg
				found = true
			}
		}
	}
	if !found {
		return NoGroup, NoGroup
	}
	return bestGroupToSchedule, bestExistingGroup
}

func uniqueGroups(weighted []types.NamedWeight) []string {
	seen := make(map[string]bool)
	var out []string
	for _, nw := range weighted {
		if !seen[nw.App.Group] {
			seen[nw.App.Group] = true
			out = append(out, nw.App.Group)
		}
	}
	return out
}

func candidatesAsNamedWeight(apps []*types.Application) []types.NamedWeight {
	out := make([]types.NamedWeight, len(apps))
	for i, a := range apps {
		out[i] = types.NamedWeight{App: a, Weight: 1}
	}
	return out
}

// Snapshot returns the estimator's current state as a flat map, suitable
// for persistence. The key encodes (target group, sorted peer multiset).
func (c *Complementarity) Snapshot() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]float64, c.means.Len())
	for _, k := range c.means.Keys() {
		if avg, ok := c.means.Peek(k); ok {
			out[k] = avg.Value()
		}
	}
	return out
}

// Restore repopulates the estimator from a previously saved snapshot. Each
// entry becomes a single-sample moving average seeded at the saved value.
func (c *Complementarity) Restore(snapshot map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range snapshot {
		avg := ewma.NewMovingAverage()
		avg.Add(v)
		c.means.Add(k, avg)
	}
}
