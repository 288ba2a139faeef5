/*
Package estimator implements the complementarity estimator: an online
model of aggregate usage rate keyed on (group tag, multiset of co-running
group tags), learned via an exponential moving average
(github.com/VividCortex/ewma) and bounded by an LRU
(github.com/hashicorp/golang-lru/v2) so long-running clusters don't grow
its key space without limit.

Complementarity is the single-estimator implementation; Benchmark wraps
several of them for side-by-side comparison, fanning UpdateApp out to all
and delegating ranking queries to the first.
*/
package estimator
