/*
Package metrics defines the scheduler's Prometheus metrics and a small
Timer helper for observing operation latency.

Metrics are registered at package init and exposed for scraping via
Handler(); the scheduler and updater packages update them inline as they
work rather than polling state, so counts stay accurate even if the
process is scraped mid-round. NodesTotal, AvailableContainers and
SchedulingLatency are registered but no package sets or observes them.
*/
package metrics
