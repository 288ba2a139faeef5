/*
Package types defines the scheduler's core data model: applications,
nodes, containers, and the usage-sample contract the estimator and
updater consume.

Applications and nodes are plain mutable structs guarded by the
scheduler's lock (see pkg/scheduler); this package only encodes their
shape and the bookkeeping operations (Place, Available, Hosted) that
don't need that lock to be correct in isolation.
*/
package types
