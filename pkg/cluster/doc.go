/*
Package cluster tracks cluster nodes, their container slots, and which
applications occupy them, and answers the availability and usage queries
the scheduler and placement policies need.

It holds no lock of its own: the scheduler core serializes all access to
it under its single critical section (see pkg/scheduler), the same way
the teacher's reconciler and scheduler guard shared node/service state.
*/
package cluster
