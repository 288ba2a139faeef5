/*
Package resourcemanager defines the scheduler's resource-manager
collaborator interface and ships an in-memory stub for tests and the CLI
harness. The real runtime (containerd, in the teacher) is out of scope;
only the interface shape survives, grounded on pkg/worker/worker.go.
*/
package resourcemanager
