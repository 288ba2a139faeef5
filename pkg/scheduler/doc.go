/*
Package scheduler is the admission loop at the center of the group-adaptive
scheduler: it holds the pending application queue, asks a policy.Policy
which application to admit next and where to place it, and hands admitted
applications to a resourcemanager.Manager to actually run.

# Architecture

	┌──────────────────────────────────────────────────────────┐
	│                    Scheduler.Start                        │
	└───────────────────────────┬────────────────────────────────┘
	                            │
	                            ▼
	┌──────────────────────────────────────────────────────────┐
	│  scheduleLocked: while queue non-empty                    │
	│    1. policy.GetApplicationToSchedule(ctx)                │
	│    2. decrement the admitted app's waiting time            │
	│    3. policy.PlaceContainers(ctx, app, existingGroup)      │
	│    4. cluster.AddRunning(app)                              │
	│    5. resourceManager.Start(ctx, app, onFinished)          │
	│    6. draw random-arrival noise, if enabled                │
	│    break on ErrNoApplicationCanBeScheduled                 │
	└───────────────────────────┬────────────────────────────────┘
	                            │ onFinished callback
	                            ▼
	┌──────────────────────────────────────────────────────────┐
	│  onFinished: cluster.RemoveApplication, then either        │
	│  finalize() (queue empty, nothing running) or another      │
	│  scheduleLocked() round to claim freed capacity             │
	└──────────────────────────────────────────────────────────┘

The scheduler serializes every queue and cluster mutation behind a single
mutex, the same single-writer-lock shape as the original implementation's
single-threaded admission loop; the updater acquires the same lock (passed
in as an updater.Locker) around its cluster usage reads and estimator
writes.

finalize persists the estimator's learned state through a persistence.Writer
and reports a run summary (waiting-time histogram, elapsed duration,
applications scheduled) to telemetry, the structured-logging/metrics
analogue of the original's end-of-run experiment export.
*/
package scheduler
