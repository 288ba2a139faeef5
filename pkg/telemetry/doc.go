/*
Package telemetry is the scheduler's event broker and post-run artifact
sink, adapted from the teacher's pkg/events.Broker (same subscribe/publish/
broadcast shape) to the scheduler's domain events and to the waiting-time
histogram + run-duration summary the original implementation exports on
stop.
*/
package telemetry
