/*
Package updater runs the periodic leave-one-out sampling loop: on a fixed
interval it snapshots cluster usage and feeds every node observation into
the estimator, exactly the ticker + stopCh + mutex shape of the teacher's
pkg/reconciler.Reconciler, repurposed from drift correction to estimator
learning.
*/
package updater
