/*
Package persistence persists complementarity-estimator snapshots to a
bbolt database, one JSON blob per save path, the same
marshal-into-a-bucket pattern the teacher's BoltStore uses for cluster
entities.
*/
package persistence
