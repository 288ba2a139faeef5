/*
Package log provides structured, component-tagged logging for the
scheduler built on zerolog.

Init configures the global Logger once at process startup (the CLI
harness does this from cobra flags); every long-lived component then
derives a child logger via WithComponent so log lines carry a
"component" field ("scheduler", "estimator", "updater", "resourcemanager")
without having to thread a logger through every call.
*/
package log
