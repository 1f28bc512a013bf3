// Package metrics defines Prometheus metrics for digest runs, covering the
// dataset size, keyword matches, mail delivery and per-run outcomes, and pushes
// them to a Pushgateway at the end of a run.
package metrics
