// Package collector provides the core functionality of this exporter.
//
// It runs collection cycles against an ethereum node: each cycle issues a
// fixed set of queries, each one isolated from the failures of the others,
// and assembles the answers into a snapshot.Snapshot. A Collector also
// implements the Prometheus collector interface so that every scrape (or
// every textfile write) triggers a fresh cycle rather than serving cached
// values.
//
package collector
