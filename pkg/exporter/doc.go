// Package exporter hands metrics over to their consumers, either by serving
// them over HTTP on every scrape (Exporter) or by periodically writing them
// to a file (Writer).
//
package exporter
