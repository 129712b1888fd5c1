// Package ether is a small typed adapter over an ethereum node's JSON-RPC
// interface, exposing exactly the queries that the exporter needs and
// classifying every failure as either a connectivity or a protocol error.
//
package ether
