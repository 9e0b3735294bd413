// Package model defines the values exchanged between pipeline stages and the
// results produced by an execution: the PluginData tagged value, the closed
// set of operation descriptors, and the per-stage and per-run result types.
package model
