// Package main hosts the doppel CLI entrypoint and command graph.
//
// The Cobra-based command tree covers job enqueueing, queue inspection,
// persona management, configuration scaffolding, and worker health probes.
// It centralizes configuration resolution and store access so subcommands
// can focus on user experience instead of wiring.
package main
