// Package pipeline drives persona transformation jobs through their fixed
// stage sequence and records progress checkpoints against the job store.
package pipeline
