// Package pipeline runs the LOB/hedge matching workflow for one index.
//
// A run loads the index's LOB snapshots once, then processes each RIC
// independently with bounded concurrency:
//
//	load hedge -> prepare LOB -> enrich -> prepare hedge -> match -> write
//
// A RIC that has no data or fails is recorded in its result and does not
// stop the others. Cancelling the context stops the run.
package pipeline
