// Package queue holds the in-memory batch queue: an unbounded FIFO of task
// descriptors drained by one worker, and the entry registry behind queue
// listings, cancellation and purging.
//
// Descriptors carry per-request credentials and never outlive the process.
// Entry status is coarse (queued, processing, finished); detailed
// progress belongs to the task store.
package queue
