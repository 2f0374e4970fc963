// Package jobs provides the in-process background job runner used for
// snapshot imports.
//
// A snapshot reconciliation can take tens of seconds for a mature account,
// so it runs out of the request path: the caller submits a job, receives an
// id, and polls for status (queued, running, succeeded, failed).
//
// # Serialization
//
// Jobs for the same account read-modify-write the same rows, so the runner
// never executes two of them concurrently; they queue behind each other in
// submission order. Jobs for different accounts are fully independent and
// run in parallel.
//
// Finished jobs stay pollable for one hour, after which they are pruned.
package jobs
