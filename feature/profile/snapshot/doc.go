// Package snapshot turns a full account export into mirror state. The
// parser resolves each payload record against the local rows and the
// catalog, producing a batch of candidates; the reconciler applies the
// batch in a fixed stage order, one transaction per stage, and reports
// what it did. Deletion only happens here (the sweep) or through
// explicit removal events.
package snapshot
