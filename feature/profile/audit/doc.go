// Package audit diffs the local mirror against the account's most recent
// archived snapshot.
//
// The audit answers one question: does the mirror still agree with the last
// full export we saw? It reports entities present on only one side and
// field-level divergences for entities present on both, without mutating
// anything. A divergent mirror is repaired by re-importing a snapshot, not
// by the auditor.
//
// Monsters excluded by import filters legitimately appear as
// missing-in-mirror; the report leaves that judgement to the caller.
package audit
