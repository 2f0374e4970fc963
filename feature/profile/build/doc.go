// Package build computes loadout aggregates: summed stat contributions,
// active equipment sets and average rune efficiency.
//
// The computation is pure; persistence of the cached summary on Build rows
// belongs to the store. A cached summary is only valid immediately after a
// recompute. Any membership change or out-of-band roll edit (an upgrade
// event, a grind) invalidates it, and reading a stale cache is a
// correctness bug, not a performance concern.
package build
