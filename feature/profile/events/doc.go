// Package events applies live game exchanges to the mirror between full
// imports. Each handler runs in its own transaction, writes the
// response's post-state keyed by external ids, and tolerates the mirror
// being ahead of or behind the event (last write wins). Commands the
// mirror does not care about are ignored.
package events
