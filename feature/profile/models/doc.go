// Package models defines the mirrored entity schema and the wire payload
// types shared by the snapshot importer and the live event handlers.
//
// # Identity
//
// Every synced entity carries a local opaque id (the primary key) and an
// external id: the game's numeric identifier, nullable until first synced.
// For a given account and entity family at most one local row maps to any
// remote object; the composite unique indexes enforce this among non-null
// external ids.
//
// # Derived state
//
// Build rows cache derived aggregate values (stat totals, active sets,
// average efficiency). These are recomputed from the membership whenever
// it changes and must never be edited directly.
package models
