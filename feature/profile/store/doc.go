// Package store holds the persistence primitives of the account mirror:
// catalog lookups, upserts keyed by (account, external id), quantity
// writes that delete at zero, and build membership maintenance with its
// aggregate recompute. Everything takes a *gorm.DB so callers control
// transaction boundaries; the snapshot reconciler and the event handlers
// both run on top of this package.
package store
