// Package efficiency scores equipment roll quality.
//
// The score is a pure function over a single item's rolled stats: a 0-100%
// efficiency for the current rolls, a max projection assuming every
// remaining upgrade slot rolls perfectly for the item's grade, and an
// average projection assuming population-average future rolls.
//
// The package has no side effects and no storage dependencies; the store
// persists its outputs on rune and artifact rows.
package efficiency
