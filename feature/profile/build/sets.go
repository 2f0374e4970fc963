package build

import "account-mirror/feature/profile/models"

// RuneSet describes one equipment set: how many matching pieces activate
// it and the flat stat bonus, if any, an active instance grants.
type RuneSet struct {
	ID       int
	Name     string
	Required int
	// BonusStat/BonusValue are zero for sets whose bonus is a combat
	// behavior rather than a stat (Violent, Will, ...).
	BonusStat  models.Stat
	BonusValue float64
}

// IntangibleSetID is the neutral piece: it belongs to no set of its own
// and counts toward completing any set that is exactly one piece short.
const IntangibleSetID = 25

var runeSets = map[int]RuneSet{
	1:  {ID: 1, Name: "Energy", Required: 2, BonusStat: models.StatHPPct, BonusValue: 15},
	2:  {ID: 2, Name: "Guard", Required: 2, BonusStat: models.StatDEFPct, BonusValue: 15},
	3:  {ID: 3, Name: "Swift", Required: 4, BonusStat: models.StatSPD, BonusValue: 25},
	4:  {ID: 4, Name: "Blade", Required: 2, BonusStat: models.StatCritRate, BonusValue: 12},
	5:  {ID: 5, Name: "Rage", Required: 4, BonusStat: models.StatCritDmg, BonusValue: 40},
	6:  {ID: 6, Name: "Focus", Required: 2, BonusStat: models.StatAccuracy, BonusValue: 20},
	7:  {ID: 7, Name: "Endure", Required: 2, BonusStat: models.StatResist, BonusValue: 20},
	8:  {ID: 8, Name: "Fatal", Required: 4, BonusStat: models.StatATKPct, BonusValue: 35},
	10: {ID: 10, Name: "Despair", Required: 4},
	11: {ID: 11, Name: "Vampire", Required: 4},
	13: {ID: 13, Name: "Violent", Required: 4},
	14: {ID: 14, Name: "Nemesis", Required: 2},
	15: {ID: 15, Name: "Will", Required: 2},
	16: {ID: 16, Name: "Shield", Required: 2},
	17: {ID: 17, Name: "Revenge", Required: 2},
	18: {ID: 18, Name: "Destroy", Required: 2},
	19: {ID: 19, Name: "Fight", Required: 2, BonusStat: models.StatATKPct, BonusValue: 8},
	20: {ID: 20, Name: "Determination", Required: 2, BonusStat: models.StatDEFPct, BonusValue: 8},
	21: {ID: 21, Name: "Enhance", Required: 2, BonusStat: models.StatHPPct, BonusValue: 8},
	22: {ID: 22, Name: "Accuracy", Required: 2, BonusStat: models.StatAccuracy, BonusValue: 10},
	23: {ID: 23, Name: "Tolerance", Required: 2, BonusStat: models.StatResist, BonusValue: 10},
	24: {ID: 24, Name: "Seal", Required: 2},
}

// SetByID returns the set definition for a set id.
func SetByID(id int) (RuneSet, bool) {
	s, ok := runeSets[id]
	return s, ok
}
