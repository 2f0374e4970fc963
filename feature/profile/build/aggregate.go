package build

import (
	"sort"

	"account-mirror/feature/profile/models"
)

// Summary is the derived aggregate of one loadout's membership. It is
// recomputed from the members on every change; the cached copy on the
// Build row is never authoritative on its own.
type Summary struct {
	StatTotals models.StatTotals
	// ActiveSets lists one set id per completed set instance.
	ActiveSets models.IntList
	// AvgEfficiency is the mean rune efficiency across the loadout.
	AvgEfficiency float64
}

// Summarize recomputes the aggregate for a loadout from scratch.
//
// Stat totals sum every member's main, innate and substat rolls (grinds
// included: they raise the stat even though they don't score efficiency)
// plus the flat bonuses of active sets. Artifact secondary effects are
// behavioral rather than stat lines, so only artifact main stats
// contribute.
func Summarize(runes []models.Rune, artifacts []models.Artifact) Summary {
	totals := models.StatTotals{}

	add := func(stat models.Stat, value float64) {
		if stat == 0 || value == 0 {
			return
		}
		totals[stat] += value
	}

	var effSum float64
	for i := range runes {
		r := &runes[i]
		add(r.MainStat, r.MainValue)
		add(r.InnateStat, r.InnateValue)
		for _, roll := range r.Substats {
			add(roll.Stat, roll.Value+roll.Grind)
		}
		effSum += r.Efficiency
	}

	for i := range artifacts {
		a := &artifacts[i]
		add(a.MainStat, a.MainValue)
	}

	active := activeSets(runes)
	for _, id := range active {
		if set, ok := SetByID(id); ok && set.BonusStat != 0 {
			add(set.BonusStat, set.BonusValue)
		}
	}

	summary := Summary{StatTotals: totals, ActiveSets: active}
	if len(runes) > 0 {
		summary.AvgEfficiency = effSum / float64(len(runes))
	}
	return summary
}

// Apply writes a freshly computed summary onto a build row's cached
// columns.
func Apply(b *models.Build, s Summary) {
	b.StatTotals = s.StatTotals
	b.ActiveSets = s.ActiveSets
	b.AvgEfficiency = s.AvgEfficiency
}

// Recompute summarizes a build's loaded membership and applies it.
func Recompute(b *models.Build) {
	Apply(b, Summarize(b.Runes, b.Artifacts))
}

// setGroup tracks the members of one set id within a loadout.
type setGroup struct {
	set   RuneSet
	count int
	// newest is the highest member rune id, the recency proxy for the
	// spare-piece tie-break.
	newest uint
}

// activeSets counts completed set instances. Intangible pieces are spares:
// each one completes at most one set that is exactly one piece short,
// preferring the most recently assembled such set.
func activeSets(runes []models.Rune) models.IntList {
	groups := map[int]*setGroup{}
	spares := 0

	for i := range runes {
		r := &runes[i]
		if r.SetID == IntangibleSetID {
			spares++
			continue
		}
		set, ok := SetByID(r.SetID)
		if !ok {
			continue
		}
		g := groups[r.SetID]
		if g == nil {
			g = &setGroup{set: set}
			groups[r.SetID] = g
		}
		g.count++
		if r.ID > g.newest {
			g.newest = r.ID
		}
	}

	active := models.IntList{}
	var short []*setGroup
	for _, g := range groups {
		for n := g.count; n >= g.set.Required; n -= g.set.Required {
			active = append(active, g.set.ID)
		}
		if g.count%g.set.Required == g.set.Required-1 {
			short = append(short, g)
		}
	}

	// Spares fill one-short sets newest-first. Sorting by the recency
	// proxy (then set id) keeps the choice deterministic.
	sort.Slice(short, func(i, j int) bool {
		if short[i].newest != short[j].newest {
			return short[i].newest > short[j].newest
		}
		return short[i].set.ID < short[j].set.ID
	})
	for _, g := range short {
		if spares == 0 {
			break
		}
		spares--
		active = append(active, g.set.ID)
	}

	sort.Ints(active)
	return active
}
