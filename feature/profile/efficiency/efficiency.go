package efficiency

import "account-mirror/feature/profile/models"

// Result carries the three scores for one piece of equipment.
type Result struct {
	// Efficiency scores the current roll quality, 0-100.
	Efficiency float64
	// MaxEfficiency assumes every remaining upgrade slot rolls the best
	// possible stat at the best value for the item's grade.
	MaxEfficiency float64
	// AvgFutureEfficiency assumes each remaining slot rolls the
	// population-average value of the stat that maximizes the expected
	// score.
	AvgFutureEfficiency float64
}

// RemainingRolls returns how many upgrade rolls an item at the given level
// still has. Rolls land at +3, +6, +9 and +12.
func RemainingRolls(level int) int {
	used := level / 3
	if used > totalUpgradeRolls {
		used = totalUpgradeRolls
	}
	return totalUpgradeRolls - used
}

// gradeFactor scales a future roll's ceiling by the item's star grade:
// a 4-star roll tops out at 75% of a 6-star roll.
func gradeFactor(stars int) float64 {
	if stars > 6 {
		stars = 6
	}
	if stars < 1 {
		stars = 1
	}
	return float64(stars+2) / 8
}

// Rune scores a rune's rolled substats. The main stat contributes the
// fixed baseline and is excluded from the future roll pool; the innate
// line counts as a substat. Grinds are excluded: they raise stats, not
// roll quality.
func Rune(r *models.Rune) Result {
	var sum float64

	if r.InnateStat != 0 {
		sum += rollRatio(r.InnateStat, r.InnateValue)
	}
	for _, roll := range r.Substats {
		sum += rollRatio(roll.Stat, roll.Value)
	}

	return project(sum, r.Stars, RemainingRolls(r.Level), bestFutureRatios(r.MainStat))
}

// Artifact scores an artifact's secondary effects the same way, using the
// artifact effect roll table. The quality rank plays the grade role.
func Artifact(a *models.Artifact) Result {
	var sum float64
	for _, roll := range a.Effects {
		max := artifactMaxRoll[int(roll.Stat)]
		if max == 0 {
			max = artifactDefaultMaxRoll
		}
		ratio := roll.Value / max
		// An effect line accrues one initial roll plus any upgrade rolls.
		if limit := float64(1 + roll.Rolls); ratio > limit {
			ratio = limit
		}
		sum += ratio
	}

	// Artifact quality ranks run 1-5; shift onto the 2-6 grade scale so a
	// legendary artifact rolls at full weight.
	return project(sum, a.Quality+1, RemainingRolls(a.Level), futureRatios{best: 1, avg: 0.75})
}

type futureRatios struct {
	// best is the ceiling ratio of the best rollable stat (always 1).
	best float64
	// avg is the expected ratio of the stat with the highest average roll.
	avg float64
}

// bestFutureRatios picks the future-roll ratios over the substat pool,
// excluding the main stat.
func bestFutureRatios(main models.Stat) futureRatios {
	ratios := futureRatios{best: 1}
	for stat, max := range maxRoll {
		if stat == main {
			continue
		}
		avg := (minRoll[stat] + max) / 2 / max
		if avg > ratios.avg {
			ratios.avg = avg
		}
	}
	return ratios
}

func project(sum float64, stars, remaining int, future futureRatios) Result {
	current := clamp((1+sum*rollWeight)/fullWeight*100, 0, 100)

	factor := gradeFactor(stars)
	perRoll := rollWeight / fullWeight * factor * 100

	max := clamp(current+float64(remaining)*perRoll*future.best, current, 100)
	avg := clamp(current+float64(remaining)*perRoll*future.avg, current, max)

	return Result{
		Efficiency:          current,
		MaxEfficiency:       max,
		AvgFutureEfficiency: avg,
	}
}

func rollRatio(stat models.Stat, value float64) float64 {
	max, ok := maxRoll[stat]
	if !ok {
		return 0
	}
	return value / max
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
