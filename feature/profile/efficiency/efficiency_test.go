package efficiency

import (
	"math/rand"
	"testing"

	"account-mirror/feature/profile/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingRolls(t *testing.T) {
	assert.Equal(t, 4, RemainingRolls(0))
	assert.Equal(t, 4, RemainingRolls(2))
	assert.Equal(t, 3, RemainingRolls(3))
	assert.Equal(t, 2, RemainingRolls(6))
	assert.Equal(t, 1, RemainingRolls(9))
	assert.Equal(t, 0, RemainingRolls(12))
	assert.Equal(t, 0, RemainingRolls(15))
}

func TestRune_PerfectRune(t *testing.T) {
	// Main stat plus nine maximum SPD-equivalent rolls scores 100%.
	r := &models.Rune{
		Stars:      6,
		Level:      15,
		MainStat:   models.StatATKPct,
		InnateStat: models.StatCritDmg, InnateValue: 7,
		Substats: models.RollList{
			{Stat: models.StatSPD, Value: 6 * 5}, // quad-rolled plus initial
			{Stat: models.StatCritRate, Value: 6},
			{Stat: models.StatCritDmg, Value: 7},
			{Stat: models.StatHPPct, Value: 8},
		},
	}

	res := Rune(r)
	assert.InDelta(t, 100, res.Efficiency, 0.001)
	assert.InDelta(t, 100, res.MaxEfficiency, 0.001)
	assert.InDelta(t, 100, res.AvgFutureEfficiency, 0.001)
}

func TestRune_NoRollsRemaining(t *testing.T) {
	r := &models.Rune{
		Stars:    6,
		Level:    12,
		MainStat: models.StatSPD,
		Substats: models.RollList{
			{Stat: models.StatATKPct, Value: 16},
		},
	}

	res := Rune(r)
	assert.Equal(t, res.Efficiency, res.MaxEfficiency)
	assert.Equal(t, res.Efficiency, res.AvgFutureEfficiency)
}

func TestRune_GrindsDoNotScore(t *testing.T) {
	base := &models.Rune{
		Stars:    6,
		MainStat: models.StatSPD,
		Substats: models.RollList{{Stat: models.StatATKPct, Value: 16}},
	}
	ground := &models.Rune{
		Stars:    6,
		MainStat: models.StatSPD,
		Substats: models.RollList{{Stat: models.StatATKPct, Value: 16, Grind: 4}},
	}

	assert.Equal(t, Rune(base).Efficiency, Rune(ground).Efficiency)
}

func TestRune_RarityMonotonicity(t *testing.T) {
	// For an identical roll history with rolls remaining, max efficiency
	// strictly decreases as the grade drops.
	prev := 101.0
	for stars := 6; stars >= 1; stars-- {
		r := &models.Rune{
			Stars:    stars,
			Level:    3,
			MainStat: models.StatSPD,
			Substats: models.RollList{{Stat: models.StatATKPct, Value: 8}},
		}
		res := Rune(r)
		assert.Less(t, res.MaxEfficiency, prev, "stars=%d", stars)
		prev = res.MaxEfficiency
	}
}

// TestRune_Bounds fuzzes valid inputs and asserts the ordering invariant
// 0 <= efficiency <= avg future <= max <= 100.
func TestRune_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	stats := []models.Stat{
		models.StatHP, models.StatHPPct, models.StatATK, models.StatATKPct,
		models.StatDEF, models.StatDEFPct, models.StatSPD,
		models.StatCritRate, models.StatCritDmg, models.StatResist, models.StatAccuracy,
	}

	for i := 0; i < 2000; i++ {
		r := &models.Rune{
			Stars:    1 + rng.Intn(6),
			Level:    rng.Intn(16),
			MainStat: stats[rng.Intn(len(stats))],
		}
		if rng.Intn(2) == 0 {
			r.InnateStat = stats[rng.Intn(len(stats))]
			r.InnateValue = float64(rng.Intn(9))
		}
		for s := 0; s < rng.Intn(5); s++ {
			stat := stats[rng.Intn(len(stats))]
			r.Substats = append(r.Substats, models.Roll{
				Stat:  stat,
				Value: float64(rng.Intn(int(maxRoll[stat]) + 1)),
				Grind: float64(rng.Intn(5)),
			})
		}

		res := Rune(r)
		require.GreaterOrEqual(t, res.Efficiency, 0.0)
		require.LessOrEqual(t, res.Efficiency, res.AvgFutureEfficiency)
		require.LessOrEqual(t, res.AvgFutureEfficiency, res.MaxEfficiency)
		require.LessOrEqual(t, res.MaxEfficiency, 100.0)
	}
}

func TestRune_UnknownStatScoresZero(t *testing.T) {
	empty := Rune(&models.Rune{Stars: 6, Level: 15, MainStat: models.StatSPD})
	unknown := Rune(&models.Rune{
		Stars: 6, Level: 15, MainStat: models.StatSPD,
		Substats: models.RollList{{Stat: models.Stat(99), Value: 50}},
	})
	assert.Equal(t, empty.Efficiency, unknown.Efficiency)
}

func TestArtifact_Bounds(t *testing.T) {
	a := &models.Artifact{
		Quality: 5,
		Level:   9,
		Effects: models.RollList{
			{Stat: 200, Value: 10, Rolls: 1},
			{Stat: 305, Value: 5},
		},
	}

	res := Artifact(a)
	assert.Greater(t, res.Efficiency, 0.0)
	assert.LessOrEqual(t, res.Efficiency, res.AvgFutureEfficiency)
	assert.LessOrEqual(t, res.AvgFutureEfficiency, res.MaxEfficiency)
	assert.LessOrEqual(t, res.MaxEfficiency, 100.0)
}

func TestArtifact_LineValueCappedByRollCount(t *testing.T) {
	// A single-roll line cannot claim more than two rolls' worth of ratio
	// even when the reported value is absurd.
	capped := Artifact(&models.Artifact{
		Quality: 5, Level: 12,
		Effects: models.RollList{{Stat: 200, Value: 1000, Rolls: 1}},
	})
	exact := Artifact(&models.Artifact{
		Quality: 5, Level: 12,
		Effects: models.RollList{{Stat: 200, Value: 12, Rolls: 1}},
	})
	assert.Equal(t, exact.Efficiency, capped.Efficiency)
}
