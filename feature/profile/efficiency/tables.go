package efficiency

import "account-mirror/feature/profile/models"

// Single-roll value ranges for 6-star rune substats. All roll ratios are
// normalized against the 6-star maximum; lower grades scale through the
// grade factor instead of separate tables.
var maxRoll = map[models.Stat]float64{
	models.StatHP:       375,
	models.StatHPPct:    8,
	models.StatATK:      20,
	models.StatATKPct:   8,
	models.StatDEF:      20,
	models.StatDEFPct:   8,
	models.StatSPD:      6,
	models.StatCritRate: 6,
	models.StatCritDmg:  7,
	models.StatResist:   8,
	models.StatAccuracy: 8,
}

var minRoll = map[models.Stat]float64{
	models.StatHP:       135,
	models.StatHPPct:    5,
	models.StatATK:      8,
	models.StatATKPct:   5,
	models.StatDEF:      8,
	models.StatDEFPct:   5,
	models.StatSPD:      4,
	models.StatCritRate: 4,
	models.StatCritDmg:  4,
	models.StatResist:   4,
	models.StatAccuracy: 4,
}

// Per-roll maxima for artifact secondary effects, keyed by effect id.
// Effects absent from the table fall back to artifactDefaultMaxRoll; the
// game adds effect ids faster than catalogs update.
var artifactMaxRoll = map[int]float64{
	// main-stat-proportional effects
	200: 6, 201: 6, 202: 6, 203: 6, 204: 6, 205: 6,
	206: 4, 207: 4, 208: 4, 209: 4,
	// recovery/shield effects
	210: 6, 211: 6, 212: 6, 213: 6, 214: 6,
	215: 4, 216: 4, 217: 4, 218: 4, 219: 4,
	220: 5, 221: 5, 222: 5, 223: 5, 224: 5, 225: 5,
	// elemental damage effects
	300: 6, 301: 6, 302: 6, 303: 6, 304: 6, 305: 6,
	306: 6, 307: 6, 308: 6, 309: 6,
	// skill-slot damage effects
	400: 6, 401: 6, 402: 6, 403: 6, 404: 6, 405: 6,
	406: 4, 407: 4, 408: 4, 409: 4,
}

const artifactDefaultMaxRoll = 6.0

// rollWeight is one substat roll's share of the efficiency formula; the
// 2.8 divisor normalizes a perfect rune (main stat plus nine maximum
// rolls) to 100%.
const (
	rollWeight = 0.2
	fullWeight = 2.8
)

// totalUpgradeRolls is the number of upgrade slots; one lands every third
// level through +12.
const totalUpgradeRolls = 4
