package models

// Stat identifies a rolled stat type. Values match the game's wire
// encoding so payload stats map directly onto the enum.
type Stat int

const (
	StatHP       Stat = 1
	StatHPPct    Stat = 2
	StatATK      Stat = 3
	StatATKPct   Stat = 4
	StatDEF      Stat = 5
	StatDEFPct   Stat = 6
	StatSPD      Stat = 8
	StatCritRate Stat = 9
	StatCritDmg  Stat = 10
	StatResist   Stat = 11
	StatAccuracy Stat = 12
)

var statNames = map[Stat]string{
	StatHP:       "HP flat",
	StatHPPct:    "HP%",
	StatATK:      "ATK flat",
	StatATKPct:   "ATK%",
	StatDEF:      "DEF flat",
	StatDEFPct:   "DEF%",
	StatSPD:      "SPD",
	StatCritRate: "CRI Rate%",
	StatCritDmg:  "CRI Dmg%",
	StatResist:   "Resistance%",
	StatAccuracy: "Accuracy%",
}

func (s Stat) String() string {
	if name, ok := statNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is a known stat type.
func (s Stat) Valid() bool {
	_, ok := statNames[s]
	return ok
}

// Roll is one rolled stat line on a piece of equipment: a substat, an
// innate stat, or an artifact secondary effect.
type Roll struct {
	// Stat is the rolled stat type. For artifact secondary effects this
	// holds the artifact effect id instead.
	Stat Stat `json:"stat"`
	// Value is the rolled amount, excluding grinds.
	Value float64 `json:"value"`
	// Enchanted marks a substat replaced by an enchant gem.
	Enchanted bool `json:"enchanted,omitempty"`
	// Grind is the amount added by an applied grindstone.
	Grind float64 `json:"grind,omitempty"`
	// Rolls counts upgrade rolls landed on this line (artifacts only).
	Rolls int `json:"rolls,omitempty"`
}
