package models

import "time"

// Account owns every mirrored entity. All lookups and uniqueness
// constraints are scoped to an account.
type Account struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority is the user-facing rune-up priority of a monster.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityDone
)

var priorityNames = map[string]Priority{
	"low": PriorityLow, "medium": PriorityMedium, "high": PriorityHigh, "done": PriorityDone,
}

// ParsePriority maps a configuration string to a Priority. Unknown or
// empty strings map to PriorityNone.
func ParsePriority(s string) Priority {
	return priorityNames[s]
}

// BuildPurpose distinguishes a monster's two loadouts.
type BuildPurpose string

const (
	// BuildDefault is the persistent loadout.
	BuildDefault BuildPurpose = "default"
	// BuildRTA is the separate world-arena loadout.
	BuildRTA BuildPurpose = "rta"
)

// Monster mirrors one unit on the remote account.
//
// ExternalID is nil only for monsters created locally before their first
// sync; among non-nil values it is unique per account. Every persisted
// monster owns exactly two Build rows (default and RTA), created lazily on
// first save and never nil afterward.
type Monster struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"index;uniqueIndex:idx_monsters_account_external"`
	ExternalID *int64 `gorm:"uniqueIndex:idx_monsters_account_external"`

	BaseID uint `gorm:"index"`
	Base   *MonsterBase

	Stars       int
	Level       int
	SkillLevels IntList `gorm:"type:text"`

	InStorage bool
	// Locked marks the in-game lock, which doubles as ignore-for-fusion.
	Locked bool
	Fodder bool

	Priority Priority
	// CustomName is only meaningful for homunculus units.
	CustomName string `gorm:"size:100"`
	CreatedOn  *time.Time

	Builds []Build

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BuildFor returns the monster's build with the given purpose, or nil if
// it has not been loaded or created yet.
func (m *Monster) BuildFor(purpose BuildPurpose) *Build {
	for i := range m.Builds {
		if m.Builds[i].Purpose == purpose {
			return &m.Builds[i]
		}
	}
	return nil
}

// Build is one loadout of a monster together with its cached aggregate.
// The same type backs both purposes; only the Purpose tag differs.
//
// StatTotals, ActiveSets and AvgEfficiency are derived from the current
// membership and are never edited by hand; every membership or roll change
// goes through a recompute before they are read again.
type Build struct {
	ID        uint         `gorm:"primaryKey"`
	MonsterID uint         `gorm:"index;uniqueIndex:idx_builds_monster_purpose"`
	Purpose   BuildPurpose `gorm:"size:16;uniqueIndex:idx_builds_monster_purpose"`

	Runes     []Rune     `gorm:"many2many:build_runes"`
	Artifacts []Artifact `gorm:"many2many:build_artifacts"`

	StatTotals    StatTotals `gorm:"type:text"`
	ActiveSets    IntList    `gorm:"type:text"`
	AvgEfficiency float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rune mirrors one rune on the remote account.
type Rune struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"index;uniqueIndex:idx_runes_account_external"`
	ExternalID *int64 `gorm:"uniqueIndex:idx_runes_account_external"`

	Slot  int
	SetID int
	// Stars is the rune's rarity grade (1-6).
	Stars   int
	Ancient bool
	Level   int
	// Quality ranks normal..legend; OriginalQuality is the drop quality.
	Quality         int
	OriginalQuality int
	// Value is the sell price reported by the game.
	Value int

	MainStat  Stat
	MainValue float64
	// InnateStat is zero when the rune has no innate line.
	InnateStat  Stat
	InnateValue float64
	Substats    RollList `gorm:"type:text"`

	Efficiency    float64
	MaxEfficiency float64

	// AssignedToID points at the monster whose default build holds this
	// rune; nil while unassigned. RTA membership is tracked only through
	// the build relation.
	AssignedToID *uint `gorm:"index"`
	AssignedTo   *Monster

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Artifact mirrors one artifact on the remote account.
type Artifact struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"index;uniqueIndex:idx_artifacts_account_external"`
	ExternalID *int64 `gorm:"uniqueIndex:idx_artifacts_account_external"`

	// Slot is the artifact kind: element or archetype.
	Slot int
	// Attribute restricts an element artifact; Archetype an archetype one.
	Attribute int
	Archetype int

	Level           int
	Quality         int
	OriginalQuality int

	// MainStat holds the artifact main effect id (HP or ATK or DEF).
	MainStat  Stat
	MainValue float64
	// Effects holds the secondary effect lines; Roll.Stat carries the
	// artifact effect id.
	Effects RollList `gorm:"type:text"`

	Efficiency    float64
	MaxEfficiency float64

	AssignedToID *uint `gorm:"index"`
	AssignedTo   *Monster

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RuneCraft is a rune crafting consumable (grindstone or enchant gem).
// A row with quantity zero is logically absent and gets deleted.
type RuneCraft struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"index;uniqueIndex:idx_rune_crafts_account_external"`
	ExternalID *int64 `gorm:"uniqueIndex:idx_rune_crafts_account_external"`

	// CraftType is the game's craft_type (grindstone/gem, ancient variants).
	CraftType int
	SetID     int
	Stat      Stat
	Quality   int
	Quantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArtifactCraft is an artifact conversion stone.
type ArtifactCraft struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"index;uniqueIndex:idx_artifact_crafts_account_external"`
	ExternalID *int64 `gorm:"uniqueIndex:idx_artifact_crafts_account_external"`

	// Slot is the artifact kind the stone applies to.
	Slot      int
	Attribute int
	Archetype int
	EffectID  int
	Quality   int
	Quantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaterialStorage is one stack of essences/craft materials. Quantity is
// clamped to >= 0; a zero row is deleted rather than retained.
type MaterialStorage struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index;uniqueIndex:idx_materials_account_item"`
	// ItemCategory/ItemID reference the GameItem catalog.
	ItemCategory int   `gorm:"uniqueIndex:idx_materials_account_item"`
	ItemID       int64 `gorm:"uniqueIndex:idx_materials_account_item"`
	Quantity     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonsterShrineStorage is one species stack in the monster shrine.
type MonsterShrineStorage struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index;uniqueIndex:idx_shrine_account_base"`
	BaseID    uint `gorm:"uniqueIndex:idx_shrine_account_base"`
	Base      *MonsterBase
	Quantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonsterPiece is partial-summon currency for one species.
type MonsterPiece struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index;uniqueIndex:idx_pieces_account_base"`
	BaseID    uint `gorm:"uniqueIndex:idx_pieces_account_base"`
	Base      *MonsterBase
	Quantity  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BuildingInstance is one building/decoration level on the account.
// Once created it is never deleted; a building missing from a snapshot is
// reset to level zero instead.
type BuildingInstance struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index;uniqueIndex:idx_building_instances_account_building"`
	// BuildingID references the Building catalog row.
	BuildingID uint `gorm:"uniqueIndex:idx_building_instances_account_building"`
	Building   *Building
	Level      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// All returns one instance of every persisted model, in an order safe for
// AutoMigrate.
func All() []any {
	return []any{
		&Account{},
		&MonsterBase{},
		&Building{},
		&GameItem{},
		&Monster{},
		&Build{},
		&Rune{},
		&Artifact{},
		&RuneCraft{},
		&ArtifactCraft{},
		&MaterialStorage{},
		&MonsterShrineStorage{},
		&MonsterPiece{},
		&BuildingInstance{},
	}
}
