package models

// Archetype classifies a base monster's role. Material-archetype monsters
// exist only to be consumed and are always flagged as fodder on import.
type Archetype string

const (
	ArchetypeAttack     Archetype = "attack"
	ArchetypeDefense    Archetype = "defense"
	ArchetypeHP         Archetype = "hp"
	ArchetypeSupport    Archetype = "support"
	ArchetypeMaterial   Archetype = "material"
	ArchetypeIntangible Archetype = "intangible"
)

// Element is a monster's attribute.
type Element string

const (
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementWind  Element = "wind"
	ElementLight Element = "light"
	ElementDark  Element = "dark"
)

// MonsterBase is the species catalog. It is reference data shared by all
// accounts; the mirror never mutates it during a sync.
type MonsterBase struct {
	ID uint `gorm:"primaryKey"`
	// Com2usID is the game's species identifier referenced by unit records.
	Com2usID     int64  `gorm:"uniqueIndex"`
	Name         string `gorm:"size:100"`
	Archetype    Archetype
	Element      Element
	NaturalStars int
	// Awakens is false for "silver" monsters that cannot awaken.
	Awakens bool
	// FusionFood marks species usable as fusion feed material.
	FusionFood   bool
	IsHomunculus bool
}

// Building is the building/decoration catalog with level caps.
type Building struct {
	ID       uint  `gorm:"primaryKey"`
	Com2usID int64 `gorm:"uniqueIndex"`
	Name     string
	MaxLevel int
}

// GameItem is the catalog of craft/essence/material item types.
type GameItem struct {
	ID uint `gorm:"primaryKey"`
	// Category is the game's item_master_type.
	Category int `gorm:"uniqueIndex:idx_game_items_category_com2us"`
	// Com2usID is the game's item_master_id within the category.
	Com2usID int64 `gorm:"uniqueIndex:idx_game_items_category_com2us"`
	Name     string
}

// ItemCategoryMonsterPiece is the inventory category whose item id refers
// to a species: partial-summon pieces route to MonsterPiece rows rather
// than material storage.
const ItemCategoryMonsterPiece = 9

// StorageBuildingID is the building master id of the monster storage
// building; units parked there are flagged in-storage.
const StorageBuildingID = 25
