package models

import (
	"encoding/json"
	"time"
)

// Wire types for the snapshot payload and for incremental event bodies.
// Both channels carry the same record shapes; the snapshot is simply every
// record at once.

// SnapshotPayload is a full account export. Only building_list, deco_list
// and unit_list are mandatory; the other sections are optional and their
// absence means "not reported", which is not the same as empty.
type SnapshotPayload struct {
	BuildingList []BuildingInfo `json:"building_list"`
	DecoList     []DecoInfo     `json:"deco_list"`
	UnitList     []UnitInfo     `json:"unit_list"`

	Runes             *RuneInfoList       `json:"runes,omitempty"`
	InventoryInfo     *[]ItemInfo         `json:"inventory_info,omitempty"`
	UnitLockList      *[]int64            `json:"unit_lock_list,omitempty"`
	RuneCraftItemList *[]CraftInfo        `json:"rune_craft_item_list,omitempty"`
	Artifacts         *[]ArtifactInfo     `json:"artifacts,omitempty"`
	ArtifactCrafts    *[]ArtifactCraftInfo `json:"artifact_crafts,omitempty"`
	UnitStorageList   *[]ShrineSlot       `json:"unit_storage_list,omitempty"`

	WorldArenaRuneEquipList     *[]ArenaEquip `json:"world_arena_rune_equip_list,omitempty"`
	WorldArenaArtifactEquipList *[]ArenaEquip `json:"world_arena_artifact_equip_list,omitempty"`
}

// FriendWrapper is the "view another player" export variant: the payload
// sits under a friend key and omits runes, crafts and RTA sections.
type FriendWrapper struct {
	Friend *SnapshotPayload `json:"friend"`
}

// UnitInfo is one unit record.
type UnitInfo struct {
	UnitID       int64  `json:"unit_id"`
	UnitMasterID int64  `json:"unit_master_id"`
	UnitLevel    int    `json:"unit_level"`
	Class        int    `json:"class"`
	CreateTime   string `json:"create_time"`
	// Skills holds [skill_id, level] pairs.
	Skills [][]int64 `json:"skills"`
	// Runes is a list in recent exports and an id-keyed object in old ones.
	Runes     RuneInfoList   `json:"runes"`
	Artifacts []ArtifactInfo `json:"artifacts"`
	// BuildingID is the building instance the unit is parked in; the
	// storage building marks it as in-storage.
	BuildingID     int64  `json:"building_id"`
	Homunculus     int    `json:"homunculus"`
	HomunculusName string `json:"homunculus_name"`
}

// SkillLevels flattens the [id, level] pairs to levels in skill order.
func (u *UnitInfo) SkillLevels() IntList {
	levels := make(IntList, 0, len(u.Skills))
	for _, pair := range u.Skills {
		if len(pair) >= 2 {
			levels = append(levels, int(pair[1]))
		}
	}
	return levels
}

// CreatedOn parses the record's create_time, which the game reports
// without a zone. A zero or malformed value yields nil.
func (u *UnitInfo) CreatedOn() *time.Time {
	if u.CreateTime == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", u.CreateTime)
	if err != nil {
		return nil
	}
	return &t
}

// RuneInfoList tolerates both wire encodings of a unit's rune collection:
// a plain list, or an object keyed by rune id.
type RuneInfoList []RuneInfo

func (l *RuneInfoList) UnmarshalJSON(data []byte) error {
	var list []RuneInfo
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var byID map[string]RuneInfo
	if err := json.Unmarshal(data, &byID); err != nil {
		return err
	}
	list = make([]RuneInfo, 0, len(byID))
	for _, r := range byID {
		list = append(list, r)
	}
	*l = list
	return nil
}

// RuneInfo is one rune record.
type RuneInfo struct {
	RuneID       int64 `json:"rune_id"`
	OccupiedType int   `json:"occupied_type"`
	OccupiedID   int64 `json:"occupied_id"`
	SlotNo       int   `json:"slot_no"`
	Rank         int   `json:"rank"`
	// Class is the star grade; ancient runes report grade + 10.
	Class       int `json:"class"`
	SetID       int `json:"set_id"`
	UpgradeCurr int `json:"upgrade_curr"`
	SellValue   int `json:"sell_value"`
	// PriEff/PrefixEff are [stat, value]; SecEff rows are
	// [stat, value, enchanted, grind].
	PriEff    []float64   `json:"pri_eff"`
	PrefixEff []float64   `json:"prefix_eff"`
	SecEff    [][]float64 `json:"sec_eff"`
	// Extra is the original (drop) quality; ancient adds 10.
	Extra int `json:"extra"`
}

// Stars returns the star grade with the ancient offset removed.
func (r *RuneInfo) Stars() int {
	if r.Class > 10 {
		return r.Class - 10
	}
	return r.Class
}

// IsAncient reports whether the rune is an ancient variant.
func (r *RuneInfo) IsAncient() bool {
	return r.Class > 10
}

// OriginalQuality returns the drop quality with the ancient offset removed.
func (r *RuneInfo) OriginalQuality() int {
	if r.Extra > 10 {
		return r.Extra - 10
	}
	return r.Extra
}

// MainRoll returns the primary effect as (stat, value).
func (r *RuneInfo) MainRoll() (Stat, float64) {
	return statPair(r.PriEff)
}

// InnateRoll returns the innate effect as (stat, value); stat is zero when
// the rune has none.
func (r *RuneInfo) InnateRoll() (Stat, float64) {
	return statPair(r.PrefixEff)
}

// SubstatRolls converts the sec_eff rows to a RollList.
func (r *RuneInfo) SubstatRolls() RollList {
	rolls := make(RollList, 0, len(r.SecEff))
	for _, row := range r.SecEff {
		if len(row) < 2 {
			continue
		}
		roll := Roll{Stat: Stat(int(row[0])), Value: row[1]}
		if len(row) > 2 {
			roll.Enchanted = row[2] == 1
		}
		if len(row) > 3 {
			roll.Grind = row[3]
		}
		rolls = append(rolls, roll)
	}
	return rolls
}

func statPair(pair []float64) (Stat, float64) {
	if len(pair) < 2 {
		return 0, 0
	}
	return Stat(int(pair[0])), pair[1]
}

// ArtifactInfo is one artifact record.
type ArtifactInfo struct {
	ArtifactID int64 `json:"rid"`
	OccupiedID int64 `json:"occupied_id"`
	// Slot is the artifact kind: 1 element, 2 archetype.
	Slot int `json:"type"`
	// Attribute/UnitStyle restrict element and archetype artifacts.
	Attribute   int `json:"attribute"`
	UnitStyle   int `json:"unit_style"`
	Level       int `json:"level"`
	Rank        int `json:"rank"`
	NaturalRank int `json:"natural_rank"`
	// PriEffect is [effect, value, upgrades, ...]; SecEffects rows are
	// [effect, value, upgrades, _, reroll].
	PriEffect  []float64   `json:"pri_effect"`
	SecEffects [][]float64 `json:"sec_effects"`
}

// MainRoll returns the primary effect as (effect id, value).
func (a *ArtifactInfo) MainRoll() (Stat, float64) {
	return statPair(a.PriEffect)
}

// EffectRolls converts the sec_effects rows to a RollList.
func (a *ArtifactInfo) EffectRolls() RollList {
	rolls := make(RollList, 0, len(a.SecEffects))
	for _, row := range a.SecEffects {
		if len(row) < 2 {
			continue
		}
		roll := Roll{Stat: Stat(int(row[0])), Value: row[1]}
		if len(row) > 2 {
			roll.Rolls = int(row[2])
		}
		rolls = append(rolls, roll)
	}
	return rolls
}

// ItemInfo is one inventory stack.
type ItemInfo struct {
	ItemMasterType int   `json:"item_master_type"`
	ItemMasterID   int64 `json:"item_master_id"`
	ItemQuantity   int   `json:"item_quantity"`
}

// BuildingInfo is one placed building.
type BuildingInfo struct {
	BuildingID       int64 `json:"building_id"`
	BuildingMasterID int64 `json:"building_master_id"`
}

// DecoInfo is one placed decoration with its level.
type DecoInfo struct {
	DecoID   int64 `json:"deco_id"`
	MasterID int64 `json:"master_id"`
	Level    int   `json:"level"`
}

// ShrineSlot is one species stack in the monster shrine.
type ShrineSlot struct {
	UnitMasterID int64 `json:"unit_master_id"`
	Quantity     int   `json:"quantity"`
}

// ArenaEquip is one world-arena equipment assignment. RuneID is set for
// rune assignments, ArtifactID for artifact assignments.
type ArenaEquip struct {
	RuneID     int64 `json:"rune_id"`
	ArtifactID int64 `json:"rid"`
	OccupiedID int64 `json:"occupied_id"`
}

// CraftInfo is one rune craft consumable stack. CraftTypeID packs
// set, stat and quality as set*10000 + stat*100 + quality.
type CraftInfo struct {
	CraftItemID int64 `json:"craft_item_id"`
	CraftType   int   `json:"craft_type"`
	CraftTypeID int64 `json:"craft_type_id"`
	Amount      int   `json:"amount"`
}

// Decode unpacks the packed craft_type_id.
func (c *CraftInfo) Decode() (setID int, stat Stat, quality int) {
	return int(c.CraftTypeID / 10000), Stat((c.CraftTypeID / 100) % 100), int(c.CraftTypeID % 100)
}

// ArtifactCraftInfo is one artifact conversion stone stack.
type ArtifactCraftInfo struct {
	CraftItemID int64 `json:"craft_item_id"`
	// Slot is the artifact kind the stone applies to.
	Slot      int `json:"type"`
	Attribute int `json:"attribute"`
	UnitStyle int `json:"unit_style"`
	EffectID  int `json:"effect_id"`
	Quality   int `json:"quality"`
	Amount    int `json:"amount"`
}
