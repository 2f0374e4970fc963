package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

// ErrInvalidPayload marks a schema error: the payload is missing a
// required section or has the wrong shape. It is reported before any
// write happens.
var ErrInvalidPayload = errors.New("invalid snapshot payload")

// Decode parses raw snapshot bytes, unwrapping the friend-view variant,
// and validates the required sections are present.
func Decode(data []byte) (*models.SnapshotPayload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if inner, ok := probe["friend"]; ok {
		if err := json.Unmarshal(inner, &probe); err != nil {
			return nil, fmt.Errorf("%w: friend section: %v", ErrInvalidPayload, err)
		}
		data = inner
	}

	for _, key := range []string{"unit_list", "building_list", "deco_list"} {
		if _, ok := probe[key]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidPayload, key)
		}
	}

	var payload models.SnapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &payload, nil
}

// RuneCandidate is one rune of the batch: the existing row or a fresh
// one, already overwritten from the payload.
type RuneCandidate struct {
	Rune    *models.Rune
	IsNew   bool
	Changed bool
}

// ArtifactCandidate is the artifact counterpart.
type ArtifactCandidate struct {
	Artifact *models.Artifact
	IsNew    bool
	Changed  bool
}

// MonsterCandidate is one monster of the batch together with the
// equipment the payload reports on it (its default loadout).
type MonsterCandidate struct {
	Monster *models.Monster
	Base    *models.MonsterBase
	IsNew   bool
	Changed bool

	Runes     []*RuneCandidate
	Artifacts []*ArtifactCandidate
}

// MaterialCandidate is one material stack's requested absolute quantity.
type MaterialCandidate struct {
	Category int
	ItemID   int64
	Quantity int
}

// ShrineCandidate is one shrine stack's requested quantity.
type ShrineCandidate struct {
	Base     *models.MonsterBase
	Quantity int
}

// BuildingCandidate is one placed building or decoration with its level.
type BuildingCandidate struct {
	Building *models.Building
	Level    int
}

// PieceCandidate is one monster piece stack's requested quantity.
type PieceCandidate struct {
	Base     *models.MonsterBase
	Quantity int
}

// RuneCraftCandidate is one rune craft stack, existing or fresh.
type RuneCraftCandidate struct {
	Craft   *models.RuneCraft
	IsNew   bool
	Changed bool
}

// ArtifactCraftCandidate is the artifact conversion stone counterpart.
type ArtifactCraftCandidate struct {
	Craft   *models.ArtifactCraft
	IsNew   bool
	Changed bool
}

// RTAGroup is the world-arena equipment of one monster, keyed by
// external ids; resolution happens at apply time.
type RTAGroup struct {
	MonsterExternalID int64
	RuneIDs           []int64
	ArtifactIDs       []int64
}

// Batch is a parsed snapshot keyed by entity family, ready for the
// reconciler. Seen* record every external id the payload mentioned and
// drive the deletion sweep.
type Batch struct {
	AccountID uint

	Monsters  []*MonsterCandidate
	Runes     []*RuneCandidate
	Artifacts []*ArtifactCandidate

	HasInventory bool
	Materials    []MaterialCandidate

	HasShrine bool
	Shrine    []ShrineCandidate
	Buildings []BuildingCandidate
	Pieces    []PieceCandidate

	RuneCrafts     []*RuneCraftCandidate
	ArtifactCrafts []*ArtifactCraftCandidate

	HasRTA    bool
	RTAGroups []RTAGroup

	SeenMonsters       map[int64]bool
	SeenRunes          map[int64]bool
	SeenArtifacts      map[int64]bool
	SeenRuneCrafts     map[int64]bool
	SeenArtifactCrafts map[int64]bool
}

// BuildBatch resolves every payload record against the local mirror and
// produces the batch the reconciler applies. Records that cannot be
// resolved against the catalog land in the report, not in the batch.
func BuildBatch(tx *gorm.DB, accountID uint, payload *models.SnapshotPayload, opts ImportOptions, report *ImportReport) (*Batch, error) {
	b := &Batch{
		AccountID:          accountID,
		SeenMonsters:       map[int64]bool{},
		SeenRunes:          map[int64]bool{},
		SeenArtifacts:      map[int64]bool{},
		SeenRuneCrafts:     map[int64]bool{},
		SeenArtifactCrafts: map[int64]bool{},
	}

	storageBuildings := map[int64]bool{}
	for _, info := range payload.BuildingList {
		if info.BuildingMasterID == models.StorageBuildingID {
			storageBuildings[info.BuildingID] = true
		}
	}

	if err := b.collectBuildings(tx, payload, report); err != nil {
		return nil, err
	}
	if err := b.collectInventory(tx, payload, report); err != nil {
		return nil, err
	}
	if err := b.collectShrine(tx, payload, report); err != nil {
		return nil, err
	}
	if err := b.collectUnits(tx, payload, opts, storageBuildings, report); err != nil {
		return nil, err
	}
	if err := b.collectLooseEquipment(tx, payload); err != nil {
		return nil, err
	}
	if err := b.collectCrafts(tx, payload); err != nil {
		return nil, err
	}
	b.collectRTA(payload)

	return b, nil
}

func (b *Batch) collectBuildings(tx *gorm.DB, payload *models.SnapshotPayload, report *ImportReport) error {
	// Placed structures carry no level; presence maps to level 1.
	for _, info := range payload.BuildingList {
		building, err := store.BuildingByCom2usID(tx, info.BuildingMasterID)
		if err != nil {
			return err
		}
		if building == nil {
			report.skip("building", info.BuildingMasterID, SkipUnknownBuilding)
			continue
		}
		b.Buildings = append(b.Buildings, BuildingCandidate{Building: building, Level: 1})
	}
	for _, info := range payload.DecoList {
		building, err := store.BuildingByCom2usID(tx, info.MasterID)
		if err != nil {
			return err
		}
		if building == nil {
			report.skip("building", info.MasterID, SkipUnknownBuilding)
			continue
		}
		b.Buildings = append(b.Buildings, BuildingCandidate{Building: building, Level: info.Level})
	}
	return nil
}

func (b *Batch) collectInventory(tx *gorm.DB, payload *models.SnapshotPayload, report *ImportReport) error {
	if payload.InventoryInfo == nil {
		return nil
	}
	b.HasInventory = true
	for _, item := range *payload.InventoryInfo {
		if item.ItemMasterType == models.ItemCategoryMonsterPiece {
			base, err := store.MonsterBaseByCom2usID(tx, item.ItemMasterID)
			if err != nil {
				return err
			}
			if base == nil {
				report.skip("piece", item.ItemMasterID, SkipUnknownSpecies)
				continue
			}
			b.Pieces = append(b.Pieces, PieceCandidate{Base: base, Quantity: item.ItemQuantity})
			continue
		}
		b.Materials = append(b.Materials, MaterialCandidate{
			Category: item.ItemMasterType,
			ItemID:   item.ItemMasterID,
			Quantity: item.ItemQuantity,
		})
	}
	return nil
}

func (b *Batch) collectShrine(tx *gorm.DB, payload *models.SnapshotPayload, report *ImportReport) error {
	if payload.UnitStorageList == nil {
		return nil
	}
	b.HasShrine = true
	for _, slot := range *payload.UnitStorageList {
		base, err := store.MonsterBaseByCom2usID(tx, slot.UnitMasterID)
		if err != nil {
			return err
		}
		if base == nil {
			report.skip("shrine", slot.UnitMasterID, SkipUnknownSpecies)
			continue
		}
		b.Shrine = append(b.Shrine, ShrineCandidate{Base: base, Quantity: slot.Quantity})
	}
	return nil
}

func (b *Batch) collectUnits(tx *gorm.DB, payload *models.SnapshotPayload, opts ImportOptions, storageBuildings map[int64]bool, report *ImportReport) error {
	var lockSet map[int64]bool
	if opts.LockMonsters && payload.UnitLockList != nil {
		lockSet = map[int64]bool{}
		for _, id := range *payload.UnitLockList {
			lockSet[id] = true
		}
	}

	for i := range payload.UnitList {
		info := &payload.UnitList[i]

		base, err := store.MonsterBaseByCom2usID(tx, info.UnitMasterID)
		if err != nil {
			return err
		}
		if base == nil {
			report.skip("monster", info.UnitID, SkipUnknownSpecies)
			continue
		}
		if !opts.includeMonster(base, info) {
			report.skip("monster", info.UnitID, SkipFiltered)
			continue
		}

		m, err := store.MonsterByExternalID(tx, b.AccountID, info.UnitID)
		if err != nil {
			return err
		}
		isNew := m == nil
		if isNew {
			ext := info.UnitID
			m = &models.Monster{
				AccountID:  b.AccountID,
				ExternalID: &ext,
				Priority:   opts.DefaultPriority,
			}
		}

		before := *m
		store.ApplyUnitInfo(m, base, info, storageBuildings)
		if lockSet != nil {
			m.Locked = lockSet[info.UnitID]
		}

		candidate := &MonsterCandidate{
			Monster: m,
			Base:    base,
			IsNew:   isNew,
			Changed: isNew || !reflect.DeepEqual(before, *m),
		}

		for j := range info.Runes {
			rc, err := b.runeCandidate(tx, &info.Runes[j])
			if err != nil {
				return err
			}
			candidate.Runes = append(candidate.Runes, rc)
		}
		for j := range info.Artifacts {
			ac, err := b.artifactCandidate(tx, &info.Artifacts[j])
			if err != nil {
				return err
			}
			candidate.Artifacts = append(candidate.Artifacts, ac)
		}

		b.Monsters = append(b.Monsters, candidate)
		b.SeenMonsters[info.UnitID] = true
	}
	return nil
}

func (b *Batch) runeCandidate(tx *gorm.DB, info *models.RuneInfo) (*RuneCandidate, error) {
	r, err := store.RuneByExternalID(tx, b.AccountID, info.RuneID)
	if err != nil {
		return nil, err
	}
	isNew := r == nil
	if isNew {
		ext := info.RuneID
		r = &models.Rune{AccountID: b.AccountID, ExternalID: &ext}
	}

	before := *r
	store.ApplyRuneInfo(r, info)

	rc := &RuneCandidate{
		Rune:    r,
		IsNew:   isNew,
		Changed: isNew || !reflect.DeepEqual(before, *r),
	}
	b.Runes = append(b.Runes, rc)
	b.SeenRunes[info.RuneID] = true
	return rc, nil
}

func (b *Batch) artifactCandidate(tx *gorm.DB, info *models.ArtifactInfo) (*ArtifactCandidate, error) {
	a, err := store.ArtifactByExternalID(tx, b.AccountID, info.ArtifactID)
	if err != nil {
		return nil, err
	}
	isNew := a == nil
	if isNew {
		ext := info.ArtifactID
		a = &models.Artifact{AccountID: b.AccountID, ExternalID: &ext}
	}

	before := *a
	store.ApplyArtifactInfo(a, info)

	ac := &ArtifactCandidate{
		Artifact: a,
		IsNew:    isNew,
		Changed:  isNew || !reflect.DeepEqual(before, *a),
	}
	b.Artifacts = append(b.Artifacts, ac)
	b.SeenArtifacts[info.ArtifactID] = true
	return ac, nil
}

// collectLooseEquipment handles the top-level rune and artifact sections,
// which hold the unequipped inventory.
func (b *Batch) collectLooseEquipment(tx *gorm.DB, payload *models.SnapshotPayload) error {
	if payload.Runes != nil {
		for i := range *payload.Runes {
			info := &(*payload.Runes)[i]
			if b.SeenRunes[info.RuneID] {
				continue
			}
			if _, err := b.runeCandidate(tx, info); err != nil {
				return err
			}
		}
	}
	if payload.Artifacts != nil {
		for i := range *payload.Artifacts {
			info := &(*payload.Artifacts)[i]
			if b.SeenArtifacts[info.ArtifactID] {
				continue
			}
			if _, err := b.artifactCandidate(tx, info); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Batch) collectCrafts(tx *gorm.DB, payload *models.SnapshotPayload) error {
	if payload.RuneCraftItemList != nil {
		for _, info := range *payload.RuneCraftItemList {
			craft, err := runeCraftByExternalID(tx, b.AccountID, info.CraftItemID)
			if err != nil {
				return err
			}
			isNew := craft == nil
			if isNew {
				ext := info.CraftItemID
				craft = &models.RuneCraft{AccountID: b.AccountID, ExternalID: &ext}
			}

			before := *craft
			craft.CraftType = info.CraftType
			craft.SetID, craft.Stat, craft.Quality = info.Decode()
			craft.Quantity = info.Amount

			b.RuneCrafts = append(b.RuneCrafts, &RuneCraftCandidate{
				Craft:   craft,
				IsNew:   isNew,
				Changed: isNew || before != *craft,
			})
			b.SeenRuneCrafts[info.CraftItemID] = true
		}
	}

	if payload.ArtifactCrafts != nil {
		for _, info := range *payload.ArtifactCrafts {
			craft, err := artifactCraftByExternalID(tx, b.AccountID, info.CraftItemID)
			if err != nil {
				return err
			}
			isNew := craft == nil
			if isNew {
				ext := info.CraftItemID
				craft = &models.ArtifactCraft{AccountID: b.AccountID, ExternalID: &ext}
			}

			before := *craft
			craft.Slot = info.Slot
			craft.Attribute = info.Attribute
			craft.Archetype = info.UnitStyle
			craft.EffectID = info.EffectID
			craft.Quality = info.Quality
			craft.Quantity = info.Amount

			b.ArtifactCrafts = append(b.ArtifactCrafts, &ArtifactCraftCandidate{
				Craft:   craft,
				IsNew:   isNew,
				Changed: isNew || before != *craft,
			})
			b.SeenArtifactCrafts[info.CraftItemID] = true
		}
	}
	return nil
}

func (b *Batch) collectRTA(payload *models.SnapshotPayload) {
	if payload.WorldArenaRuneEquipList == nil && payload.WorldArenaArtifactEquipList == nil {
		return
	}
	b.HasRTA = true

	groups := map[int64]*RTAGroup{}
	group := func(monsterID int64) *RTAGroup {
		g := groups[monsterID]
		if g == nil {
			g = &RTAGroup{MonsterExternalID: monsterID}
			groups[monsterID] = g
		}
		return g
	}

	if payload.WorldArenaRuneEquipList != nil {
		for _, e := range *payload.WorldArenaRuneEquipList {
			g := group(e.OccupiedID)
			g.RuneIDs = append(g.RuneIDs, e.RuneID)
		}
	}
	if payload.WorldArenaArtifactEquipList != nil {
		for _, e := range *payload.WorldArenaArtifactEquipList {
			g := group(e.OccupiedID)
			g.ArtifactIDs = append(g.ArtifactIDs, e.ArtifactID)
		}
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		b.RTAGroups = append(b.RTAGroups, *groups[id])
	}
}

func runeCraftByExternalID(tx *gorm.DB, accountID uint, externalID int64) (*models.RuneCraft, error) {
	var c models.RuneCraft
	err := tx.Where("account_id = ? AND external_id = ?", accountID, externalID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup rune craft %d: %w", externalID, err)
	}
	return &c, nil
}

func artifactCraftByExternalID(tx *gorm.DB, accountID uint, externalID int64) (*models.ArtifactCraft, error) {
	var c models.ArtifactCraft
	err := tx.Where("account_id = ? AND external_id = ?", accountID, externalID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup artifact craft %d: %w", externalID, err)
	}
	return &c, nil
}
