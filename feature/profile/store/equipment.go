package store

import (
	"errors"
	"fmt"

	"account-mirror/feature/profile/build"
	"account-mirror/feature/profile/efficiency"
	"account-mirror/feature/profile/models"

	"gorm.io/gorm"
)

// RuneByExternalID locates a rune by its reconciliation key.
// Returns (nil, nil) when the rune is not mirrored yet.
func RuneByExternalID(tx *gorm.DB, accountID uint, externalID int64) (*models.Rune, error) {
	var r models.Rune
	err := tx.Where("account_id = ? AND external_id = ?", accountID, externalID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup rune %d: %w", externalID, err)
	}
	return &r, nil
}

// ArtifactByExternalID locates an artifact by its reconciliation key.
func ArtifactByExternalID(tx *gorm.DB, accountID uint, externalID int64) (*models.Artifact, error) {
	var a models.Artifact
	err := tx.Where("account_id = ? AND external_id = ?", accountID, externalID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup artifact %d: %w", externalID, err)
	}
	return &a, nil
}

// LoadBuild fetches a monster's build for the given purpose with its
// membership loaded.
func LoadBuild(tx *gorm.DB, monsterID uint, purpose models.BuildPurpose) (*models.Build, error) {
	var b models.Build
	err := tx.Preload("Runes").Preload("Artifacts").
		Where("monster_id = ? AND purpose = ?", monsterID, purpose).
		First(&b).Error
	if err != nil {
		return nil, fmt.Errorf("load %s build for monster %d: %w", purpose, monsterID, err)
	}
	return &b, nil
}

// RecomputeBuild reloads a build's membership, recomputes the aggregate
// and persists the cached columns. Every mutation of membership or of a
// member's rolls funnels through here before the cache is read again.
func RecomputeBuild(tx *gorm.DB, b *models.Build) error {
	var runes []models.Rune
	if err := tx.Model(b).Association("Runes").Find(&runes); err != nil {
		return fmt.Errorf("load build %d runes: %w", b.ID, err)
	}
	var artifacts []models.Artifact
	if err := tx.Model(b).Association("Artifacts").Find(&artifacts); err != nil {
		return fmt.Errorf("load build %d artifacts: %w", b.ID, err)
	}

	b.Runes = runes
	b.Artifacts = artifacts
	build.Recompute(b)

	return tx.Model(b).Updates(map[string]any{
		"stat_totals":    b.StatTotals,
		"active_sets":    b.ActiveSets,
		"avg_efficiency": b.AvgEfficiency,
	}).Error
}

// RecomputeBuildsContaining recomputes every build that holds the rune,
// covering both loadout purposes after an out-of-band roll edit.
func RecomputeBuildsContaining(tx *gorm.DB, runeID uint) error {
	var builds []models.Build
	err := tx.Joins("JOIN build_runes ON build_runes.build_id = builds.id").
		Where("build_runes.rune_id = ?", runeID).
		Find(&builds).Error
	if err != nil {
		return fmt.Errorf("find builds containing rune %d: %w", runeID, err)
	}
	for i := range builds {
		if err := RecomputeBuild(tx, &builds[i]); err != nil {
			return err
		}
	}
	return nil
}

func recomputeBuildsContainingArtifact(tx *gorm.DB, artifactID uint) error {
	var builds []models.Build
	err := tx.Joins("JOIN build_artifacts ON build_artifacts.build_id = builds.id").
		Where("build_artifacts.artifact_id = ?", artifactID).
		Find(&builds).Error
	if err != nil {
		return fmt.Errorf("find builds containing artifact %d: %w", artifactID, err)
	}
	for i := range builds {
		if err := RecomputeBuild(tx, &builds[i]); err != nil {
			return err
		}
	}
	return nil
}

// AssignRuneToBuild adds a rune to a build, evicting any member occupying
// the same slot first. For the default loadout the rune's assignment
// back-reference follows the membership; the RTA loadout never touches it.
func AssignRuneToBuild(tx *gorm.DB, m *models.Monster, b *models.Build, r *models.Rune) error {
	// Detach from a previous owner's default build, if any.
	if b.Purpose == models.BuildDefault && r.AssignedToID != nil && *r.AssignedToID != m.ID {
		if err := DetachRune(tx, r); err != nil {
			return err
		}
	}

	// Evict the current slot occupant.
	var occupants []models.Rune
	if err := tx.Model(b).Association("Runes").Find(&occupants, "slot = ?", r.Slot); err != nil {
		return fmt.Errorf("find slot %d occupant: %w", r.Slot, err)
	}
	for i := range occupants {
		occ := &occupants[i]
		if occ.ID == r.ID {
			continue
		}
		if err := tx.Model(b).Association("Runes").Delete(occ); err != nil {
			return fmt.Errorf("evict rune %d: %w", occ.ID, err)
		}
		if b.Purpose == models.BuildDefault {
			if err := tx.Model(occ).Update("assigned_to_id", nil).Error; err != nil {
				return fmt.Errorf("clear eviction back-reference: %w", err)
			}
		}
	}

	if err := tx.Model(b).Association("Runes").Append(r); err != nil {
		return fmt.Errorf("assign rune %d: %w", r.ID, err)
	}
	if b.Purpose == models.BuildDefault {
		if err := tx.Model(r).Update("assigned_to_id", m.ID).Error; err != nil {
			return fmt.Errorf("set assignment back-reference: %w", err)
		}
		r.AssignedToID = &m.ID
	}

	return RecomputeBuild(tx, b)
}

// RemoveRuneFromBuild drops a rune from a build and recomputes it.
func RemoveRuneFromBuild(tx *gorm.DB, b *models.Build, r *models.Rune) error {
	if err := tx.Model(b).Association("Runes").Delete(r); err != nil {
		return fmt.Errorf("remove rune %d from build %d: %w", r.ID, b.ID, err)
	}
	if b.Purpose == models.BuildDefault && r.AssignedToID != nil {
		if err := tx.Model(r).Update("assigned_to_id", nil).Error; err != nil {
			return fmt.Errorf("clear assignment back-reference: %w", err)
		}
		r.AssignedToID = nil
	}
	return RecomputeBuild(tx, b)
}

// DetachRune removes a rune from its current owner's default build and
// recomputes that build. A rune without an owner is left alone.
func DetachRune(tx *gorm.DB, r *models.Rune) error {
	if r.AssignedToID == nil {
		return nil
	}
	prev, err := LoadBuild(tx, *r.AssignedToID, models.BuildDefault)
	if err != nil {
		return err
	}
	return RemoveRuneFromBuild(tx, prev, r)
}

// ReplaceBuildEquipment swaps a build's membership for exactly the given
// sets: members absent from the new sets are dropped, new ones added, and
// the aggregate recomputed once.
func ReplaceBuildEquipment(tx *gorm.DB, b *models.Build, runes []*models.Rune, artifacts []*models.Artifact) error {
	if b.Purpose == models.BuildDefault {
		// Re-point assignment back-references at the new membership.
		var current []models.Rune
		if err := tx.Model(b).Association("Runes").Find(&current); err != nil {
			return fmt.Errorf("load build %d runes: %w", b.ID, err)
		}
		next := make(map[uint]bool, len(runes))
		for _, r := range runes {
			next[r.ID] = true
		}
		for i := range current {
			if !next[current[i].ID] {
				if err := tx.Model(&current[i]).Update("assigned_to_id", nil).Error; err != nil {
					return fmt.Errorf("clear dropped member back-reference: %w", err)
				}
			}
		}
	}

	runeValues := make([]models.Rune, len(runes))
	for i, r := range runes {
		runeValues[i] = *r
	}
	artifactValues := make([]models.Artifact, len(artifacts))
	for i, a := range artifacts {
		artifactValues[i] = *a
	}

	if err := tx.Model(b).Association("Runes").Replace(&runeValues); err != nil {
		return fmt.Errorf("replace build %d runes: %w", b.ID, err)
	}
	if err := tx.Model(b).Association("Artifacts").Replace(&artifactValues); err != nil {
		return fmt.Errorf("replace build %d artifacts: %w", b.ID, err)
	}

	if b.Purpose == models.BuildDefault {
		for _, r := range runes {
			if err := tx.Model(r).Update("assigned_to_id", b.MonsterID).Error; err != nil {
				return fmt.Errorf("set member back-reference: %w", err)
			}
		}
		for _, a := range artifacts {
			if err := tx.Model(a).Update("assigned_to_id", b.MonsterID).Error; err != nil {
				return fmt.Errorf("set member back-reference: %w", err)
			}
		}
	}

	return RecomputeBuild(tx, b)
}

// ClearBuild empties a build's membership entirely.
func ClearBuild(tx *gorm.DB, b *models.Build) error {
	return ReplaceBuildEquipment(tx, b, nil, nil)
}

// ApplyRuneInfo maps a rune record's fields onto a rune row, fully
// overwriting the rolls, and rescores efficiency.
func ApplyRuneInfo(r *models.Rune, info *models.RuneInfo) {
	r.Slot = info.SlotNo
	r.SetID = info.SetID
	r.Stars = info.Stars()
	r.Ancient = info.IsAncient()
	r.Level = info.UpgradeCurr
	r.OriginalQuality = info.OriginalQuality()
	r.Value = info.SellValue

	if rank := info.Rank; rank > 10 {
		r.Quality = rank - 10
	} else {
		r.Quality = rank
	}

	r.MainStat, r.MainValue = info.MainRoll()
	r.InnateStat, r.InnateValue = info.InnateRoll()
	r.Substats = info.SubstatRolls()

	res := efficiency.Rune(r)
	r.Efficiency = res.Efficiency
	r.MaxEfficiency = res.MaxEfficiency
}

// ApplyArtifactInfo maps an artifact record onto an artifact row and
// rescores efficiency.
func ApplyArtifactInfo(a *models.Artifact, info *models.ArtifactInfo) {
	a.Slot = info.Slot
	a.Attribute = info.Attribute
	a.Archetype = info.UnitStyle
	a.Level = info.Level
	a.Quality = info.Rank
	a.OriginalQuality = info.NaturalRank

	a.MainStat, a.MainValue = info.MainRoll()
	a.Effects = info.EffectRolls()

	res := efficiency.Artifact(a)
	a.Efficiency = res.Efficiency
	a.MaxEfficiency = res.MaxEfficiency
}

// UpsertRune locates a rune by (account, external id) or constructs it,
// overwrites it from the record and persists. When assignTo is given the
// rune joins that monster's default build, detaching from any previous
// owner first.
func UpsertRune(tx *gorm.DB, accountID uint, info *models.RuneInfo, assignTo *models.Monster) (*models.Rune, error) {
	r, err := RuneByExternalID(tx, accountID, info.RuneID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		ext := info.RuneID
		r = &models.Rune{AccountID: accountID, ExternalID: &ext}
	}

	ApplyRuneInfo(r, info)
	if err := tx.Save(r).Error; err != nil {
		return nil, fmt.Errorf("save rune %d: %w", info.RuneID, err)
	}

	// The roll change must reach the aggregates of builds that already
	// hold this rune.
	if err := RecomputeBuildsContaining(tx, r.ID); err != nil {
		return nil, err
	}

	if assignTo != nil {
		b, err := LoadBuild(tx, assignTo.ID, models.BuildDefault)
		if err != nil {
			return nil, err
		}
		if err := AssignRuneToBuild(tx, assignTo, b, r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// UpsertArtifact is the artifact counterpart of UpsertRune.
func UpsertArtifact(tx *gorm.DB, accountID uint, info *models.ArtifactInfo, assignTo *models.Monster) (*models.Artifact, error) {
	a, err := ArtifactByExternalID(tx, accountID, info.ArtifactID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		ext := info.ArtifactID
		a = &models.Artifact{AccountID: accountID, ExternalID: &ext}
	}

	ApplyArtifactInfo(a, info)
	if err := tx.Save(a).Error; err != nil {
		return nil, fmt.Errorf("save artifact %d: %w", info.ArtifactID, err)
	}
	if err := recomputeBuildsContainingArtifact(tx, a.ID); err != nil {
		return nil, err
	}

	if assignTo != nil {
		if err := assignArtifact(tx, assignTo, a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// assignArtifact adds an artifact to a monster's default build, evicting
// the member of the same kind (element or archetype slot).
func assignArtifact(tx *gorm.DB, m *models.Monster, a *models.Artifact) error {
	b, err := LoadBuild(tx, m.ID, models.BuildDefault)
	if err != nil {
		return err
	}

	var occupants []models.Artifact
	if err := tx.Model(b).Association("Artifacts").Find(&occupants, "slot = ?", a.Slot); err != nil {
		return fmt.Errorf("find artifact slot %d occupant: %w", a.Slot, err)
	}
	for i := range occupants {
		occ := &occupants[i]
		if occ.ID == a.ID {
			continue
		}
		if err := tx.Model(b).Association("Artifacts").Delete(occ); err != nil {
			return fmt.Errorf("evict artifact %d: %w", occ.ID, err)
		}
		if err := tx.Model(occ).Update("assigned_to_id", nil).Error; err != nil {
			return fmt.Errorf("clear eviction back-reference: %w", err)
		}
	}

	if err := tx.Model(b).Association("Artifacts").Append(a); err != nil {
		return fmt.Errorf("assign artifact %d: %w", a.ID, err)
	}
	if err := tx.Model(a).Update("assigned_to_id", m.ID).Error; err != nil {
		return fmt.Errorf("set assignment back-reference: %w", err)
	}
	a.AssignedToID = &m.ID

	return RecomputeBuild(tx, b)
}

// ReconcileSubstats overwrites a rune's roll list (after an upgrade,
// grind or enchant), rescores efficiency, persists, and recomputes every
// build the rune is a member of.
func ReconcileSubstats(tx *gorm.DB, r *models.Rune, rolls models.RollList) error {
	r.Substats = rolls

	res := efficiency.Rune(r)
	r.Efficiency = res.Efficiency
	r.MaxEfficiency = res.MaxEfficiency

	if err := tx.Save(r).Error; err != nil {
		return fmt.Errorf("save rune %d rolls: %w", r.ID, err)
	}
	return RecomputeBuildsContaining(tx, r.ID)
}

// DeleteRune removes a rune from every build it is in and deletes it.
func DeleteRune(tx *gorm.DB, r *models.Rune) error {
	var builds []models.Build
	err := tx.Joins("JOIN build_runes ON build_runes.build_id = builds.id").
		Where("build_runes.rune_id = ?", r.ID).
		Find(&builds).Error
	if err != nil {
		return fmt.Errorf("find builds containing rune %d: %w", r.ID, err)
	}
	for i := range builds {
		if err := RemoveRuneFromBuild(tx, &builds[i], r); err != nil {
			return err
		}
	}
	return tx.Delete(r).Error
}

// DeleteArtifact removes an artifact from every build and deletes it.
func DeleteArtifact(tx *gorm.DB, a *models.Artifact) error {
	var builds []models.Build
	err := tx.Joins("JOIN build_artifacts ON build_artifacts.build_id = builds.id").
		Where("build_artifacts.artifact_id = ?", a.ID).
		Find(&builds).Error
	if err != nil {
		return fmt.Errorf("find builds containing artifact %d: %w", a.ID, err)
	}
	for i := range builds {
		b := &builds[i]
		if err := tx.Model(b).Association("Artifacts").Delete(a); err != nil {
			return fmt.Errorf("remove artifact %d from build %d: %w", a.ID, b.ID, err)
		}
		if err := RecomputeBuild(tx, b); err != nil {
			return err
		}
	}
	return tx.Delete(a).Error
}
