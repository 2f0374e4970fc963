package store

import (
	"errors"
	"fmt"

	"account-mirror/feature/profile/models"

	"gorm.io/gorm"
)

// MonsterByExternalID locates a monster by its reconciliation key.
// Returns (nil, nil) when no such monster is mirrored yet.
func MonsterByExternalID(tx *gorm.DB, accountID uint, externalID int64) (*models.Monster, error) {
	var m models.Monster
	err := tx.Where("account_id = ? AND external_id = ?", accountID, externalID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup monster %d: %w", externalID, err)
	}
	return &m, nil
}

// EnsureBuilds creates the monster's default and RTA build rows if they
// do not exist yet. Builds are created lazily on first persist and are
// never nil afterward.
func EnsureBuilds(tx *gorm.DB, m *models.Monster) error {
	for _, purpose := range []models.BuildPurpose{models.BuildDefault, models.BuildRTA} {
		var b models.Build
		err := tx.Where(models.Build{MonsterID: m.ID, Purpose: purpose}).
			FirstOrCreate(&b).Error
		if err != nil {
			return fmt.Errorf("ensure %s build for monster %d: %w", purpose, m.ID, err)
		}
	}
	return nil
}

// ApplyUnitInfo maps a unit record's fields onto a monster, applying the
// archetype-driven defaults: material species are always fodder with a
// done priority, and only homunculi keep a custom name.
//
// storageBuildings, when non-nil, is the set of building instance ids
// that are the storage building; the record's parking spot then decides
// the in-storage flag. A nil set leaves the flag untouched (events that
// don't know the building list).
func ApplyUnitInfo(m *models.Monster, base *models.MonsterBase, info *models.UnitInfo, storageBuildings map[int64]bool) {
	m.BaseID = base.ID
	m.Stars = info.Class
	m.Level = info.UnitLevel
	m.SkillLevels = info.SkillLevels()

	if created := info.CreatedOn(); created != nil {
		m.CreatedOn = created
	}

	if storageBuildings != nil {
		m.InStorage = storageBuildings[info.BuildingID]
	}

	if base.IsHomunculus {
		m.CustomName = info.HomunculusName
	} else {
		m.CustomName = ""
	}

	if base.Archetype == models.ArchetypeMaterial {
		m.Fodder = true
		m.Priority = models.PriorityDone
	}
}

// UpsertMonster locates a monster by (account, external id), constructs
// it if absent, applies the unit record and persists it together with its
// two builds. A species catalog miss is reported as (nil, nil); the
// caller records the skip.
func UpsertMonster(tx *gorm.DB, accountID uint, info *models.UnitInfo, defaultPriority models.Priority, storageBuildings map[int64]bool) (*models.Monster, error) {
	base, err := MonsterBaseByCom2usID(tx, info.UnitMasterID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, nil
	}

	m, err := MonsterByExternalID(tx, accountID, info.UnitID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		ext := info.UnitID
		m = &models.Monster{
			AccountID:  accountID,
			ExternalID: &ext,
			Priority:   defaultPriority,
		}
	}

	ApplyUnitInfo(m, base, info, storageBuildings)

	if err := tx.Save(m).Error; err != nil {
		return nil, fmt.Errorf("save monster %d: %w", info.UnitID, err)
	}
	if err := EnsureBuilds(tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMonster removes a monster, its builds and their membership rows.
// Equipment assigned to it is detached, not deleted.
func DeleteMonster(tx *gorm.DB, m *models.Monster) error {
	if err := tx.Model(&models.Rune{}).
		Where("assigned_to_id = ?", m.ID).
		Update("assigned_to_id", nil).Error; err != nil {
		return fmt.Errorf("detach runes from monster %d: %w", m.ID, err)
	}
	if err := tx.Model(&models.Artifact{}).
		Where("assigned_to_id = ?", m.ID).
		Update("assigned_to_id", nil).Error; err != nil {
		return fmt.Errorf("detach artifacts from monster %d: %w", m.ID, err)
	}

	var builds []models.Build
	if err := tx.Where("monster_id = ?", m.ID).Find(&builds).Error; err != nil {
		return fmt.Errorf("load builds for monster %d: %w", m.ID, err)
	}
	for i := range builds {
		b := &builds[i]
		if err := tx.Model(b).Association("Runes").Clear(); err != nil {
			return fmt.Errorf("clear build %d runes: %w", b.ID, err)
		}
		if err := tx.Model(b).Association("Artifacts").Clear(); err != nil {
			return fmt.Errorf("clear build %d artifacts: %w", b.ID, err)
		}
	}
	if err := tx.Where("monster_id = ?", m.ID).Delete(&models.Build{}).Error; err != nil {
		return fmt.Errorf("delete builds for monster %d: %w", m.ID, err)
	}

	return tx.Delete(m).Error
}
