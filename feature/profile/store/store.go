package store

import (
	"errors"
	"fmt"

	"account-mirror/feature/profile/models"

	"gorm.io/gorm"
)

// Catalog lookups. The catalog is reference data; a miss means the local
// catalog lags behind the game and the affected record is skipped, never
// failed.

// MonsterBaseByCom2usID resolves a species id against the catalog.
// Returns (nil, nil) on a catalog miss.
func MonsterBaseByCom2usID(tx *gorm.DB, com2usID int64) (*models.MonsterBase, error) {
	var base models.MonsterBase
	err := tx.Where("com2us_id = ?", com2usID).First(&base).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup monster base %d: %w", com2usID, err)
	}
	return &base, nil
}

// BuildingByCom2usID resolves a building master id against the catalog.
// Returns (nil, nil) on a miss.
func BuildingByCom2usID(tx *gorm.DB, com2usID int64) (*models.Building, error) {
	var b models.Building
	err := tx.Where("com2us_id = ?", com2usID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup building %d: %w", com2usID, err)
	}
	return &b, nil
}

// GameItemExists reports whether an item type is known to the catalog.
func GameItemExists(tx *gorm.DB, category int, com2usID int64) (bool, error) {
	var count int64
	err := tx.Model(&models.GameItem{}).
		Where("category = ? AND com2us_id = ?", category, com2usID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup game item %d/%d: %w", category, com2usID, err)
	}
	return count > 0, nil
}

// SetMaterialQuantity writes a material stack's absolute quantity. A
// result of zero or less deletes the row: a zero stack is logically
// absent. Setting an absent row to zero is a no-op, which keeps the
// operation idempotent.
func SetMaterialQuantity(tx *gorm.DB, accountID uint, category int, itemID int64, quantity int) error {
	if quantity <= 0 {
		return tx.Where("account_id = ? AND item_category = ? AND item_id = ?", accountID, category, itemID).
			Delete(&models.MaterialStorage{}).Error
	}

	var row models.MaterialStorage
	err := tx.Where("account_id = ? AND item_category = ? AND item_id = ?", accountID, category, itemID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.MaterialStorage{AccountID: accountID, ItemCategory: category, ItemID: itemID}
	} else if err != nil {
		return fmt.Errorf("lookup material %d/%d: %w", category, itemID, err)
	}

	row.Quantity = quantity
	return tx.Save(&row).Error
}

// AddMaterialQuantity adjusts a material stack by a delta, clamping the
// result at zero (which deletes the row).
func AddMaterialQuantity(tx *gorm.DB, accountID uint, category int, itemID int64, delta int) error {
	var row models.MaterialStorage
	current := 0
	err := tx.Where("account_id = ? AND item_category = ? AND item_id = ?", accountID, category, itemID).
		First(&row).Error
	if err == nil {
		current = row.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup material %d/%d: %w", category, itemID, err)
	}

	return SetMaterialQuantity(tx, accountID, category, itemID, current+delta)
}

// SetShrineQuantity writes a shrine stack's absolute quantity, deleting
// at zero.
func SetShrineQuantity(tx *gorm.DB, accountID uint, baseID uint, quantity int) error {
	if quantity <= 0 {
		return tx.Where("account_id = ? AND base_id = ?", accountID, baseID).
			Delete(&models.MonsterShrineStorage{}).Error
	}

	var row models.MonsterShrineStorage
	err := tx.Where("account_id = ? AND base_id = ?", accountID, baseID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.MonsterShrineStorage{AccountID: accountID, BaseID: baseID}
	} else if err != nil {
		return fmt.Errorf("lookup shrine stack %d: %w", baseID, err)
	}

	row.Quantity = quantity
	return tx.Save(&row).Error
}

// SetPieceQuantity writes a monster piece stack's absolute quantity,
// deleting at zero.
func SetPieceQuantity(tx *gorm.DB, accountID uint, baseID uint, quantity int) error {
	if quantity <= 0 {
		return tx.Where("account_id = ? AND base_id = ?", accountID, baseID).
			Delete(&models.MonsterPiece{}).Error
	}

	var row models.MonsterPiece
	err := tx.Where("account_id = ? AND base_id = ?", accountID, baseID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.MonsterPiece{AccountID: accountID, BaseID: baseID}
	} else if err != nil {
		return fmt.Errorf("lookup piece stack %d: %w", baseID, err)
	}

	row.Quantity = quantity
	return tx.Save(&row).Error
}

// AddPieceQuantity adjusts a monster piece stack by a delta, clamping the
// result at zero.
func AddPieceQuantity(tx *gorm.DB, accountID uint, baseID uint, delta int) error {
	var row models.MonsterPiece
	current := 0
	err := tx.Where("account_id = ? AND base_id = ?", accountID, baseID).First(&row).Error
	if err == nil {
		current = row.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup piece stack %d: %w", baseID, err)
	}
	return SetPieceQuantity(tx, accountID, baseID, current+delta)
}

// SetBuildingLevel upserts a building instance's level, clamped to
// [0, catalog max]. Building instances are never deleted.
func SetBuildingLevel(tx *gorm.DB, accountID uint, building *models.Building, level int) error {
	if level < 0 {
		level = 0
	}
	if building.MaxLevel > 0 && level > building.MaxLevel {
		level = building.MaxLevel
	}

	var row models.BuildingInstance
	err := tx.Where("account_id = ? AND building_id = ?", accountID, building.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.BuildingInstance{AccountID: accountID, BuildingID: building.ID}
	} else if err != nil {
		return fmt.Errorf("lookup building instance %d: %w", building.ID, err)
	}

	row.Level = level
	return tx.Save(&row).Error
}
