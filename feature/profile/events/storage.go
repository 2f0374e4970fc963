package events

import (
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

type itemListResponse struct {
	ItemList []models.ItemInfo `json:"item_list"`
}

type shrineResponse struct {
	UnitStorageList []models.ShrineSlot `json:"unit_storage_list"`
}

func (d *Dispatcher) registerStorage() {
	d.Register("GetItemList", d.applyItemList)
	d.Register("ConvertUnitToStorage", d.applyShrineList)
	d.Register("DrawUnitFromStorage", d.applyShrineList)
}

// applyItemList writes absolute material quantities from the response.
// A quantity of zero deletes the stack. Monster pieces route to their
// own family; unknown species and unknown item types are dropped.
func (d *Dispatcher) applyItemList(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[itemListResponse](env)
	if err != nil {
		return nil, err
	}

	for _, item := range resp.ItemList {
		if item.ItemMasterType == models.ItemCategoryMonsterPiece {
			base, err := store.MonsterBaseByCom2usID(tx, item.ItemMasterID)
			if err != nil {
				return nil, err
			}
			if base == nil {
				continue
			}
			if err := store.SetPieceQuantity(tx, accountID, base.ID, item.ItemQuantity); err != nil {
				return nil, err
			}
			continue
		}

		known, err := store.GameItemExists(tx, item.ItemMasterType, item.ItemMasterID)
		if err != nil {
			return nil, err
		}
		if !known {
			continue
		}
		if err := store.SetMaterialQuantity(tx, accountID, item.ItemMasterType, item.ItemMasterID, item.ItemQuantity); err != nil {
			return nil, err
		}
	}
	return Result{}, nil
}

func (d *Dispatcher) applyShrineList(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[shrineResponse](env)
	if err != nil {
		return nil, err
	}

	for _, slot := range resp.UnitStorageList {
		base, err := store.MonsterBaseByCom2usID(tx, slot.UnitMasterID)
		if err != nil {
			return nil, err
		}
		if base == nil {
			continue
		}
		if err := store.SetShrineQuantity(tx, accountID, base.ID, slot.Quantity); err != nil {
			return nil, err
		}
	}
	return Result{}, nil
}
