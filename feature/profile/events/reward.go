package events

import (
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

// rewardResponse is the shape battle results, mail and wishes share.
// Gained items arrive in item_list as deltas; unit and rune drops sit
// either at the top level or inside the reward crate.
type rewardResponse struct {
	ItemList []models.ItemInfo `json:"item_list"`
	UnitList []models.UnitInfo `json:"unit_list"`
	UnitInfo *models.UnitInfo  `json:"unit_info"`
	Rune     *models.RuneInfo  `json:"rune"`
	Runes    []models.RuneInfo `json:"runes"`
	Reward   *rewardSection    `json:"reward"`
}

type rewardSection struct {
	Crate rewardCrate `json:"crate"`
}

type rewardCrate struct {
	ItemList []models.ItemInfo `json:"item_list"`
	UnitInfo *models.UnitInfo  `json:"unit_info"`
	Rune     *models.RuneInfo  `json:"rune"`
	Runes    []models.RuneInfo `json:"runes"`
}

func (d *Dispatcher) registerRewards() {
	d.Register("BattleDungeonResult", d.applyReward)
	d.Register("BattleRiftDungeonResult", d.applyReward)
	d.Register("BattleRiftOfWorldsRaidResult", d.applyReward)
	d.Register("ReceiveMail", d.applyReward)
	d.Register("DoRandomWishItem", d.applyReward)
}

// applyReward mirrors every drop a reward payload carries. Units go
// through the same upsert as summons, runes land unassigned, and item
// quantities are adjusted by the gained amount rather than overwritten.
func (d *Dispatcher) applyReward(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[rewardResponse](env)
	if err != nil {
		return nil, err
	}

	units := resp.UnitList
	if resp.UnitInfo != nil {
		units = append(units, *resp.UnitInfo)
	}
	drops := resp.Runes
	if resp.Rune != nil {
		drops = append(drops, *resp.Rune)
	}
	items := resp.ItemList

	if resp.Reward != nil {
		crate := resp.Reward.Crate
		if crate.UnitInfo != nil {
			units = append(units, *crate.UnitInfo)
		}
		if crate.Rune != nil {
			drops = append(drops, *crate.Rune)
		}
		drops = append(drops, crate.Runes...)
		items = append(items, crate.ItemList...)
	}

	for i := range units {
		if _, err := store.UpsertMonster(tx, accountID, &units[i], d.defaultPriority, nil); err != nil {
			return nil, err
		}
	}
	for i := range drops {
		if _, err := store.UpsertRune(tx, accountID, &drops[i], nil); err != nil {
			return nil, err
		}
	}
	if err := d.addItems(tx, accountID, items); err != nil {
		return nil, err
	}
	return Result{}, nil
}

// addItems applies gained item quantities as deltas. Unknown species and
// unknown item types are dropped, same as on the absolute path.
func (d *Dispatcher) addItems(tx *gorm.DB, accountID uint, items []models.ItemInfo) error {
	for _, item := range items {
		if item.ItemMasterType == models.ItemCategoryMonsterPiece {
			base, err := store.MonsterBaseByCom2usID(tx, item.ItemMasterID)
			if err != nil {
				return err
			}
			if base == nil {
				continue
			}
			if err := store.AddPieceQuantity(tx, accountID, base.ID, item.ItemQuantity); err != nil {
				return err
			}
			continue
		}

		known, err := store.GameItemExists(tx, item.ItemMasterType, item.ItemMasterID)
		if err != nil {
			return err
		}
		if !known {
			continue
		}
		if err := store.AddMaterialQuantity(tx, accountID, item.ItemMasterType, item.ItemMasterID, item.ItemQuantity); err != nil {
			return err
		}
	}
	return nil
}
