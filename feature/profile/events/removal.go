package events

import (
	"strconv"

	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

type sellRequest struct {
	UnitID     int64   `json:"unit_id"`
	UnitIDList []int64 `json:"unit_id_list"`

	RuneIDList     []int64 `json:"rune_id_list"`
	ArtifactIDList []int64 `json:"artifact_ids"`

	CraftItemIDList []int64 `json:"craft_item_id_list"`
}

func (d *Dispatcher) registerRemoval() {
	d.Register("SellUnit", d.sellUnits)
	d.Register("SacrificeUnit", d.sellUnits)
	d.Register("SellRune", d.sellRunes)
	d.Register("SellArtifacts", d.sellArtifacts)
	d.Register("SellRuneCraftItem", d.sellCrafts)
}

// sellUnits removes sold monsters. Ids the mirror does not know are
// reported, not failed: the event may have raced a sweep.
func (d *Dispatcher) sellUnits(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[sellRequest](env)
	if err != nil {
		return nil, err
	}

	ids := req.UnitIDList
	if req.UnitID != 0 {
		ids = append(ids, req.UnitID)
	}

	result := Result{}
	for _, id := range ids {
		m, err := store.MonsterByExternalID(tx, accountID, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			result[ReasonMonster] = strconv.FormatInt(id, 10)
			continue
		}
		if err := store.DeleteMonster(tx, m); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Dispatcher) sellRunes(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[sellRequest](env)
	if err != nil {
		return nil, err
	}

	result := Result{}
	for _, id := range req.RuneIDList {
		r, err := store.RuneByExternalID(tx, accountID, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			result[ReasonRune] = strconv.FormatInt(id, 10)
			continue
		}
		if err := store.DeleteRune(tx, r); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Dispatcher) sellArtifacts(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[sellRequest](env)
	if err != nil {
		return nil, err
	}

	result := Result{}
	for _, id := range req.ArtifactIDList {
		a, err := store.ArtifactByExternalID(tx, accountID, id)
		if err != nil {
			return nil, err
		}
		if a == nil {
			result[ReasonArtifact] = strconv.FormatInt(id, 10)
			continue
		}
		if err := store.DeleteArtifact(tx, a); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Dispatcher) sellCrafts(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[sellRequest](env)
	if err != nil {
		return nil, err
	}

	for _, id := range req.CraftItemIDList {
		err := tx.Where("account_id = ? AND external_id = ?", accountID, id).
			Delete(&models.RuneCraft{}).Error
		if err != nil {
			return nil, err
		}
	}
	return Result{}, nil
}
