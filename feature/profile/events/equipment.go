package events

import (
	"strconv"

	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

type equipRequest struct {
	UnitID int64 `json:"unit_id"`
	RuneID int64 `json:"rune_id"`
}

type equipListRequest struct {
	UnitID     int64   `json:"unit_id"`
	RuneIDList []int64 `json:"rune_id_list"`
}

func (d *Dispatcher) registerEquipment() {
	d.Register("EquipRune", d.equipRune)
	d.Register("UnequipRune", d.unequipRune)
	d.Register("EquipRuneList", d.equipRuneList)
}

func (d *Dispatcher) equipRune(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[equipRequest](env)
	if err != nil {
		return nil, err
	}

	result := Result{}
	m, err := store.MonsterByExternalID(tx, accountID, req.UnitID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		result[ReasonMonster] = strconv.FormatInt(req.UnitID, 10)
		return result, nil
	}

	r, err := store.RuneByExternalID(tx, accountID, req.RuneID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		result[ReasonRune] = strconv.FormatInt(req.RuneID, 10)
		return result, nil
	}

	b, err := store.LoadBuild(tx, m.ID, models.BuildDefault)
	if err != nil {
		return nil, err
	}
	if err := store.AssignRuneToBuild(tx, m, b, r); err != nil {
		return nil, err
	}
	return result, nil
}

// equipRuneList reassigns a batch of runes onto one monster in a single
// event, the management-screen counterpart of equipRune. Runes the mirror
// does not know are reported and skipped, the rest still move.
func (d *Dispatcher) equipRuneList(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[equipListRequest](env)
	if err != nil {
		return nil, err
	}

	result := Result{}
	m, err := store.MonsterByExternalID(tx, accountID, req.UnitID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		result[ReasonMonster] = strconv.FormatInt(req.UnitID, 10)
		return result, nil
	}

	b, err := store.LoadBuild(tx, m.ID, models.BuildDefault)
	if err != nil {
		return nil, err
	}
	for _, id := range req.RuneIDList {
		r, err := store.RuneByExternalID(tx, accountID, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			result[ReasonRune] = strconv.FormatInt(id, 10)
			continue
		}
		if err := store.AssignRuneToBuild(tx, m, b, r); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Dispatcher) unequipRune(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	req, err := decodeRequest[equipRequest](env)
	if err != nil {
		return nil, err
	}

	result := Result{}
	r, err := store.RuneByExternalID(tx, accountID, req.RuneID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		result[ReasonRune] = strconv.FormatInt(req.RuneID, 10)
		return result, nil
	}

	if err := store.DetachRune(tx, r); err != nil {
		return nil, err
	}
	return result, nil
}
