package events

import (
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

type unitListResponse struct {
	UnitList []models.UnitInfo `json:"unit_list"`
	UnitInfo *models.UnitInfo  `json:"unit_info"`
}

func (d *Dispatcher) registerAcquisition() {
	d.Register("SummonUnit", d.handleUnitResponse)
	d.Register("AwakenUnit", d.handleUnitResponse)
	d.Register("BuyShopItem", d.handleUnitResponse)
}

// handleUnitResponse upserts every unit record the response carries.
// Species the catalog does not know are dropped silently, same as on
// import.
func (d *Dispatcher) handleUnitResponse(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[unitListResponse](env)
	if err != nil {
		return nil, err
	}

	units := resp.UnitList
	if resp.UnitInfo != nil {
		units = append(units, *resp.UnitInfo)
	}

	for i := range units {
		if _, err := store.UpsertMonster(tx, accountID, &units[i], d.defaultPriority, nil); err != nil {
			return nil, err
		}
	}
	return Result{}, nil
}
