package events

import (
	"strconv"

	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"gorm.io/gorm"
)

type runeResponse struct {
	Rune *models.RuneInfo `json:"rune"`
}

type artifactResponse struct {
	Artifact *models.ArtifactInfo `json:"artifact"`
}

type lockRequest struct {
	UnitIDList []int64 `json:"unit_id_list"`
}

func (d *Dispatcher) registerMutation() {
	d.Register("UpgradeUnit", d.handleUnitResponse)
	d.Register("UpgradeRune", d.handleRuneResponse)
	d.Register("AmplifyRune", d.handleRuneRolls)
	d.Register("ConvertRune", d.handleRuneRolls)
	d.Register("ChangeArtifactAssignment", d.handleArtifactResponse)
	d.Register("UpgradeArtifact", d.handleArtifactResponse)
	d.Register("LockUnit", d.lockUnits(true))
	d.Register("UnlockUnit", d.lockUnits(false))
}

// handleRuneResponse writes the rune's post-state. A rune the mirror has
// never seen is created on the spot; when the record says it is equipped
// the rune joins that monster's default build.
func (d *Dispatcher) handleRuneResponse(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[runeResponse](env)
	if err != nil {
		return nil, err
	}
	if resp.Rune == nil {
		return Result{}, nil
	}

	result := Result{}
	var assignTo *models.Monster
	if resp.Rune.OccupiedType == 1 && resp.Rune.OccupiedID != 0 {
		m, err := store.MonsterByExternalID(tx, accountID, resp.Rune.OccupiedID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			result[ReasonMonster] = strconv.FormatInt(resp.Rune.OccupiedID, 10)
		}
		assignTo = m
	}

	if _, err := store.UpsertRune(tx, accountID, resp.Rune, assignTo); err != nil {
		return nil, err
	}
	return result, nil
}

// handleRuneRolls applies a grind or enchant: only the roll list changes,
// so a mirrored rune keeps its row and gets its substats reconciled in
// place. A rune the mirror has never seen falls back to the full write.
func (d *Dispatcher) handleRuneRolls(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[runeResponse](env)
	if err != nil {
		return nil, err
	}
	if resp.Rune == nil {
		return Result{}, nil
	}

	r, err := store.RuneByExternalID(tx, accountID, resp.Rune.RuneID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return d.handleRuneResponse(tx, accountID, env)
	}

	if err := store.ReconcileSubstats(tx, r, resp.Rune.SubstatRolls()); err != nil {
		return nil, err
	}
	return Result{}, nil
}

func (d *Dispatcher) handleArtifactResponse(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
	resp, err := decodeResponse[artifactResponse](env)
	if err != nil {
		return nil, err
	}
	if resp.Artifact == nil {
		return Result{}, nil
	}

	result := Result{}
	var assignTo *models.Monster
	if resp.Artifact.OccupiedID != 0 {
		m, err := store.MonsterByExternalID(tx, accountID, resp.Artifact.OccupiedID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			result[ReasonMonster] = strconv.FormatInt(resp.Artifact.OccupiedID, 10)
		}
		assignTo = m
	}

	if _, err := store.UpsertArtifact(tx, accountID, resp.Artifact, assignTo); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) lockUnits(locked bool) HandlerFunc {
	return func(tx *gorm.DB, accountID uint, env *Envelope) (Result, error) {
		req, err := decodeRequest[lockRequest](env)
		if err != nil {
			return nil, err
		}

		result := Result{}
		for _, id := range req.UnitIDList {
			m, err := store.MonsterByExternalID(tx, accountID, id)
			if err != nil {
				return nil, err
			}
			if m == nil {
				result[ReasonMonster] = strconv.FormatInt(id, 10)
				continue
			}
			if err := tx.Model(m).Update("locked", locked).Error; err != nil {
				return nil, err
			}
		}
		return result, nil
	}
}
