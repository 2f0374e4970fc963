package snapshot

import (
	"context"
	"fmt"

	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler applies a parsed batch to the mirror in a fixed stage
// order. Each stage commits its own transaction; a later stage failing
// leaves earlier commits in place, so one import attempt converges the
// mirror rather than replacing it atomically. The job runner guarantees
// only one import per account runs at a time.
type Reconciler struct {
	db   *gorm.DB
	log  *zap.Logger
	opts ImportOptions
}

// NewReconciler builds a reconciler bound to one option set.
func NewReconciler(db *gorm.DB, log *zap.Logger, opts ImportOptions) *Reconciler {
	return &Reconciler{db: db, log: log, opts: opts}
}

type stageFn func(tx *gorm.DB, b *Batch, report *ImportReport) error

// Run parses the payload against the current mirror state and applies
// the stages in order. The returned report is valid even when an error
// is returned: stages before the failing one have committed.
func (r *Reconciler) Run(ctx context.Context, accountID uint, payload *models.SnapshotPayload) (*ImportReport, error) {
	report := &ImportReport{}

	// A clear wipes the mirror before the batch is built, so every
	// candidate comes out new.
	if r.opts.ClearProfile {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.clearProfile(tx, accountID)
		})
		if err != nil {
			return report, fmt.Errorf("clear profile: %w", err)
		}
	}

	batch, err := BuildBatch(r.db.WithContext(ctx), accountID, payload, r.opts, report)
	if err != nil {
		return report, fmt.Errorf("build batch: %w", err)
	}

	stages := []struct {
		name string
		fn   stageFn
	}{
		{"materials", r.applyMaterials},
		{"shrine", r.applyShrine},
		{"buildings", r.applyBuildings},
		{"equipment", r.applyEquipment},
		{"monsters", r.applyMonsters},
		{"pieces", r.applyPieces},
		{"crafts", r.applyCrafts},
		{"rta", r.applyRTA},
		{"sweep", r.applySweep},
	}

	for _, stage := range stages {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return stage.fn(tx, batch, report)
		})
		if err != nil {
			r.log.Error("import stage failed",
				zap.String("stage", stage.name),
				zap.Uint("account_id", accountID),
				zap.Error(err))
			return report, fmt.Errorf("stage %s: %w", stage.name, err)
		}
	}

	r.log.Info("import applied",
		zap.Uint("account_id", accountID),
		zap.Int("monsters", len(batch.Monsters)),
		zap.Int("runes", len(batch.Runes)),
		zap.Int("skips", len(report.Skips)))
	return report, nil
}

// clearProfile deletes every mirrored row of the account. Build join
// rows go first; builds and monsters cascade from there.
func (r *Reconciler) clearProfile(tx *gorm.DB, accountID uint) error {
	builds := "SELECT id FROM builds WHERE monster_id IN (SELECT id FROM monsters WHERE account_id = ?)"
	if err := tx.Exec("DELETE FROM build_runes WHERE build_id IN ("+builds+")", accountID).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM build_artifacts WHERE build_id IN ("+builds+")", accountID).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM builds WHERE monster_id IN (SELECT id FROM monsters WHERE account_id = ?)", accountID).Error; err != nil {
		return err
	}

	scoped := []any{
		&models.Monster{}, &models.Rune{}, &models.Artifact{},
		&models.RuneCraft{}, &models.ArtifactCraft{},
		&models.MaterialStorage{}, &models.MonsterShrineStorage{},
		&models.MonsterPiece{}, &models.BuildingInstance{},
	}
	for _, model := range scoped {
		if err := tx.Where("account_id = ?", accountID).Delete(model).Error; err != nil {
			return err
		}
	}

	r.log.Info("profile cleared", zap.Uint("account_id", accountID))
	return nil
}

type materialKey struct {
	category int
	itemID   int64
}

func (r *Reconciler) applyMaterials(tx *gorm.DB, b *Batch, report *ImportReport) error {
	if !b.HasInventory {
		return nil
	}

	seen := map[materialKey]bool{}
	for _, c := range b.Materials {
		known, err := store.GameItemExists(tx, c.Category, c.ItemID)
		if err != nil {
			return err
		}
		if !known {
			report.skip("material", c.ItemID, SkipUnknownItem)
			continue
		}
		seen[materialKey{c.Category, c.ItemID}] = true

		var existing models.MaterialStorage
		found := tx.Where("account_id = ? AND item_category = ? AND item_id = ?",
			b.AccountID, c.Category, c.ItemID).First(&existing).Error == nil

		if err := store.SetMaterialQuantity(tx, b.AccountID, c.Category, c.ItemID, c.Quantity); err != nil {
			return err
		}
		switch {
		case !found && c.Quantity > 0:
			report.Materials.Created++
		case found && existing.Quantity == c.Quantity:
			report.Materials.Unchanged++
		default:
			report.Materials.Updated++
		}
	}

	// Sweep rows absent from the batch, including rows whose item type
	// fell out of the catalog.
	var rows []models.MaterialStorage
	if err := tx.Where("account_id = ?", b.AccountID).Find(&rows).Error; err != nil {
		return err
	}
	for i := range rows {
		row := &rows[i]
		if seen[materialKey{row.ItemCategory, row.ItemID}] {
			continue
		}
		if err := tx.Delete(row).Error; err != nil {
			return err
		}
		report.Materials.Deleted++
	}
	return nil
}

func (r *Reconciler) applyShrine(tx *gorm.DB, b *Batch, report *ImportReport) error {
	// An absent shrine section means "not reported", not "empty".
	if !b.HasShrine {
		return nil
	}

	seen := map[uint]bool{}
	for _, c := range b.Shrine {
		seen[c.Base.ID] = true
		if err := store.SetShrineQuantity(tx, b.AccountID, c.Base.ID, c.Quantity); err != nil {
			return err
		}
		report.Shrine.Updated++
	}

	var rows []models.MonsterShrineStorage
	if err := tx.Where("account_id = ?", b.AccountID).Find(&rows).Error; err != nil {
		return err
	}
	for i := range rows {
		if seen[rows[i].BaseID] {
			continue
		}
		if err := tx.Delete(&rows[i]).Error; err != nil {
			return err
		}
		report.Shrine.Deleted++
	}
	return nil
}

func (r *Reconciler) applyBuildings(tx *gorm.DB, b *Batch, report *ImportReport) error {
	seen := map[uint]bool{}
	for _, c := range b.Buildings {
		seen[c.Building.ID] = true
		if err := store.SetBuildingLevel(tx, b.AccountID, c.Building, c.Level); err != nil {
			return err
		}
		report.Buildings.Updated++
	}

	// Instances are never deleted; a building missing from the snapshot
	// is reset to level zero.
	var rows []models.BuildingInstance
	err := tx.Preload("Building").Where("account_id = ?", b.AccountID).Find(&rows).Error
	if err != nil {
		return err
	}
	for i := range rows {
		row := &rows[i]
		if seen[row.BuildingID] || row.Level == 0 || row.Building == nil {
			continue
		}
		if err := store.SetBuildingLevel(tx, b.AccountID, row.Building, 0); err != nil {
			return err
		}
		report.Buildings.Deleted++
	}
	return nil
}

func (r *Reconciler) applyEquipment(tx *gorm.DB, b *Batch, report *ImportReport) error {
	for _, c := range b.Runes {
		if !c.Changed {
			report.Runes.Unchanged++
			continue
		}
		if err := tx.Save(c.Rune).Error; err != nil {
			r.log.Warn("rune save failed", zap.Int64p("external_id", c.Rune.ExternalID), zap.Error(err))
			report.skip("rune", derefID(c.Rune.ExternalID), SkipSaveFailed)
			report.Runes.Failed++
			continue
		}
		if c.IsNew {
			report.Runes.Created++
		} else {
			report.Runes.Updated++
		}
	}

	for _, c := range b.Artifacts {
		if !c.Changed {
			report.Artifacts.Unchanged++
			continue
		}
		if err := tx.Save(c.Artifact).Error; err != nil {
			r.log.Warn("artifact save failed", zap.Int64p("external_id", c.Artifact.ExternalID), zap.Error(err))
			report.skip("artifact", derefID(c.Artifact.ExternalID), SkipSaveFailed)
			report.Artifacts.Failed++
			continue
		}
		if c.IsNew {
			report.Artifacts.Created++
		} else {
			report.Artifacts.Updated++
		}
	}
	return nil
}

func (r *Reconciler) applyMonsters(tx *gorm.DB, b *Batch, report *ImportReport) error {
	for _, c := range b.Monsters {
		if err := r.applyMonster(tx, c); err != nil {
			r.log.Warn("monster apply failed",
				zap.Int64p("external_id", c.Monster.ExternalID), zap.Error(err))
			report.skip("monster", derefID(c.Monster.ExternalID), SkipSaveFailed)
			report.Monsters.Failed++
			continue
		}
		switch {
		case c.IsNew:
			report.Monsters.Created++
		case c.Changed:
			report.Monsters.Updated++
		default:
			report.Monsters.Unchanged++
		}
	}
	return nil
}

func (r *Reconciler) applyMonster(tx *gorm.DB, c *MonsterCandidate) error {
	m := c.Monster
	if c.Changed {
		if err := tx.Save(m).Error; err != nil {
			return err
		}
	}
	if err := store.EnsureBuilds(tx, m); err != nil {
		return err
	}

	// Members whose save failed in the equipment stage have no row to
	// reference and are left out of the membership.
	runes := make([]*models.Rune, 0, len(c.Runes))
	for _, rc := range c.Runes {
		if rc.Rune.ID != 0 {
			runes = append(runes, rc.Rune)
		}
	}
	artifacts := make([]*models.Artifact, 0, len(c.Artifacts))
	for _, ac := range c.Artifacts {
		if ac.Artifact.ID != 0 {
			artifacts = append(artifacts, ac.Artifact)
		}
	}

	if err := tx.Preload("Builds").First(m, m.ID).Error; err != nil {
		return fmt.Errorf("load monster %d builds: %w", m.ID, err)
	}
	def := m.BuildFor(models.BuildDefault)
	rta := m.BuildFor(models.BuildRTA)
	if def == nil || rta == nil {
		return fmt.Errorf("monster %d builds not materialized", m.ID)
	}

	if err := store.ReplaceBuildEquipment(tx, def, runes, artifacts); err != nil {
		return err
	}

	// RTA membership is reported separately and reassigned in a later
	// stage; clearing here makes a payload without an RTA section leave
	// no stale members behind.
	return store.ClearBuild(tx, rta)
}

func (r *Reconciler) applyPieces(tx *gorm.DB, b *Batch, report *ImportReport) error {
	for _, c := range b.Pieces {
		if err := store.SetPieceQuantity(tx, b.AccountID, c.Base.ID, c.Quantity); err != nil {
			return err
		}
		report.Pieces.Updated++
	}
	return nil
}

func (r *Reconciler) applyCrafts(tx *gorm.DB, b *Batch, report *ImportReport) error {
	for _, c := range b.RuneCrafts {
		if !c.Changed {
			report.Crafts.Unchanged++
			continue
		}
		if c.Craft.Quantity <= 0 {
			if !c.IsNew {
				if err := tx.Delete(c.Craft).Error; err != nil {
					return err
				}
				report.Crafts.Deleted++
			}
			continue
		}
		if err := tx.Save(c.Craft).Error; err != nil {
			return err
		}
		if c.IsNew {
			report.Crafts.Created++
		} else {
			report.Crafts.Updated++
		}
	}

	for _, c := range b.ArtifactCrafts {
		if !c.Changed {
			report.Crafts.Unchanged++
			continue
		}
		if c.Craft.Quantity <= 0 {
			if !c.IsNew {
				if err := tx.Delete(c.Craft).Error; err != nil {
					return err
				}
				report.Crafts.Deleted++
			}
			continue
		}
		if err := tx.Save(c.Craft).Error; err != nil {
			return err
		}
		if c.IsNew {
			report.Crafts.Created++
		} else {
			report.Crafts.Updated++
		}
	}
	return nil
}

func (r *Reconciler) applyRTA(tx *gorm.DB, b *Batch, report *ImportReport) error {
	if !b.HasRTA {
		return nil
	}

	for _, g := range b.RTAGroups {
		m, err := store.MonsterByExternalID(tx, b.AccountID, g.MonsterExternalID)
		if err != nil {
			return err
		}
		if m == nil {
			report.skip("rta", g.MonsterExternalID, SkipUnknownMonster)
			report.RTA.Failed++
			continue
		}

		var runes []*models.Rune
		for _, id := range g.RuneIDs {
			rn, err := store.RuneByExternalID(tx, b.AccountID, id)
			if err != nil {
				return err
			}
			if rn == nil {
				report.skip("rta", id, "unknown_rune")
				continue
			}
			runes = append(runes, rn)
		}
		var artifacts []*models.Artifact
		for _, id := range g.ArtifactIDs {
			a, err := store.ArtifactByExternalID(tx, b.AccountID, id)
			if err != nil {
				return err
			}
			if a == nil {
				report.skip("rta", id, "unknown_artifact")
				continue
			}
			artifacts = append(artifacts, a)
		}

		rta, err := store.LoadBuild(tx, m.ID, models.BuildRTA)
		if err != nil {
			r.log.Warn("rta build load failed",
				zap.Int64("monster_external_id", g.MonsterExternalID), zap.Error(err))
			report.RTA.Failed++
			continue
		}
		if err := store.ReplaceBuildEquipment(tx, rta, runes, artifacts); err != nil {
			r.log.Warn("rta assignment failed",
				zap.Int64("monster_external_id", g.MonsterExternalID), zap.Error(err))
			report.RTA.Failed++
			continue
		}
		report.RTA.Updated++
	}
	return nil
}

func (r *Reconciler) applySweep(tx *gorm.DB, b *Batch, report *ImportReport) error {
	if r.opts.DeleteMissingMonsters {
		// Rows with a nil external id were created locally and have never
		// synced; the sweep leaves them alone.
		var monsters []models.Monster
		err := tx.Where("account_id = ? AND external_id IS NOT NULL", b.AccountID).Find(&monsters).Error
		if err != nil {
			return err
		}
		for i := range monsters {
			m := &monsters[i]
			if b.SeenMonsters[*m.ExternalID] {
				continue
			}
			if err := store.DeleteMonster(tx, m); err != nil {
				return err
			}
			report.Sweep.Deleted++
		}
	}

	if r.opts.DeleteMissingRunes {
		var runes []models.Rune
		err := tx.Where("account_id = ? AND external_id IS NOT NULL", b.AccountID).Find(&runes).Error
		if err != nil {
			return err
		}
		for i := range runes {
			rn := &runes[i]
			if b.SeenRunes[*rn.ExternalID] {
				continue
			}
			if err := store.DeleteRune(tx, rn); err != nil {
				return err
			}
			report.Sweep.Deleted++
		}

		var artifacts []models.Artifact
		err = tx.Where("account_id = ? AND external_id IS NOT NULL", b.AccountID).Find(&artifacts).Error
		if err != nil {
			return err
		}
		for i := range artifacts {
			a := &artifacts[i]
			if b.SeenArtifacts[*a.ExternalID] {
				continue
			}
			if err := store.DeleteArtifact(tx, a); err != nil {
				return err
			}
			report.Sweep.Deleted++
		}

		var runeCrafts []models.RuneCraft
		err = tx.Where("account_id = ? AND external_id IS NOT NULL", b.AccountID).Find(&runeCrafts).Error
		if err != nil {
			return err
		}
		for i := range runeCrafts {
			c := &runeCrafts[i]
			if b.SeenRuneCrafts[*c.ExternalID] {
				continue
			}
			if err := tx.Delete(c).Error; err != nil {
				return err
			}
			report.Sweep.Deleted++
		}

		var artifactCrafts []models.ArtifactCraft
		err = tx.Where("account_id = ? AND external_id IS NOT NULL", b.AccountID).Find(&artifactCrafts).Error
		if err != nil {
			return err
		}
		for i := range artifactCrafts {
			c := &artifactCrafts[i]
			if b.SeenArtifactCrafts[*c.ExternalID] {
				continue
			}
			if err := tx.Delete(c).Error; err != nil {
				return err
			}
			report.Sweep.Deleted++
		}
	}
	return nil
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
