package store

import (
	"testing"

	"account-mirror/feature/profile/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func runeInfo(id int64, slot int) *models.RuneInfo {
	return &models.RuneInfo{
		RuneID:      id,
		SlotNo:      slot,
		Rank:        4,
		Class:       6,
		SetID:       3,
		UpgradeCurr: 12,
		SellValue:   15000,
		Extra:       2,
		PriEff:      []float64{float64(models.StatSPD), 25},
		SecEff: [][]float64{
			{float64(models.StatATKPct), 16, 0, 0},
			{float64(models.StatCritRate), 6, 0, 0},
			{float64(models.StatHPPct), 8, 0, 4},
		},
	}
}

func artifactInfo(id int64, slot int) *models.ArtifactInfo {
	return &models.ArtifactInfo{
		ArtifactID:  id,
		Slot:        slot,
		Attribute:   1,
		Level:       12,
		Rank:        5,
		NaturalRank: 2,
		PriEffect:   []float64{float64(models.StatHP), 1500},
		SecEffects: [][]float64{
			{205, 4, 2},
			{300, 10, 1},
		},
	}
}

func seedMonster(t *testing.T, db *gorm.DB, accountID uint, unitID int64) *models.Monster {
	t.Helper()
	require.NoError(t, db.Where(&models.MonsterBase{Com2usID: 14102}).
		Attrs(&models.MonsterBase{
			Name:         "Testmon",
			Archetype:    models.ArchetypeAttack,
			Element:      models.ElementWater,
			NaturalStars: 3,
			Awakens:      true,
		}).
		FirstOrCreate(&models.MonsterBase{}).Error)
	m, err := UpsertMonster(db, accountID, &models.UnitInfo{
		UnitID: unitID, UnitMasterID: 14102, UnitLevel: 40, Class: 6,
	}, models.PriorityNone, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func TestUpsertRune_CreateAndUpdate(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)

	r, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Slot)
	assert.Equal(t, 3, r.SetID)
	assert.Equal(t, 6, r.Stars)
	assert.False(t, r.Ancient)
	assert.Equal(t, 12, r.Level)
	assert.Equal(t, models.StatSPD, r.MainStat)
	assert.Len(t, r.Substats, 3)
	assert.Greater(t, r.Efficiency, 0.0)
	assert.GreaterOrEqual(t, r.MaxEfficiency, r.Efficiency)

	// A second upsert with the same external id updates in place.
	info := runeInfo(9001, 2)
	info.UpgradeCurr = 15
	again, err := UpsertRune(db, acc.ID, info, nil)
	require.NoError(t, err)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, 15, again.Level)

	var count int64
	db.Model(&models.Rune{}).Where("account_id = ?", acc.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUpsertRune_AncientNormalization(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)

	info := runeInfo(9002, 4)
	info.Class = 16
	info.Rank = 15
	info.Extra = 13

	r, err := UpsertRune(db, acc.ID, info, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Stars)
	assert.True(t, r.Ancient)
	assert.Equal(t, 5, r.Quality)
	assert.Equal(t, 3, r.OriginalQuality)
}

func TestUpsertRune_AssignEvictsSlotOccupant(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	first, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), m)
	require.NoError(t, err)
	require.NotNil(t, first.AssignedToID)

	second, err := UpsertRune(db, acc.ID, runeInfo(9002, 2), m)
	require.NoError(t, err)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	require.Len(t, b.Runes, 1)
	assert.Equal(t, second.ID, b.Runes[0].ID)

	// The evicted rune is unassigned again.
	var evicted models.Rune
	require.NoError(t, db.First(&evicted, first.ID).Error)
	assert.Nil(t, evicted.AssignedToID)
}

func TestUpsertRune_MoveBetweenMonsters(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	alpha := seedMonster(t, db, acc.ID, 5001)
	beta := seedMonster(t, db, acc.ID, 5002)

	r, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), alpha)
	require.NoError(t, err)

	_, err = UpsertRune(db, acc.ID, runeInfo(9001, 2), beta)
	require.NoError(t, err)

	oldBuild, err := LoadBuild(db, alpha.ID, models.BuildDefault)
	require.NoError(t, err)
	assert.Empty(t, oldBuild.Runes)

	newBuild, err := LoadBuild(db, beta.ID, models.BuildDefault)
	require.NoError(t, err)
	require.Len(t, newBuild.Runes, 1)
	assert.Equal(t, r.ID, newBuild.Runes[0].ID)

	var moved models.Rune
	require.NoError(t, db.First(&moved, r.ID).Error)
	require.NotNil(t, moved.AssignedToID)
	assert.Equal(t, beta.ID, *moved.AssignedToID)
}

func TestAssignRuneToBuild_RTADoesNotTouchAssignment(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	r, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), nil)
	require.NoError(t, err)

	b, err := LoadBuild(db, m.ID, models.BuildRTA)
	require.NoError(t, err)
	require.NoError(t, AssignRuneToBuild(db, m, b, r))

	var reloaded models.Rune
	require.NoError(t, db.First(&reloaded, r.ID).Error)
	assert.Nil(t, reloaded.AssignedToID)

	b, err = LoadBuild(db, m.ID, models.BuildRTA)
	require.NoError(t, err)
	assert.Len(t, b.Runes, 1)
}

func TestRecomputeBuild_CachesAggregate(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	_, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), m)
	require.NoError(t, err)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)

	// Main 25 SPD, substats 16 ATK%, 6 CR, 8(+4 grind) HP%.
	assert.InDelta(t, 25, b.StatTotals[models.StatSPD], 0.001)
	assert.InDelta(t, 16, b.StatTotals[models.StatATKPct], 0.001)
	assert.InDelta(t, 12, b.StatTotals[models.StatHPPct], 0.001)
	assert.Greater(t, b.AvgEfficiency, 0.0)
}

func TestReconcileSubstats_RecomputesOwningBuild(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	r, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), m)
	require.NoError(t, err)
	before := r.Efficiency

	rolls := r.Substats
	rolls[0].Value += 10
	require.NoError(t, ReconcileSubstats(db, r, rolls))

	assert.Greater(t, r.Efficiency, before)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	assert.InDelta(t, 26, b.StatTotals[models.StatATKPct], 0.001)
}

func TestReplaceBuildEquipment(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	old, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), m)
	require.NoError(t, err)
	next, err := UpsertRune(db, acc.ID, runeInfo(9002, 4), nil)
	require.NoError(t, err)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	require.NoError(t, ReplaceBuildEquipment(db, b, []*models.Rune{next}, nil))

	b, err = LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	require.Len(t, b.Runes, 1)
	assert.Equal(t, next.ID, b.Runes[0].ID)

	var dropped models.Rune
	require.NoError(t, db.First(&dropped, old.ID).Error)
	assert.Nil(t, dropped.AssignedToID)

	var added models.Rune
	require.NoError(t, db.First(&added, next.ID).Error)
	require.NotNil(t, added.AssignedToID)
	assert.Equal(t, m.ID, *added.AssignedToID)
}

func TestUpsertArtifact_AssignEvictsSameKind(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	first, err := UpsertArtifact(db, acc.ID, artifactInfo(7001, 1), m)
	require.NoError(t, err)
	require.NotNil(t, first.AssignedToID)

	second, err := UpsertArtifact(db, acc.ID, artifactInfo(7002, 1), m)
	require.NoError(t, err)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	require.Len(t, b.Artifacts, 1)
	assert.Equal(t, second.ID, b.Artifacts[0].ID)

	var evicted models.Artifact
	require.NoError(t, db.First(&evicted, first.ID).Error)
	assert.Nil(t, evicted.AssignedToID)
}

func TestDeleteRune_RemovedFromBuilds(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	m := seedMonster(t, db, acc.ID, 5001)

	r, err := UpsertRune(db, acc.ID, runeInfo(9001, 2), m)
	require.NoError(t, err)

	require.NoError(t, DeleteRune(db, r))

	var count int64
	db.Model(&models.Rune{}).Where("account_id = ?", acc.ID).Count(&count)
	assert.Zero(t, count)

	b, err := LoadBuild(db, m.ID, models.BuildDefault)
	require.NoError(t, err)
	assert.Empty(t, b.Runes)
	assert.Zero(t, b.AvgEfficiency)
}
