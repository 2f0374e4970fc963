package audit

import (
	"bytes"
	"context"
	"io"
	"testing"

	"account-mirror/core/storage/mocks"
	"account-mirror/feature/profile/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()
	acc := &models.Account{Name: "audit-account"}
	require.NoError(t, db.Create(acc).Error)
	return acc
}

func extID(v int64) *int64 { return &v }

// objectStream builds a closed ListObjects result channel.
func objectStream(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

const archivedSnapshot = `{
	"building_list": [],
	"deco_list": [],
	"unit_list": [
		{
			"unit_id": 1001,
			"unit_master_id": 14102,
			"unit_level": 40,
			"class": 6,
			"skills": [],
			"runes": [
				{"rune_id": 2001, "occupied_type": 1, "occupied_id": 1001, "slot_no": 2, "rank": 5,
				 "class": 6, "set_id": 3, "upgrade_curr": 12, "sell_value": 1000,
				 "pri_eff": [8, 25], "prefix_eff": [], "sec_eff": [], "extra": 3}
			],
			"artifacts": []
		}
	],
	"artifacts": [
		{"rid": 3001, "occupied_id": 0, "type": 1, "attribute": 1, "level": 10, "rank": 5,
		 "natural_rank": 5, "pri_effect": [100, 1000], "sec_effects": []}
	]
}`

func newMockArchive(keys []string, body string) *mocks.Client {
	archive := new(mocks.Client)
	archive.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
		Return(objectStream(keys...))
	if body != "" {
		archive.On("GetObject", mock.Anything, "snapshots", keys[len(keys)-1], mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(body))), nil)
	}
	return archive
}

func TestRun_NoSnapshots(t *testing.T) {
	db := newTestDB(t)
	seedAccount(t, db)
	archive := newMockArchive(nil, "")

	auditor := NewAuditor(db, archive, "snapshots", zap.NewNop())
	_, err := auditor.Run(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestRun_PicksNewestObject(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	archive := newMockArchive(
		[]string{"1/20260101T000000Z.json", "1/20260301T000000Z.json"},
		archivedSnapshot)

	auditor := NewAuditor(db, archive, "snapshots", zap.NewNop())
	report, err := auditor.Run(context.Background(), acc.ID)
	require.NoError(t, err)

	assert.Equal(t, "1/20260301T000000Z.json", report.Object)
	archive.AssertCalled(t, "GetObject", mock.Anything, "snapshots", "1/20260301T000000Z.json", mock.Anything)
}

func TestRun_CleanMirror(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	require.NoError(t, db.Create(&models.Monster{
		AccountID: acc.ID, ExternalID: extID(1001), Level: 40, Stars: 6,
	}).Error)
	require.NoError(t, db.Create(&models.Rune{
		AccountID: acc.ID, ExternalID: extID(2001), Slot: 2, SetID: 3, Level: 12,
	}).Error)
	require.NoError(t, db.Create(&models.Artifact{
		AccountID: acc.ID, ExternalID: extID(3001), Slot: 1, Level: 10,
	}).Error)
	archive := newMockArchive([]string{"1/20260301T000000Z.json"}, archivedSnapshot)

	auditor := NewAuditor(db, archive, "snapshots", zap.NewNop())
	report, err := auditor.Run(context.Background(), acc.ID)
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
	assert.Equal(t, 3, report.Summary.TotalItems)
	assert.Zero(t, report.Summary.Mismatches)
}

func TestRun_ReportsDivergence(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	// Level drifted since the snapshot was archived.
	require.NoError(t, db.Create(&models.Monster{
		AccountID: acc.ID, ExternalID: extID(1001), Level: 35, Stars: 6,
	}).Error)
	// Only in the mirror.
	require.NoError(t, db.Create(&models.Rune{
		AccountID: acc.ID, ExternalID: extID(2002), Slot: 4, SetID: 1, Level: 0,
	}).Error)
	archive := newMockArchive([]string{"1/20260301T000000Z.json"}, archivedSnapshot)

	auditor := NewAuditor(db, archive, "snapshots", zap.NewNop())
	report, err := auditor.Run(context.Background(), acc.ID)
	require.NoError(t, err)

	// monster 1001 mismatch, rune 2001 missing in mirror, rune 2002
	// missing in snapshot, artifact 3001 missing in mirror.
	require.Len(t, report.Findings, 4)
	assert.Equal(t, 1, report.Summary.Mismatches)
	assert.Equal(t, 2, report.Summary.MissingMirror)
	assert.Equal(t, 1, report.Summary.MissingSnapshot)

	var monster, missingRune *Finding
	for i := range report.Findings {
		f := &report.Findings[i]
		if f.Family == "monster" && f.ExternalID == 1001 {
			monster = f
		}
		if f.Family == "rune" && f.ExternalID == 2002 {
			missingRune = f
		}
	}
	require.NotNil(t, monster)
	assert.Equal(t, []string{"level: snap=40 db=35"}, monster.Mismatch)
	require.NotNil(t, missingRune)
	assert.True(t, missingRune.MirrorPresent)
	assert.False(t, missingRune.SnapshotPresent)
}

func TestRun_IgnoresLocalOnlyRows(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db)
	// No external id: created locally, nothing to diff against.
	require.NoError(t, db.Create(&models.Monster{
		AccountID: acc.ID, Level: 1, Stars: 3,
	}).Error)
	require.NoError(t, db.Create(&models.Monster{
		AccountID: acc.ID, ExternalID: extID(1001), Level: 40, Stars: 6,
	}).Error)
	require.NoError(t, db.Create(&models.Rune{
		AccountID: acc.ID, ExternalID: extID(2001), Slot: 2, SetID: 3, Level: 12,
	}).Error)
	require.NoError(t, db.Create(&models.Artifact{
		AccountID: acc.ID, ExternalID: extID(3001), Slot: 1, Level: 10,
	}).Error)
	archive := newMockArchive([]string{"1/20260301T000000Z.json"}, archivedSnapshot)

	auditor := NewAuditor(db, archive, "snapshots", zap.NewNop())
	report, err := auditor.Run(context.Background(), acc.ID)
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
}
