package profile_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"account-mirror/core/database"
	"account-mirror/core/jobs"
	"account-mirror/core/storage/mocks"
	"account-mirror/feature/profile"
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupApp(t *testing.T, archive *mocks.Client) (*fiber.App, *gorm.DB, *jobs.Runner) {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	base := &models.MonsterBase{
		Com2usID: 14102, Name: "Megan", Archetype: models.ArchetypeSupport,
		Element: models.ElementWater, NaturalStars: 3, Awakens: true,
	}
	require.NoError(t, db.Create(base).Error)
	require.NoError(t, db.Create(&models.Account{Name: "test-account"}).Error)

	runner := jobs.NewRunner(zap.NewNop())
	opts := snapshot.ImportOptions{
		MinimumStars:           1,
		ExceptWithRunes:        true,
		ExceptLightDark:        true,
		ExceptFusionIngredient: true,
		LockMonsters:           true,
	}

	var svc *profile.Service
	if archive != nil {
		svc = profile.NewService(db, zap.NewNop(), runner, opts, archive, "snapshots")
	} else {
		svc = profile.NewService(db, zap.NewNop(), runner, opts, nil, "snapshots")
	}

	app := fiber.New()
	profile.NewHandler(svc).RegisterRoutes(app)
	return app, db, runner
}

func importBody(t *testing.T) []byte {
	t.Helper()
	body := map[string]any{
		"payload": map[string]any{
			"building_list": []any{},
			"deco_list":     []any{},
			"unit_list": []map[string]any{
				{"unit_id": 10001, "unit_master_id": 14102, "unit_level": 1, "class": 4},
			},
		},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func TestHandleImport_FullFlow(t *testing.T) {
	archive := new(mocks.Client)
	archive.On("PutObject", mock.Anything, "snapshots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	app, db, runner := setupApp(t, archive)

	req := httptest.NewRequest("POST", "/profile/1/import", bytes.NewReader(importBody(t)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	require.NotEmpty(t, accepted.JobID)

	runner.Wait()

	req = httptest.NewRequest("GET", "/profile/import/"+accepted.JobID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var job jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, jobs.StatusSucceeded, job.Status)

	var count int64
	db.Model(&models.Monster{}).Count(&count)
	assert.EqualValues(t, 1, count)

	archive.AssertCalled(t, "PutObject", mock.Anything, "snapshots", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleImport_SchemaError(t *testing.T) {
	app, db, _ := setupApp(t, nil)

	body := []byte(`{"payload": {"building_list": []}}`)
	req := httptest.NewRequest("POST", "/profile/1/import", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Schema errors are reported before any write.
	var count int64
	db.Model(&models.Monster{}).Count(&count)
	assert.Zero(t, count)
}

func TestHandleImport_BadAccountID(t *testing.T) {
	app, _, _ := setupApp(t, nil)

	req := httptest.NewRequest("POST", "/profile/zero/import", bytes.NewReader(importBody(t)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleJobStatus_Unknown(t *testing.T) {
	app, _, _ := setupApp(t, nil)

	req := httptest.NewRequest("GET", "/profile/import/no-such-job", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleSync_AppliesEvent(t *testing.T) {
	app, db, _ := setupApp(t, nil)

	body := []byte(`{
		"request": {"command": "SummonUnit"},
		"response": {"unit_list": [{"unit_id": 10001, "unit_master_id": 14102, "unit_level": 1, "class": 3}]}
	}`)
	req := httptest.NewRequest("POST", "/profile/1/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Monster{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestHandleSync_ReasonTokens(t *testing.T) {
	app, _, _ := setupApp(t, nil)

	body := []byte(`{
		"request": {"command": "SellUnit", "unit_id": 55555},
		"response": {}
	}`)
	req := httptest.NewRequest("POST", "/profile/1/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Skipped map[string]string `json:"skipped"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "55555", out.Skipped["monster"])
}

func TestHandleAudit_ArchiveDisabled(t *testing.T) {
	app, _, _ := setupApp(t, nil)

	req := httptest.NewRequest("GET", "/profile/1/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleAudit_NoSnapshots(t *testing.T) {
	archive := new(mocks.Client)
	empty := make(chan minio.ObjectInfo)
	close(empty)
	archive.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
		Return((<-chan minio.ObjectInfo)(empty))

	app, _, _ := setupApp(t, archive)

	req := httptest.NewRequest("GET", "/profile/1/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleAudit_ReturnsReport(t *testing.T) {
	snapshotBody := `{"building_list":[],"deco_list":[],"unit_list":[
		{"unit_id":10001,"unit_master_id":14102,"unit_level":1,"class":4}]}`

	objects := make(chan minio.ObjectInfo, 1)
	objects <- minio.ObjectInfo{Key: "1/20260301T000000Z.json"}
	close(objects)

	archive := new(mocks.Client)
	archive.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
		Return((<-chan minio.ObjectInfo)(objects))
	archive.On("GetObject", mock.Anything, "snapshots", "1/20260301T000000Z.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(snapshotBody)), nil)

	app, _, _ := setupApp(t, archive)

	req := httptest.NewRequest("GET", "/profile/1/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report struct {
		Object  string `json:"object"`
		Summary struct {
			MissingMirror int `json:"missing_mirror"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "1/20260301T000000Z.json", report.Object)
	assert.Equal(t, 1, report.Summary.MissingMirror)
}
