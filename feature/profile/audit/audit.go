package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"account-mirror/core/storage"
	"account-mirror/feature/profile/models"
	"account-mirror/feature/profile/snapshot"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoSnapshots is returned when the archive holds no snapshot for the
// account.
var ErrNoSnapshots = errors.New("no archived snapshots for account")

// Finding is one entity the audit flagged: missing on either side, or
// present on both with diverging fields.
type Finding struct {
	// Family is the entity kind: monster, rune or artifact.
	Family string `json:"family"`

	// ExternalID is the game-side identifier of the entity.
	ExternalID int64 `json:"external_id"`

	// MirrorPresent indicates whether the entity exists in the mirror.
	MirrorPresent bool `json:"mirror_present"`

	// SnapshotPresent indicates whether the entity exists in the snapshot.
	SnapshotPresent bool `json:"snapshot_present"`

	// Mismatch describes field divergences, e.g. "level: snap=40 db=35".
	Mismatch []string `json:"mismatch,omitempty"`
}

// Summary provides aggregate counts for an audit report.
type Summary struct {
	// TotalItems is the number of unique entities across both sources.
	TotalItems int `json:"total_items"`

	// MissingMirror counts entities in the snapshot but not the mirror.
	// Import filters make a nonzero count normal.
	MissingMirror int `json:"missing_mirror"`

	// MissingSnapshot counts mirrored entities absent from the snapshot.
	MissingSnapshot int `json:"missing_snapshot"`

	// Mismatches counts entities with field divergences.
	Mismatches int `json:"mismatches"`
}

// Report is the outcome of auditing one account's mirror against its
// most recent archived snapshot.
type Report struct {
	// Object is the archive object the mirror was audited against.
	Object string `json:"object"`

	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

func (r *Report) add(f Finding) {
	switch {
	case !f.MirrorPresent:
		r.Summary.MissingMirror++
	case !f.SnapshotPresent:
		r.Summary.MissingSnapshot++
	default:
		r.Summary.Mismatches++
	}
	r.Findings = append(r.Findings, f)
}

// Auditor diffs the mirror database against archived snapshots. The
// audit is read-only; repairing divergences is a fresh import's job.
type Auditor struct {
	db      *gorm.DB
	archive storage.Client
	bucket  string
	logger  *zap.Logger
}

// NewAuditor creates a new auditor.
func NewAuditor(db *gorm.DB, archive storage.Client, bucket string, logger *zap.Logger) *Auditor {
	return &Auditor{db: db, archive: archive, bucket: bucket, logger: logger}
}

// Run audits the account against its latest archived snapshot. Only
// game-identified rows participate; locally created rows without an
// external id have nothing to diff against.
func (a *Auditor) Run(ctx context.Context, accountID uint) (*Report, error) {
	object, payload, err := a.latestSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	a.logger.Info("auditing mirror against archive",
		zap.Uint("account_id", accountID),
		zap.String("object", object))

	report := &Report{Object: object, Findings: []Finding{}}
	if err := a.auditMonsters(ctx, accountID, payload, report); err != nil {
		return nil, err
	}
	if err := a.auditRunes(ctx, accountID, payload, report); err != nil {
		return nil, err
	}
	if err := a.auditArtifacts(ctx, accountID, payload, report); err != nil {
		return nil, err
	}

	sort.Slice(report.Findings, func(i, j int) bool {
		if report.Findings[i].Family != report.Findings[j].Family {
			return report.Findings[i].Family < report.Findings[j].Family
		}
		return report.Findings[i].ExternalID < report.Findings[j].ExternalID
	})
	return report, nil
}

// latestSnapshot fetches and decodes the newest archived snapshot for
// the account. Object names embed a UTC timestamp, so the
// lexicographically greatest key is the newest.
func (a *Auditor) latestSnapshot(ctx context.Context, accountID uint) (string, *models.SnapshotPayload, error) {
	prefix := fmt.Sprintf("%d/", accountID)

	var newest string
	for obj := range a.archive.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return "", nil, fmt.Errorf("listing archive: %w", obj.Err)
		}
		if obj.Key > newest {
			newest = obj.Key
		}
	}
	if newest == "" {
		return "", nil, ErrNoSnapshots
	}

	reader, err := a.archive.GetObject(ctx, a.bucket, newest, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", newest, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", newest, err)
	}

	payload, err := snapshot.Decode(raw)
	if err != nil {
		return "", nil, fmt.Errorf("decoding %s: %w", newest, err)
	}
	return newest, payload, nil
}

func (a *Auditor) auditMonsters(ctx context.Context, accountID uint, payload *models.SnapshotPayload, report *Report) error {
	snap := make(map[int64]*models.UnitInfo, len(payload.UnitList))
	for i := range payload.UnitList {
		snap[payload.UnitList[i].UnitID] = &payload.UnitList[i]
	}

	var mirrored []models.Monster
	err := a.db.WithContext(ctx).
		Where("account_id = ? AND external_id IS NOT NULL", accountID).
		Find(&mirrored).Error
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(mirrored))
	for i := range mirrored {
		m := &mirrored[i]
		seen[*m.ExternalID] = true

		u, ok := snap[*m.ExternalID]
		if !ok {
			report.add(Finding{Family: "monster", ExternalID: *m.ExternalID, MirrorPresent: true})
			continue
		}

		var mismatch []string
		if u.UnitLevel != m.Level {
			mismatch = append(mismatch, fmt.Sprintf("level: snap=%d db=%d", u.UnitLevel, m.Level))
		}
		if u.Class != m.Stars {
			mismatch = append(mismatch, fmt.Sprintf("stars: snap=%d db=%d", u.Class, m.Stars))
		}
		if len(mismatch) > 0 {
			report.add(Finding{Family: "monster", ExternalID: *m.ExternalID,
				MirrorPresent: true, SnapshotPresent: true, Mismatch: mismatch})
		}
	}

	for id := range snap {
		if !seen[id] {
			report.add(Finding{Family: "monster", ExternalID: id, SnapshotPresent: true})
		}
	}
	report.Summary.TotalItems += len(seen) + countMissing(snap, seen)
	return nil
}

func (a *Auditor) auditRunes(ctx context.Context, accountID uint, payload *models.SnapshotPayload, report *Report) error {
	snap := make(map[int64]*models.RuneInfo)
	if payload.Runes != nil {
		for i := range *payload.Runes {
			snap[(*payload.Runes)[i].RuneID] = &(*payload.Runes)[i]
		}
	}
	for i := range payload.UnitList {
		unit := &payload.UnitList[i]
		for j := range unit.Runes {
			snap[unit.Runes[j].RuneID] = &unit.Runes[j]
		}
	}

	var mirrored []models.Rune
	err := a.db.WithContext(ctx).
		Where("account_id = ? AND external_id IS NOT NULL", accountID).
		Find(&mirrored).Error
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(mirrored))
	for i := range mirrored {
		r := &mirrored[i]
		seen[*r.ExternalID] = true

		info, ok := snap[*r.ExternalID]
		if !ok {
			report.add(Finding{Family: "rune", ExternalID: *r.ExternalID, MirrorPresent: true})
			continue
		}

		var mismatch []string
		if info.UpgradeCurr != r.Level {
			mismatch = append(mismatch, fmt.Sprintf("level: snap=%d db=%d", info.UpgradeCurr, r.Level))
		}
		if info.SlotNo != r.Slot {
			mismatch = append(mismatch, fmt.Sprintf("slot: snap=%d db=%d", info.SlotNo, r.Slot))
		}
		if info.SetID != r.SetID {
			mismatch = append(mismatch, fmt.Sprintf("set: snap=%d db=%d", info.SetID, r.SetID))
		}
		if len(mismatch) > 0 {
			report.add(Finding{Family: "rune", ExternalID: *r.ExternalID,
				MirrorPresent: true, SnapshotPresent: true, Mismatch: mismatch})
		}
	}

	for id := range snap {
		if !seen[id] {
			report.add(Finding{Family: "rune", ExternalID: id, SnapshotPresent: true})
		}
	}
	report.Summary.TotalItems += len(seen) + countMissing(snap, seen)
	return nil
}

func (a *Auditor) auditArtifacts(ctx context.Context, accountID uint, payload *models.SnapshotPayload, report *Report) error {
	snap := make(map[int64]*models.ArtifactInfo)
	if payload.Artifacts != nil {
		for i := range *payload.Artifacts {
			snap[(*payload.Artifacts)[i].ArtifactID] = &(*payload.Artifacts)[i]
		}
	}
	for i := range payload.UnitList {
		unit := &payload.UnitList[i]
		for j := range unit.Artifacts {
			snap[unit.Artifacts[j].ArtifactID] = &unit.Artifacts[j]
		}
	}

	var mirrored []models.Artifact
	err := a.db.WithContext(ctx).
		Where("account_id = ? AND external_id IS NOT NULL", accountID).
		Find(&mirrored).Error
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(mirrored))
	for i := range mirrored {
		art := &mirrored[i]
		seen[*art.ExternalID] = true

		info, ok := snap[*art.ExternalID]
		if !ok {
			report.add(Finding{Family: "artifact", ExternalID: *art.ExternalID, MirrorPresent: true})
			continue
		}

		if info.Level != art.Level {
			report.add(Finding{Family: "artifact", ExternalID: *art.ExternalID,
				MirrorPresent: true, SnapshotPresent: true,
				Mismatch: []string{fmt.Sprintf("level: snap=%d db=%d", info.Level, art.Level)}})
		}
	}

	for id := range snap {
		if !seen[id] {
			report.add(Finding{Family: "artifact", ExternalID: id, SnapshotPresent: true})
		}
	}
	report.Summary.TotalItems += len(seen) + countMissing(snap, seen)
	return nil
}

func countMissing[V any](snap map[int64]V, seen map[int64]bool) int {
	n := 0
	for id := range snap {
		if !seen[id] {
			n++
		}
	}
	return n
}
