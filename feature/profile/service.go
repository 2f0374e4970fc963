package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"account-mirror/core/jobs"
	"account-mirror/core/storage"
	"account-mirror/feature/profile/audit"
	"account-mirror/feature/profile/events"
	"account-mirror/feature/profile/snapshot"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service ties the profile feature together: it archives raw snapshots,
// schedules imports on the job runner and applies live events through
// the dispatcher.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	runner *jobs.Runner

	dispatcher *events.Dispatcher
	defaults   snapshot.ImportOptions

	archive storage.Client
	bucket  string
	auditor *audit.Auditor
}

// ErrArchiveDisabled is returned by archive-backed operations when no
// archive client is configured.
var ErrArchiveDisabled = errors.New("snapshot archiving is disabled")

// NewService creates a new profile service. archive may be nil when
// snapshot archiving is disabled.
func NewService(db *gorm.DB, logger *zap.Logger, runner *jobs.Runner, defaults snapshot.ImportOptions, archive storage.Client, bucket string) *Service {
	s := &Service{
		db:         db,
		logger:     logger,
		runner:     runner,
		dispatcher: events.NewDispatcher(db, logger, defaults.DefaultPriority),
		defaults:   defaults,
		archive:    archive,
		bucket:     bucket,
	}
	if archive != nil {
		s.auditor = audit.NewAuditor(db, archive, bucket, logger)
	}
	return s
}

// ImportRequest is the import endpoint's body: the raw snapshot plus
// per-request option overrides.
type ImportRequest struct {
	Payload   json.RawMessage    `json:"payload"`
	Overrides snapshot.Overrides `json:"options"`
}

// StartImport validates the snapshot and schedules its reconciliation.
// Schema errors surface here, before the job exists; everything after
// that is reported through the job's result.
func (s *Service) StartImport(ctx context.Context, accountID uint, req ImportRequest) (string, error) {
	payload, err := snapshot.Decode(req.Payload)
	if err != nil {
		return "", err
	}

	s.archiveSnapshot(ctx, accountID, req.Payload)

	opts := s.defaults.With(req.Overrides)
	jobID := s.runner.Submit(accountID, func(ctx context.Context) (any, error) {
		return snapshot.NewReconciler(s.db, s.logger, opts).Run(ctx, accountID, payload)
	})

	s.logger.Info("import scheduled",
		zap.Uint("account_id", accountID),
		zap.String("job_id", jobID))
	return jobID, nil
}

// JobStatus returns the state of a previously scheduled import.
func (s *Service) JobStatus(jobID string) (jobs.Job, bool) {
	return s.runner.Get(jobID)
}

// ApplyEvent applies one live event synchronously and returns the
// per-handler reason map.
func (s *Service) ApplyEvent(ctx context.Context, accountID uint, env *events.Envelope) (events.Result, error) {
	return s.dispatcher.Dispatch(ctx, accountID, env)
}

// AuditMirror diffs the mirror against the latest archived snapshot.
func (s *Service) AuditMirror(ctx context.Context, accountID uint) (*audit.Report, error) {
	if s.auditor == nil {
		return nil, ErrArchiveDisabled
	}
	return s.auditor.Run(ctx, accountID)
}

// archiveSnapshot stores the raw payload in the archive bucket. Archive
// failures are logged and swallowed; the mirror works without them.
func (s *Service) archiveSnapshot(ctx context.Context, accountID uint, raw []byte) {
	if s.archive == nil {
		return
	}

	name := fmt.Sprintf("%d/%s.json", accountID, time.Now().UTC().Format("20060102T150405Z"))
	_, err := s.archive.PutObject(ctx, s.bucket, name,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		s.logger.Warn("snapshot archive failed",
			zap.Uint("account_id", accountID),
			zap.String("object", name),
			zap.Error(err))
		return
	}
	s.logger.Debug("snapshot archived", zap.String("object", name))
}
