package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/internal/tracing"
	"github.com/edustack/campus-core/pkg/logger"
)

// Repository is the append-only audit store. There is deliberately no
// update or delete method; retention runs outside this service under
// separate privileges.
type Repository interface {
	Insert(ctx context.Context, record *models.AuditRecord) error
	List(ctx context.Context, tenantID string, filters Filters) ([]*models.AuditRecord, error)
}

// Filters narrows audit queries. All fields are optional.
type Filters struct {
	PrincipalID string
	Reason      models.DecisionReason
	DeniedOnly  bool
	Since       *time.Time
	Limit       int
}

// Config tunes the sink.
type Config struct {
	// AllowSampleRate keeps one in N allowed decisions. Zero disables
	// allow records entirely. Denials are never sampled.
	AllowSampleRate int
	// WriteTimeout bounds the synchronous denial write.
	WriteTimeout time.Duration
	// RepeatWindow / RepeatThreshold flag principals accumulating
	// denials as repeat offenders.
	RepeatWindow    time.Duration
	RepeatThreshold int
}

// Service is the audit sink. Denials are written synchronously before
// the denial response goes out, on a context detached from the request
// so a client disconnect cannot cancel the write.
type Service struct {
	repo      Repository
	logger    logger.Logger
	cfg       Config
	offenders *offenderTracker
	allowSeq  atomic.Uint64
}

func NewService(repo Repository, cfg Config, log logger.Logger) *Service {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	return &Service{
		repo:      repo,
		logger:    log,
		cfg:       cfg,
		offenders: newOffenderTracker(cfg.RepeatWindow, cfg.RepeatThreshold),
	}
}

// RecordDenial appends one record for a denied decision and returns it.
// The write happens before the caller can send the denial downstream;
// a failed write is logged and counted but does not turn the denial
// into an allow.
func (s *Service) RecordDenial(ctx context.Context, tenantID string, p models.Principal, res models.ResourceDescriptor, action models.Action, reason models.DecisionReason, flags ...string) *models.AuditRecord {
	if s.offenders.recordAndCheck(p.ID, time.Now()) {
		flags = append(flags, models.AnomalyRepeatOffender)
	}

	record := s.newRecord(tenantID, p, res, action, false, reason, flags)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()
	tracer := tracing.GetGlobalTracer()
	writeCtx, span := tracer.StartAuditSpan(writeCtx, "denial")
	defer span.End()

	if err := s.repo.Insert(writeCtx, record); err != nil {
		tracer.RecordError(span, err)
		s.logger.Error("Audit denial write failed",
			"tenant_id", tenantID,
			"principal_id", p.ID,
			"reason", reason,
			"error", err)
		monitoring.RecordAuditWrite("denial", "error")
		return record
	}
	monitoring.RecordAuditWrite("denial", "success")
	return record
}

// RecordAllow appends a sampled record for an allowed decision. Returns
// the record when one was written, nil when the sample was skipped.
func (s *Service) RecordAllow(ctx context.Context, tenantID string, p models.Principal, res models.ResourceDescriptor, action models.Action) *models.AuditRecord {
	if s.cfg.AllowSampleRate <= 0 {
		return nil
	}
	if s.allowSeq.Add(1)%uint64(s.cfg.AllowSampleRate) != 0 {
		return nil
	}

	record := s.newRecord(tenantID, p, res, action, true, models.ReasonAllowed, nil)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()
	tracer := tracing.GetGlobalTracer()
	writeCtx, span := tracer.StartAuditSpan(writeCtx, "allow_sample")
	defer span.End()

	if err := s.repo.Insert(writeCtx, record); err != nil {
		tracer.RecordError(span, err)
		s.logger.Warn("Audit allow sample write failed", "tenant_id", tenantID, "error", err)
		monitoring.RecordAuditWrite("allow_sample", "error")
		return record
	}
	monitoring.RecordAuditWrite("allow_sample", "success")
	return record
}

// Query returns tenant-scoped audit records.
func (s *Service) Query(ctx context.Context, tenantID string, filters Filters) ([]*models.AuditRecord, error) {
	return s.repo.List(ctx, tenantID, filters)
}

func (s *Service) newRecord(tenantID string, p models.Principal, res models.ResourceDescriptor, action models.Action, allowed bool, reason models.DecisionReason, flags []string) *models.AuditRecord {
	return &models.AuditRecord{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		PrincipalID:      p.ID,
		PrincipalRole:    p.Role,
		ResourceKind:     res.Kind,
		ResourceTenantID: res.TenantID,
		Action:           action,
		Allowed:          allowed,
		Reason:           reason,
		AnomalyFlags:     flags,
		Timestamp:        time.Now(),
		Source:           "access_control_core",
	}
}
