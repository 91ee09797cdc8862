package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medgate/internal/audit/models"
	"medgate/pkg/authz"
)

// Repository is the storage contract the audit service depends on.
type Repository interface {
	Insert(ctx context.Context, entry *models.PermissionAuditLog) error
	GetByID(ctx context.Context, id string) (*models.PermissionAuditLog, error)
	Find(ctx context.Context, filter Filter, page, pageSize int) ([]models.PermissionAuditLog, int64, error)
	FindAll(ctx context.Context, filter Filter) ([]models.PermissionAuditLog, error)
	Resolve(ctx context.Context, id string, resolution map[string]any) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Service is the sole write path into the compliance audit log and the query
// surface for compliance review.
type Service struct {
	repository Repository
}

// NewService creates the audit service.
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Record appends one audit entry. The actor snapshot and request context are
// taken from the explicit ActorContext when the entry does not already carry
// them; occurred_at, severity, status and retention_until receive defaults.
func (s *Service) Record(ctx context.Context, entry *models.PermissionAuditLog, actor authz.ActorContext) error {
	if entry.EventType == "" || entry.Action == "" {
		return fmt.Errorf("audit entry requires event_type and action")
	}

	if entry.UserID == "" {
		entry.UserID = actor.UserID
		entry.UserName = actor.UserName
		entry.UserEmail = actor.UserEmail
		entry.UserRole = actor.UserRole
	}
	if entry.IPAddress == "" {
		entry.IPAddress = actor.IP
	}
	if entry.UserAgent == "" {
		entry.UserAgent = actor.UserAgent
	}
	if entry.SessionID == "" {
		entry.SessionID = actor.SessionID
	}
	if entry.RequestID == "" {
		entry.RequestID = actor.RequestID
	}

	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if entry.RetentionUntil.IsZero() {
		entry.RetentionUntil = entry.OccurredAt.AddDate(models.RetentionPeriodYears, 0, 0)
	}
	if entry.Severity == "" {
		entry.Severity = models.SeverityLow
	}
	if entry.Status == "" {
		entry.Status = "logged"
	}

	if err := s.repository.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Get fetches a single audit entry.
func (s *Service) Get(ctx context.Context, id string) (*models.PermissionAuditLog, error) {
	return s.repository.GetByID(ctx, id)
}

// List returns a page of audit entries matching the filter.
func (s *Service) List(ctx context.Context, filter Filter, page, pageSize int) ([]models.PermissionAuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repository.Find(ctx, filter, page, pageSize)
}

// Resolve is the one permitted follow-up on an entry flagged for attention:
// it clears the flag and merges resolution metadata without altering any
// audit fact.
func (s *Service) Resolve(ctx context.Context, id string, actor authz.ActorContext, note string) error {
	if _, err := s.repository.GetByID(ctx, id); err != nil {
		return err
	}

	resolution := map[string]any{
		"resolved_by": actor.UserID,
		"resolved_at": time.Now().UTC(),
	}
	if note != "" {
		resolution["resolution_note"] = note
	}
	if err := s.repository.Resolve(ctx, id, resolution); err != nil {
		return err
	}

	slog.Info("Audit entry resolved",
		slog.String("audit_log_id", id),
		slog.String("resolved_by", actor.UserID))
	return nil
}

// Export produces compliance reports for every entry matching the filter and
// records the access itself, since audit-log access is a critical event.
func (s *Service) Export(ctx context.Context, filter Filter, actor authz.ActorContext) ([]models.ComplianceReport, error) {
	entries, err := s.repository.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	reports := make([]models.ComplianceReport, 0, len(entries))
	for i := range entries {
		reports = append(reports, entries[i].ToComplianceReport())
	}

	access := &models.PermissionAuditLog{
		EventType:    models.EventTypeAuditAccess,
		Action:       models.ActionAccessAuditLogs,
		ResourceType: "audit_logs",
		Description:  fmt.Sprintf("Exported %d compliance report entries", len(reports)),
		Severity:     models.SeverityCritical,
		Metadata:     map[string]any{"entry_count": len(reports)},
	}
	if err := s.Record(ctx, access, actor); err != nil {
		slog.Error("Failed to record audit export access", slog.String("error", err.Error()))
	}

	return reports, nil
}

// PurgeExpired deletes entries past their retention_until. Invoked by the
// retention sweeper only.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.repository.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("retention purge failed: %w", err)
	}
	if purged > 0 {
		slog.Info("Purged expired audit entries", slog.Int64("count", purged))
	}
	return purged, nil
}
