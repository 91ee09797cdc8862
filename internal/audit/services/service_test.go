package services

import (
	"context"
	"testing"
	"time"

	"medgate/internal/audit/models"
	"medgate/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	inserted       []*models.PermissionAuditLog
	entries        map[string]*models.PermissionAuditLog
	lastResolution map[string]any
	purged         int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{entries: make(map[string]*models.PermissionAuditLog)}
}

func (s *stubRepository) Insert(ctx context.Context, entry *models.PermissionAuditLog) error {
	s.inserted = append(s.inserted, entry)
	return nil
}

func (s *stubRepository) GetByID(ctx context.Context, id string) (*models.PermissionAuditLog, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return entry, nil
}

func (s *stubRepository) Find(ctx context.Context, filter Filter, page, pageSize int) ([]models.PermissionAuditLog, int64, error) {
	return nil, 0, nil
}

func (s *stubRepository) FindAll(ctx context.Context, filter Filter) ([]models.PermissionAuditLog, error) {
	var all []models.PermissionAuditLog
	for _, entry := range s.entries {
		all = append(all, *entry)
	}
	return all, nil
}

func (s *stubRepository) Resolve(ctx context.Context, id string, resolution map[string]any) error {
	if _, ok := s.entries[id]; !ok {
		return authz.ErrNotFound
	}
	s.lastResolution = resolution
	return nil
}

func (s *stubRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.purged, nil
}

func testActor() authz.ActorContext {
	return authz.ActorContext{
		UserID:    "admin-1",
		UserName:  "Alice Admin",
		UserEmail: "alice@clinic.example",
		UserRole:  "admin",
		IP:        "10.0.0.7",
		UserAgent: "test-agent",
		SessionID: "sess-1",
		RequestID: "req-1",
	}
}

func TestRecord_AppliesActorSnapshotAndDefaults(t *testing.T) {
	repo := newStubRepository()
	svc := NewService(repo)

	entry := &models.PermissionAuditLog{
		EventType:    models.EventTypeRoleMutation,
		Action:       models.ActionGrantPermission,
		ResourceType: "role",
	}
	before := time.Now().UTC()
	require.NoError(t, svc.Record(context.Background(), entry, testActor()))
	after := time.Now().UTC()

	require.Len(t, repo.inserted, 1)
	stored := repo.inserted[0]

	assert.Equal(t, "admin-1", stored.UserID)
	assert.Equal(t, "Alice Admin", stored.UserName)
	assert.Equal(t, "alice@clinic.example", stored.UserEmail)
	assert.Equal(t, "10.0.0.7", stored.IPAddress)
	assert.Equal(t, "req-1", stored.RequestID)

	assert.False(t, stored.OccurredAt.Before(before))
	assert.False(t, stored.OccurredAt.After(after))
	assert.Equal(t, models.SeverityLow, stored.Severity)
	assert.Equal(t, "logged", stored.Status)

	expectedRetention := stored.OccurredAt.AddDate(models.RetentionPeriodYears, 0, 0)
	assert.WithinDuration(t, expectedRetention, stored.RetentionUntil, time.Second)
}

func TestRecord_PreservesExplicitFields(t *testing.T) {
	repo := newStubRepository()
	svc := NewService(repo)

	occurred := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	retention := occurred.AddDate(10, 0, 0)
	entry := &models.PermissionAuditLog{
		EventType:      models.EventTypePermissionMutation,
		Action:         models.ActionCreatePermission,
		UserID:         "other-user",
		Severity:       models.SeverityMedium,
		OccurredAt:     occurred,
		RetentionUntil: retention,
	}
	require.NoError(t, svc.Record(context.Background(), entry, testActor()))

	stored := repo.inserted[0]
	assert.Equal(t, "other-user", stored.UserID)
	assert.Empty(t, stored.UserName, "explicit user id must not be overwritten by actor snapshot")
	assert.Equal(t, occurred, stored.OccurredAt)
	assert.Equal(t, retention, stored.RetentionUntil)
	assert.Equal(t, models.SeverityMedium, stored.Severity)
}

func TestRecord_RejectsMissingEventTypeOrAction(t *testing.T) {
	svc := NewService(newStubRepository())

	err := svc.Record(context.Background(), &models.PermissionAuditLog{Action: "x"}, testActor())
	assert.Error(t, err)

	err = svc.Record(context.Background(), &models.PermissionAuditLog{EventType: "x"}, testActor())
	assert.Error(t, err)
}

func TestResolve_MergesMetadataOnly(t *testing.T) {
	repo := newStubRepository()
	repo.entries["abc"] = &models.PermissionAuditLog{
		EventType:         models.EventTypeRoleMutation,
		Action:            models.ActionAssignRole,
		RequiresAttention: true,
	}
	svc := NewService(repo)

	require.NoError(t, svc.Resolve(context.Background(), "abc", testActor(), "reviewed, expected change"))

	require.NotNil(t, repo.lastResolution)
	assert.Equal(t, "admin-1", repo.lastResolution["resolved_by"])
	assert.Equal(t, "reviewed, expected change", repo.lastResolution["resolution_note"])
	assert.Contains(t, repo.lastResolution, "resolved_at")
}

func TestResolve_UnknownEntry(t *testing.T) {
	svc := NewService(newStubRepository())
	err := svc.Resolve(context.Background(), "missing", testActor(), "")
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestExport_RecordsAccessEntry(t *testing.T) {
	repo := newStubRepository()
	repo.entries["e1"] = &models.PermissionAuditLog{
		EventType:  models.EventTypeRoleMutation,
		Action:     models.ActionGrantPermission,
		OccurredAt: time.Now().UTC(),
	}
	svc := NewService(repo)

	reports, err := svc.Export(context.Background(), Filter{}, testActor())
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	require.Len(t, repo.inserted, 1, "export must append an access entry")
	access := repo.inserted[0]
	assert.Equal(t, models.ActionAccessAuditLogs, access.Action)
	assert.Equal(t, models.SeverityCritical, access.Severity)
}

func TestRepositoryUpdateAndDeleteRefuse(t *testing.T) {
	repo := &MongoRepository{}

	err := repo.Update(context.Background(), &models.PermissionAuditLog{})
	assert.ErrorIs(t, err, authz.ErrImmutable)

	err = repo.Delete(context.Background(), "any")
	assert.ErrorIs(t, err, authz.ErrImmutable)
}

func TestRiskLevelDerivation(t *testing.T) {
	tests := []struct {
		action   string
		severity models.Severity
		want     models.Severity
	}{
		{models.ActionCreateSuperAdmin, models.SeverityLow, models.SeverityCritical},
		{models.ActionGrantSecurityPermission, models.SeverityLow, models.SeverityCritical},
		{models.ActionAccessAuditLogs, models.SeverityMedium, models.SeverityCritical},
		{models.ActionGrantPermission, models.SeverityLow, models.SeverityHigh},
		{models.ActionAssignRole, models.SeverityLow, models.SeverityHigh},
		{models.ActionGrantAdminAccess, models.SeverityLow, models.SeverityHigh},
		{models.ActionBulkPermissionChange, models.SeverityLow, models.SeverityHigh},
		{models.ActionUpdateRole, models.SeverityMedium, models.SeverityMedium},
		{models.ActionRevokePermission, "", models.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, models.RiskLevel(tt.action, tt.severity))
		})
	}
}

func TestToComplianceReport_UsesSnapshotsOnly(t *testing.T) {
	occurred := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	entry := &models.PermissionAuditLog{
		EventType:      models.EventTypeRoleMutation,
		Action:         models.ActionAssignRole,
		UserID:         "u1",
		UserName:       "Old Name", // snapshot survives later renames
		SubjectType:    "user",
		SubjectID:      "u2",
		SubjectName:    "Bob",
		PermissionName: "patients.view",
		OldValues:      map[string]any{"roles": []string{}},
		NewValues:      map[string]any{"roles": []string{"nurse"}},
		Severity:       models.SeverityMedium,
		OccurredAt:     occurred,
		RetentionUntil: occurred.AddDate(7, 0, 0),
	}

	report := entry.ToComplianceReport()
	assert.Equal(t, occurred, report.Timestamp)
	assert.Equal(t, "Old Name", report.User.Name)
	assert.Equal(t, "Bob", report.Subject.Name)
	assert.Equal(t, "patients.view", report.Permission.Name)
	assert.Equal(t, models.SeverityHigh, report.RiskLevel, "assign_role is a high-risk action")
	assert.Equal(t, models.SeverityMedium, report.Severity)
}
