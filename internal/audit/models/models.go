package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Severity classifies audit entries for compliance review.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event types group audit actions by the subsystem that produced them.
const (
	EventTypePermissionMutation  = "permission_mutation"
	EventTypeRoleMutation        = "role_mutation"
	EventTypeTemplateApplication = "template_application"
	EventTypeUserAccessChange    = "user_access_change"
	EventTypeAuditAccess         = "audit_access"
)

// Audit actions. Risk levels are derived from these, see RiskLevel.
const (
	ActionCreatePermission        = "create_permission"
	ActionUpdatePermission        = "update_permission"
	ActionDeletePermission        = "delete_permission"
	ActionGrantPermission         = "grant_permission"
	ActionRevokePermission        = "revoke_permission"
	ActionCreateRole              = "create_role"
	ActionUpdateRole              = "update_role"
	ActionDeleteRole              = "delete_role"
	ActionDuplicateRole           = "duplicate_role"
	ActionAssignRole              = "assign_role"
	ActionUnassignRole            = "unassign_role"
	ActionGrantDirectPermission   = "grant_direct_permission"
	ActionRevokeDirectPermission  = "revoke_direct_permission"
	ActionApplyTemplate           = "apply_template"
	ActionCreateTemplate          = "create_template"
	ActionUpdateTemplate          = "update_template"
	ActionDeleteTemplate          = "delete_template"
	ActionDuplicateTemplate       = "duplicate_template"
	ActionBulkPermissionChange    = "bulk_permission_change"
	ActionCreateSuperAdmin        = "create_super_admin"
	ActionGrantSecurityPermission = "grant_security_permission"
	ActionGrantAdminAccess        = "grant_admin_access"
	ActionAccessAuditLogs         = "access_audit_logs"
	ActionResolveAuditEntry       = "resolve_audit_entry"
)

// RetentionPeriodYears is the default compliance retention window.
const RetentionPeriodYears = 7

// PermissionAuditLog is an append-only compliance record of a single
// permission-relevant event. Actor, subject and permission identities are
// snapshotted at write time so the record stays accurate if the referenced
// entities are later renamed or deleted. The data-access layer refuses
// updates and deletes unconditionally.
type PermissionAuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventType string             `bson:"event_type" json:"event_type"`
	Action    string             `bson:"action" json:"action"`

	ResourceType string `bson:"resource_type" json:"resource_type"`
	ResourceID   string `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	ResourceName string `bson:"resource_name,omitempty" json:"resource_name,omitempty"`

	// Acting principal snapshot
	UserID    string `bson:"user_id" json:"user_id"`
	UserName  string `bson:"user_name,omitempty" json:"user_name,omitempty"`
	UserEmail string `bson:"user_email,omitempty" json:"user_email,omitempty"`
	UserRole  string `bson:"user_role,omitempty" json:"user_role,omitempty"`

	// Affected subject snapshot (role or user)
	SubjectType string `bson:"subject_type,omitempty" json:"subject_type,omitempty"`
	SubjectID   string `bson:"subject_id,omitempty" json:"subject_id,omitempty"`
	SubjectName string `bson:"subject_name,omitempty" json:"subject_name,omitempty"`

	// Permission snapshot
	PermissionID     string `bson:"permission_id,omitempty" json:"permission_id,omitempty"`
	PermissionName   string `bson:"permission_name,omitempty" json:"permission_name,omitempty"`
	PermissionModule string `bson:"permission_module,omitempty" json:"permission_module,omitempty"`

	OldValues   map[string]any `bson:"old_values,omitempty" json:"old_values,omitempty"`
	NewValues   map[string]any `bson:"new_values,omitempty" json:"new_values,omitempty"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Metadata    map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`

	// Request context
	IPAddress string `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	SessionID string `bson:"session_id,omitempty" json:"session_id,omitempty"`
	RequestID string `bson:"request_id,omitempty" json:"request_id,omitempty"`

	Severity          Severity  `bson:"severity" json:"severity"`
	Status            string    `bson:"status" json:"status"`
	RequiresAttention bool      `bson:"requires_attention" json:"requires_attention"`
	RetentionUntil    time.Time `bson:"retention_until" json:"retention_until"`
	OccurredAt        time.Time `bson:"occurred_at" json:"occurred_at"`
}

// ComplianceReport is the stable regulatory export shape of an audit entry.
// Built purely from snapshot fields, never from live joins.
type ComplianceReport struct {
	Timestamp        time.Time      `json:"timestamp"`
	EventType        string         `json:"event_type"`
	Action           string         `json:"action"`
	User             ActorSnapshot  `json:"user"`
	Subject          SubjectRef     `json:"subject"`
	Permission       PermissionRef  `json:"permission"`
	Changes          ChangeSummary  `json:"changes"`
	Request          RequestContext `json:"request"`
	Severity         Severity       `json:"severity"`
	RiskLevel        Severity       `json:"risk_level"`
	Description      string         `json:"description"`
	RetentionExpires time.Time      `json:"retention_expires"`
}

type ActorSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type SubjectRef struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type PermissionRef struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Module string `json:"module,omitempty"`
}

type ChangeSummary struct {
	Old map[string]any `json:"old,omitempty"`
	New map[string]any `json:"new,omitempty"`
}

type RequestContext struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var criticalActions = map[string]bool{
	ActionCreateSuperAdmin:        true,
	ActionGrantSecurityPermission: true,
	ActionAccessAuditLogs:         true,
}

var highRiskActions = map[string]bool{
	ActionGrantPermission:      true,
	ActionAssignRole:           true,
	ActionGrantAdminAccess:     true,
	ActionBulkPermissionChange: true,
}

// RiskLevel derives the compliance risk of an action. Actions outside the
// two fixed sets fall back to the stored severity.
func RiskLevel(action string, severity Severity) Severity {
	if criticalActions[action] {
		return SeverityCritical
	}
	if highRiskActions[action] {
		return SeverityHigh
	}
	if severity == "" {
		return SeverityLow
	}
	return severity
}

// ToComplianceReport projects the entry into its export shape. Pure: uses
// only fields captured at write time.
func (e *PermissionAuditLog) ToComplianceReport() ComplianceReport {
	return ComplianceReport{
		Timestamp: e.OccurredAt,
		EventType: e.EventType,
		Action:    e.Action,
		User: ActorSnapshot{
			ID:    e.UserID,
			Name:  e.UserName,
			Email: e.UserEmail,
			Role:  e.UserRole,
		},
		Subject: SubjectRef{
			Type: e.SubjectType,
			ID:   e.SubjectID,
			Name: e.SubjectName,
		},
		Permission: PermissionRef{
			ID:     e.PermissionID,
			Name:   e.PermissionName,
			Module: e.PermissionModule,
		},
		Changes: ChangeSummary{Old: e.OldValues, New: e.NewValues},
		Request: RequestContext{
			IP:        e.IPAddress,
			UserAgent: e.UserAgent,
			SessionID: e.SessionID,
			RequestID: e.RequestID,
		},
		Severity:         e.Severity,
		RiskLevel:        RiskLevel(e.Action, e.Severity),
		Description:      e.Description,
		RetentionExpires: e.RetentionUntil,
	}
}

// AuditLogsCollection is the MongoDB collection name.
const AuditLogsCollection = "permission_audit_logs"
