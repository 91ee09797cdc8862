package dto

import (
	"time"

	"medgate/internal/audit/models"
)

// AuditLogResponse is the API shape of a single audit entry.
type AuditLogResponse struct {
	ID                string         `json:"id" description:"Audit entry ID"`
	EventType         string         `json:"event_type" description:"Event category"`
	Action            string         `json:"action" description:"Audited action"`
	ResourceType      string         `json:"resource_type" description:"Affected resource type"`
	ResourceID        string         `json:"resource_id,omitempty" description:"Affected resource ID"`
	ResourceName      string         `json:"resource_name,omitempty" description:"Affected resource name"`
	UserID            string         `json:"user_id" description:"Acting user ID snapshot"`
	UserName          string         `json:"user_name,omitempty" description:"Acting user name snapshot"`
	SubjectType       string         `json:"subject_type,omitempty" description:"Affected subject type"`
	SubjectID         string         `json:"subject_id,omitempty" description:"Affected subject ID"`
	SubjectName       string         `json:"subject_name,omitempty" description:"Affected subject name"`
	PermissionName    string         `json:"permission_name,omitempty" description:"Permission snapshot"`
	Description       string         `json:"description,omitempty" description:"Human-readable summary"`
	Metadata          map[string]any `json:"metadata,omitempty" description:"Structured metadata"`
	Severity          string         `json:"severity" description:"Stored severity"`
	RiskLevel         string         `json:"risk_level" description:"Derived risk level"`
	Status            string         `json:"status" description:"Entry status"`
	RequiresAttention bool           `json:"requires_attention" description:"Flagged for compliance review"`
	RetentionUntil    time.Time      `json:"retention_until" description:"Retention expiry"`
	OccurredAt        time.Time      `json:"occurred_at" description:"When the event occurred"`
}

// AuditLogOutput wraps a single entry response.
type AuditLogOutput struct {
	Body AuditLogResponse `json:"body"`
}

// ListAuditLogsResponse is a page of audit entries.
type ListAuditLogsResponse struct {
	Entries []AuditLogResponse `json:"entries" description:"Audit entries, newest first"`
	Total   int64              `json:"total" description:"Total entries matching the filter"`
	Page    int                `json:"page" description:"Current page number"`
	Limit   int                `json:"limit" description:"Items per page"`
}

// ListAuditLogsOutput wraps the list response.
type ListAuditLogsOutput struct {
	Body ListAuditLogsResponse `json:"body"`
}

// ComplianceExportResponse is the regulatory export payload.
type ComplianceExportResponse struct {
	GeneratedAt time.Time                 `json:"generated_at" description:"Export timestamp"`
	Reports     []models.ComplianceReport `json:"reports" description:"Compliance report entries"`
}

// ComplianceExportOutput wraps the export response.
type ComplianceExportOutput struct {
	Body ComplianceExportResponse `json:"body"`
}

// ResolveOutput confirms a resolution.
type ResolveOutput struct {
	Body struct {
		Resolved bool `json:"resolved" description:"Whether the entry was resolved"`
	} `json:"body"`
}

// FromModel converts an audit model into its API response.
func FromModel(entry *models.PermissionAuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:                entry.ID.Hex(),
		EventType:         entry.EventType,
		Action:            entry.Action,
		ResourceType:      entry.ResourceType,
		ResourceID:        entry.ResourceID,
		ResourceName:      entry.ResourceName,
		UserID:            entry.UserID,
		UserName:          entry.UserName,
		SubjectType:       entry.SubjectType,
		SubjectID:         entry.SubjectID,
		SubjectName:       entry.SubjectName,
		PermissionName:    entry.PermissionName,
		Description:       entry.Description,
		Metadata:          entry.Metadata,
		Severity:          string(entry.Severity),
		RiskLevel:         string(models.RiskLevel(entry.Action, entry.Severity)),
		Status:            entry.Status,
		RequiresAttention: entry.RequiresAttention,
		RetentionUntil:    entry.RetentionUntil,
		OccurredAt:        entry.OccurredAt,
	}
}
