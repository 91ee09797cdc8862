package dto

import "time"

// ListAuditLogsInput represents the input for listing audit entries
type ListAuditLogsInput struct {
	Authorization     string    `header:"Authorization" description:"Bearer token for authentication"`
	Cookie            string    `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	EventType         string    `query:"event_type" description:"Filter by event type"`
	Action            string    `query:"action" description:"Filter by action"`
	Severity          string    `query:"severity" enum:"low,medium,high,critical" description:"Filter by severity"`
	UserID            string    `query:"user_id" description:"Filter by acting user"`
	SubjectID         string    `query:"subject_id" description:"Filter by affected subject"`
	ResourceType      string    `query:"resource_type" description:"Filter by resource type"`
	RequiresAttention string    `query:"requires_attention" enum:"true,false" description:"Filter by attention flag"`
	From              time.Time `query:"from" description:"Window start (RFC 3339)"`
	To                time.Time `query:"to" description:"Window end (RFC 3339)"`
	Page              int       `query:"page" default:"1" minimum:"1" description:"Page number"`
	Limit             int       `query:"limit" default:"20" minimum:"1" maximum:"100" description:"Items per page"`
}

// GetAuditLogInput represents the input for fetching a single entry
type GetAuditLogInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Audit entry ID"`
}

// ResolveAuditLogInput represents the input for resolving a flagged entry
type ResolveAuditLogInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	ID            string `path:"id" required:"true" description:"Audit entry ID"`
	Body          struct {
		Note string `json:"note" maxLength:"500" description:"Resolution note"`
	} `json:"body"`
}

// ExportAuditLogsInput represents the input for a compliance export
type ExportAuditLogsInput struct {
	Authorization string    `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string    `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
	EventType     string    `query:"event_type" description:"Filter by event type"`
	Severity      string    `query:"severity" enum:"low,medium,high,critical" description:"Filter by severity"`
	UserID        string    `query:"user_id" description:"Filter by acting user"`
	From          time.Time `query:"from" description:"Window start (RFC 3339)"`
	To            time.Time `query:"to" description:"Window end (RFC 3339)"`
}
