package routes

import (
	"context"
	"time"

	"medgate/internal/audit/dto"
	"medgate/internal/audit/models"
	"medgate/internal/audit/services"
	"medgate/internal/auth/middleware"
	"medgate/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
)

// Module contains the dependencies for audit routes
type Module struct {
	service *services.Service
	auth    *middleware.AuthMiddleware
}

// NewModule creates a new routes module
func NewModule(service *services.Service, auth *middleware.AuthMiddleware) *Module {
	return &Module{service: service, auth: auth}
}

// RegisterUnifiedRoutes registers all audit routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "audit-list",
		Method:      "GET",
		Path:        "/audit",
		Summary:     "List audit entries",
		Description: "Filtered, paginated compliance audit trail, newest first",
		Tags:        []string{"Audit"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.listAuditLogs)

	huma.Register(api, huma.Operation{
		OperationID: "audit-export",
		Method:      "GET",
		Path:        "/audit/export",
		Summary:     "Export compliance reports",
		Description: "Snapshot-only regulatory export; the export itself is recorded as a critical audit event",
		Tags:        []string{"Audit"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.exportAuditLogs)

	huma.Register(api, huma.Operation{
		OperationID: "audit-get",
		Method:      "GET",
		Path:        "/audit/{id}",
		Summary:     "Get an audit entry",
		Tags:        []string{"Audit"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.getAuditLog)

	huma.Register(api, huma.Operation{
		OperationID: "audit-resolve",
		Method:      "POST",
		Path:        "/audit/{id}/resolve",
		Summary:     "Resolve a flagged audit entry",
		Description: "Clears the attention flag and records the resolution; audit facts are never altered",
		Tags:        []string{"Audit"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.resolveAuditLog)
}

func (m *Module) listAuditLogs(ctx context.Context, input *dto.ListAuditLogsInput) (*dto.ListAuditLogsOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "audit.view"); err != nil {
		return nil, err
	}

	filter := services.Filter{
		EventType:    input.EventType,
		Action:       input.Action,
		Severity:     models.Severity(input.Severity),
		UserID:       input.UserID,
		SubjectID:    input.SubjectID,
		ResourceType: input.ResourceType,
		From:         input.From,
		To:           input.To,
	}
	if input.RequiresAttention != "" {
		flag := input.RequiresAttention == "true"
		filter.RequiresAttention = &flag
	}

	entries, total, err := m.service.List(ctx, filter, input.Page, input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	responses := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, dto.FromModel(&entries[i]))
	}
	return &dto.ListAuditLogsOutput{Body: dto.ListAuditLogsResponse{
		Entries: responses,
		Total:   total,
		Page:    input.Page,
		Limit:   input.Limit,
	}}, nil
}

func (m *Module) getAuditLog(ctx context.Context, input *dto.GetAuditLogInput) (*dto.AuditLogOutput, error) {
	if _, _, _, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "audit.view"); err != nil {
		return nil, err
	}
	entry, err := m.service.Get(ctx, input.ID)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.AuditLogOutput{Body: dto.FromModel(entry)}, nil
}

func (m *Module) resolveAuditLog(ctx context.Context, input *dto.ResolveAuditLogInput) (*dto.ResolveOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "audit.resolve")
	if err != nil {
		return nil, err
	}
	if err := m.service.Resolve(ctx, input.ID, actor, input.Body.Note); err != nil {
		return nil, handlers.HumaError(err)
	}
	output := &dto.ResolveOutput{}
	output.Body.Resolved = true
	return output, nil
}

func (m *Module) exportAuditLogs(ctx context.Context, input *dto.ExportAuditLogsInput) (*dto.ComplianceExportOutput, error) {
	_, _, actor, err := m.auth.RequirePermission(ctx, input.Authorization, input.Cookie, "audit.export")
	if err != nil {
		return nil, err
	}
	reports, err := m.service.Export(ctx, services.Filter{
		EventType: input.EventType,
		Severity:  models.Severity(input.Severity),
		UserID:    input.UserID,
		From:      input.From,
		To:        input.To,
	}, actor)
	if err != nil {
		return nil, handlers.HumaError(err)
	}
	return &dto.ComplianceExportOutput{Body: dto.ComplianceExportResponse{
		GeneratedAt: time.Now().UTC(),
		Reports:     reports,
	}}, nil
}
