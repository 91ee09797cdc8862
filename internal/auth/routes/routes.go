package routes

import (
	"context"
	"log/slog"

	"medgate/internal/auth/dto"
	"medgate/internal/auth/middleware"
	"medgate/internal/auth/models"
	"medgate/internal/auth/services"
	"medgate/pkg/authz"

	"github.com/danielgtaylor/huma/v2"
)

// ProfileSyncer refreshes the local user record from a verified identity.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, identity *models.AuthenticatedUser) error
}

// Module contains the dependencies for auth routes
type Module struct {
	jwt        *services.JWTService
	auth       *middleware.AuthMiddleware
	principals authz.PrincipalLoader
	profiles   ProfileSyncer
	devMode    bool
}

// NewModule creates a new routes module
func NewModule(jwt *services.JWTService, auth *middleware.AuthMiddleware, principals authz.PrincipalLoader, profiles ProfileSyncer, devMode bool) *Module {
	return &Module{
		jwt:        jwt,
		auth:       auth,
		principals: principals,
		profiles:   profiles,
		devMode:    devMode,
	}
}

// RegisterUnifiedRoutes registers all auth routes with the API
func (m *Module) RegisterUnifiedRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-me",
		Method:      "GET",
		Path:        "/auth/me",
		Summary:     "Get the authenticated caller",
		Description: "Identity from the verified token plus the resolved roles and permission set",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}},
	}, m.me)

	if m.devMode {
		huma.Register(api, huma.Operation{
			OperationID: "auth-dev-token",
			Method:      "POST",
			Path:        "/auth/dev-token",
			Summary:     "Mint a development token",
			Description: "Local development only, enabled by AUTH_DEV_MODE",
			Tags:        []string{"Auth"},
		}, m.devToken)
	}
}

func (m *Module) me(ctx context.Context, input *dto.MeInput) (*dto.MeOutput, error) {
	user, err := m.auth.RequireAuth(ctx, input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := m.profiles.SyncProfile(ctx, user); err != nil {
		slog.Warn("Failed to sync user profile", "user_id", user.UserID, "error", err.Error())
	}

	principal, err := m.principals.LoadPrincipal(ctx, user.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load principal")
	}

	roles := make([]string, 0, len(principal.Roles))
	permissions := principal.Direct
	for _, role := range principal.Roles {
		roles = append(roles, role.Name)
		permissions = permissions.Union(role.Permissions)
	}

	return &dto.MeOutput{Body: dto.MeResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		Name:        user.Name,
		Roles:       roles,
		Permissions: permissions.Names(),
		FullAccess:  authz.IsFullAccess(principal),
	}}, nil
}

func (m *Module) devToken(ctx context.Context, input *dto.DevTokenInput) (*dto.DevTokenOutput, error) {
	token, err := m.jwt.IssueDevToken(input.Body.UserID, input.Body.Email, input.Body.Name)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to issue token")
	}
	output := &dto.DevTokenOutput{}
	output.Body.Token = token
	return output, nil
}
