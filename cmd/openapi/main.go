package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"medgate/pkg/config"
	"medgate/pkg/version"
)

// OpenAPISpec represents the OpenAPI 3.1.0 specification structure
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Servers    []OpenAPIServer        `json:"servers"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components *OpenAPIComponents     `json:"components,omitempty"`
	Tags       []OpenAPITag           `json:"tags,omitempty"`
}

// OpenAPIInfo contains API metadata
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// OpenAPIServer represents a server configuration
type OpenAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// OpenAPIPath represents all operations for a path
type OpenAPIPath map[string]OpenAPIOperation

// OpenAPIOperation represents an API operation
type OpenAPIOperation struct {
	Tags        []string                   `json:"tags,omitempty"`
	Summary     string                     `json:"summary,omitempty"`
	OperationID string                     `json:"operationId,omitempty"`
	Parameters  []OpenAPIParameter         `json:"parameters,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
	Security    []map[string][]string      `json:"security,omitempty"`
}

// OpenAPIParameter represents an operation parameter
type OpenAPIParameter struct {
	Name     string         `json:"name"`
	In       string         `json:"in"`
	Required bool           `json:"required,omitempty"`
	Schema   *OpenAPISchema `json:"schema,omitempty"`
}

// OpenAPIResponse represents an API response
type OpenAPIResponse struct {
	Description string `json:"description"`
}

// OpenAPISchema is the subset of JSON Schema used for parameters
type OpenAPISchema struct {
	Type string `json:"type,omitempty"`
}

// OpenAPIComponents holds reusable objects
type OpenAPIComponents struct {
	SecuritySchemes map[string]OpenAPISecurityScheme `json:"securitySchemes,omitempty"`
}

// OpenAPISecurityScheme describes an authentication scheme
type OpenAPISecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
	In           string `json:"in,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
}

// OpenAPITag describes a group of operations
type OpenAPITag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RouteInfo describes one registered API operation
type RouteInfo struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Tag         string
	Public      bool
}

func main() {
	log.Printf("Generating OpenAPI specification for medgate %s", version.GetVersionString())

	spec := buildSpec()

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal specification: %v", err)
	}

	outputPath := config.GetEnv("OPENAPI_OUTPUT", "medgate-openapi.json")
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", outputPath, err)
	}

	operations := 0
	for _, path := range spec.Paths {
		operations += len(path)
	}
	fmt.Printf("Wrote %s (%d paths, %d operations) at %s\n",
		outputPath, len(spec.Paths), operations, time.Now().Format(time.RFC3339))
}

func buildSpec() *OpenAPISpec {
	spec := &OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:       "Medgate Authorization API",
			Description: "Access control decision engine and compliance audit backbone for the medical platform",
			Version:     version.GetVersionString(),
		},
		Servers: []OpenAPIServer{
			{URL: config.GetEnv("OPENAPI_SERVER_URL", "http://localhost:8080"), Description: "Local development"},
		},
		Paths: make(map[string]OpenAPIPath),
		Components: &OpenAPIComponents{
			SecuritySchemes: map[string]OpenAPISecurityScheme{
				"bearerAuth": {
					Type:         "http",
					Scheme:       "bearer",
					BearerFormat: "JWT",
					Description:  "JWT bearer token issued by the platform identity service",
				},
				"cookieAuth": {
					Type:        "apiKey",
					In:          "cookie",
					Name:        "medgate_auth_token",
					Description: "Session cookie carrying the bearer token",
				},
			},
		},
		Tags: []OpenAPITag{
			{Name: "Auth", Description: "Caller identity resolution"},
			{Name: "Permissions", Description: "Permission registry"},
			{Name: "Roles", Description: "Role graph and role permission grants"},
			{Name: "Matrix", Description: "Role-permission matrix"},
			{Name: "Users", Description: "User access assignments"},
			{Name: "Templates", Description: "Permission templates"},
			{Name: "Audit", Description: "Compliance audit log"},
		},
	}

	for _, route := range discoverRoutes() {
		path, ok := spec.Paths[route.Path]
		if !ok {
			path = make(OpenAPIPath)
			spec.Paths[route.Path] = path
		}
		path[strings.ToLower(route.Method)] = operationFor(route)
	}

	return spec
}

func operationFor(route RouteInfo) OpenAPIOperation {
	op := OpenAPIOperation{
		Tags:        []string{route.Tag},
		Summary:     route.Summary,
		OperationID: route.OperationID,
		Parameters:  pathParameters(route.Path),
		Responses: map[string]OpenAPIResponse{
			"200": {Description: "Success"},
		},
	}
	if !route.Public {
		op.Security = []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}}
		op.Responses["401"] = OpenAPIResponse{Description: "Missing or invalid token"}
		op.Responses["403"] = OpenAPIResponse{Description: "Insufficient permissions"}
	}
	return op
}

func pathParameters(path string) []OpenAPIParameter {
	var params []OpenAPIParameter
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params = append(params, OpenAPIParameter{
				Name:     strings.Trim(segment, "{}"),
				In:       "path",
				Required: true,
				Schema:   &OpenAPISchema{Type: "string"},
			})
		}
	}
	return params
}

// discoverRoutes lists every operation the unified API registers. Kept in
// sync with the route modules by hand; the server remains the source of
// truth via its /openapi.json endpoint.
func discoverRoutes() []RouteInfo {
	return []RouteInfo{
		// Auth
		{Method: "GET", Path: "/auth/me", OperationID: "auth-me", Summary: "Get the authenticated caller", Tag: "Auth"},

		// Permission registry
		{Method: "GET", Path: "/permissions", OperationID: "permissions-list", Summary: "List permissions", Tag: "Permissions"},
		{Method: "POST", Path: "/permissions", OperationID: "permissions-create", Summary: "Create a permission", Tag: "Permissions"},
		{Method: "GET", Path: "/permissions/categories", OperationID: "permissions-categories", Summary: "List permissions grouped by category", Tag: "Permissions"},
		{Method: "POST", Path: "/permissions/generate-key", OperationID: "permissions-generate-key", Summary: "Generate a permission key from module and action", Tag: "Permissions"},
		{Method: "GET", Path: "/permissions/{id}", OperationID: "permissions-get", Summary: "Get a permission", Tag: "Permissions"},
		{Method: "PUT", Path: "/permissions/{id}", OperationID: "permissions-update", Summary: "Update a permission", Tag: "Permissions"},
		{Method: "DELETE", Path: "/permissions/{id}", OperationID: "permissions-delete", Summary: "Delete a permission", Tag: "Permissions"},

		// Role graph
		{Method: "GET", Path: "/roles", OperationID: "roles-list", Summary: "List roles", Tag: "Roles"},
		{Method: "POST", Path: "/roles", OperationID: "roles-create", Summary: "Create a role", Tag: "Roles"},
		{Method: "GET", Path: "/roles/{id}", OperationID: "roles-get", Summary: "Get a role", Tag: "Roles"},
		{Method: "PUT", Path: "/roles/{id}", OperationID: "roles-update", Summary: "Update a role", Tag: "Roles"},
		{Method: "DELETE", Path: "/roles/{id}", OperationID: "roles-delete", Summary: "Delete a role", Tag: "Roles"},
		{Method: "POST", Path: "/roles/{id}/duplicate", OperationID: "roles-duplicate", Summary: "Duplicate a role", Tag: "Roles"},
		{Method: "GET", Path: "/roles/{id}/ancestors", OperationID: "roles-ancestors", Summary: "List role ancestors", Tag: "Roles"},
		{Method: "GET", Path: "/roles/{id}/descendants", OperationID: "roles-descendants", Summary: "List role descendants", Tag: "Roles"},
		{Method: "GET", Path: "/roles/{id}/permissions", OperationID: "roles-effective-permissions", Summary: "Get effective role permissions", Tag: "Roles"},
		{Method: "POST", Path: "/roles/{id}/permissions/{permission_id}", OperationID: "roles-grant-permission", Summary: "Grant a permission to a role", Tag: "Roles"},
		{Method: "DELETE", Path: "/roles/{id}/permissions/{permission_id}", OperationID: "roles-revoke-permission", Summary: "Revoke a permission from a role", Tag: "Roles"},

		// Role-permission matrix
		{Method: "GET", Path: "/roles/matrix", OperationID: "roles-matrix-get", Summary: "Get the role-permission matrix", Tag: "Matrix"},
		{Method: "POST", Path: "/roles/matrix", OperationID: "roles-matrix-apply", Summary: "Apply matrix changes", Tag: "Matrix"},

		// Users
		{Method: "GET", Path: "/users", OperationID: "users-list", Summary: "List users", Tag: "Users"},
		{Method: "GET", Path: "/users/{user_id}", OperationID: "users-get", Summary: "Get a user", Tag: "Users"},
		{Method: "PUT", Path: "/users/{user_id}/status", OperationID: "users-set-status", Summary: "Set user status", Tag: "Users"},
		{Method: "GET", Path: "/users/{user_id}/permissions", OperationID: "users-permissions", Summary: "Get a user's flattened permissions", Tag: "Users"},
		{Method: "POST", Path: "/users/{user_id}/roles/{role_id}", OperationID: "users-assign-role", Summary: "Assign a role", Tag: "Users"},
		{Method: "DELETE", Path: "/users/{user_id}/roles/{role_id}", OperationID: "users-unassign-role", Summary: "Unassign a role", Tag: "Users"},
		{Method: "POST", Path: "/users/{user_id}/permissions/{permission_id}", OperationID: "users-grant-permission", Summary: "Grant a direct permission", Tag: "Users"},
		{Method: "DELETE", Path: "/users/{user_id}/permissions/{permission_id}", OperationID: "users-revoke-permission", Summary: "Revoke a direct permission", Tag: "Users"},

		// Templates
		{Method: "GET", Path: "/templates", OperationID: "templates-list", Summary: "List templates", Tag: "Templates"},
		{Method: "POST", Path: "/templates", OperationID: "templates-create", Summary: "Create a template", Tag: "Templates"},
		{Method: "GET", Path: "/templates/{id}", OperationID: "templates-get", Summary: "Get a template", Tag: "Templates"},
		{Method: "PUT", Path: "/templates/{id}", OperationID: "templates-update", Summary: "Update a template", Tag: "Templates"},
		{Method: "DELETE", Path: "/templates/{id}", OperationID: "templates-delete", Summary: "Delete a template", Tag: "Templates"},
		{Method: "POST", Path: "/templates/{id}/apply", OperationID: "templates-apply", Summary: "Apply a template to a target", Tag: "Templates"},
		{Method: "POST", Path: "/templates/{id}/duplicate", OperationID: "templates-duplicate", Summary: "Duplicate a template", Tag: "Templates"},

		// Audit
		{Method: "GET", Path: "/audit", OperationID: "audit-list", Summary: "List audit log entries", Tag: "Audit"},
		{Method: "GET", Path: "/audit/export", OperationID: "audit-export", Summary: "Export audit log entries", Tag: "Audit"},
		{Method: "GET", Path: "/audit/{id}", OperationID: "audit-get", Summary: "Get an audit log entry", Tag: "Audit"},
		{Method: "POST", Path: "/audit/{id}/resolve", OperationID: "audit-resolve", Summary: "Resolve a flagged audit entry", Tag: "Audit"},
	}
}
