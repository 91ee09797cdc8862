package authz

// CatalogPermission describes a system permission seeded by the platform.
// System permissions cannot be deleted and their is_system flag cannot change.
type CatalogPermission struct {
	Name        string `json:"name"` // dotted key, e.g. "users.edit"
	DisplayName string `json:"display_name"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

// CatalogCategory defines UI groupings for permission modules.
type CatalogCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// PermissionCategories lists the admin UI groupings in display order.
var PermissionCategories = []CatalogCategory{
	{Name: "System Administration", Description: "Core platform management", Order: 1},
	{Name: "User Management", Description: "User accounts and role assignment", Order: 2},
	{Name: "Access Control", Description: "Roles, permissions and templates", Order: 3},
	{Name: "Clinical", Description: "Patients, appointments and prescriptions", Order: 4},
	{Name: "Compliance", Description: "Audit trail and regulatory exports", Order: 5},
}

// SystemPermissions is the static permission catalog seeded into the
// registry at startup. Keys follow the module.action convention.
var SystemPermissions = []CatalogPermission{
	// System administration
	{Name: "settings.view", DisplayName: "View Settings", Module: "settings", Action: "view", Resource: "settings", Priority: 10, Description: "View platform settings"},
	{Name: "settings.edit", DisplayName: "Edit Settings", Module: "settings", Action: "edit", Resource: "settings", Priority: 20, Description: "Modify platform settings"},

	// User management
	{Name: "users.view", DisplayName: "View Users", Module: "users", Action: "view", Resource: "users", Priority: 10, Description: "View user accounts"},
	{Name: "users.create", DisplayName: "Create Users", Module: "users", Action: "create", Resource: "users", Priority: 20, Description: "Create user accounts"},
	{Name: "users.edit", DisplayName: "Edit Users", Module: "users", Action: "edit", Resource: "users", Priority: 30, Description: "Modify user accounts"},
	{Name: "users.delete", DisplayName: "Delete Users", Module: "users", Action: "delete", Resource: "users", Priority: 40, Description: "Delete user accounts"},
	{Name: "users.assign_roles", DisplayName: "Assign Roles", Module: "users", Action: "assign_roles", Resource: "users", Priority: 50, Description: "Assign or remove user roles"},

	// Access control
	{Name: "roles.view", DisplayName: "View Roles", Module: "roles", Action: "view", Resource: "roles", Priority: 10, Description: "View roles and their grants"},
	{Name: "roles.create", DisplayName: "Create Roles", Module: "roles", Action: "create", Resource: "roles", Priority: 20, Description: "Create custom roles"},
	{Name: "roles.edit", DisplayName: "Edit Roles", Module: "roles", Action: "edit", Resource: "roles", Priority: 30, Description: "Modify roles and grants"},
	{Name: "roles.delete", DisplayName: "Delete Roles", Module: "roles", Action: "delete", Resource: "roles", Priority: 40, Description: "Delete custom roles"},
	{Name: "permissions.view", DisplayName: "View Permissions", Module: "permissions", Action: "view", Resource: "permissions", Priority: 10, Description: "View the permission registry"},
	{Name: "permissions.manage", DisplayName: "Manage Permissions", Module: "permissions", Action: "manage", Resource: "permissions", Priority: 20, Description: "Create and modify custom permissions"},
	{Name: "templates.view", DisplayName: "View Templates", Module: "templates", Action: "view", Resource: "templates", Priority: 10, Description: "View permission templates"},
	{Name: "templates.manage", DisplayName: "Manage Templates", Module: "templates", Action: "manage", Resource: "templates", Priority: 20, Description: "Create, modify and apply permission templates"},

	// Clinical
	{Name: "patients.view", DisplayName: "View Patients", Module: "patients", Action: "view", Resource: "patients", Priority: 10, Description: "View patient records"},
	{Name: "patients.edit", DisplayName: "Edit Patients", Module: "patients", Action: "edit", Resource: "patients", Priority: 20, Description: "Modify patient records"},
	{Name: "appointments.view", DisplayName: "View Appointments", Module: "appointments", Action: "view", Resource: "appointments", Priority: 10, Description: "View appointment schedules"},
	{Name: "appointments.create", DisplayName: "Create Appointments", Module: "appointments", Action: "create", Resource: "appointments", Priority: 20, Description: "Book appointments"},
	{Name: "prescriptions.view", DisplayName: "View Prescriptions", Module: "prescriptions", Action: "view", Resource: "prescriptions", Priority: 10, Description: "View prescriptions"},
	{Name: "prescriptions.create", DisplayName: "Create Prescriptions", Module: "prescriptions", Action: "create", Resource: "prescriptions", Priority: 20, Description: "Issue prescriptions"},
	{Name: "reports.view", DisplayName: "View Reports", Module: "reports", Action: "view", Resource: "reports", Priority: 10, Description: "View clinical and operational reports"},
	{Name: "reports.generate", DisplayName: "Generate Reports", Module: "reports", Action: "generate", Resource: "reports", Priority: 20, Description: "Generate clinical and operational reports"},

	// Compliance
	{Name: "audit.view", DisplayName: "View Audit Log", Module: "audit", Action: "view", Resource: "audit_logs", Priority: 10, Description: "View the compliance audit trail"},
	{Name: "audit.export", DisplayName: "Export Audit Log", Module: "audit", Action: "export", Resource: "audit_logs", Priority: 20, Description: "Export compliance reports"},
	{Name: "audit.resolve", DisplayName: "Resolve Audit Entries", Module: "audit", Action: "resolve", Resource: "audit_logs", Priority: 30, Description: "Resolve entries flagged for attention"},
}

// System role names seeded by the roles module. SuperAdminRoleName is the one
// system role that can never be modified.
const (
	SuperAdminRoleName = "super-admin"
	AdminRoleName      = "admin"
)

// SecurityModules lists the modules whose permissions guard the security
// surface itself. Granting one of these is escalated in the audit trail.
var SecurityModules = map[string]bool{
	"permissions": true,
	"roles":       true,
	"templates":   true,
	"audit":       true,
	"settings":    true,
}

// IsSecurityModule reports whether the module's permissions guard the
// security surface.
func IsSecurityModule(module string) bool {
	return SecurityModules[module]
}

// IsSystemPermission reports whether key belongs to the static catalog.
func IsSystemPermission(key string) bool {
	for _, perm := range SystemPermissions {
		if perm.Name == key {
			return true
		}
	}
	return false
}
