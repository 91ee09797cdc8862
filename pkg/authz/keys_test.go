package authz

import "testing"

func TestSlugSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Edit", "edit"},
		{"spaces", "Assign Roles", "assign_roles"},
		{"punctuation", "View (All)", "view_all"},
		{"mixed runs", "  Export -- CSV  ", "export_csv"},
		{"digits", "Level 2 Access", "level_2_access"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlugSegment(tt.in); got != tt.want {
				t.Errorf("SlugSegment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJoinAndSplitKey(t *testing.T) {
	key := JoinKey("Users", "Assign Roles")
	if key != "users.assign_roles" {
		t.Fatalf("JoinKey = %q", key)
	}

	module, action := SplitKey(key)
	if module != "users" || action != "assign_roles" {
		t.Errorf("SplitKey(%q) = (%q, %q)", key, module, action)
	}

	module, action = SplitKey("standalone")
	if module != "" || action != "standalone" {
		t.Errorf("SplitKey without dot = (%q, %q)", module, action)
	}
}

func TestUniqueKey_SuffixesUntilFree(t *testing.T) {
	existing := map[string]bool{
		"users.edit":   true,
		"users.edit_2": true,
	}
	taken := func(key string) bool { return existing[key] }

	if got := UniqueKey("Edit", "Users", taken); got != "users.edit_3" {
		t.Errorf("UniqueKey = %q, want users.edit_3", got)
	}

	// Deterministic: same existing set, same result.
	if got := UniqueKey("Edit", "Users", taken); got != "users.edit_3" {
		t.Errorf("UniqueKey not deterministic, got %q", got)
	}

	if got := UniqueKey("Delete", "Users", taken); got != "users.delete" {
		t.Errorf("UniqueKey with no collision = %q, want users.delete", got)
	}
}
