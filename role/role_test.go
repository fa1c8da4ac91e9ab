package role

import (
	"reflect"
	"testing"

	"github.com/keyfold/keyfold/permission"
)

func perms(ss ...string) []permission.Permission {
	out := make([]permission.Permission, len(ss))
	for i, s := range ss {
		out[i] = permission.MustParse(s)
	}
	return out
}

func TestPresetPermissions(t *testing.T) {
	if got := PresetPermissions("ghost-role"); len(got) != 0 {
		t.Errorf("unknown preset must grant nothing, got %v", permission.Strings(got))
	}
	admin := PresetPermissions(Admin)
	if len(admin) != 7 {
		t.Fatalf("admin preset should hold one wildcard per resource, got %v", permission.Strings(admin))
	}
	for _, p := range admin {
		if !p.IsWildcard() {
			t.Errorf("admin grant %s should be a wildcard", p)
		}
	}
	if !IsPreset(SecurityAnalyst) || IsPreset("auditor") {
		t.Error("IsPreset misclassifies names")
	}
}

func TestNormalizeIdempotentAndOrderIndependent(t *testing.T) {
	a := perms("session:invalidate", "user:read", "user:*", "auth:login", "user:read")
	b := perms("user:*", "auth:login", "user:read", "session:invalidate")

	na := Normalize(a)
	nb := Normalize(b)
	if !reflect.DeepEqual(na, nb) {
		t.Errorf("normalize must be order-independent: %v vs %v",
			permission.Strings(na), permission.Strings(nb))
	}
	if !reflect.DeepEqual(Normalize(na), na) {
		t.Error("normalize must be idempotent")
	}
	// Wildcards sort last.
	if last := na[len(na)-1]; !last.IsWildcard() {
		t.Errorf("wildcard should sort last, got %v", permission.Strings(na))
	}
}

func TestNormalizeStringsFiltersInvalid(t *testing.T) {
	got := NormalizeStrings([]string{"user:read", "not-a-permission", "mfa:delete", "auth:login"})
	want := perms("user:read", "auth:login")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", permission.Strings(got), permission.Strings(want))
	}
}

func TestBuildPresetRoundTrip(t *testing.T) {
	r := Build(Admin, "")
	if !reflect.DeepEqual(r.Permissions, PresetPermissions(Admin)) {
		t.Errorf("Build(admin) should contain exactly the admin preset, got %v",
			permission.Strings(r.Permissions))
	}
}

func TestBuildCustomRole(t *testing.T) {
	r := Build("auditor", "read-only audit access", perms("audit:read", "audit:list", "audit:read")...)
	want := perms("audit:read", "audit:list")
	if !reflect.DeepEqual(r.Permissions, want) {
		t.Errorf("custom role grants = %v, want %v",
			permission.Strings(r.Permissions), permission.Strings(want))
	}
	if r.RecordID() != "auditor" {
		t.Errorf("RecordID = %q", r.RecordID())
	}
}

func TestMergeRolesUnion(t *testing.T) {
	merged := MergeRoles(Build(Admin, ""), Build(Support, ""))
	// The union must contain everything from both, deduplicated.
	for _, p := range append(PresetPermissions(Admin), PresetPermissions(Support)...) {
		found := false
		for _, m := range merged {
			if m == p {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("merged set missing %s", p)
		}
	}
	seen := map[string]bool{}
	for _, p := range merged {
		if seen[p.String()] {
			t.Errorf("duplicate %s in merged set", p)
		}
		seen[p.String()] = true
	}
}

func TestCatalogLookup(t *testing.T) {
	cat := NewCatalog([]Role{
		Build("auditor", "", perms("audit:read")...),
		{Name: "auditor", Permissions: perms("audit:list")}, // later duplicate wins
	})
	r, ok := cat.Lookup("auditor")
	if !ok {
		t.Fatal("expected auditor in catalog")
	}
	if len(r.Permissions) != 1 || r.Permissions[0].String() != "audit:list" {
		t.Errorf("last writer should win, got %v", permission.Strings(r.Permissions))
	}
	if _, ok := cat.Lookup("missing"); ok {
		t.Error("missing role should not resolve")
	}
}
