package rbac

import (
	"errors"
	"testing"

	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/permission"
	"github.com/keyfold/keyfold/role"
)

func perms(ss ...string) []permission.Permission {
	out := make([]permission.Permission, len(ss))
	for i, s := range ss {
		out[i] = permission.MustParse(s)
	}
	return out
}

func TestEffectivePermissionsCatalogFirst(t *testing.T) {
	// A catalog entry named like a preset fully replaces the preset.
	cat := role.NewCatalog([]role.Role{
		{Name: role.User, Permissions: perms("auth:login")},
	})
	u := &identity.User{ID: "u1", Roles: []string{role.User}}

	got := EffectivePermissions(u, cat)
	if len(got) != 1 || got[0].String() != "auth:login" {
		t.Errorf("catalog entry should shadow the preset, got %v", permission.Strings(got))
	}
}

func TestEffectivePermissionsPresetFallback(t *testing.T) {
	// Missing from the catalog but matching a preset: fall back to preset.
	u := &identity.User{ID: "u1", Roles: []string{role.Support}}
	got := EffectivePermissions(u, role.Catalog{})
	if len(got) != len(role.PresetPermissions(role.Support)) {
		t.Errorf("expected the support preset via fallback, got %v", permission.Strings(got))
	}

	// Matching neither catalog nor preset: grants nothing (fail-closed).
	ghost := &identity.User{ID: "u2", Roles: []string{"ghost-role"}}
	if got := EffectivePermissions(ghost, role.Catalog{}); len(got) != 0 {
		t.Errorf("unknown custom role must grant nothing, got %v", permission.Strings(got))
	}
}

func TestEffectivePermissionsMergesExtras(t *testing.T) {
	u := &identity.User{
		ID:               "u1",
		Roles:            []string{"ghost-role"},
		ExtraPermissions: perms("audit:read", "audit:read"),
	}
	got := EffectivePermissions(u, role.Catalog{})
	if len(got) != 1 || got[0].String() != "audit:read" {
		t.Errorf("extras should merge deduplicated, got %v", permission.Strings(got))
	}
}

func TestHasAllHasAny(t *testing.T) {
	u := &identity.User{ID: "u1", Roles: []string{role.SecurityAnalyst}}
	cat := role.Catalog{}

	if !HasAll(u, cat, perms("audit:read", "session:invalidate")...) {
		t.Error("analyst should hold audit:read and session:invalidate")
	}
	if HasAll(u, cat, perms("audit:read", "role:assign")...) {
		t.Error("analyst must not hold role:assign")
	}
	if !HasAny(u, cat, perms("role:assign", "audit:list")...) {
		t.Error("HasAny should pass via audit:list")
	}
	if HasAny(u, cat, perms("role:assign", "oauth:rotate")...) {
		t.Error("HasAny should fail when nothing is covered")
	}
}

func TestRequireAllReportsMissing(t *testing.T) {
	u := &identity.User{ID: "u1", Roles: []string{role.User}}
	err := RequireAll(u, role.Catalog{}, perms("auth:login", "role:assign", "audit:read")...)
	if err == nil {
		t.Fatal("expected a denial")
	}
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected *DeniedError, got %T", err)
	}
	if len(denied.Missing) != 2 {
		t.Errorf("missing = %v, want role:assign and audit:read", permission.Strings(denied.Missing))
	}
	if denied.UserID != "u1" {
		t.Errorf("denial should carry the user id, got %q", denied.UserID)
	}

	if err := RequireAll(u, role.Catalog{}, perms("auth:login")...); err != nil {
		t.Errorf("covered requirement should pass, got %v", err)
	}
}

func TestRequireAny(t *testing.T) {
	u := &identity.User{ID: "u1", Roles: []string{role.User}}
	if err := RequireAny(u, role.Catalog{}, perms("role:assign", "mfa:setup")...); err != nil {
		t.Errorf("mfa:setup is granted, got %v", err)
	}
	err := RequireAny(u, role.Catalog{}, perms("role:assign", "oauth:rotate")...)
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected *DeniedError, got %v", err)
	}
	if len(denied.Missing) != 2 {
		t.Errorf("RequireAny denial lists the full required set, got %v", permission.Strings(denied.Missing))
	}
}

func TestAdminWildcardsCoverEverything(t *testing.T) {
	u := &identity.User{ID: "root", Roles: []string{role.Admin}}
	required := perms(
		"user:create", "user:delete", "role:assign", "session:invalidate",
		"mfa:setup", "auth:login", "audit:list", "oauth:rotate",
	)
	if !HasAll(u, role.Catalog{}, required...) {
		t.Error("admin wildcards should cover every catalog permission")
	}
}
