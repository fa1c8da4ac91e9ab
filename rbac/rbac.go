// Package rbac computes effective permissions and answers authorization
// queries over them.
//
// Role resolution is fail-closed with one deliberate asymmetry, preserved
// from the system this engine replaces: a role name absent from the
// caller's catalog still falls back to the built-in preset of the same
// name, but a name matching neither the catalog nor a preset grants
// nothing. Unknown custom roles are therefore inert rather than errors.
//
// The catalog is always an explicit per-call snapshot, never ambient
// state, so evaluation stays deterministic under concurrent catalog
// mutation.
package rbac

import (
	"fmt"
	"strings"

	"github.com/keyfold/keyfold/identity"
	"github.com/keyfold/keyfold/permission"
	"github.com/keyfold/keyfold/role"
)

// EffectivePermissions resolves every role name on the user through the
// catalog (preset fallback as documented above), merges the resolved
// grants with the user's personal extras, and returns the normalized set.
func EffectivePermissions(u *identity.User, catalog role.Catalog) []permission.Permission {
	sets := make([][]permission.Permission, 0, len(u.Roles)+1)
	for _, name := range u.Roles {
		if r, ok := catalog.Lookup(name); ok {
			sets = append(sets, r.Permissions)
			continue
		}
		// Preset fallback; unknown names contribute nothing.
		sets = append(sets, role.PresetPermissions(name))
	}
	sets = append(sets, u.ExtraPermissions)
	return role.Merge(sets...)
}

// HasAll reports whether the user's effective set covers every required
// permission.
func HasAll(u *identity.User, catalog role.Catalog, required ...permission.Permission) bool {
	return permission.CoversAll(EffectivePermissions(u, catalog), required)
}

// HasAny reports whether the user's effective set covers at least one of
// the required permissions.
func HasAny(u *identity.User, catalog role.Catalog, required ...permission.Permission) bool {
	grants := EffectivePermissions(u, catalog)
	for _, r := range required {
		if permission.CoversAny(grants, r) {
			return true
		}
	}
	return false
}

// DeniedError reports a failed permission assertion. Required is what the
// call site demanded; Missing is the subset the user lacks.
type DeniedError struct {
	UserID   string
	Required []permission.Permission
	Missing  []permission.Permission
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: missing %s", strings.Join(permission.Strings(e.Missing), ", "))
}

// RequireAll returns a DeniedError listing every missing permission when
// the user's effective set does not cover all of required.
func RequireAll(u *identity.User, catalog role.Catalog, required ...permission.Permission) error {
	grants := EffectivePermissions(u, catalog)
	var missing []permission.Permission
	for _, r := range required {
		if !permission.CoversAny(grants, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &DeniedError{UserID: u.ID, Required: required, Missing: missing}
	}
	return nil
}

// RequireAny returns a DeniedError when none of the required permissions
// is covered; Missing then lists the full required set.
func RequireAny(u *identity.User, catalog role.Catalog, required ...permission.Permission) error {
	if HasAny(u, catalog, required...) {
		return nil
	}
	return &DeniedError{UserID: u.ID, Required: required, Missing: required}
}
