// Package role bundles permissions under reusable named roles.
//
// Four built-in presets ship with the engine (admin, security-analyst,
// support, user). A role name that matches no preset is a custom role: it
// carries only the permissions explicitly attached to it. Unknown names
// are never an error — they simply grant nothing implicit.
package role

import (
	"github.com/keyfold/keyfold/permission"
)

// Preset role names.
const (
	Admin           = "admin"
	SecurityAnalyst = "security-analyst"
	Support         = "support"
	User            = "user"
)

// Role is a named, reusable permission bundle. Permissions are always
// normalized (valid, deduplicated, catalog-ordered) so equality and
// serialization are deterministic.
type Role struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Permissions []permission.Permission `json:"permissions"`
}

// RecordID keys roles by name in a record store.
func (r Role) RecordID() string { return r.Name }

var presets = map[string][]permission.Permission{
	Admin: {
		permission.MustParse("user:*"),
		permission.MustParse("role:*"),
		permission.MustParse("session:*"),
		permission.MustParse("mfa:*"),
		permission.MustParse("auth:*"),
		permission.MustParse("audit:*"),
		permission.MustParse("oauth:*"),
	},
	SecurityAnalyst: {
		permission.MustParse("audit:read"),
		permission.MustParse("audit:list"),
		permission.MustParse("session:read"),
		permission.MustParse("session:list"),
		permission.MustParse("session:invalidate"),
		permission.MustParse("user:read"),
		permission.MustParse("user:list"),
		permission.MustParse("auth:login"),
		permission.MustParse("auth:logout"),
	},
	Support: {
		permission.MustParse("user:read"),
		permission.MustParse("user:list"),
		permission.MustParse("user:update"),
		permission.MustParse("session:read"),
		permission.MustParse("session:list"),
		permission.MustParse("mfa:setup"),
		permission.MustParse("mfa:verify"),
		permission.MustParse("auth:login"),
		permission.MustParse("auth:logout"),
	},
	User: {
		permission.MustParse("auth:login"),
		permission.MustParse("auth:logout"),
		permission.MustParse("user:read"),
		permission.MustParse("user:update"),
		permission.MustParse("mfa:setup"),
		permission.MustParse("mfa:verify"),
		permission.MustParse("session:read"),
		permission.MustParse("session:invalidate"),
	},
}

// IsPreset reports whether name is a built-in preset role.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// PresetPermissions returns a copy of the preset grant list, normalized.
// Unknown names return an empty list: they denote custom roles with no
// implicit grants, not an error.
func PresetPermissions(name string) []permission.Permission {
	return Normalize(presets[name])
}

// Normalize deduplicates perms and sorts them by catalog position, exact
// grants first and wildcards last. The result is independent of input
// order, and normalizing twice is a no-op.
func Normalize(perms []permission.Permission) []permission.Permission {
	seen := make(map[permission.Permission]struct{}, len(perms))
	out := make([]permission.Permission, 0, len(perms))
	for _, p := range perms {
		if p.IsZero() {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	// Insertion sort: permission lists are small and catalog indexes are
	// cheap, no need for sort.Slice allocation churn.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Index() < out[j-1].Index(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NormalizeStrings parses raw permission strings, drops invalid entries,
// and normalizes the remainder. Used when accepting grants from callers
// or reading them back from records.
func NormalizeStrings(raw []string) []permission.Permission {
	return Normalize(permission.ParseAll(raw))
}

// Build constructs a role from a name, optional description, and optional
// extra permissions. When the name matches a preset, the preset grants
// are merged in; otherwise the role holds only the extras.
func Build(name, description string, extras ...permission.Permission) Role {
	return Role{
		Name:        name,
		Description: description,
		Permissions: Merge(presets[name], extras),
	}
}

// Merge flattens any number of permission lists into one normalized set.
func Merge(sets ...[]permission.Permission) []permission.Permission {
	var flat []permission.Permission
	for _, s := range sets {
		flat = append(flat, s...)
	}
	return Normalize(flat)
}

// MergeRoles unions the permissions of all given roles.
func MergeRoles(roles ...Role) []permission.Permission {
	sets := make([][]permission.Permission, len(roles))
	for i, r := range roles {
		sets[i] = r.Permissions
	}
	return Merge(sets...)
}

// Catalog is a read-only snapshot of named roles, typically loaded from a
// record store and passed explicitly into each evaluation call. Treating
// it as a per-call parameter rather than ambient state keeps permission
// evaluation deterministic under catalog mutation.
type Catalog map[string]Role

// NewCatalog builds a catalog keyed by role name. Later duplicates win,
// matching the last-writer-wins semantics of the backing store.
func NewCatalog(roles []Role) Catalog {
	c := make(Catalog, len(roles))
	for _, r := range roles {
		c[r.Name] = r
	}
	return c
}

// Lookup returns the role registered under name, if any.
func (c Catalog) Lookup(name string) (Role, bool) {
	r, ok := c[name]
	return r, ok
}
