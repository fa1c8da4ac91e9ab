// Package permission defines the closed grant vocabulary for Keyfold.
//
// A permission is a "resource:action" token (or "resource:*" wildcard)
// drawn from a fixed catalog. Values are only constructed through Parse
// or MustParse, so a Permission held anywhere in the system is known to
// be catalog-valid. There is no global "*" wildcard and no cross-resource
// implication: a wildcard grants every action of its own resource only.
package permission

import (
	"fmt"
	"strings"
)

// WildcardAction grants every catalog action of a resource.
const WildcardAction = "*"

// Resources in canonical order. The order is load-bearing: it defines
// the stable sort used by role normalization.
var Resources = []string{"user", "role", "session", "mfa", "auth", "audit", "oauth"}

// Actions is the full action vocabulary. Not every resource supports
// every action; see catalog below.
var Actions = []string{
	"create", "read", "update", "delete", "assign", "verify",
	"setup", "login", "logout", "list", "invalidate", "rotate",
}

// catalog maps each resource to its valid actions, in canonical order.
var catalog = map[string][]string{
	"user":    {"create", "read", "update", "delete", "list"},
	"role":    {"create", "read", "update", "delete", "assign", "list"},
	"session": {"read", "list", "invalidate"},
	"mfa":     {"setup", "verify"},
	"auth":    {"login", "logout"},
	"audit":   {"read", "list"},
	"oauth":   {"read", "rotate"},
}

var (
	resourceIndex map[string]int
	actionSet     map[string]struct{}
	// catalogIndex assigns every exact resource:action pair its position
	// in the canonical ordering. Wildcards sort after all exact grants.
	catalogIndex map[string]int
	exactCount   int
)

func init() {
	resourceIndex = make(map[string]int, len(Resources))
	for i, r := range Resources {
		resourceIndex[r] = i
	}
	actionSet = make(map[string]struct{}, len(Actions))
	for _, a := range Actions {
		actionSet[a] = struct{}{}
	}
	catalogIndex = make(map[string]int)
	for _, r := range Resources {
		for _, a := range catalog[r] {
			catalogIndex[r+":"+a] = exactCount
			exactCount++
		}
	}
}

// Permission is a validated grant token. The zero value is not valid;
// obtain instances through Parse or MustParse.
type Permission struct {
	resource string
	action   string
}

// Parse validates s against the catalog and returns the permission.
// The action "*" is valid for every known resource.
func Parse(s string) (Permission, error) {
	res, act, ok := strings.Cut(s, ":")
	if !ok {
		return Permission{}, fmt.Errorf("permission %q: missing ':' separator", s)
	}
	if _, known := resourceIndex[res]; !known {
		return Permission{}, fmt.Errorf("permission %q: unknown resource %q", s, res)
	}
	if act == WildcardAction {
		return Permission{resource: res, action: act}, nil
	}
	if _, known := actionSet[act]; !known {
		return Permission{}, fmt.Errorf("permission %q: unknown action %q", s, act)
	}
	if _, known := catalogIndex[res+":"+act]; !known {
		return Permission{}, fmt.Errorf("permission %q: action %q not valid for resource %q", s, act, res)
	}
	return Permission{resource: res, action: act}, nil
}

// MustParse is Parse for static permission tables; it panics on invalid
// input and must only be used with literals.
func MustParse(s string) Permission {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsValid reports whether s is a catalog-valid permission string.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (p Permission) Resource() string { return p.resource }
func (p Permission) Action() string   { return p.action }

// IsWildcard reports whether the permission grants all actions of its resource.
func (p Permission) IsWildcard() bool { return p.action == WildcardAction }

// IsZero reports whether p is the invalid zero value.
func (p Permission) IsZero() bool { return p.resource == "" }

func (p Permission) String() string { return p.resource + ":" + p.action }

// Index is the position of p in the canonical catalog ordering.
// Exact grants come first in catalog order; wildcards follow, ordered by
// resource position. Used for stable, deterministic normalization.
func (p Permission) Index() int {
	if p.IsWildcard() {
		return exactCount + resourceIndex[p.resource]
	}
	return catalogIndex[p.String()]
}

// Implies reports whether holding the grant p satisfies required.
// True iff both name the same resource and p is either the wildcard or
// the exact action. Deliberately no cross-resource or global wildcard.
func (p Permission) Implies(required Permission) bool {
	if p.resource != required.resource {
		return false
	}
	return p.action == WildcardAction || p.action == required.action
}

// CoversAny reports whether some grant implies required.
func CoversAny(grants []Permission, required Permission) bool {
	for _, g := range grants {
		if g.Implies(required) {
			return true
		}
	}
	return false
}

// CoversAll reports whether every required permission is implied by at
// least one grant. An empty required list is trivially covered.
func CoversAll(grants []Permission, required []Permission) bool {
	for _, r := range required {
		if !CoversAny(grants, r) {
			return false
		}
	}
	return true
}

// MarshalText encodes the permission as its canonical string.
func (p Permission) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("cannot marshal zero permission")
	}
	return []byte(p.String()), nil
}

// UnmarshalText re-validates against the catalog, so records read back
// from storage cannot smuggle in stale or unknown grants.
func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseAll parses every string in ss, silently dropping invalid entries.
// Stored records may predate catalog changes; unknown grants degrade to
// nothing rather than failing the whole read (fail-closed).
func ParseAll(ss []string) []Permission {
	out := make([]Permission, 0, len(ss))
	for _, s := range ss {
		if p, err := Parse(s); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Strings renders a permission list to its canonical string form.
func Strings(ps []Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
