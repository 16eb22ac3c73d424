package apptoken

import (
	"sort"
	"strings"
)

// Permissions maps a permission name (e.g. "contents") to an access level
// (e.g. "read"). An empty set asks GitHub for every permission granted to
// the installation, which is not the same as an explicit empty object.
type Permissions map[string]string

// Enumeration of access levels accepted by ParsePermissions.
const (
	LevelRead  = "read"
	LevelWrite = "write"
	LevelAdmin = "admin"
)

// DefaultPermissions returns the permissions used when none are requested.
func DefaultPermissions() Permissions {
	return Permissions{"contents": LevelRead}
}

// ParsePermissions parses a comma separated list of name:level pairs. Pairs
// that are malformed or use an unknown level are skipped, and if no valid
// pair remains the default permissions are returned.
func ParsePermissions(s string) Permissions {
	p := make(Permissions)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		level := strings.ToLower(strings.TrimSpace(parts[1]))
		if name == "" {
			continue
		}
		switch level {
		case LevelRead, LevelWrite, LevelAdmin:
			p[name] = level
		}
	}
	if len(p) == 0 {
		return DefaultPermissions()
	}
	return p
}

// Trimmed returns a copy with surrounding whitespace removed from every key.
func (p Permissions) Trimmed() Permissions {
	out := make(Permissions, len(p))
	for k, v := range p {
		out[strings.TrimSpace(k)] = v
	}
	return out
}

// String returns the permissions in the same format accepted by ParsePermissions, sorted by name.
func (p Permissions) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+":"+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
