package normalize

import "strings"

// Role is the semantic category of a column, derived from its header name.
type Role int

const (
	RolePlain Role = iota
	RoleDate
	RoleTimestamp
	RoleLatitude
	RoleLongitude
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleTimestamp:
		return "timestamp"
	case RoleLatitude:
		return "latitude"
	case RoleLongitude:
		return "longitude"
	default:
		return "plain"
	}
}

// RoleFor derives the role of a single column name. Matching is
// case-insensitive and checked in order: exact "date", then substrings
// "time", "latitud" and "longitud".
func RoleFor(column string) Role {
	low := strings.ToLower(column)
	switch {
	case low == "date":
		return RoleDate
	case strings.Contains(low, "time"):
		return RoleTimestamp
	case strings.Contains(low, "latitud"):
		return RoleLatitude
	case strings.Contains(low, "longitud"):
		return RoleLongitude
	default:
		return RolePlain
	}
}

// RolesFromHeader maps every header column to its role.
// This should be called once per file, then reused for all rows.
func RolesFromHeader(header []string) []Role {
	roles := make([]Role, len(header))
	for i, col := range header {
		roles[i] = RoleFor(col)
	}
	return roles
}
