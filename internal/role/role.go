// Package role maps the free-form role string stored on a user profile onto the
// closed set of roles the dashboard dispatches on.
package role

import "strings"

type Role string

const (
	Admin   Role = "admin"
	Operate Role = "operate"
	Tech    Role = "tech"
	Invent  Role = "invent"
)

// Stored role values as written to users/{uid}.
const (
	StoredAdmin      = "admin"
	StoredOperator   = "operator"
	StoredTechnician = "technician"
	StoredInventory  = "inventory"
)

// All lists every role in dispatch order.
var All = []Role{Admin, Operate, Tech, Invent}

// FromStored maps a stored role value to a Role. Matching ignores case only, so a
// padded value such as " operator " is unrecognised. Unrecognised or empty values map
// to Admin.
func FromStored(stored string) Role {
	switch strings.ToLower(stored) {
	case StoredOperator:
		return Operate
	case StoredTechnician:
		return Tech
	case StoredInventory:
		return Invent
	default:
		return Admin
	}
}

// Stored returns the canonical stored value for r.
func (r Role) Stored() string {
	switch r {
	case Operate:
		return StoredOperator
	case Tech:
		return StoredTechnician
	case Invent:
		return StoredInventory
	default:
		return StoredAdmin
	}
}

func (r Role) Valid() bool {
	switch r {
	case Admin, Operate, Tech, Invent:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Parse accepts either a Role value or a stored value.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	switch string(r) {
	case StoredAdmin, StoredOperator, StoredTechnician, StoredInventory:
		return FromStored(string(r)), true
	}
	return "", false
}
