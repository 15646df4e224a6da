package auth

import "strings"

// RoleType is a bitmask of platform roles. A principal may hold any
// combination; the zero value means no roles.
type RoleType uint

const (
	RoleNone             RoleType = 0
	RoleAdmin            RoleType = 1 << 0
	RoleEventCreator     RoleType = 1 << 1
	RoleEventParticipant RoleType = 1 << 2
)

const roleNoneName = "None"

// roleOrder is the canonical bit order used when listing names.
var roleOrder = []struct {
	role RoleType
	name string
}{
	{RoleAdmin, "Admin"},
	{RoleEventCreator, "EventCreator"},
	{RoleEventParticipant, "EventParticipant"},
}

var allRolesMask = RoleAdmin | RoleEventCreator | RoleEventParticipant

// AllRoles returns every defined role in bit order
func AllRoles() []RoleType {
	out := make([]RoleType, 0, len(roleOrder))
	for _, r := range roleOrder {
		out = append(out, r.role)
	}
	return out
}

// RoleNames returns the names of every defined role in bit order
func RoleNames() []string {
	return ToNames(allRolesMask)
}

// ParseRole resolves a single role name. Names are case sensitive.
func ParseRole(name string) (RoleType, bool) {
	for _, r := range roleOrder {
		if r.name == name {
			return r.role, true
		}
	}
	return RoleNone, false
}

// Has reports whether mask contains every bit of role.
func Has(mask, role RoleType) bool {
	return mask&role == role
}

// HasAny reports whether mask shares at least one bit with required.
// An empty required set is never satisfied.
func HasAny(mask, required RoleType) bool {
	return mask&required != 0
}

// HasAll reports whether mask contains every bit of required.
// For required == RoleNone this only holds for an empty mask.
func HasAll(mask, required RoleType) bool {
	if required == RoleNone {
		return mask == RoleNone
	}
	return mask&required == required
}

// HasExactly reports mask equality.
func HasExactly(mask, other RoleType) bool {
	return mask == other
}

// Add sets role bits on mask.
func Add(mask, role RoleType) RoleType {
	return mask | role
}

// Remove clears role bits from mask.
func Remove(mask, role RoleType) RoleType {
	return mask &^ role
}

// ToNames lists held role names in bit order. RoleNone is never listed.
func ToNames(mask RoleType) []string {
	out := make([]string, 0, len(roleOrder))
	for _, r := range roleOrder {
		if mask&r.role != 0 {
			out = append(out, r.name)
		}
	}
	return out
}

// FromNames ORs every recognized name into a mask, unknown names are ignored.
func FromNames(names []string) RoleType {
	var mask RoleType
	for _, name := range names {
		if role, ok := ParseRole(name); ok {
			mask |= role
		}
	}
	return mask
}

// Has is the method form of Has
func (r RoleType) Has(role RoleType) bool { return Has(r, role) }

// HasAny is the method form of HasAny
func (r RoleType) HasAny(required RoleType) bool { return HasAny(r, required) }

// HasAll is the method form of HasAll
func (r RoleType) HasAll(required RoleType) bool { return HasAll(r, required) }

// Add is the method form of Add
func (r RoleType) Add(role RoleType) RoleType { return Add(r, role) }

// Remove is the method form of Remove
func (r RoleType) Remove(role RoleType) RoleType { return Remove(r, role) }

// Names is the method form of ToNames
func (r RoleType) Names() []string { return ToNames(r) }

// IsValid reports whether the mask only carries defined bits
func (r RoleType) IsValid() bool {
	return r&^allRolesMask == 0
}

// String renders "None" for an empty mask, otherwise comma separated names
func (r RoleType) String() string {
	names := ToNames(r)
	if len(names) == 0 {
		return roleNoneName
	}
	return strings.Join(names, ", ")
}
