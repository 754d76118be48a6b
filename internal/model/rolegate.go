package model

// Role tags.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCarrier    = "carrier"
	RoleDeveloper  = "developer"
)

// SuperUsername is the hard-wired superuser account. It always passes
// every role check, and no API operation may modify, disable, or delete
// it. The rule lives here at the gate, not in storage.
const SuperUsername = "developer"

// ValidRole reports whether role is a known role tag.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleCarrier, RoleDeveloper:
		return true
	}
	return false
}

// transitionRoles maps a target status to the roles allowed to invoke it.
var transitionRoles = map[string][]string{
	TransferInTransit: {RoleCarrier},
	TransferReceived:  {RoleAdmin, RoleSupervisor},
	TransferCompleted: {RoleAdmin, RoleSupervisor},
	TransferCancelled: {RoleAdmin, RoleSupervisor},
}

// IsSuper reports whether the user is the hard-wired superuser.
func (u *User) IsSuper() bool {
	return u.Username == SuperUsername
}

// CanTransition decides whether the identity may move the transfer to the
// target status. Both the state precondition and the role requirement must
// hold. The superuser satisfies every role check but not illegal state
// transitions. A disabled or deleted identity satisfies no check at all,
// whatever roles it has been assigned.
func CanTransition(u *User, t *Transfer, target string) bool {
	if u == nil || t == nil {
		return false
	}
	if !LegalTransition(t.Status, target) {
		return false
	}
	if u.IsSuper() {
		return true
	}
	if u.Disabled || u.DeletedAt != nil {
		return false
	}
	for _, role := range transitionRoles[target] {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// NextForward returns the forward status the identity may move the
// transfer to, if any. From pending, the carrier transition takes
// precedence over direct receipt for identities holding both roles.
func NextForward(u *User, t *Transfer) (string, bool) {
	if u == nil || t == nil {
		return "", false
	}
	var candidates []string
	switch t.Status {
	case TransferPending:
		// Only identities actually holding the carrier role take the
		// in-transit path; approvers (and the superuser) receive directly.
		if u.HasRole(RoleCarrier) && CanTransition(u, t, TransferInTransit) {
			return TransferInTransit, true
		}
		candidates = []string{TransferReceived}
	case TransferInTransit:
		candidates = []string{TransferReceived}
	case TransferReceived:
		candidates = []string{TransferCompleted}
	default:
		return "", false
	}
	for _, target := range candidates {
		if CanTransition(u, t, target) {
			return target, true
		}
	}
	return "", false
}
