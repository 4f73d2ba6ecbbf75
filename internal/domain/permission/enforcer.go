package permission

// RouteEnforcer answers strict route-level checks for a subject whose role
// strings were loaded into it.
type RouteEnforcer interface {
	LoadRoles(subject string, roles []string) error
	Enforce(subject string, module string, action string) (bool, error)
	Reset(subject string) error
}
