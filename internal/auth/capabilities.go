package auth

// Role names as they appear in token claims.
const (
	RoleSuperAdmin = "superadmin"
	RoleOps        = "ops"
	RoleSupport    = "support"
)

// Capabilities is the explicit permission set computed once per request
// and passed down to handlers and projections. Handlers never consult
// role strings directly.
type Capabilities struct {
	// ViewLogs allows reading the audit trail.
	ViewLogs bool
	// ManageIncidents allows incident and alert rule management plus
	// administrative actions.
	ManageIncidents bool
	// FullAudit allows seeing unredacted before/after snapshots.
	FullAudit bool
}

// CapabilitiesForRoles maps token roles onto capabilities. The superadmin
// role implies everything, including the full-audit tier.
func CapabilitiesForRoles(roles []string) Capabilities {
	var caps Capabilities
	for _, r := range roles {
		switch r {
		case RoleSuperAdmin:
			caps.ViewLogs = true
			caps.ManageIncidents = true
			caps.FullAudit = true
		case RoleOps:
			caps.ManageIncidents = true
		case RoleSupport:
			caps.ViewLogs = true
		}
	}
	return caps
}
