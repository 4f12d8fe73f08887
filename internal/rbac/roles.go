package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin              = "admin"
	RoleComplianceOfficer  = "compliance_officer"
	RoleMerchOps           = "merch_ops"
	RoleFinanceOps         = "finance_ops"
	RoleProcurementManager = "procurement_manager"
	RoleAuditor            = "auditor"
	RoleScheduler          = "scheduler" // hidden service role, expire ticks only
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsHiddenRole(role string) bool { return role == RoleScheduler }

// ViewerRoles may read work items and summaries.
func ViewerRoles() []string {
	return []string{
		RoleAdmin, RoleComplianceOfficer, RoleMerchOps,
		RoleFinanceOps, RoleProcurementManager, RoleAuditor,
	}
}

// decisionRoles maps a work-item kind to the roles allowed to decide on it.
// The hidden scheduler role is listed where the external tick issues
// expirations; hidden roles are admitted only where explicitly listed.
var decisionRoles = map[string][]string{
	"compliance":      {RoleComplianceOfficer, RoleScheduler},
	"merch_alert":     {RoleMerchOps},
	"recon_exception": {RoleFinanceOps, RoleScheduler},
	"procurement":     {RoleProcurementManager, RoleScheduler},
}

// DecisionAllowed reports whether the role may decide on the given kind.
// Admin bypasses all checks.
func DecisionAllowed(role, kind string) bool {
	if IsAdmin(role) {
		return true
	}
	for _, r := range decisionRoles[kind] {
		if r == role {
			return true
		}
	}
	return false
}
