package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleAdmin is staff with full access; it passes every role check.
	RoleAdmin = "admin"
	// RoleIntegration is a calling system such as the CRM.
	RoleIntegration = "integration"
	// RoleReadOnly may only read.
	RoleReadOnly = "readonly"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
