package rbac

// Role names carried in access tokens.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func Valid(role string) bool { return role == RoleAdmin || role == RoleOperator }
