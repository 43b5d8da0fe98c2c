package globals

type contextKey string

const (
	UserIDKey   contextKey = "userId"
	UserRoleKey contextKey = "userRole"
)

// Roles a registered account can hold.
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
)
