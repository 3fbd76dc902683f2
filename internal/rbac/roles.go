package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin   = "admin"
	RoleAgent   = "agent"   // reads call records and transcripts for callbacks
	RoleAnalyst = "analyst" // reads call records and aggregate reports
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAgent, RoleAnalyst:
		return true
	}
	return false
}
