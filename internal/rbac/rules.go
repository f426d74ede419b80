package rbac

// Permissions are "<resource>:<action>". items covers the caller's own item
// bank, paper the papers assembled from it, users the account table.
const (
	PermItemsRead        = "items:read"
	PermItemsWrite       = "items:write"
	PermItemsDelete      = "items:delete"
	PermPaperView        = "paper:view"
	PermPaperAssemble    = "paper:assemble"
	PermPaperFeasibility = "paper:feasibility"
	PermUsersBulkUpsert  = "users:bulk_upsert"
	PermUsersList        = "users:list"
	PermChangePassword   = "user:change_password"
)

// RolePermissions is the default policy. Patterns ending in "*" match by prefix.
// Reviewers can inspect a bank and check whether a paper is feasible but never
// commit one.
var RolePermissions = map[string][]string{
	"reviewer": {
		PermItemsRead,
		PermPaperView,
		PermPaperFeasibility,
		PermChangePassword,
	},
	"teacher": {
		"items:*",
		"paper:*",
		PermChangePassword,
	},
	"admin": {
		"*",
	},
}

// Roles lists the roles an account may be given.
var Roles = []string{"reviewer", "teacher", "admin"}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
