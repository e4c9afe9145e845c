package models

// UserRole represents the available roles for the RBAC system. Accounts live
// in the external identity service; only the role taxonomy is ours.
type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RoleSecretaire     UserRole = "SECRETAIRE"
	RoleCB             UserRole = "CONTROLEUR_BUDGETAIRE"
	RoleOrdonnateur    UserRole = "ORDONNATEUR"
	RoleAgentComptable UserRole = "AGENT_COMPTABLE"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
