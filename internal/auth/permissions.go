package auth

import "grievance/backend/internal/models"

// Action is an operation guarded at the API boundary.
type Action string

const (
	ActionSubmitGrievance   Action = "grievance:submit"
	ActionListGrievances    Action = "grievance:list"
	ActionViewGrievance     Action = "grievance:view"
	ActionUpdateStatus      Action = "grievance:update_status"
	ActionAssignGrievance   Action = "grievance:assign"
	ActionGiveFeedback      Action = "grievance:feedback"
	ActionListDepartments   Action = "department:list"
	ActionManageDepartments Action = "department:manage"
	ActionManageUsers       Action = "user:manage"
	ActionViewAnalytics     Action = "analytics:view"
	ActionUseML             Action = "ml:use"
	ActionWatchEvents       Action = "events:watch"
)

// permissions is the single (role, action) table. Anything not listed is denied.
// Ownership rules (assigned officer, owning citizen) are checked by the service.
var permissions = map[models.Role]map[Action]bool{
	models.RoleCitizen: {
		ActionSubmitGrievance: true,
		ActionListGrievances:  true,
		ActionViewGrievance:   true,
		ActionGiveFeedback:    true,
		ActionListDepartments: true,
		ActionUseML:           true,
		ActionWatchEvents:     true,
	},
	models.RoleOfficer: {
		ActionListGrievances:  true,
		ActionViewGrievance:   true,
		ActionUpdateStatus:    true,
		ActionListDepartments: true,
		ActionUseML:           true,
		ActionWatchEvents:     true,
	},
	models.RoleAdmin: {
		ActionListGrievances:    true,
		ActionViewGrievance:     true,
		ActionAssignGrievance:   true,
		ActionListDepartments:   true,
		ActionManageDepartments: true,
		ActionManageUsers:       true,
		ActionViewAnalytics:     true,
		ActionUseML:             true,
		ActionWatchEvents:       true,
	},
}

// Allowed reports whether role may perform action.
func Allowed(role models.Role, action Action) bool {
	return permissions[role][action]
}
