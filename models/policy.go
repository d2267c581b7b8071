package models

// Operation is an action gated by role.
type Operation string

const (
	OperationRead            Operation = "Read"
	OperationReceive         Operation = "Receive"
	OperationTransfer        Operation = "Transfer"
	OperationIssue           Operation = "Issue"
	OperationAdjust          Operation = "Adjust"
	OperationRebuildTotals   Operation = "RebuildTotals"
	OperationManageMaterials Operation = "ManageMaterials"
	OperationDeleteMaterial  Operation = "DeleteMaterial"
	OperationManageLocations Operation = "ManageLocations"
)

var rolePermissions = map[UserRole]map[Operation]bool{
	UserRoleAdmin: {
		OperationRead:            true,
		OperationReceive:         true,
		OperationTransfer:        true,
		OperationIssue:           true,
		OperationAdjust:          true,
		OperationRebuildTotals:   true,
		OperationManageMaterials: true,
		OperationDeleteMaterial:  true,
		OperationManageLocations: true,
	},
	UserRoleEditor: {
		OperationRead:            true,
		OperationReceive:         true,
		OperationTransfer:        true,
		OperationIssue:           true,
		OperationAdjust:          true,
		OperationManageMaterials: true,
	},
	UserRoleViewer: {
		OperationRead: true,
	},
}

// CanPerform is the single authorization check; unknown roles can do nothing.
func CanPerform(role UserRole, op Operation) bool {
	return rolePermissions[role][op]
}
