package auth

import "slices"

const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleHR       = "HR"
	RoleOperator = "OPERATOR"
)

const (
	PermEmployeesRead    = "employees.read"
	PermEmployeesWrite   = "employees.write"
	PermAttendanceWrite  = "attendance.write"
	PermPayrollRead      = "payroll.read"
	PermPayrollRun       = "payroll.run"
	PermSettlementRun    = "settlement.run"
	PermRegistersWrite   = "registers.write"
	PermSeriesWrite      = "series.write"
	PermPOSSell          = "pos.sell"
	PermUsersWrite       = "users.write"
	PermAuditRead        = "audit.read"
	PermProfessionsWrite = "professions.write"
	PermSettingsWrite    = "settings.write"
	PermAccountingRun    = "accounting.run"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermAttendanceWrite,
	PermPayrollRead,
	PermPayrollRun,
	PermSettlementRun,
	PermRegistersWrite,
	PermSeriesWrite,
	PermPOSSell,
	PermUsersWrite,
	PermAuditRead,
	PermProfessionsWrite,
	PermSettingsWrite,
	PermAccountingRun,
}

var RolePermissions = map[string][]string{
	RoleAdmin: DefaultPermissions,
	RoleManager: {
		PermEmployeesRead,
		PermPayrollRead,
		PermSettlementRun,
		PermRegistersWrite,
		PermSeriesWrite,
		PermPOSSell,
		PermAuditRead,
		PermSettingsWrite,
		PermAccountingRun,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermAttendanceWrite,
		PermPayrollRead,
		PermPayrollRun,
		PermProfessionsWrite,
	},
	RoleOperator: {
		PermPOSSell,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// HasPermission checks explicit grants first, then the role defaults.
func HasPermission(role string, explicit []string, permission string) bool {
	if slices.Contains(explicit, permission) {
		return true
	}
	return slices.Contains(RolePermissions[role], permission)
}
