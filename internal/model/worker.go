package model

// Worker roles.
const (
	RoleToolroomIncharge = "TOOLROOM_INCHARGE"
	RoleSupervisor       = "SUPERVISOR"
	RoleTechnician       = "TECHNICIAN"
	RoleOperator         = "OPERATOR"
	RoleAdmin            = "ADMIN"
)

// Worker is one badge holder from GET /workers.
type Worker struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
	QRCode     string  `json:"qr_code"`
	Phone      *string `json:"phone"`
	IsActive   bool    `json:"is_active"`
}
