package derive

import "toolroom-console/internal/model"

// AlertColorClass maps a severity to its color. Unknown severities get the INFO
// treatment.
func AlertColorClass(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return ColorRed
	case model.SeverityWarning:
		return ColorAmber
	case model.SeverityInfo:
		return ColorBlue
	default:
		return ColorBlue
	}
}

// StateColorClass maps an asset/kit state to its color. Anything unknown is drawn
// like WITHDRAWN.
func StateColorClass(state string) string {
	switch state {
	case model.StateAvailable:
		return ColorGreen
	case model.StateInCustody:
		return ColorAmber
	case model.StateOverdue:
		return ColorRed
	case model.StateSuspended:
		return ColorOrange
	case model.StateOverrideCustody:
		return ColorPurple
	case model.StateWithdrawn:
		return ColorNeutral
	default:
		return ColorNeutral
	}
}

// StateLabel is the human label of a state; unknown values keep their literal text.
func StateLabel(state string) string {
	switch state {
	case model.StateAvailable:
		return "Available"
	case model.StateInCustody:
		return "In Custody"
	case model.StateOverdue:
		return "Overdue"
	case model.StateSuspended:
		return "Suspended"
	case model.StateOverrideCustody:
		return "Override"
	case model.StateWithdrawn:
		return "Withdrawn"
	default:
		return state
	}
}

// StateBadge pairs StateLabel with StateColorClass.
func StateBadge(state string) Badge {
	return Badge{Label: StateLabel(state), Color: StateColorClass(state)}
}

// CalibrationColorClass maps a calibration status to its color.
func CalibrationColorClass(status string) string {
	switch status {
	case model.CalibrationValid:
		return ColorGreen
	case model.CalibrationDueSoon:
		return ColorAmber
	case model.CalibrationOverdue:
		return ColorRed
	case model.CalibrationNotRequired, model.CalibrationUnknown:
		return ColorNeutral
	default:
		return ColorNeutral
	}
}

// CalibrationLabel is the human label of a calibration status.
func CalibrationLabel(status string) string {
	switch status {
	case model.CalibrationValid:
		return "Valid"
	case model.CalibrationDueSoon:
		return "Due Soon"
	case model.CalibrationOverdue:
		return "Overdue"
	case model.CalibrationNotRequired:
		return "N/A"
	case model.CalibrationUnknown:
		return "Unknown"
	default:
		return status
	}
}

// CalibrationBadge pairs CalibrationLabel with CalibrationColorClass.
func CalibrationBadge(status string) Badge {
	return Badge{Label: CalibrationLabel(status), Color: CalibrationColorClass(status)}
}

// RoleColorClass maps a worker role to its color.
func RoleColorClass(role string) string {
	switch role {
	case model.RoleToolroomIncharge:
		return ColorPurple
	case model.RoleSupervisor:
		return ColorBlue
	case model.RoleTechnician:
		return ColorGreen
	case model.RoleOperator:
		return ColorSlate
	case model.RoleAdmin:
		return ColorCyan
	default:
		return ColorNeutral
	}
}

// RoleLabel is the human label of a role.
func RoleLabel(role string) string {
	switch role {
	case model.RoleToolroomIncharge:
		return "Toolroom Incharge"
	case model.RoleSupervisor:
		return "Supervisor"
	case model.RoleTechnician:
		return "Technician"
	case model.RoleOperator:
		return "Operator"
	case model.RoleAdmin:
		return "Admin"
	default:
		return role
	}
}

// RoleBadge pairs RoleLabel with RoleColorClass.
func RoleBadge(role string) Badge {
	return Badge{Label: RoleLabel(role), Color: RoleColorClass(role)}
}

// SeverityBadge pairs a severity with AlertColorClass.
func SeverityBadge(severity string) Badge {
	return Badge{Label: severity, Color: AlertColorClass(severity)}
}
