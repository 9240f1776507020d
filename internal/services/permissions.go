package services

import "github.com/kizunavi/kizunavi/internal/models"

// Capability names one functional area a role may access.
type Capability string

const (
	CapViewDashboard   Capability = "view_dashboard"
	CapManageQuestions Capability = "manage_questions"
	CapViewReports     Capability = "view_reports"
	CapManageCustomers Capability = "manage_customers"
	CapAnswerSurvey    Capability = "answer_survey"
)

// Screen identifies a navigable surface of the application.
type Screen string

const (
	ScreenDashboard      Screen = "dashboard"
	ScreenQuestions      Screen = "questions"
	ScreenReports        Screen = "reports"
	ScreenSummaryReport  Screen = "summary_report"
	ScreenCategoryReport Screen = "category_report"
	ScreenCustomerMaster Screen = "customer_master"
	ScreenEmployeeMaster Screen = "employee_master"
	ScreenSurveySettings Screen = "survey_settings"
	ScreenSurveyResponse Screen = "survey_response"
)

// ScreenCapability is the single required-capability table. Views never
// re-derive access rules on their own.
var ScreenCapability = map[Screen]Capability{
	ScreenDashboard:      CapViewDashboard,
	ScreenQuestions:      CapManageQuestions,
	ScreenSurveySettings: CapManageQuestions,
	ScreenReports:        CapViewReports,
	ScreenSummaryReport:  CapViewReports,
	ScreenCategoryReport: CapViewReports,
	ScreenCustomerMaster: CapManageCustomers,
	ScreenEmployeeMaster: CapManageCustomers,
	ScreenSurveyResponse: CapAnswerSurvey,
}

// ScreenOrder is the preferred landing order when redirecting a user away
// from a screen they may not open.
var ScreenOrder = []Screen{
	ScreenDashboard,
	ScreenQuestions,
	ScreenReports,
	ScreenCustomerMaster,
	ScreenSurveyResponse,
}

// PermissionsForRole maps a role to its fixed capability set. Total and
// deterministic; an unknown role yields no capabilities at all rather than
// an error, so a corrupted role value can never widen access.
func PermissionsForRole(role models.Role) models.Permissions {
	switch role {
	case models.RoleMaster:
		return models.Permissions{
			CanViewDashboard:   true,
			CanManageQuestions: true,
			CanViewReports:     true,
			CanManageCustomers: true,
			CanAnswerSurvey:    true,
		}
	case models.RoleAdmin:
		return models.Permissions{
			CanViewDashboard:   true,
			CanManageQuestions: true,
			CanViewReports:     true,
			CanAnswerSurvey:    true,
		}
	case models.RoleMember:
		return models.Permissions{CanAnswerSurvey: true}
	default:
		return models.Permissions{}
	}
}

// HasCapability reads one flag off a capability set.
func HasCapability(p models.Permissions, c Capability) bool {
	switch c {
	case CapViewDashboard:
		return p.CanViewDashboard
	case CapManageQuestions:
		return p.CanManageQuestions
	case CapViewReports:
		return p.CanViewReports
	case CapManageCustomers:
		return p.CanManageCustomers
	case CapAnswerSurvey:
		return p.CanAnswerSurvey
	default:
		return false
	}
}
