package models

import (
	"encoding/json"
	"time"
)

// Role classifies a signed-in user. Capabilities are always derived from the
// role at runtime, never read back from persisted state.
type Role string

const (
	RoleMaster Role = "master" // operator staff, full access
	RoleAdmin  Role = "admin"  // customer HR staff
	RoleMember Role = "member" // general employee
)

// Permissions is the capability set derived from a role.
type Permissions struct {
	CanViewDashboard   bool `json:"can_view_dashboard"`
	CanManageQuestions bool `json:"can_manage_questions"`
	CanViewReports     bool `json:"can_view_reports"`
	CanManageCustomers bool `json:"can_manage_customers"`
	CanAnswerSurvey    bool `json:"can_answer_survey"`
}

// User is an authenticated account. PassHash never leaves the server.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	CompanyID   string      `json:"company_id"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	Profile     *Profile    `json:"profile,omitempty"`
	PassHash    []byte      `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Profile carries the employee attributes used for report segmentation.
type Profile struct {
	Department      string `json:"department,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Nationality     string `json:"nationality,omitempty"`
	Age             string `json:"age,omitempty"`
	Tenure          string `json:"tenure,omitempty"`
	JobType         string `json:"job_type,omitempty"`
	Position        string `json:"position,omitempty"`
	Grade           string `json:"grade,omitempty"`
	Evaluation      string `json:"evaluation,omitempty"`
	Location        string `json:"location,omitempty"`
	EmploymentType  string `json:"employment_type,omitempty"`
	RecruitmentType string `json:"recruitment_type,omitempty"`
	Education       string `json:"education,omitempty"`
}

type QuestionType string

const (
	QuestionRating QuestionType = "rating" // 0..6 scale, 0 = 該当しない
	QuestionText   QuestionType = "text"   // free text
)

// Question is one survey item. Order is the 1-based display position, unique
// within a survey; it also defines pagination grouping.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Category string       `json:"category"`
	Note     string       `json:"note,omitempty"`
	Order    int          `json:"order"`
}

// Answer is a single submitted value. Value is a JSON number for rating
// questions and a JSON string for text questions.
type Answer struct {
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// RatingAnswer encodes a rating value as an Answer.
func RatingAnswer(questionID string, rating int) Answer {
	b, _ := json.Marshal(rating)
	return Answer{QuestionID: questionID, Value: b}
}

// TextAnswer encodes a free-text value as an Answer.
func TextAnswer(questionID, text string) Answer {
	b, _ := json.Marshal(text)
	return Answer{QuestionID: questionID, Value: b}
}

type SurveyStatus string

const (
	SurveyDraft     SurveyStatus = "draft"
	SurveyPublished SurveyStatus = "published"
	SurveyCompleted SurveyStatus = "completed"
)

// Survey holds one engagement survey run. Questions is an ordered snapshot
// taken when the survey is created.
type Survey struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	CompanyID           string       `json:"company_id"`
	Deadline            time.Time    `json:"deadline"`
	Status              SurveyStatus `json:"status"`
	TargetEmployeeCount int          `json:"target_employee_count"`
	ImplementationDate  time.Time    `json:"implementation_date"`
	Questions           []*Question  `json:"questions"`
	CreatedAt           time.Time    `json:"created_at"`
	PublishedAt         *time.Time   `json:"published_at,omitempty"`
	CompletedAt         *time.Time   `json:"completed_at,omitempty"`
}

// SurveyResponse is one employee's complete set of answers.
type SurveyResponse struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"survey_id"`
	EmployeeID  string    `json:"employee_id,omitempty"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AccessToken grants one-time anonymous access to a published survey,
// typically delivered by email link.
type AccessToken struct {
	Token      string    `json:"token"`
	SurveyID   string    `json:"survey_id"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Used       bool      `json:"used"`
	CreatedAt  time.Time `json:"created_at"`
}

// Company is a customer master record.
type Company struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	NameKana       string      `json:"name_kana,omitempty"`
	Address        string      `json:"address,omitempty"`
	PostalCode     string      `json:"postal_code,omitempty"`
	Industry       string      `json:"industry,omitempty"`
	PhoneNumber    string      `json:"phone_number,omitempty"`
	Email          string      `json:"email"`
	ContractModel  string      `json:"contract_model,omitempty"`
	ContractDate   string      `json:"contract_date,omitempty"`
	PaymentCycle   string      `json:"payment_cycle,omitempty"`
	SalesPersonIDs []string    `json:"sales_person_ids,omitempty"`
	Employees      []*Employee `json:"employees,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Employee is a roster entry under a company.
type Employee struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	CompanyID string  `json:"company_id"`
	IDType    string  `json:"id_type,omitempty"` // "hr" or "employee"
	Profile   Profile `json:"profile"`
}

// DashboardMetrics are the headline numbers shown on the dashboard,
// computed from the latest survey's responses.
type DashboardMetrics struct {
	KizunaScore        float64   `json:"kizuna_score"`
	EngagementScore    float64   `json:"engagement_score"`
	SatisfactionScore  float64   `json:"satisfaction_score"`
	HumanCapitalScore  float64   `json:"human_capital_score"`
	ImplementationRate float64   `json:"implementation_rate"`
	PositiveRate       float64   `json:"positive_rate"`
	LastSurveyDate     time.Time `json:"last_survey_date"`
}

// CategoryScore aggregates one question category across responses.
type CategoryScore struct {
	Category     string  `json:"category"`
	Score        float64 `json:"score"`
	PositiveRate float64 `json:"positive_rate"`
}

// SummaryReport is the per-run composite score view.
type SummaryReport struct {
	ImplementationDate time.Time `json:"implementation_date"`
	KizunaScore        float64   `json:"kizuna_score"`
	EngagementScore    float64   `json:"engagement_score"`
	SatisfactionScore  float64   `json:"satisfaction_score"`
	HumanCapitalScore  float64   `json:"human_capital_score"`
	KizunaRate         float64   `json:"kizuna_rate"`
	EngagementRate     float64   `json:"engagement_rate"`
	SatisfactionRate   float64   `json:"satisfaction_rate"`
	HumanCapitalRate   float64   `json:"human_capital_rate"`
}

// CategoryReport breaks one run down by question category.
type CategoryReport struct {
	ImplementationDate time.Time       `json:"implementation_date"`
	Categories         []CategoryScore `json:"categories"`
}
