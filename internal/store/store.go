// Package store defines the persistence surface shared by the in-memory
// fixture store and the sqlite-backed store.
package store

import "github.com/kizunavi/kizunavi/internal/models"

// Store is the union of the per-service persistence interfaces. The memory
// implementation backs tests and fixture mode; internal/db provides the
// durable sqlite implementation.
type Store interface {
	FindUserByEmail(email string) (*models.User, error)
	GetUser(id string) (*models.User, error)
	AddUser(u *models.User) error

	ListQuestions() []*models.Question
	GetQuestion(id string) *models.Question
	PutQuestion(q *models.Question)

	AddSurvey(sv *models.Survey)
	GetSurvey(id string) *models.Survey
	UpdateSurvey(sv *models.Survey) bool
	ListSurveysByCompany(companyID string) []*models.Survey

	AddAccessToken(t *models.AccessToken)
	GetAccessToken(token string) *models.AccessToken
	MarkTokenUsed(token string) bool

	AddSurveyResponse(r *models.SurveyResponse) error
	GetResponseByEmployee(surveyID, employeeID string) *models.SurveyResponse
	ListResponsesBySurvey(surveyID string) []*models.SurveyResponse

	AddCompany(c *models.Company)
	GetCompany(id string) *models.Company
	ListCompanies() []*models.Company
	UpdateCompany(c *models.Company) bool
	AddEmployee(e *models.Employee)
	ListEmployeesByCompany(companyID string) []*models.Employee
}
