// Package client is the API surface the session manager, route guard and
// response flow talk to. Live talks HTTP to a running server; Fixture serves
// the same contract in-process for demos and tests.
package client

import (
	"context"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Credentials is the login form payload.
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name,omitempty"`
}

// Client abstracts the backend. All methods translate transport failures and
// error payloads into the services error taxonomy.
type Client interface {
	Login(ctx context.Context, creds Credentials) (*services.AuthResult, error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error

	Questions(ctx context.Context, token string) ([]*models.Question, error)
	UpdateQuestionNote(ctx context.Context, token, questionID, note string) (*models.Question, error)

	PublishedSurvey(ctx context.Context, token string) (*models.Survey, error)
	SurveyByToken(ctx context.Context, accessToken string) (*models.Survey, error)
	SubmitResponse(ctx context.Context, token, surveyID string, answers []models.Answer) error
	SubmitResponseByToken(ctx context.Context, accessToken string, answers []models.Answer) error
}
