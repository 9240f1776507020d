package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/store"
)

// Demo accounts seeded into every fixture. The password is shared.
const (
	FixturePassword    = "password123"
	FixtureMasterEmail = "master@kizunavi.jp"
	FixtureAdminEmail  = "admin@example.co.jp"
	FixtureMemberEmail = "member@example.co.jp"
	FixtureCompanyID   = "c-demo"
)

// Fixture serves the Client contract entirely in-process on top of the
// memory store. It backs tests and the demo mode of the CLI.
type Fixture struct {
	mu       sync.Mutex
	store    *store.MemoryStore
	auth     *services.AuthService
	question *services.QuestionService
	survey   *services.SurveyService
	sessions map[string]string // bearer token -> user id

	// forced, when set, is returned by every call. Tests use it to stand in
	// for an unreachable server.
	forced error
}

var _ Client = (*Fixture)(nil)

func NewFixture() *Fixture {
	st := store.NewMemoryStore()
	st.SeedQuestions(services.DefaultQuestions())
	f := &Fixture{
		store: st,
		auth: services.NewAuthService(st, func(uid, companyID, email string, role models.Role, ttl time.Duration) (string, error) {
			return "fx-" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
		}),
		question: services.NewQuestionService(st),
		survey:   services.NewSurveyService(st),
		sessions: map[string]string{},
	}
	seed := []struct {
		email string
		role  models.Role
	}{
		{FixtureMasterEmail, models.RoleMaster},
		{FixtureAdminEmail, models.RoleAdmin},
		{FixtureMemberEmail, models.RoleMember},
	}
	for _, s := range seed {
		if _, err := f.auth.Register(s.email, FixturePassword, FixtureCompanyID, s.role); err != nil {
			panic(err)
		}
	}
	return f
}

// Store exposes the backing memory store so tests can arrange state directly.
func (f *Fixture) Store() *store.MemoryStore { return f.store }

// Surveys exposes the survey service for test arrangement, e.g. creating and
// publishing a survey the fixture should serve.
func (f *Fixture) Surveys() *services.SurveyService { return f.survey }

// Fail forces every subsequent call to return err. Pass nil to recover.
func (f *Fixture) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = err
}

func (f *Fixture) forcedErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forced
}

func (f *Fixture) Login(ctx context.Context, creds Credentials) (*services.AuthResult, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	res, err := f.auth.Login(creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sessions[res.Token] = res.User.ID
	f.mu.Unlock()
	return res, nil
}

func (f *Fixture) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	uid, ok := f.sessions[token]
	f.mu.Unlock()
	if !ok {
		return nil, services.NewUnauthorizedError("invalid token")
	}
	return f.auth.Validate(uid)
}

func (f *Fixture) Logout(ctx context.Context, token string) error {
	if err := f.forcedErr(); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.sessions, token)
	f.mu.Unlock()
	return nil
}

func (f *Fixture) Questions(ctx context.Context, token string) ([]*models.Question, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	if _, err := f.ValidateToken(ctx, token); err != nil {
		return nil, err
	}
	return f.question.List(), nil
}

func (f *Fixture) UpdateQuestionNote(ctx context.Context, token, questionID, note string) (*models.Question, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	u, err := f.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !u.Permissions.CanManageQuestions {
		return nil, services.NewForbiddenError("権限がありません")
	}
	q := f.question.UpdateNote(questionID, note)
	if q == nil {
		return nil, services.NewNotFoundError("question not found")
	}
	return q, nil
}

func (f *Fixture) PublishedSurvey(ctx context.Context, token string) (*models.Survey, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	u, err := f.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return f.survey.Published(u.CompanyID)
}

func (f *Fixture) SurveyByToken(ctx context.Context, accessToken string) (*models.Survey, error) {
	if err := f.forcedErr(); err != nil {
		return nil, err
	}
	return f.survey.ByToken(accessToken)
}

func (f *Fixture) SubmitResponse(ctx context.Context, token, surveyID string, answers []models.Answer) error {
	if err := f.forcedErr(); err != nil {
		return err
	}
	u, err := f.ValidateToken(ctx, token)
	if err != nil {
		return err
	}
	_, err = f.survey.SubmitResponse(surveyID, u.ID, answers)
	return err
}

func (f *Fixture) SubmitResponseByToken(ctx context.Context, accessToken string, answers []models.Answer) error {
	if err := f.forcedErr(); err != nil {
		return err
	}
	_, err := f.survey.SubmitResponseByToken(accessToken, answers)
	return err
}
