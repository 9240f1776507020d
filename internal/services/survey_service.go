package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kizunavi/kizunavi/internal/models"
)

// RatingMin and RatingMax bound the rating scale. 0 means 該当しない and is
// a valid selection; the unanswered sentinel is -1 and never reaches a
// stored response.
const (
	RatingMin = 0
	RatingMax = 6
)

type SurveyStore interface {
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
}

// SurveyService drives the survey lifecycle: draft -> published -> completed,
// distribution tokens, and answer submission.
type SurveyService struct {
	store SurveyStore
	now   func() time.Time
	idGen func(prefix string, n int) string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func(prefix string, n int) string { return prefix + shortID(n) },
	}
}

// Create stores a new draft survey with a snapshot of the question catalog.
func (s *SurveyService) Create(companyID, title string, deadline time.Time, targetEmployeeCount int, questions []*models.Question) (*models.Survey, error) {
	if companyID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if strings.TrimSpace(title) == "" {
		return nil, NewInvalidError("title required")
	}
	if len(questions) == 0 {
		return nil, NewInvalidError("questions required")
	}
	snapshot := make([]*models.Question, len(questions))
	for i, q := range questions {
		cp := *q
		snapshot[i] = &cp
	}
	sv := &models.Survey{
		ID:                  s.idGen("sv", 8),
		Title:               strings.TrimSpace(title),
		CompanyID:           companyID,
		Deadline:            deadline,
		Status:              models.SurveyDraft,
		TargetEmployeeCount: targetEmployeeCount,
		ImplementationDate:  s.now(),
		Questions:           snapshot,
		CreatedAt:           s.now(),
	}
	s.store.AddSurvey(sv)
	return sv, nil
}

func (s *SurveyService) Get(id string) (*models.Survey, error) {
	sv := s.store.GetSurvey(id)
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return sv, nil
}

func (s *SurveyService) ListByCompany(companyID string) []*models.Survey {
	return s.store.ListSurveysByCompany(companyID)
}

// Publish moves a draft survey to published. Transitions only run forward.
func (s *SurveyService) Publish(id string) (*models.Survey, error) {
	sv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.SurveyDraft {
		return nil, NewConflictError("survey is not a draft")
	}
	now := s.now()
	sv.Status = models.SurveyPublished
	sv.PublishedAt = &now
	s.store.UpdateSurvey(sv)
	return sv, nil
}

// Complete closes a published survey.
func (s *SurveyService) Complete(id string) (*models.Survey, error) {
	sv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.SurveyPublished {
		return nil, NewConflictError("survey is not published")
	}
	now := s.now()
	sv.Status = models.SurveyCompleted
	sv.CompletedAt = &now
	s.store.UpdateSurvey(sv)
	return sv, nil
}

// Published returns the company's currently answerable survey.
func (s *SurveyService) Published(companyID string) (*models.Survey, error) {
	for _, sv := range s.store.ListSurveysByCompany(companyID) {
		if sv.Status == models.SurveyPublished {
			return sv, nil
		}
	}
	return nil, NewNotFoundError("no published survey")
}

// Distribute issues one single-use access token per target employee. The
// survey must already be published.
func (s *SurveyService) Distribute(surveyID string, employeeIDs []string) ([]*models.AccessToken, error) {
	sv, err := s.Get(surveyID)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.SurveyPublished {
		return nil, NewConflictError("only a published survey can be distributed")
	}
	if len(employeeIDs) == 0 {
		return nil, NewInvalidError("target employees required")
	}
	tokens := make([]*models.AccessToken, 0, len(employeeIDs))
	for _, eid := range employeeIDs {
		t := &models.AccessToken{
			Token:      strings.ReplaceAll(uuid.NewString(), "-", ""),
			SurveyID:   sv.ID,
			EmployeeID: eid,
			CreatedAt:  s.now(),
		}
		s.store.AddAccessToken(t)
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// ByToken resolves the survey behind an anonymous access token. A used
// token conflicts rather than 404s so the caller can tell "bad link" from
// "already answered".
func (s *SurveyService) ByToken(token string) (*models.Survey, error) {
	t := s.store.GetAccessToken(token)
	if t == nil {
		return nil, NewNotFoundError("invalid survey access token")
	}
	if t.Used {
		return nil, NewConflictError("response already submitted")
	}
	return s.Get(t.SurveyID)
}

// SubmitResponse records an authenticated employee's answers. Every question
// in the survey must carry a non-sentinel answer; nothing is stored on a
// validation failure.
func (s *SurveyService) SubmitResponse(surveyID, employeeID string, answers []models.Answer) (*models.SurveyResponse, error) {
	sv, err := s.Get(surveyID)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.SurveyPublished {
		return nil, NewConflictError("survey is not accepting responses")
	}
	if employeeID == "" {
		return nil, NewUnauthorizedError("authentication required")
	}
	if existing := s.store.GetResponseByEmployee(surveyID, employeeID); existing != nil {
		return nil, NewConflictError("response already submitted")
	}
	if err := ValidateAnswers(sv.Questions, answers); err != nil {
		return nil, err
	}
	return s.persist(sv, employeeID, answers)
}

// SubmitResponseByToken records an anonymous submission and burns the token.
func (s *SurveyService) SubmitResponseByToken(token string, answers []models.Answer) (*models.SurveyResponse, error) {
	t := s.store.GetAccessToken(token)
	if t == nil {
		return nil, NewNotFoundError("invalid survey access token")
	}
	if t.Used {
		return nil, NewConflictError("response already submitted")
	}
	sv, err := s.Get(t.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv.Status != models.SurveyPublished {
		return nil, NewConflictError("survey is not accepting responses")
	}
	if err := ValidateAnswers(sv.Questions, answers); err != nil {
		return nil, err
	}
	resp, err := s.persist(sv, t.EmployeeID, answers)
	if err != nil {
		return nil, err
	}
	s.store.MarkTokenUsed(token)
	return resp, nil
}

func (s *SurveyService) persist(sv *models.Survey, employeeID string, answers []models.Answer) (*models.SurveyResponse, error) {
	resp := &models.SurveyResponse{
		ID:          s.idGen("r", 12),
		SurveyID:    sv.ID,
		EmployeeID:  employeeID,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	if err := s.store.AddSurveyResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ValidateAnswers checks that every question has a non-sentinel answer of
// the right shape. Answers for unknown question ids are ignored.
func ValidateAnswers(questions []*models.Question, answers []models.Answer) error {
	byQuestion := make(map[string]models.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	for _, q := range questions {
		a, ok := byQuestion[q.ID]
		if !ok {
			return NewInvalidError("すべての質問に回答してください")
		}
		switch q.Type {
		case models.QuestionRating:
			n, ok := RatingValue(a)
			if !ok || n < RatingMin || n > RatingMax {
				return NewInvalidError("すべての質問に回答してください")
			}
		case models.QuestionText:
			t, ok := TextValue(a)
			if !ok || strings.TrimSpace(t) == "" {
				return NewInvalidError("すべての質問に回答してください")
			}
		default:
			return NewInvalidError("unknown question type")
		}
	}
	return nil
}

// RatingValue decodes a rating answer. Numeric strings are tolerated the
// same way numbers are.
func RatingValue(a models.Answer) (int, bool) {
	if len(a.Value) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(a.Value, &f); err == nil {
		return int(f), true
	}
	var sval string
	if err := json.Unmarshal(a.Value, &sval); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(sval)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// TextValue decodes a free-text answer.
func TextValue(a models.Answer) (string, bool) {
	if len(a.Value) == 0 {
		return "", false
	}
	var sval string
	if err := json.Unmarshal(a.Value, &sval); err != nil {
		return "", false
	}
	return sval, true
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
