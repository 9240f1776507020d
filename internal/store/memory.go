package store

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/kizunavi/kizunavi/internal/models"
)

// MemoryStore is the non-durable Store used by tests, the fixture client,
// and dev runs without a database. Values are copied on the way in and out
// so callers never alias internal state.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	questions    map[string]*models.Question
	surveys      map[string]*models.Survey
	tokens       map[string]*models.AccessToken
	responses    []*models.SurveyResponse
	companies    map[string]*models.Company
	employees    map[string]*models.Employee
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[string]*models.User{},
		questions:    map[string]*models.Question{},
		surveys:      map[string]*models.Survey{},
		tokens:       map[string]*models.AccessToken{},
		companies:    map[string]*models.Company{},
		employees:    map[string]*models.Employee{},
	}
}

// SeedQuestions loads a question catalog when the store has none yet.
func (s *MemoryStore) SeedQuestions(qs []*models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) > 0 {
		return
	}
	for _, q := range qs {
		cp := *q
		s.questions[q.ID] = &cp
	}
}

func (s *MemoryStore) FindUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) AddUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.usersByEmail[key]; ok {
		return errors.New("duplicate user email")
	}
	cp := *u
	s.usersByEmail[key] = &cp
	s.usersByID[u.ID] = &cp
	return nil
}

func (s *MemoryStore) ListQuestions() []*models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		cp := *q
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (s *MemoryStore) GetQuestion(id string) *models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		cp := *q
		return &cp
	}
	return nil
}

func (s *MemoryStore) PutQuestion(q *models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
}

func (s *MemoryStore) AddSurvey(sv *models.Survey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys[sv.ID] = copySurvey(sv)
}

func (s *MemoryStore) GetSurvey(id string) *models.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sv, ok := s.surveys[id]; ok {
		return copySurvey(sv)
	}
	return nil
}

func (s *MemoryStore) UpdateSurvey(sv *models.Survey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; !ok {
		return false
	}
	s.surveys[sv.ID] = copySurvey(sv)
	return true
}

func (s *MemoryStore) ListSurveysByCompany(companyID string) []*models.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Survey{}
	for _, sv := range s.surveys {
		if sv.CompanyID == companyID {
			out = append(out, copySurvey(sv))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) AddAccessToken(t *models.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.Token] = &cp
}

func (s *MemoryStore) GetAccessToken(token string) *models.AccessToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[token]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (s *MemoryStore) MarkTokenUsed(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return false
	}
	t.Used = true
	return true
}

func (s *MemoryStore) AddSurveyResponse(r *models.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.Answers = append([]models.Answer(nil), r.Answers...)
	s.responses = append(s.responses, &cp)
	return nil
}

func (s *MemoryStore) GetResponseByEmployee(surveyID, employeeID string) *models.SurveyResponse {
	if employeeID == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.EmployeeID == employeeID {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (s *MemoryStore) ListResponsesBySurvey(surveyID string) []*models.SurveyResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.SurveyResponse{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (s *MemoryStore) AddCompany(c *models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = copyCompany(c)
}

func (s *MemoryStore) GetCompany(id string) *models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.companies[id]; ok {
		return copyCompany(c)
	}
	return nil
}

func (s *MemoryStore) ListCompanies() []*models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, copyCompany(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) UpdateCompany(c *models.Company) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return false
	}
	s.companies[c.ID] = copyCompany(c)
	return true
}

func (s *MemoryStore) AddEmployee(e *models.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.employees[e.ID] = &cp
}

func (s *MemoryStore) ListEmployeesByCompany(companyID string) []*models.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Employee{}
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copySurvey(sv *models.Survey) *models.Survey {
	cp := *sv
	cp.Questions = make([]*models.Question, len(sv.Questions))
	for i, q := range sv.Questions {
		qc := *q
		cp.Questions[i] = &qc
	}
	return &cp
}

func copyCompany(c *models.Company) *models.Company {
	cp := *c
	cp.SalesPersonIDs = append([]string(nil), c.SalesPersonIDs...)
	cp.Employees = make([]*models.Employee, len(c.Employees))
	for i, e := range c.Employees {
		ec := *e
		cp.Employees[i] = &ec
	}
	return &cp
}
