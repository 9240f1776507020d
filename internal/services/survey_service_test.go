package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizunavi/kizunavi/internal/models"
)

type surveyStubStore struct {
	surveys   map[string]*models.Survey
	tokens    map[string]*models.AccessToken
	responses []*models.SurveyResponse
}

func newSurveyStubStore() *surveyStubStore {
	return &surveyStubStore{surveys: map[string]*models.Survey{}, tokens: map[string]*models.AccessToken{}}
}

func (s *surveyStubStore) AddSurvey(sv *models.Survey)    { s.surveys[sv.ID] = sv }
func (s *surveyStubStore) GetSurvey(id string) *models.Survey {
	return s.surveys[id]
}
func (s *surveyStubStore) UpdateSurvey(sv *models.Survey) bool {
	if _, ok := s.surveys[sv.ID]; !ok {
		return false
	}
	s.surveys[sv.ID] = sv
	return true
}

func (s *surveyStubStore) ListSurveysByCompany(companyID string) []*models.Survey {
	var out []*models.Survey
	for _, sv := range s.surveys {
		if sv.CompanyID == companyID {
			out = append(out, sv)
		}
	}
	return out
}

func (s *surveyStubStore) AddAccessToken(t *models.AccessToken) { s.tokens[t.Token] = t }
func (s *surveyStubStore) GetAccessToken(token string) *models.AccessToken {
	return s.tokens[token]
}
func (s *surveyStubStore) MarkTokenUsed(token string) bool {
	t, ok := s.tokens[token]
	if !ok {
		return false
	}
	t.Used = true
	return true
}

func (s *surveyStubStore) AddSurveyResponse(r *models.SurveyResponse) error {
	s.responses = append(s.responses, r)
	return nil
}

func (s *surveyStubStore) GetResponseByEmployee(surveyID, employeeID string) *models.SurveyResponse {
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.EmployeeID == employeeID {
			return r
		}
	}
	return nil
}

func (s *surveyStubStore) ListResponsesBySurvey(surveyID string) []*models.SurveyResponse {
	var out []*models.SurveyResponse
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out
}

func testQuestions() []*models.Question {
	return []*models.Question{
		{ID: "q1", Type: models.QuestionRating, Category: "職場環境", Order: 1},
		{ID: "q2", Type: models.QuestionRating, Category: "やりがい", Order: 2},
		{ID: "q3", Type: models.QuestionText, Category: "自由記述", Order: 3},
	}
}

func completeAnswers() []models.Answer {
	return []models.Answer{
		models.RatingAnswer("q1", 0), // 該当しない is a valid selection
		models.RatingAnswer("q2", 5),
		models.TextAnswer("q3", "特にありません"),
	}
}

func newTestSurveyService(store *surveyStubStore) *SurveyService {
	svc := NewSurveyService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func publishedSurvey(t *testing.T, svc *SurveyService) *models.Survey {
	t.Helper()
	sv, err := svc.Create("c1", "エンゲージメントサーベイ", time.Now().Add(7*24*time.Hour), 100, testQuestions())
	require.NoError(t, err)
	sv, err = svc.Publish(sv.ID)
	require.NoError(t, err)
	return sv
}

func TestSurveyStatusTransitionsAreOneWay(t *testing.T) {
	svc := newTestSurveyService(newSurveyStubStore())
	sv, err := svc.Create("c1", "run 1", time.Now(), 10, testQuestions())
	require.NoError(t, err)
	assert.Equal(t, models.SurveyDraft, sv.Status)

	// completing a draft skips a state
	_, err = svc.Complete(sv.ID)
	assert.True(t, IsCode(err, ErrorConflict))

	sv, err = svc.Publish(sv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SurveyPublished, sv.Status)
	require.NotNil(t, sv.PublishedAt)

	_, err = svc.Publish(sv.ID)
	assert.True(t, IsCode(err, ErrorConflict))

	sv, err = svc.Complete(sv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SurveyCompleted, sv.Status)

	_, err = svc.Publish(sv.ID)
	assert.True(t, IsCode(err, ErrorConflict))
}

func TestPublishedReturnsAnswerableSurvey(t *testing.T) {
	store := newSurveyStubStore()
	svc := newTestSurveyService(store)

	_, err := svc.Published("c1")
	assert.True(t, IsCode(err, ErrorNotFound))

	sv := publishedSurvey(t, svc)
	got, err := svc.Published("c1")
	require.NoError(t, err)
	assert.Equal(t, sv.ID, got.ID)
}

func TestSubmitResponseValidatesEverything(t *testing.T) {
	store := newSurveyStubStore()
	svc := newTestSurveyService(store)
	sv := publishedSurvey(t, svc)

	// unanswered rating sentinel
	answers := []models.Answer{
		models.RatingAnswer("q1", -1),
		models.RatingAnswer("q2", 5),
		models.TextAnswer("q3", "text"),
	}
	_, err := svc.SubmitResponse(sv.ID, "e1", answers)
	assert.True(t, IsCode(err, ErrorInvalid))
	assert.Empty(t, store.responses, "no response may be persisted on validation failure")

	// blank text sentinel
	answers[0] = models.RatingAnswer("q1", 3)
	answers[2] = models.TextAnswer("q3", "   ")
	_, err = svc.SubmitResponse(sv.ID, "e1", answers)
	assert.True(t, IsCode(err, ErrorInvalid))

	// missing question entirely
	_, err = svc.SubmitResponse(sv.ID, "e1", answers[:2])
	assert.True(t, IsCode(err, ErrorInvalid))

	// out of range rating
	answers[0] = models.RatingAnswer("q1", 7)
	answers[2] = models.TextAnswer("q3", "ok")
	_, err = svc.SubmitResponse(sv.ID, "e1", answers)
	assert.True(t, IsCode(err, ErrorInvalid))

	// rating 0 is a valid answer, distinct from the sentinel
	resp, err := svc.SubmitResponse(sv.ID, "e1", completeAnswers())
	require.NoError(t, err)
	assert.Equal(t, "e1", resp.EmployeeID)
	assert.Len(t, store.responses, 1)
}

func TestSubmitResponseDuplicateConflicts(t *testing.T) {
	svc := newTestSurveyService(newSurveyStubStore())
	sv := publishedSurvey(t, svc)

	_, err := svc.SubmitResponse(sv.ID, "e1", completeAnswers())
	require.NoError(t, err)
	_, err = svc.SubmitResponse(sv.ID, "e1", completeAnswers())
	assert.True(t, IsCode(err, ErrorConflict))
}

func TestSubmitResponseRequiresPublishedSurvey(t *testing.T) {
	svc := newTestSurveyService(newSurveyStubStore())
	sv, err := svc.Create("c1", "draft run", time.Now(), 10, testQuestions())
	require.NoError(t, err)

	_, err = svc.SubmitResponse(sv.ID, "e1", completeAnswers())
	assert.True(t, IsCode(err, ErrorConflict))

	_, err = svc.SubmitResponse("missing", "e1", completeAnswers())
	assert.True(t, IsCode(err, ErrorNotFound))
}

func TestDistributeAndTokenFlow(t *testing.T) {
	store := newSurveyStubStore()
	svc := newTestSurveyService(store)
	sv := publishedSurvey(t, svc)

	tokens, err := svc.Distribute(sv.ID, []string{"e1", "e2"})
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	got, err := svc.ByToken(tokens[0].Token)
	require.NoError(t, err)
	assert.Equal(t, sv.ID, got.ID)

	_, err = svc.ByToken("bogus")
	assert.True(t, IsCode(err, ErrorNotFound))

	resp, err := svc.SubmitResponseByToken(tokens[0].Token, completeAnswers())
	require.NoError(t, err)
	assert.Equal(t, "e1", resp.EmployeeID)

	// the token is single use: lookup and resubmission both conflict
	_, err = svc.ByToken(tokens[0].Token)
	assert.True(t, IsCode(err, ErrorConflict))
	_, err = svc.SubmitResponseByToken(tokens[0].Token, completeAnswers())
	assert.True(t, IsCode(err, ErrorConflict))
}

func TestDistributeRequiresPublished(t *testing.T) {
	svc := newTestSurveyService(newSurveyStubStore())
	sv, err := svc.Create("c1", "draft", time.Now(), 10, testQuestions())
	require.NoError(t, err)

	_, err = svc.Distribute(sv.ID, []string{"e1"})
	assert.True(t, IsCode(err, ErrorConflict))
	_, err = svc.Distribute(sv.ID, nil)
	assert.Error(t, err)
}

func TestRatingValueDecodesNumbersAndNumericStrings(t *testing.T) {
	n, ok := RatingValue(models.RatingAnswer("q", 4))
	require.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = RatingValue(models.TextAnswer("q", " 3 "))
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = RatingValue(models.TextAnswer("q", "abc"))
	assert.False(t, ok)
	_, ok = RatingValue(models.Answer{QuestionID: "q"})
	assert.False(t, ok)
}
