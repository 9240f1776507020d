package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizunavi/kizunavi/internal/models"
)

type reportStubStore struct {
	surveys   []*models.Survey
	responses map[string][]*models.SurveyResponse
}

func (s *reportStubStore) ListSurveysByCompany(companyID string) []*models.Survey {
	var out []*models.Survey
	for _, sv := range s.surveys {
		if sv.CompanyID == companyID {
			out = append(out, sv)
		}
	}
	return out
}

func (s *reportStubStore) ListResponsesBySurvey(surveyID string) []*models.SurveyResponse {
	return s.responses[surveyID]
}

func reportFixture() *reportStubStore {
	questions := []*models.Question{
		{ID: "q1", Type: models.QuestionRating, Category: "職場環境", Order: 1},
		{ID: "q2", Type: models.QuestionRating, Category: "やりがい", Order: 2},
		{ID: "q3", Type: models.QuestionText, Category: "自由記述", Order: 3},
	}
	sv := &models.Survey{
		ID:                  "sv1",
		CompanyID:           "c1",
		Status:              models.SurveyCompleted,
		TargetEmployeeCount: 4,
		ImplementationDate:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Questions:           questions,
	}
	responses := []*models.SurveyResponse{
		{ID: "r1", SurveyID: "sv1", Answers: []models.Answer{
			models.RatingAnswer("q1", 6),
			models.RatingAnswer("q2", 4),
			models.TextAnswer("q3", "良い"),
		}},
		{ID: "r2", SurveyID: "sv1", Answers: []models.Answer{
			models.RatingAnswer("q1", 3),
			models.RatingAnswer("q2", 0), // 該当しない: excluded from aggregates
			models.TextAnswer("q3", "普通"),
		}},
	}
	return &reportStubStore{
		surveys:   []*models.Survey{sv},
		responses: map[string][]*models.SurveyResponse{"sv1": responses},
	}
}

func TestDashboardMetrics(t *testing.T) {
	svc := NewReportService(reportFixture())
	m, err := svc.Dashboard("c1")
	require.NoError(t, err)

	// 職場環境: ratings 6 and 3 -> mean 4.5/6 -> 75.0, positive 1/2 -> 50.0
	// やりがい: rating 4 only (0 excluded) -> 66.7, positive 1/1 -> 100.0
	assert.InDelta(t, 70.9, m.KizunaScore, 0.11)
	assert.InDelta(t, 66.7, m.EngagementScore, 0.05)
	assert.InDelta(t, 75.0, m.SatisfactionScore, 0.05)
	assert.InDelta(t, 75.0, m.PositiveRate, 0.05)
	// 2 responses of 4 targets
	assert.InDelta(t, 50.0, m.ImplementationRate, 0.05)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), m.LastSurveyDate)
}

func TestCategoryReportOrdersByQuestionOrder(t *testing.T) {
	svc := NewReportService(reportFixture())
	rep, err := svc.Category("c1")
	require.NoError(t, err)
	require.Len(t, rep.Categories, 2)
	assert.Equal(t, "職場環境", rep.Categories[0].Category)
	assert.InDelta(t, 75.0, rep.Categories[0].Score, 0.05)
	assert.InDelta(t, 50.0, rep.Categories[0].PositiveRate, 0.05)
	assert.Equal(t, "やりがい", rep.Categories[1].Category)
	assert.InDelta(t, 66.7, rep.Categories[1].Score, 0.05)
}

func TestSummaryReport(t *testing.T) {
	svc := NewReportService(reportFixture())
	rep, err := svc.Summary("c1")
	require.NoError(t, err)
	assert.InDelta(t, 70.9, rep.KizunaScore, 0.11)
	assert.InDelta(t, 100.0, rep.EngagementRate, 0.05)
	assert.InDelta(t, 50.0, rep.SatisfactionRate, 0.05)
}

func TestReportsRequireResults(t *testing.T) {
	store := &reportStubStore{
		surveys: []*models.Survey{{
			ID: "sv1", CompanyID: "c1", Status: models.SurveyPublished,
		}},
		responses: map[string][]*models.SurveyResponse{},
	}
	svc := NewReportService(store)
	_, err := svc.Dashboard("c1")
	assert.True(t, IsCode(err, ErrorNotFound))

	// drafts never count even if they somehow have responses
	store.surveys[0].Status = models.SurveyDraft
	store.responses["sv1"] = []*models.SurveyResponse{{ID: "r1", SurveyID: "sv1"}}
	_, err = svc.Summary("c1")
	assert.True(t, IsCode(err, ErrorNotFound))
}
