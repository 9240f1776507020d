package services

import (
	"sort"

	"github.com/kizunavi/kizunavi/internal/models"
)

type ReportStore interface {
	ListSurveysByCompany(companyID string) []*models.Survey
	ListResponsesBySurvey(surveyID string) []*models.SurveyResponse
}

// ReportService aggregates stored responses into the dashboard and report
// views. Scores are on a 0-100 scale; ratings of 0 (該当しない) are treated
// as not-applicable and excluded from both averages and positive rates.
type ReportService struct {
	store ReportStore
}

// Composite score groupings by question category.
var (
	engagementCategories   = []string{"やりがい", "推奨度", "将来性", "改革の息吹"}
	satisfactionCategories = []string{"職場環境", "人間関係", "ワークライフバランス", "企業風土"}
	humanCapitalCategories = []string{"成長機会", "人事制度", "コミュニケーション", "チームワーク", "経営幹部への信頼"}
)

// positiveThreshold is the lowest rating counted as a positive answer.
const positiveThreshold = 4

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// Dashboard computes the headline metrics for the company's most recent
// survey that has responses.
func (s *ReportService) Dashboard(companyID string) (*models.DashboardMetrics, error) {
	sv, responses, err := s.latest(companyID)
	if err != nil {
		return nil, err
	}
	cats := categoryScores(sv.Questions, responses)
	m := &models.DashboardMetrics{
		KizunaScore:       meanScore(cats, nil),
		EngagementScore:   meanScore(cats, engagementCategories),
		SatisfactionScore: meanScore(cats, satisfactionCategories),
		HumanCapitalScore: meanScore(cats, humanCapitalCategories),
		PositiveRate:      meanPositive(cats, nil),
		LastSurveyDate:    sv.ImplementationDate,
	}
	if sv.TargetEmployeeCount > 0 {
		m.ImplementationRate = round1(float64(len(responses)) / float64(sv.TargetEmployeeCount) * 100)
	}
	return m, nil
}

// Summary computes the composite score view for the latest survey.
func (s *ReportService) Summary(companyID string) (*models.SummaryReport, error) {
	sv, responses, err := s.latest(companyID)
	if err != nil {
		return nil, err
	}
	cats := categoryScores(sv.Questions, responses)
	return &models.SummaryReport{
		ImplementationDate: sv.ImplementationDate,
		KizunaScore:        meanScore(cats, nil),
		EngagementScore:    meanScore(cats, engagementCategories),
		SatisfactionScore:  meanScore(cats, satisfactionCategories),
		HumanCapitalScore:  meanScore(cats, humanCapitalCategories),
		KizunaRate:         meanPositive(cats, nil),
		EngagementRate:     meanPositive(cats, engagementCategories),
		SatisfactionRate:   meanPositive(cats, satisfactionCategories),
		HumanCapitalRate:   meanPositive(cats, humanCapitalCategories),
	}, nil
}

// Category breaks the latest survey down per question category.
func (s *ReportService) Category(companyID string) (*models.CategoryReport, error) {
	sv, responses, err := s.latest(companyID)
	if err != nil {
		return nil, err
	}
	return &models.CategoryReport{
		ImplementationDate: sv.ImplementationDate,
		Categories:         categoryScores(sv.Questions, responses),
	}, nil
}

func (s *ReportService) latest(companyID string) (*models.Survey, []*models.SurveyResponse, error) {
	surveys := s.store.ListSurveysByCompany(companyID)
	sort.SliceStable(surveys, func(i, j int) bool {
		return surveys[i].ImplementationDate.After(surveys[j].ImplementationDate)
	})
	for _, sv := range surveys {
		if sv.Status == models.SurveyDraft {
			continue
		}
		if rs := s.store.ListResponsesBySurvey(sv.ID); len(rs) > 0 {
			return sv, rs, nil
		}
	}
	return nil, nil, NewNotFoundError("no survey results available")
}

func categoryScores(questions []*models.Question, responses []*models.SurveyResponse) []models.CategoryScore {
	type agg struct {
		sum      int
		n        int
		positive int
		order    int
	}
	questionCategory := map[string]string{}
	categories := map[string]*agg{}
	for _, q := range questions {
		if q.Type != models.QuestionRating {
			continue
		}
		questionCategory[q.ID] = q.Category
		if _, ok := categories[q.Category]; !ok {
			categories[q.Category] = &agg{order: q.Order}
		}
	}
	for _, r := range responses {
		for _, a := range r.Answers {
			cat, ok := questionCategory[a.QuestionID]
			if !ok {
				continue
			}
			n, ok := RatingValue(a)
			if !ok || n <= 0 || n > RatingMax {
				continue // 0 is not-applicable, out of range is garbage
			}
			c := categories[cat]
			c.sum += n
			c.n++
			if n >= positiveThreshold {
				c.positive++
			}
		}
	}
	out := make([]models.CategoryScore, 0, len(categories))
	for name, c := range categories {
		cs := models.CategoryScore{Category: name}
		if c.n > 0 {
			cs.Score = round1(float64(c.sum) / float64(c.n) / RatingMax * 100)
			cs.PositiveRate = round1(float64(c.positive) / float64(c.n) * 100)
		}
		out = append(out, cs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return categories[out[i].Category].order < categories[out[j].Category].order
	})
	return out
}

func meanScore(cats []models.CategoryScore, subset []string) float64 {
	return meanOf(cats, subset, func(c models.CategoryScore) float64 { return c.Score })
}

func meanPositive(cats []models.CategoryScore, subset []string) float64 {
	return meanOf(cats, subset, func(c models.CategoryScore) float64 { return c.PositiveRate })
}

func meanOf(cats []models.CategoryScore, subset []string, pick func(models.CategoryScore) float64) float64 {
	include := map[string]bool{}
	for _, s := range subset {
		include[s] = true
	}
	sum, n := 0.0, 0
	for _, c := range cats {
		if len(subset) > 0 && !include[c.Category] {
			continue
		}
		sum += pick(c)
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}
