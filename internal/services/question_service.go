package services

import (
	"sort"
	"strings"

	"github.com/kizunavi/kizunavi/internal/models"
)

// QuestionStore abstracts persistence for the question catalog.
type QuestionStore interface {
	ListQuestions() []*models.Question
	GetQuestion(id string) *models.Question
	PutQuestion(q *models.Question)
}

// QuestionService owns the ordered question catalog and is the only writer
// of question notes.
type QuestionService struct {
	store QuestionStore
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{store: store}
}

// List returns the catalog sorted by display order.
func (s *QuestionService) List() []*models.Question {
	qs := s.store.ListQuestions()
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs
}

// Get returns one question or a not_found error.
func (s *QuestionService) Get(id string) (*models.Question, error) {
	q := s.store.GetQuestion(id)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	return q, nil
}

// UpdateNote sets or clears the annotation on a question. The text is
// trimmed; a blank result clears the note. Unknown ids are a silent no-op
// so the operation stays idempotent for callers that retry.
func (s *QuestionService) UpdateNote(id, note string) *models.Question {
	q := s.store.GetQuestion(id)
	if q == nil {
		return nil
	}
	q.Note = strings.TrimSpace(note)
	s.store.PutQuestion(q)
	return q
}

// ClearNote removes the annotation from a question.
func (s *QuestionService) ClearNote(id string) *models.Question {
	return s.UpdateNote(id, "")
}

// AnnotationNumbers returns the ※-mark number for every annotated question,
// keyed by question id. Numbers run 1..N over the noted subset ordered by
// display order. This is a derived view and is recomputed on every call.
func (s *QuestionService) AnnotationNumbers() map[string]int {
	return AnnotationNumbers(s.store.ListQuestions())
}

// AnnotationNumbers computes annotation numbering for an arbitrary question
// snapshot, e.g. the one carried inside a survey.
func AnnotationNumbers(questions []*models.Question) map[string]int {
	noted := make([]*models.Question, 0, len(questions))
	for _, q := range questions {
		if q.Note != "" {
			noted = append(noted, q)
		}
	}
	sort.SliceStable(noted, func(i, j int) bool { return noted[i].Order < noted[j].Order })
	out := make(map[string]int, len(noted))
	for i, q := range noted {
		out[q.ID] = i + 1
	}
	return out
}

// DefaultQuestions is the standard engagement questionnaire: thirteen rated
// items and one free-text item.
func DefaultQuestions() []*models.Question {
	return []*models.Question{
		{ID: "q1", Text: "現在の職場環境に満足していますか？", Type: models.QuestionRating, Category: "職場環境", Note: "職場の物理的環境、設備、快適性について評価してください", Order: 1},
		{ID: "q2", Text: "上司とのコミュニケーションは円滑ですか？", Type: models.QuestionRating, Category: "コミュニケーション", Note: "上司との意思疎通、フィードバックの質について評価してください", Order: 2},
		{ID: "q3", Text: "仕事にやりがいを感じていますか？", Type: models.QuestionRating, Category: "やりがい", Note: "業務の意義、成長実感、達成感について評価してください", Order: 3},
		{ID: "q4", Text: "チームワークはうまく機能していますか？", Type: models.QuestionRating, Category: "チームワーク", Order: 4},
		{ID: "q5", Text: "成長の機会が提供されていますか？", Type: models.QuestionRating, Category: "成長機会", Order: 5},
		{ID: "q6", Text: "ワークライフバランスは保たれていますか？", Type: models.QuestionRating, Category: "ワークライフバランス", Note: "労働時間と私生活のバランスについて評価してください", Order: 6},
		{ID: "q7", Text: "会社の将来性に期待していますか？", Type: models.QuestionRating, Category: "将来性", Order: 7},
		{ID: "q8", Text: "今の会社を友人に勧めたいと思いますか？", Type: models.QuestionRating, Category: "推奨度", Order: 8},
		{ID: "q9", Text: "経営幹部への信頼はありますか？", Type: models.QuestionRating, Category: "経営幹部への信頼", Note: "役員、取締役、部長級以上の管理職を指します", Order: 9},
		{ID: "q10", Text: "企業風土に満足していますか？", Type: models.QuestionRating, Category: "企業風土", Order: 10},
		{ID: "q11", Text: "人間関係は良好ですか？", Type: models.QuestionRating, Category: "人間関係", Order: 11},
		{ID: "q12", Text: "人事制度は適切だと思いますか？", Type: models.QuestionRating, Category: "人事制度", Order: 12},
		{ID: "q13", Text: "改革への取り組みを感じますか？", Type: models.QuestionRating, Category: "改革の息吹", Order: 13},
		{ID: "q14", Text: "その他、ご意見・ご要望がありましたらお聞かせください。", Type: models.QuestionText, Category: "自由記述", Order: 14},
	}
}
