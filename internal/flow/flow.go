// Package flow implements the paginated survey-answering state machine used
// by both the authenticated and the anonymous (access token) response paths.
package flow

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

// PageSize is the fixed number of questions shown per page.
const PageSize = 10

// unansweredRating is the sentinel for a rating question nobody touched.
// 0 is a real selection (該当しない) and must stay distinct from it.
const unansweredRating = -1

// SubmitFunc delivers the completed answer set. The two access modes plug in
// different endpoints here; the state machine itself is identical.
type SubmitFunc func(ctx context.Context, answers []models.Answer) error

// ResponseFlow walks a respondent through a question snapshot page by page.
// All methods are safe for the single-UI-actor model: one mutex guards the
// state so a dangling completion after the caller lost interest is a no-op.
type ResponseFlow struct {
	mu         sync.Mutex
	questions  []*models.Question
	ratings    map[string]int
	texts      map[string]string
	page       int
	totalPages int
	submitting bool
	completed  bool
	submit     SubmitFunc
}

// New builds a flow over the given question snapshot. Questions are ordered
// by their display order; every answer starts at its unanswered sentinel.
func New(questions []*models.Question, submit SubmitFunc) *ResponseFlow {
	qs := make([]*models.Question, len(questions))
	copy(qs, questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	f := &ResponseFlow{
		questions: qs,
		ratings:   make(map[string]int),
		texts:     make(map[string]string),
		page:      1,
		submit:    submit,
	}
	for _, q := range qs {
		switch q.Type {
		case models.QuestionRating:
			f.ratings[q.ID] = unansweredRating
		case models.QuestionText:
			f.texts[q.ID] = ""
		}
	}
	f.totalPages = (len(qs) + PageSize - 1) / PageSize
	if f.totalPages < 1 {
		f.totalPages = 1
	}
	return f
}

func (f *ResponseFlow) Page() int       { f.mu.Lock(); defer f.mu.Unlock(); return f.page }
func (f *ResponseFlow) TotalPages() int { return f.totalPages }

// PageQuestions returns the questions on the current page.
func (f *ResponseFlow) PageQuestions() []*models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageQuestionsLocked()
}

func (f *ResponseFlow) pageQuestionsLocked() []*models.Question {
	start := (f.page - 1) * PageSize
	end := start + PageSize
	if end > len(f.questions) {
		end = len(f.questions)
	}
	if start >= len(f.questions) {
		return nil
	}
	return f.questions[start:end]
}

// SetRating records a rating selection. Unknown ids and non-rating
// questions are ignored.
func (f *ResponseFlow) SetRating(questionID string, rating int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return
	}
	if _, ok := f.ratings[questionID]; ok {
		f.ratings[questionID] = rating
	}
}

// SetText records a free-text answer. Unknown ids are ignored.
func (f *ResponseFlow) SetText(questionID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return
	}
	if _, ok := f.texts[questionID]; ok {
		f.texts[questionID] = text
	}
}

// Rating returns the current rating for a question, or the unanswered
// sentinel when nothing was selected.
func (f *ResponseFlow) Rating(questionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.ratings[questionID]; ok {
		return v
	}
	return unansweredRating
}

// Text returns the current free-text answer for a question.
func (f *ResponseFlow) Text(questionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[questionID]
}

// CanAdvance reports whether every question on the current page has a
// non-sentinel answer. A rating of 0 counts as answered.
func (f *ResponseFlow) CanAdvance() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validLocked(f.pageQuestionsLocked())
}

func (f *ResponseFlow) validLocked(questions []*models.Question) bool {
	for _, q := range questions {
		switch q.Type {
		case models.QuestionRating:
			if f.ratings[q.ID] < services.RatingMin || f.ratings[q.ID] > services.RatingMax {
				return false
			}
		case models.QuestionText:
			if strings.TrimSpace(f.texts[q.ID]) == "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Next advances one page when allowed; it is a no-op on the last page or
// while the current page is incomplete.
func (f *ResponseFlow) Next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page >= f.totalPages || !f.validLocked(f.pageQuestionsLocked()) {
		return false
	}
	f.page++
	return true
}

// Previous steps one page back; never blocked by validation, no-op on the
// first page.
func (f *ResponseFlow) Previous() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page <= 1 {
		return false
	}
	f.page--
	return true
}

// Completed reports whether the flow reached its terminal state.
func (f *ResponseFlow) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Submitting reports whether a submission is currently in flight; UIs use
// this as the busy flag on the submit control.
func (f *ResponseFlow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Answers snapshots the full answer set in question order.
func (f *ResponseFlow) Answers() []models.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answersLocked()
}

func (f *ResponseFlow) answersLocked() []models.Answer {
	out := make([]models.Answer, 0, len(f.questions))
	for _, q := range f.questions {
		switch q.Type {
		case models.QuestionRating:
			out = append(out, models.RatingAnswer(q.ID, f.ratings[q.ID]))
		case models.QuestionText:
			out = append(out, models.TextAnswer(q.ID, f.texts[q.ID]))
		}
	}
	return out
}

// Submit re-validates every page, then delivers the answers exactly once.
// While one submission is in flight further calls are suppressed. On a
// remote failure the answers are kept so the user can retry; on success the
// flow is terminal and the answer set is discarded.
func (f *ResponseFlow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.completed || f.submitting {
		f.mu.Unlock()
		return nil
	}
	if f.page != f.totalPages {
		f.mu.Unlock()
		return services.NewInvalidError("最終ページでのみ送信できます")
	}
	if !f.validLocked(f.questions) {
		f.mu.Unlock()
		return services.NewInvalidError("すべての質問に回答してください")
	}
	answers := f.answersLocked()
	f.submitting = true
	f.mu.Unlock()

	err := f.submit(ctx, answers)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return err
	}
	f.completed = true
	f.ratings = make(map[string]int)
	f.texts = make(map[string]string)
	return nil
}
