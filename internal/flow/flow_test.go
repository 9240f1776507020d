package flow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

func flowQuestions(n int) []*models.Question {
	qs := make([]*models.Question, 0, n)
	for i := 1; i <= n; i++ {
		q := &models.Question{ID: fmt.Sprintf("q%d", i), Type: models.QuestionRating, Order: i}
		if i == n {
			q.Type = models.QuestionText
		}
		qs = append(qs, q)
	}
	return qs
}

func answerAll(f *ResponseFlow, qs []*models.Question) {
	for _, q := range qs {
		if q.Type == models.QuestionRating {
			f.SetRating(q.ID, 3)
		} else {
			f.SetText(q.ID, "回答")
		}
	}
}

func noopSubmit(ctx context.Context, answers []models.Answer) error { return nil }

func TestPagination(t *testing.T) {
	qs := flowQuestions(14)
	f := New(qs, noopSubmit)

	assert.Equal(t, 2, f.TotalPages())
	assert.Equal(t, 1, f.Page())
	assert.Len(t, f.PageQuestions(), 10)
	assert.Equal(t, "q1", f.PageQuestions()[0].ID)
	assert.Equal(t, "q10", f.PageQuestions()[9].ID)

	// Previous at page 1 is a no-op
	assert.False(t, f.Previous())
	assert.Equal(t, 1, f.Page())

	answerAll(f, qs)
	require.True(t, f.Next())
	assert.Equal(t, 2, f.Page())
	assert.Len(t, f.PageQuestions(), 4)
	assert.Equal(t, "q11", f.PageQuestions()[0].ID)

	// Next at the last page is a no-op
	assert.False(t, f.Next())
	assert.Equal(t, 2, f.Page())

	assert.True(t, f.Previous())
	assert.Equal(t, 1, f.Page())
}

func TestQuestionsSortedByOrder(t *testing.T) {
	f := New([]*models.Question{
		{ID: "b", Type: models.QuestionRating, Order: 2},
		{ID: "a", Type: models.QuestionRating, Order: 1},
	}, noopSubmit)
	assert.Equal(t, "a", f.PageQuestions()[0].ID)
}

func TestCanAdvanceTreatsZeroAsAnswered(t *testing.T) {
	f := New([]*models.Question{
		{ID: "q1", Type: models.QuestionRating, Order: 1},
	}, noopSubmit)

	assert.False(t, f.CanAdvance(), "sentinel -1 is unanswered")
	f.SetRating("q1", 0) // 該当しない
	assert.True(t, f.CanAdvance())
}

func TestCanAdvanceRequiresNonBlankText(t *testing.T) {
	f := New([]*models.Question{
		{ID: "q1", Type: models.QuestionText, Order: 1},
	}, noopSubmit)

	assert.False(t, f.CanAdvance())
	f.SetText("q1", "   ")
	assert.False(t, f.CanAdvance())
	f.SetText("q1", "意見")
	assert.True(t, f.CanAdvance())
}

func TestNextBlockedUntilPageComplete(t *testing.T) {
	qs := flowQuestions(14)
	f := New(qs, noopSubmit)

	assert.False(t, f.Next())
	assert.Equal(t, 1, f.Page())

	answerAll(f, qs)
	assert.True(t, f.Next())
}

func TestSubmitRejectsIncompleteSetWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int32
	qs := flowQuestions(14)
	f := New(qs, func(ctx context.Context, answers []models.Answer) error {
		calls.Add(1)
		return nil
	})

	// answer everything except one question on page 1, then walk to the end
	for _, q := range qs {
		if q.ID == "q3" {
			continue
		}
		if q.Type == models.QuestionRating {
			f.SetRating(q.ID, 4)
		} else {
			f.SetText(q.ID, "ok")
		}
	}
	f.SetRating("q3", 5)
	require.True(t, f.Next())
	f.SetRating("q3", -1) // back to sentinel while on page 2

	err := f.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, services.IsCode(err, services.ErrorInvalid))
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, f.Completed())
}

func TestSubmitOnlyFromLastPage(t *testing.T) {
	qs := flowQuestions(14)
	f := New(qs, noopSubmit)
	answerAll(f, qs)

	err := f.Submit(context.Background())
	assert.True(t, services.IsCode(err, services.ErrorInvalid))

	require.True(t, f.Next())
	require.NoError(t, f.Submit(context.Background()))
	assert.True(t, f.Completed())
}

func TestSubmitSuccessIsTerminal(t *testing.T) {
	var calls atomic.Int32
	qs := flowQuestions(4)
	f := New(qs, func(ctx context.Context, answers []models.Answer) error {
		calls.Add(1)
		return nil
	})
	answerAll(f, qs)

	require.NoError(t, f.Submit(context.Background()))
	assert.True(t, f.Completed())

	// further submits and edits are safe no-ops
	require.NoError(t, f.Submit(context.Background()))
	f.SetRating("q1", 6)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitFailurePreservesAnswers(t *testing.T) {
	attempt := 0
	qs := flowQuestions(4)
	f := New(qs, func(ctx context.Context, answers []models.Answer) error {
		attempt++
		if attempt == 1 {
			return services.NewUnavailableError("接続できませんでした")
		}
		return nil
	})
	answerAll(f, qs)

	err := f.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, services.IsCode(err, services.ErrorUnavailable))
	assert.False(t, f.Completed())
	assert.Equal(t, 3, f.Rating("q1"), "answers survive a failed submission")

	require.NoError(t, f.Submit(context.Background()))
	assert.True(t, f.Completed())
	assert.Equal(t, 2, attempt)
}

func TestRapidDoubleSubmitSendsOnce(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	qs := flowQuestions(4)
	f := New(qs, func(ctx context.Context, answers []models.Answer) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	})
	answerAll(f, qs)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.Submit(context.Background())
	}()

	// wait for the first submission to be in flight, then click again
	<-started
	assert.True(t, f.Submitting())
	require.NoError(t, f.Submit(context.Background()), "second click is suppressed")

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, f.Completed())
}

func TestAnswersSnapshotInOrder(t *testing.T) {
	qs := []*models.Question{
		{ID: "t", Type: models.QuestionText, Order: 2},
		{ID: "r", Type: models.QuestionRating, Order: 1},
	}
	f := New(qs, noopSubmit)
	f.SetRating("r", 0)
	f.SetText("t", "自由記述")

	answers := f.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, "r", answers[0].QuestionID)
	n, ok := services.RatingValue(answers[0])
	require.True(t, ok)
	assert.Equal(t, 0, n)
	s, ok := services.TextValue(answers[1])
	require.True(t, ok)
	assert.Equal(t, "自由記述", s)
}
