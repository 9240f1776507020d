package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

func TestFixtureLoginAndValidate(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()

	res, err := f.Login(ctx, Credentials{Email: FixtureAdminEmail, Password: FixturePassword})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.True(t, res.User.Permissions.CanManageQuestions)
	require.NotEmpty(t, res.Token)

	u, err := f.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)

	_, err = f.ValidateToken(ctx, "nope")
	assert.True(t, services.IsCode(err, services.ErrorUnauthorized))
}

func TestFixtureLogoutInvalidatesToken(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()

	res, err := f.Login(ctx, Credentials{Email: FixtureMemberEmail, Password: FixturePassword})
	require.NoError(t, err)
	require.NoError(t, f.Logout(ctx, res.Token))

	_, err = f.ValidateToken(ctx, res.Token)
	assert.True(t, services.IsCode(err, services.ErrorUnauthorized))
}

func TestFixtureQuestionNotePermissions(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()

	admin, err := f.Login(ctx, Credentials{Email: FixtureAdminEmail, Password: FixturePassword})
	require.NoError(t, err)
	member, err := f.Login(ctx, Credentials{Email: FixtureMemberEmail, Password: FixturePassword})
	require.NoError(t, err)

	q, err := f.UpdateQuestionNote(ctx, admin.Token, "q4", "補足説明")
	require.NoError(t, err)
	assert.Equal(t, "補足説明", q.Note)

	_, err = f.UpdateQuestionNote(ctx, member.Token, "q4", "だめ")
	assert.True(t, services.IsCode(err, services.ErrorForbidden))
}

func TestFixtureSurveySubmission(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()

	sv, err := f.Surveys().Create(FixtureCompanyID, "2026年上期", time.Now().Add(7*24*time.Hour), 10, services.DefaultQuestions())
	require.NoError(t, err)
	_, err = f.Surveys().Publish(sv.ID)
	require.NoError(t, err)

	member, err := f.Login(ctx, Credentials{Email: FixtureMemberEmail, Password: FixturePassword})
	require.NoError(t, err)

	got, err := f.PublishedSurvey(ctx, member.Token)
	require.NoError(t, err)
	assert.Equal(t, sv.ID, got.ID)

	answers := make([]models.Answer, 0, len(got.Questions))
	for _, q := range got.Questions {
		if q.Type == models.QuestionRating {
			answers = append(answers, models.RatingAnswer(q.ID, 4))
		} else {
			answers = append(answers, models.TextAnswer(q.ID, "特になし"))
		}
	}
	require.NoError(t, f.SubmitResponse(ctx, member.Token, sv.ID, answers))

	err = f.SubmitResponse(ctx, member.Token, sv.ID, answers)
	assert.True(t, services.IsCode(err, services.ErrorConflict))
}

func TestFixtureForcedFailure(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()
	f.Fail(services.NewUnavailableError("接続できませんでした"))

	_, err := f.Login(ctx, Credentials{Email: FixtureAdminEmail, Password: FixturePassword})
	assert.True(t, services.IsCode(err, services.ErrorUnavailable))

	f.Fail(nil)
	_, err = f.Login(ctx, Credentials{Email: FixtureAdminEmail, Password: FixturePassword})
	assert.NoError(t, err)
}

func newTestLive(t *testing.T, handler http.Handler) *Live {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewLive(srv.URL, zerolog.Nop())
	c.http.RetryMax = 0
	return c
}

func TestLiveDecodesEnvelope(t *testing.T) {
	c := newTestLive(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/questions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"q1","text":"質問","type":"rating","category":"職場環境","order":1}]}`))
	}))

	qs, err := c.Questions(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q1", qs[0].ID)
}

func TestLiveMapsStatusToErrorCode(t *testing.T) {
	cases := []struct {
		status int
		code   services.ErrorCode
	}{
		{http.StatusUnauthorized, services.ErrorUnauthorized},
		{http.StatusForbidden, services.ErrorForbidden},
		{http.StatusNotFound, services.ErrorNotFound},
		{http.StatusConflict, services.ErrorConflict},
		{http.StatusBadRequest, services.ErrorInvalid},
		{http.StatusInternalServerError, services.ErrorUnavailable},
	}
	for _, tc := range cases {
		c := newTestLive(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"success":false,"message":"だめでした"}`))
		}))
		_, err := c.Questions(context.Background(), "tok")
		require.Error(t, err, "status %d", tc.status)
		assert.True(t, services.IsCode(err, tc.code), "status %d", tc.status)
		assert.Equal(t, "だめでした", err.Error())
	}
}

func TestLiveGenericMessageOnGarbageBody(t *testing.T) {
	c := newTestLive(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := c.Questions(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, services.IsCode(err, services.ErrorUnavailable))
	assert.Equal(t, genericFailureMessage, err.Error())
}

func TestLiveUnreachableServer(t *testing.T) {
	c := NewLive("http://127.0.0.1:1", zerolog.Nop())
	c.http.RetryMax = 0
	c.http.HTTPClient.Timeout = time.Second

	_, err := c.Questions(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, services.IsCode(err, services.ErrorUnavailable))
	assert.Equal(t, genericFailureMessage, err.Error())
}
