package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

// genericFailureMessage is shown when the server gives no usable message,
// e.g. the process is down or returned a non-JSON body.
const genericFailureMessage = "通信に失敗しました。時間をおいて再度お試しください"

// Live is the HTTP-backed Client. Transient transport errors are retried by
// the underlying retryable client before surfacing as unavailable.
type Live struct {
	baseURL string
	http    *retryablehttp.Client
}

var _ Client = (*Live)(nil)

func NewLive(baseURL string, logger zerolog.Logger) *Live {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = leveledLogger{logger}
	return &Live{baseURL: strings.TrimRight(baseURL, "/"), http: rc}
}

// wireEnvelope keeps Data raw so each call decodes into its own type.
type wireEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Live) do(ctx context.Context, method, path, token string, body, out any) error {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return services.NewUnavailableError(genericFailureMessage)
	}
	defer resp.Body.Close()

	var env wireEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = genericFailureMessage
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return services.NewUnauthorizedError(msg)
		case http.StatusForbidden:
			return services.NewForbiddenError(msg)
		case http.StatusNotFound:
			return services.NewNotFoundError(msg)
		case http.StatusConflict:
			return services.NewConflictError(msg)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return services.NewInvalidError(msg)
		default:
			return services.NewUnavailableError(msg)
		}
	}
	if decodeErr != nil {
		return services.NewUnavailableError(genericFailureMessage)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return services.NewUnavailableError(genericFailureMessage)
		}
	}
	return nil
}

func (c *Live) Login(ctx context.Context, creds Credentials) (*services.AuthResult, error) {
	var res services.AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Live) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/validate", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Live) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *Live) Questions(ctx context.Context, token string) ([]*models.Question, error) {
	var qs []*models.Question
	if err := c.do(ctx, http.MethodGet, "/api/questions", token, nil, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func (c *Live) UpdateQuestionNote(ctx context.Context, token, questionID, note string) (*models.Question, error) {
	var q models.Question
	body := map[string]string{"note": note}
	path := "/api/questions/" + url.PathEscape(questionID) + "/note"
	if err := c.do(ctx, http.MethodPatch, path, token, body, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Live) PublishedSurvey(ctx context.Context, token string) (*models.Survey, error) {
	var sv models.Survey
	if err := c.do(ctx, http.MethodGet, "/api/surveys/published", token, nil, &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (c *Live) SurveyByToken(ctx context.Context, accessToken string) (*models.Survey, error) {
	var sv models.Survey
	path := "/api/public/surveys/" + url.PathEscape(accessToken)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (c *Live) SubmitResponse(ctx context.Context, token, surveyID string, answers []models.Answer) error {
	body := map[string]any{"answers": answers}
	path := "/api/surveys/" + url.PathEscape(surveyID) + "/responses"
	return c.do(ctx, http.MethodPost, path, token, body, nil)
}

func (c *Live) SubmitResponseByToken(ctx context.Context, accessToken string, answers []models.Answer) error {
	body := map[string]any{"answers": answers}
	path := "/api/public/surveys/" + url.PathEscape(accessToken) + "/responses"
	return c.do(ctx, http.MethodPost, path, "", body, nil)
}

// leveledLogger adapts zerolog to the retryable client's logger.
type leveledLogger struct {
	l zerolog.Logger
}

func (a leveledLogger) Error(msg string, kv ...any) { a.l.Error().Msg(format(msg, kv)) }
func (a leveledLogger) Warn(msg string, kv ...any)  { a.l.Warn().Msg(format(msg, kv)) }
func (a leveledLogger) Info(msg string, kv ...any)  { a.l.Debug().Msg(format(msg, kv)) }
func (a leveledLogger) Debug(msg string, kv ...any) { a.l.Debug().Msg(format(msg, kv)) }

func format(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	return fmt.Sprintf("%s %v", msg, kv)
}
