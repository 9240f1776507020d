package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kizunavi/kizunavi/internal/middleware"
	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
)

func (a *API) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req struct {
		Title               string    `json:"title"`
		Deadline            time.Time `json:"deadline"`
		TargetEmployeeCount int       `json:"target_employee_count"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	// the survey snapshots the catalog as it stands right now
	sv, err := a.surveys.Create(claims.CompanyID, req.Title, req.Deadline, req.TargetEmployeeCount, a.questions.List())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, sv)
}

func (a *API) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	writeData(w, http.StatusOK, a.surveys.ListByCompany(claims.CompanyID))
}

func (a *API) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := a.companyScopedSurvey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sv)
}

func (a *API) handlePublishSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := a.companyScopedSurvey(r)
	if err == nil {
		sv, err = a.surveys.Publish(sv.ID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sv)
}

func (a *API) handleCompleteSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := a.companyScopedSurvey(r)
	if err == nil {
		sv, err = a.surveys.Complete(sv.ID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sv)
}

func (a *API) handleDistributeSurvey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeIDs []string `json:"employee_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sv, err := a.companyScopedSurvey(r)
	var tokens []*models.AccessToken
	if err == nil {
		tokens, err = a.surveys.Distribute(sv.ID, req.EmployeeIDs)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, tokens)
}

func (a *API) handlePublishedSurvey(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	sv, err := a.surveys.Published(claims.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sv)
}

func (a *API) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req struct {
		Answers []models.Answer `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := a.surveys.SubmitResponse(chi.URLParam(r, "id"), claims.UID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resp)
}

func (a *API) handleSurveyByToken(w http.ResponseWriter, r *http.Request) {
	sv, err := a.surveys.ByToken(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sv)
}

func (a *API) handleSubmitByToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []models.Answer `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := a.surveys.SubmitResponseByToken(chi.URLParam(r, "token"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resp)
}

// companyScopedSurvey loads a survey and checks it belongs to the caller's
// company. Cross-company ids read as not found, not forbidden.
func (a *API) companyScopedSurvey(r *http.Request) (*models.Survey, error) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	sv, err := a.surveys.Get(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if sv.CompanyID != claims.CompanyID {
		return nil, services.NewNotFoundError("survey not found")
	}
	return sv, nil
}
