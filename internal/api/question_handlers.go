package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kizunavi/kizunavi/internal/middleware"
	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/utils"
)

// questionList pairs the ordered catalog with the derived annotation
// numbering so clients render ※ marks without recomputing them.
type questionList struct {
	Questions   []*models.Question `json:"questions"`
	Annotations map[string]int     `json:"annotations"`
}

func (a *API) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	qs := a.questions.List()
	writeData(w, http.StatusOK, questionList{
		Questions:   qs,
		Annotations: services.AnnotationNumbers(qs),
	})
}

func (a *API) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	q := a.questions.UpdateNote(chi.URLParam(r, "id"), req.Note)
	if q == nil {
		locale := middleware.LocaleFromContext(r.Context())
		writeError(w, r, services.NewNotFoundError(utils.T(locale, "error.not_found")))
		return
	}
	writeData(w, http.StatusOK, q)
}

func (a *API) handleClearNote(w http.ResponseWriter, r *http.Request) {
	q := a.questions.ClearNote(chi.URLParam(r, "id"))
	if q == nil {
		locale := middleware.LocaleFromContext(r.Context())
		writeError(w, r, services.NewNotFoundError(utils.T(locale, "error.not_found")))
		return
	}
	writeData(w, http.StatusOK, q)
}
