package api

import (
	"net/http"

	"github.com/kizunavi/kizunavi/internal/middleware"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	m, err := a.reports.Dashboard(claims.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

func (a *API) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	rep, err := a.reports.Summary(claims.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

func (a *API) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	rep, err := a.reports.Category(claims.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}
