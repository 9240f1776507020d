package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kizunavi/kizunavi/internal/services"
)

func (a *API) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req services.CompanyRegistration
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := a.companies.Register(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (a *API) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, a.companies.List())
}

func (a *API) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := a.companies.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (a *API) handleAddEmployees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Employees []services.EmployeeRegister `json:"employees"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	es, err := a.companies.AddEmployees(chi.URLParam(r, "id"), req.Employees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, es)
}
