package api

import (
	"net/http"

	"github.com/kizunavi/kizunavi/internal/middleware"
	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/utils"
)

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		CompanyName string `json:"company_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := a.auth.Login(req.Email, req.Password)
	if err != nil {
		if services.IsCode(err, services.ErrorUnauthorized) {
			locale := middleware.LocaleFromContext(r.Context())
			err = services.NewUnauthorizedError(utils.T(locale, "error.unauthorized"))
		}
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// handleLogout acknowledges the sign-out. Tokens are stateless, so the real
// invalidation happens client-side; the endpoint exists so clients can treat
// sign-out like any other call.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeMessage(w, http.StatusOK, utils.T(locale, "logout.ok"))
}

// handleValidate resolves the token back into the current user, with the
// capability set re-derived from the stored role.
func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	u, err := a.auth.Validate(claims.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

// handleRegister creates an account with an explicit, server-assigned role.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string      `json:"email"`
		Password  string      `json:"password"`
		CompanyID string      `json:"company_id"`
		Role      models.Role `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := a.auth.Register(req.Email, req.Password, req.CompanyID, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}
