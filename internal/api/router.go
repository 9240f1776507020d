// Package api wires the HTTP surface: routing, capability checks, and the
// response envelope around the service layer.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/kizunavi/kizunavi/internal/middleware"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/store"
	"github.com/kizunavi/kizunavi/internal/utils"
)

type API struct {
	log       zerolog.Logger
	auth      *services.AuthService
	questions *services.QuestionService
	surveys   *services.SurveyService
	companies *services.CompanyService
	reports   *services.ReportService
}

func New(st store.Store, log zerolog.Logger) *API {
	return &API{
		log:       log,
		auth:      services.NewAuthService(st, middleware.SignToken),
		questions: services.NewQuestionService(st),
		surveys:   services.NewSurveyService(st),
		companies: services.NewCompanyService(st),
		reports:   services.NewReportService(st),
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.NoStore)
	r.Use(middleware.LocaleMiddleware)
	r.Use(middleware.WithAuth)

	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		// anonymous survey access via distributed links
		r.Get("/public/surveys/{token}", a.handleSurveyByToken)
		r.Post("/public/surveys/{token}/responses", a.handleSubmitByToken)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Post("/auth/logout", a.handleLogout)
			r.Get("/auth/validate", a.handleValidate)

			r.Get("/questions", a.handleListQuestions)

			r.Get("/surveys/published", a.requireCap(services.CapAnswerSurvey, a.handlePublishedSurvey))
			r.Post("/surveys/{id}/responses", a.requireCap(services.CapAnswerSurvey, a.handleSubmitResponse))

			r.Patch("/questions/{id}/note", a.requireCap(services.CapManageQuestions, a.handleUpdateNote))
			r.Delete("/questions/{id}/note", a.requireCap(services.CapManageQuestions, a.handleClearNote))

			r.Post("/surveys", a.requireCap(services.CapManageQuestions, a.handleCreateSurvey))
			r.Get("/surveys", a.requireCap(services.CapManageQuestions, a.handleListSurveys))
			r.Get("/surveys/{id}", a.requireCap(services.CapManageQuestions, a.handleGetSurvey))
			r.Post("/surveys/{id}/publish", a.requireCap(services.CapManageQuestions, a.handlePublishSurvey))
			r.Post("/surveys/{id}/complete", a.requireCap(services.CapManageQuestions, a.handleCompleteSurvey))
			r.Post("/surveys/{id}/distribute", a.requireCap(services.CapManageQuestions, a.handleDistributeSurvey))

			r.Post("/auth/register", a.requireCap(services.CapManageCustomers, a.handleRegister))
			r.Post("/companies", a.requireCap(services.CapManageCustomers, a.handleRegisterCompany))
			r.Get("/companies", a.requireCap(services.CapManageCustomers, a.handleListCompanies))
			r.Get("/companies/{id}", a.requireCap(services.CapManageCustomers, a.handleGetCompany))
			r.Post("/companies/{id}/employees", a.requireCap(services.CapManageCustomers, a.handleAddEmployees))

			r.Get("/reports/dashboard", a.requireCap(services.CapViewDashboard, a.handleDashboard))
			r.Get("/reports/summary", a.requireCap(services.CapViewReports, a.handleSummaryReport))
			r.Get("/reports/category", a.requireCap(services.CapViewReports, a.handleCategoryReport))
		})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeData(w, http.StatusOK, map[string]string{
		"status": utils.T(locale, "health.ok"),
		"locale": locale,
	})
}

func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
			writeError(w, r, services.NewUnauthorizedError("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCap gates a handler on one capability. The set is derived from the
// verified role claim on every request, so a revoked role takes effect as
// soon as the token expires.
func (a *API) requireCap(cap services.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, r, services.NewUnauthorizedError("authentication required"))
			return
		}
		perms := services.PermissionsForRole(claims.Role)
		if !services.HasCapability(perms, cap) {
			locale := middleware.LocaleFromContext(r.Context())
			writeError(w, r, services.NewForbiddenError(utils.T(locale, "error.forbidden")))
			return
		}
		next(w, r)
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
