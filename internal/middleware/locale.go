package middleware

import (
	"context"
	"net/http"

	"github.com/kizunavi/kizunavi/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

var supportedLocales = []string{"ja", "en"}

// LocaleMiddleware resolves the request locale from the lang query param or
// Accept-Language and stores it in the request context. Japanese is the
// default.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qLang := r.URL.Query().Get("lang")
		aLang := r.Header.Get("Accept-Language")
		locale := utils.DetermineLocale(qLang, aLang, supportedLocales, "ja")
		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LocaleFromContext retrieves the locale stored by LocaleMiddleware.
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return "ja"
}
