package utils

// Server-side i18n for the few fixed strings the API emits. Screen copy
// lives in the frontend; only error and status messages are translated here.

var translations = map[string]map[string]string{
	"ja": {
		"health.ok":            "ok",
		"error.generic":        "エラーが発生しました。時間をおいて再度お試しください",
		"error.unauthorized":   "メールアドレスまたはパスワードが正しくありません",
		"error.forbidden":      "権限がありません",
		"error.not_found":      "対象が見つかりません",
		"error.already_sent":   "回答は既に送信されています",
		"error.answer_all":     "すべての質問に回答してください",
		"error.invalid_link":   "この回答リンクは無効です",
		"logout.ok":            "ログアウトしました",
	},
	"en": {
		"health.ok":            "ok",
		"error.generic":        "Something went wrong. Please try again later",
		"error.unauthorized":   "Incorrect email address or password",
		"error.forbidden":      "You do not have permission to do this",
		"error.not_found":      "Not found",
		"error.already_sent":   "A response has already been submitted",
		"error.answer_all":     "Please answer every question",
		"error.invalid_link":   "This survey link is not valid",
		"logout.ok":            "Signed out",
	},
}

// T returns the translated string for key in locale; falls back to Japanese,
// then to the key itself.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["ja"][key]; ok {
		return v
	}
	return key
}
