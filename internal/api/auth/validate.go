package auth

import (
	"context"
	"net/http"
	"strings"
)

const minPasswordLength = 6

// validateRegistration returns user-facing messages keyed by form field,
// or nil when the input is acceptable. Mirrors the checks the
// registration form promises in its labels.
func validateRegistration(name, email, password string) map[string]string {
	errs := map[string]string{}
	if name == "" {
		errs["name"] = "名前を入力してください"
	}
	if email == "" || !strings.Contains(email, "@") {
		errs["email"] = "有効なメールアドレスを入力してください"
	}
	if len([]rune(password)) < minPasswordLength {
		errs["password"] = "パスワードは6文字以上で入力してください"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), authTimeout)
}
