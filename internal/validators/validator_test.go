package validators

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/labstack/echo/v4"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&models.SignInRequest{Email: "a@example.com", Password: "x"}); err != nil {
		t.Fatalf("valid request: %v", err)
	}

	err := v.Validate(&models.CreateLocalUserRequest{DisplayName: "a", Email: "nope", Password: "short"})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 HTTPError", err)
	}
	msg, _ := he.Message.(string)
	for _, field := range []string{"DisplayName", "Email", "Password"} {
		if !strings.Contains(msg, field) {
			t.Errorf("message %q does not mention %s", msg, field)
		}
	}
}
