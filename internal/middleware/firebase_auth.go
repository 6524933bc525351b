package middleware

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier is the part of the Firebase auth client the middleware needs
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies a Firebase ID token and resolves it to a
// registered local user. Unknown Firebase accounts must sign in through
// /auth/firebase-login first.
func FirebaseAuthMiddleware(verifier IDTokenVerifier, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
			}
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Firebase account is not registered")
			}

			c.Set(ContextKeyUser, &models.JwtCustomClaims{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
			})
			return next(c)
		}
	}
}
