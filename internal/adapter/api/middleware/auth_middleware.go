package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"bengkelink/internal/domain/repository"
	"bengkelink/internal/infrastructure/firebase"
	ws "bengkelink/internal/infrastructure/websocket"
)

const principalKey = "principal"

// AuthMiddleware verifies Firebase ID tokens and resolves the caller into a
// Principal carrying role and membership, so handlers and the event fabric
// never re-fetch the user per request.
type AuthMiddleware struct {
	authClient *firebase.AuthClient
	userRepo   repository.UserRepository
}

func NewAuthMiddleware(authClient *firebase.AuthClient, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
		userRepo:   userRepo,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			// WebSocket clients cannot set headers from the browser API.
			token = c.QueryParam("token")
		}
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization required")
		}

		ctx := c.Request().Context()
		uid, err := m.authClient.VerifyToken(ctx, token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		user, err := m.userRepo.GetByID(ctx, uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unknown user")
		}

		c.Set("uid", uid)
		c.Set(principalKey, ws.Principal{
			UserID:     user.ID,
			Name:       user.Name,
			Role:       user.Role,
			WorkshopID: user.WorkshopID,
			SupplierID: user.SupplierID,
		})
		return next(c)
	}
}

// Principal extracts the authenticated caller set by Authenticate.
func Principal(c echo.Context) (ws.Principal, error) {
	principal, ok := c.Get(principalKey).(ws.Principal)
	if !ok || principal.UserID == "" {
		return ws.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "Invalid session")
	}
	return principal, nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
