package middleware

import (
	"github.com/labstack/echo/v4"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
)

// RequireRoles lets the request through only when the authenticated caller
// holds one of roles. It must run after JWTAuth.
func RequireRoles(roles ...constants.Role) echo.MiddlewareFunc {
	allowed := make(map[constants.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return apperrors.Unauthorized("authentication required")
			}
			if _, ok := allowed[p.Role]; !ok {
				return apperrors.Forbidden("role " + string(p.Role) + " may not access this resource")
			}
			return next(c)
		}
	}
}
