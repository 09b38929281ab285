package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docshare/internal/auth"
	"docshare/internal/model"
	"docshare/internal/service"
)

// currentUserKey is the Fiber locals key under which RequireAuth stores
// the authenticated user.
const currentUserKey = "current_user"

// currentUser returns the user stored by RequireAuth, or nil when the
// request did not pass through the guard.
func currentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(currentUserKey).(*model.User)
	return u
}

// RequireAuth guards a route with bearer-token authentication. On
// success the resolved user is stored in locals for handlers downstream.
// Token failures map to distinct 401 codes so clients can tell an
// expired session from a bad token.
func RequireAuth(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
		}

		u, err := authSvc.UserFromToken(c.UserContext(), strings.TrimPrefix(header, prefix))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				return writeError(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", "token expired, please log in again")
			case errors.Is(err, auth.ErrTokenSignature), errors.Is(err, auth.ErrTokenMalformed):
				return writeError(c, fiber.StatusUnauthorized, "TOKEN_INVALID", "invalid token")
			case errors.Is(err, service.ErrUserNotFound):
				return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		c.Locals(currentUserKey, u)
		return c.Next()
	}
}

// Register handles POST /api/register.
func Register(authSvc service.AuthService) fiber.Handler {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Grade    string `json:"grade"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "name, email, and password are required")
		}

		u, err := authSvc.Register(c.UserContext(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Grade:    req.Grade,
		})
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "email is already in use")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login handles POST /api/login.
func Login(authSvc service.AuthService) fiber.Handler {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}
		if req.Email == "" || req.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		}

		token, err := authSvc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"token": token})
	}
}

// Profile handles GET /api/user. It must run behind RequireAuth.
func Profile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		return c.JSON(u)
	}
}
