package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/atk-inventory/internal/domain/users"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "user_role"
)

type Claims struct {
	UserID   int64      `json:"user_id"`
	Username string     `json:"username"`
	Role     users.Role `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, u *users.User) (string, error) {
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Middleware validates the bearer token and stores the actor id and
// role in request locals.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "malformed claims")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxRoleKey, claims.Role)
		return c.Next()
	}
}

// ActorID reads the authenticated admin's id placed by Middleware.
func ActorID(c *fiber.Ctx) int64 {
	if id, ok := c.Locals(CtxUserIDKey).(int64); ok {
		return id
	}
	return 0
}
