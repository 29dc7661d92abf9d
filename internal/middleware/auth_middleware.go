package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/teambuilder/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID     = "userID"
	DevUserIDHeader = "X-User-ID"
)

// Claims carries the caller's id either as user_id or as the standard subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) userID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

type AuthConfig struct {
	Secret string
	// AllowDevHeader accepts X-User-ID when no secret is configured.
	AllowDevHeader bool
}

// JWTAuth validates an HS256 bearer token and stores the caller's id in
// c.Locals(LocalUserID).
func JWTAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Secret == "" {
			if cfg.AllowDevHeader {
				if id := strings.TrimSpace(c.Get(DevUserIDHeader)); id != "" {
					c.Locals(LocalUserID, id)
					return c.Next()
				}
			}
			return unauthorized(c, errors.New("authentication is not configured"))
		}

		parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, errors.New("missing bearer token"))
		}

		userID, err := ValidateToken(parts[1], cfg.Secret)
		if err != nil {
			return unauthorized(c, err)
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// ValidateToken returns the caller id held by a signed token.
func ValidateToken(tokenString, secret string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}
	id := strings.TrimSpace(claims.userID())
	if id == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return id, nil
}

// UserID reads the id stored by JWTAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func unauthorized(c *fiber.Ctx, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusUnauthorized,
		Message: "unauthorized",
	}, err)
}
