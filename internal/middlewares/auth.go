package middlewares

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by API bearer tokens. Caller identifies
// the collaborator the token was minted for (e.g. "mfa-subsystem",
// "viewer").
type TokenClaims struct {
	Caller string `json:"caller,omitempty"`
	jwt.RegisteredClaims
}

// RequireToken verifies an HS256 bearer token signed with the master key.
// When masterKey is empty the API runs unauthenticated.
func RequireToken(masterKey string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if masterKey == "" {
			return ctx.Next()
		}
		header := ctx.Get(fiber.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing bearer token")
		}

		var claims TokenClaims
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(masterKey), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid bearer token")
		}
		ctx.Locals("caller", claims.Caller)
		return ctx.Next()
	}
}
