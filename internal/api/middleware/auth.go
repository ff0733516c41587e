package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lousa-digital/chamada/internal/domain"
)

// LocalCallerKey is the Locals key holding the hash of the service key
// that authenticated the request.
const LocalCallerKey = "caller_key"

// ServiceKeyAuth authenticates the attendance platform by bearer
// service key. The engine trusts the platform's own user identity
// layer; this only proves the caller is the platform. Keys are compared
// by SHA-256 digest so raw keys never sit in the lookup set.
type ServiceKeyAuth struct {
	hashes map[string]struct{}
}

func NewServiceKeyAuth(keys []string) *ServiceKeyAuth {
	hashes := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		hashes[hashServiceKey(k)] = struct{}{}
	}
	return &ServiceKeyAuth{hashes: hashes}
}

func (a *ServiceKeyAuth) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := extractBearerToken(c)
		if key == "" {
			return domain.ErrUnauthorized
		}

		hash := hashServiceKey(key)
		if _, ok := a.hashes[hash]; !ok {
			// Same answer for unknown and malformed keys.
			return domain.ErrUnauthorized
		}

		c.Locals(LocalCallerKey, hash)
		return c.Next()
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func hashServiceKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// CallerKey retrieves the authenticated caller's key hash.
func CallerKey(c *fiber.Ctx) (string, error) {
	hash, ok := c.Locals(LocalCallerKey).(string)
	if !ok || hash == "" {
		return "", domain.ErrUnauthorized
	}
	return hash, nil
}
