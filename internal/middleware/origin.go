package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mohidul32/Chat-Application/internal/httpx"
)

// OriginAllowed enforces the ALLOWED_ORIGINS allowlist on browser
// requests. Requests without an Origin header pass through, as does
// everything when no allowlist is configured.
func OriginAllowed() fiber.Handler {
	allowed := parseAllowedOrigins(os.Getenv("ALLOWED_ORIGINS"))
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get(fiber.HeaderOrigin))
		if origin == "" || len(allowed) == 0 {
			return c.Next()
		}
		if _, ok := allowed[strings.ToLower(origin)]; !ok {
			return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
		}
		return c.Next()
	}
}

// parseAllowedOrigins lowercases the comma-separated allowlist once at
// startup; scheme and host compare case-insensitively.
func parseAllowedOrigins(csv string) map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		allowed[strings.ToLower(entry)] = struct{}{}
	}
	return allowed
}
