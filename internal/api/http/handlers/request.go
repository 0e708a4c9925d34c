package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deskflow/helpdesk/internal/auth"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

// pathID returns the named route parameter once it parses as a UUID, so a
// malformed id is a 400 whatever the storage backend.
func pathID(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewValidationError("malformed identifier", map[string]any{name: raw})
	}
	return raw, nil
}

// bind parses the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, v *validation.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Struct(dst)
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(val)
	return err == nil && parsed
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
