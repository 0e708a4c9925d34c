package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// UsersHandler serves account administration and the caller's profile.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers GET /api/users?role=&department_id=&q=&page=&page_size=.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := service.UserListFilter{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.Search = &q
	}
	users, err := h.users.List(c.UserContext(), principal.Actor(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, h.user(c, &users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /api/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), principal.Actor(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.profile(c, user)})
}

// UpdateUser PUT /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.Update(c.UserContext(), principal.Actor(), id, service.UserPatch(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.user(c, user)})
}

// DeleteUser DELETE /api/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), principal.Actor(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Profile GET /api/me/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.profile(c, user)})
}

// UpdateProfile PUT /api/me/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), principal.Actor(), service.ProfilePatch(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.profile(c, user)})
}

// UploadAvatar POST /api/me/avatar (multipart field "file").
func (h *UsersHandler) UploadAvatar(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", map[string]any{"file": "is required"})
	}
	body, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer body.Close()

	user, err := h.users.UploadAvatar(c.UserContext(), principal.Actor(), service.AttachmentInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        body,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.profile(c, user)})
}

func (h *UsersHandler) user(c *fiber.Ctx, u *domain.User) dto.UserResponse {
	resp := dto.NewUserResponse(u)
	resp.AvatarURL = h.users.AvatarURL(c.UserContext(), u)
	return resp
}

func (h *UsersHandler) profile(c *fiber.Ctx, u *domain.User) dto.ProfileResponse {
	return dto.NewProfileResponse(u, h.users.AvatarURL(c.UserContext(), u))
}
