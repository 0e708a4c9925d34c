package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/platform/storage"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Profile limits.
const (
	MaxAvatarBytes   = 5 << 20
	MaxBioLength     = 500
	MaxSkills        = 20
	maxSkillLength   = 50
	maxPhoneLength   = 30
	maxAddressLength = 200
	defaultUsersPage = 20
	maxUsersPageSize = 100
)

var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UserListFilter pages through accounts. Page starts at 1.
type UserListFilter struct {
	Role         *domain.Role
	DepartmentID *string
	Search       *string
	Page         int
	PageSize     int
}

// UserPatch is an admin edit of an account. Absent fields are untouched.
type UserPatch struct {
	Name         domain.Optional[string]
	Email        domain.Optional[string]
	Role         domain.Optional[domain.Role]
	DepartmentID domain.Optional[string]
	Verified     domain.Optional[bool]
}

// ProfilePatch is a self-service edit. Role, email and department are not
// part of it.
type ProfilePatch struct {
	Name     domain.Optional[string]
	Phone    domain.Optional[string]
	Address  domain.Optional[string]
	Bio      domain.Optional[string]
	Skills   domain.Optional[[]string]
	LinkedIn domain.Optional[string]
	Twitter  domain.Optional[string]
}

// UserService administers accounts and self-service profiles.
type UserService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	objects     storage.ObjectStore
	urlExpiry   time.Duration
	logger      *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	ObjectStore    storage.ObjectStore
	URLExpiry      time.Duration
	Logger         *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	expiry := deps.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &UserService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		objects:     deps.ObjectStore,
		urlExpiry:   expiry,
		logger:      logger,
	}
}

// List pages through accounts, admin only.
func (s *UserService) List(ctx context.Context, actor domain.Actor, filter UserListFilter) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may list users")
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, invalidEnum("role", *filter.Role)
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultUsersPage
	}
	if size > maxUsersPageSize {
		size = maxUsersPageSize
	}
	pageNo := filter.Page
	if pageNo < 1 {
		pageNo = 1
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:         filter.Role,
		DepartmentID: filter.DepartmentID,
		Search:       filter.Search,
		Limit:        size,
		Offset:       (pageNo - 1) * size,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns one account. Users may read themselves; admins anyone.
func (s *UserService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if actor.ID != id && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("cannot read another account")
	}
	return s.load(ctx, id)
}

// Update applies an admin patch. Agents always keep a department, and an
// admin cannot change its own role.
func (s *UserService) Update(ctx context.Context, actor domain.Actor, id string, p UserPatch) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may edit accounts")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if !p.Name.HasValue() || name == "" {
			return nil, requiredField("name")
		}
		user.Name = name
	}
	if p.Email.Set {
		email := strings.ToLower(strings.TrimSpace(p.Email.Value))
		if !p.Email.HasValue() || email == "" {
			return nil, requiredField("email")
		}
		if err := fieldRules.Var("email", email, "email"); err != nil {
			return nil, err
		}
		if email != user.Email {
			if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
				return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
		}
		user.Email = email
	}
	if p.Role.Set {
		if !p.Role.HasValue() || !p.Role.Value.Valid() {
			return nil, invalidEnum("role", p.Role.Value)
		}
		if user.ID == actor.ID && p.Role.Value != user.Role {
			return nil, apperrors.NewForbidden("admins cannot change their own role")
		}
		user.Role = p.Role.Value
	}
	if p.DepartmentID.Set {
		if p.DepartmentID.Null {
			user.DepartmentID = nil
		} else {
			deptID := p.DepartmentID.Value
			if _, err := s.departments.GetByID(ctx, deptID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewValidationError("department not found", map[string]any{"department_id": deptID})
				}
				return nil, apperrors.MapError(err)
			}
			user.DepartmentID = &deptID
		}
	}
	if p.Verified.HasValue() {
		user.Verified = p.Verified.Value
	}
	if user.Role == domain.RoleAgent && user.DepartmentID == nil {
		return nil, requiredField("department_id")
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes an account. Clients that still own tickets cannot be
// removed; tickets assigned to a removed agent become unassigned.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins may delete accounts")
	}
	if actor.ID == id {
		return apperrors.NewForbidden("admins cannot delete themselves")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if apperrors.IsForeignKeyViolation(err) {
			return apperrors.NewConflict("user still owns tickets", map[string]any{"user_id": id})
		}
		return apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.load(ctx, actor.ID)
}

// UpdateProfile applies a self-service patch to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, p ProfilePatch) (*domain.User, error) {
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	profile := &user.Profile

	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if !p.Name.HasValue() || name == "" {
			return nil, requiredField("name")
		}
		user.Name = name
	}
	if p.Phone.Set {
		if profile.Phone, err = boundedText("phone", p.Phone, maxPhoneLength); err != nil {
			return nil, err
		}
	}
	if p.Address.Set {
		if profile.Address, err = boundedText("address", p.Address, maxAddressLength); err != nil {
			return nil, err
		}
	}
	if p.Bio.Set {
		if profile.Bio, err = boundedText("bio", p.Bio, MaxBioLength); err != nil {
			return nil, err
		}
	}
	if p.Skills.Set {
		if profile.Skills, err = normalizeSkills(p.Skills.Value); err != nil {
			return nil, err
		}
	}
	if p.LinkedIn.Set {
		if profile.LinkedIn, err = profileURL("linkedin", p.LinkedIn); err != nil {
			return nil, err
		}
	}
	if p.Twitter.Set {
		if profile.Twitter, err = profileURL("twitter", p.Twitter); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UploadAvatar stores an image for the caller and points the profile at it.
// The previous object is left in storage.
func (s *UserService) UploadAvatar(ctx context.Context, actor domain.Actor, file AttachmentInput) (*domain.User, error) {
	if s.objects == nil {
		return nil, apperrors.NewInternalError(errors.New("object storage not configured"))
	}
	ext, ok := avatarTypes[strings.ToLower(file.ContentType)]
	if !ok {
		return nil, apperrors.NewValidationError("profile image must be an image", map[string]any{
			"content_type": file.ContentType,
			"allowed":      "jpeg, png, gif, webp",
		})
	}
	if file.Size <= 0 || file.Size > MaxAvatarBytes {
		return nil, apperrors.NewValidationError("profile image must be between 1 byte and 5 MB", map[string]any{"size": file.Size})
	}
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", user.ID, uuid.NewString()+ext)
	body := io.LimitReader(file.Body, MaxAvatarBytes)
	if err := s.objects.Put(ctx, key, body, file.Size, strings.ToLower(file.ContentType)); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.ProfileImageURL = key
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// AvatarURL presigns the profile image of u, or returns "" when it has none
// or the link cannot be generated.
func (s *UserService) AvatarURL(ctx context.Context, u *domain.User) string {
	if u == nil || u.ProfileImageURL == "" || s.objects == nil {
		return ""
	}
	link, err := s.objects.PresignedGetURL(ctx, u.ProfileImageURL, s.urlExpiry)
	if err != nil {
		s.logger.Warn("avatar presign failed", zap.String("user_id", u.ID), zap.Error(err))
		return ""
	}
	return link
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// boundedText trims v; null clears the field.
func boundedText(field string, v domain.Optional[string], limit int) (string, error) {
	if v.Null {
		return "", nil
	}
	text := strings.TrimSpace(v.Value)
	if len([]rune(text)) > limit {
		return "", apperrors.NewValidationError(field+" too long", map[string]any{"field": field, "max": limit})
	}
	return text, nil
}

func profileURL(field string, v domain.Optional[string]) (string, error) {
	if v.Null || strings.TrimSpace(v.Value) == "" {
		return "", nil
	}
	link := strings.TrimSpace(v.Value)
	if err := fieldRules.Var(field, link, "url"); err != nil {
		return "", err
	}
	return link, nil
}

// normalizeSkills trims, drops blanks and case-insensitive duplicates.
func normalizeSkills(skills []string) ([]string, error) {
	out := make([]string, 0, len(skills))
	seen := map[string]bool{}
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		if len([]rune(skill)) > maxSkillLength {
			return nil, apperrors.NewValidationError("skill too long", map[string]any{"skill": skill, "max": maxSkillLength})
		}
		seen[key] = true
		out = append(out, skill)
	}
	if len(out) > MaxSkills {
		return nil, apperrors.NewValidationError("too many skills", map[string]any{"max": MaxSkills})
	}
	return out, nil
}
