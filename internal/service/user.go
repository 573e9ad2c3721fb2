package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	providerPassword  = "password"
)

type UserService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*model.Profile, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (*model.Profile, error)
	// UpsertOAuth resolves the profile for a verified provider identity, creating it on first sign-in.
	UpsertOAuth(ctx context.Context, provider, email, fullName, avatarURL string) (*model.Profile, error)
	CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*model.Profile, error)
	Lookup(ctx context.Context, userID string) (*auth.User, error)

	GetMe(ctx context.Context, userID string) (*model.Profile, error)
	UpdateMe(ctx context.Context, userID string, req dto.UpdateMeRequest) (*model.Profile, error)
	UploadAvatar(ctx context.Context, userID, filename string, size int64, r io.Reader) (*model.Profile, error)

	List(ctx context.Context, search string, limit, offset int) (*dto.Page[*model.Profile], error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
	UpdateRole(ctx context.Context, actorID, userID string, role model.Role) (*model.Profile, error)
	Delete(ctx context.Context, actorID, userID string) error
}

type userServiceImpl struct {
	profileRepo repository.ProfileRepository
	uploader    *storage.Uploader
	adminEmails map[string]bool
	logger      *slog.Logger
}

// NewUserService promotes profiles whose email is listed in adminEmails.
func NewUserService(
	profileRepo repository.ProfileRepository,
	uploader *storage.Uploader,
	adminEmails []string,
	logger *slog.Logger,
) UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}

	return &userServiceImpl{
		profileRepo: profileRepo,
		uploader:    uploader,
		adminEmails: admins,
		logger:      logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *userServiceImpl) roleFor(email string) model.Role {
	if s.adminEmails[email] {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (s *userServiceImpl) SignUp(ctx context.Context, req dto.SignUpRequest) (*model.Profile, error) {
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, invalid("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &model.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         s.roleFor(email),
		PasswordHash: string(hash),
		Provider:     providerPassword,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("user signed up", "user_id", profile.ID)
	return profile, nil
}

// SignIn never tells unknown emails apart from wrong passwords.
func (s *userServiceImpl) SignIn(ctx context.Context, req dto.SignInRequest) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile.PasswordHash == "" {
		return nil, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}
	return profile, nil
}

func (s *userServiceImpl) UpsertOAuth(ctx context.Context, provider, email, fullName, avatarURL string) (*model.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("provider returned no email")
	}

	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err == nil {
		changed := false
		if profile.FullName == "" && fullName != "" {
			profile.FullName = fullName
			changed = true
		}
		if profile.AvatarURL == "" && avatarURL != "" {
			profile.AvatarURL = avatarURL
			changed = true
		}
		if changed {
			if err := s.profileRepo.Save(ctx, profile); err != nil {
				return nil, fmt.Errorf("save profile: %w", err)
			}
		}
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	profile = &model.Profile{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatarURL,
		Role:      s.roleFor(email),
		Provider:  provider,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("user signed up", "user_id", profile.ID, "provider", provider)
	return profile, nil
}

// CreateProfile is idempotent by email: an existing profile is returned unchanged.
func (s *userServiceImpl) CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*model.Profile, error) {
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, invalid("a valid email is required")
	}

	existing, err := s.profileRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("id must be a uuid")
	}

	profile := &model.Profile{
		ID:        id,
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		AvatarURL: req.AvatarURL,
		Role:      s.roleFor(email),
		Provider:  "service",
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func (s *userServiceImpl) Lookup(ctx context.Context, userID string) (*auth.User, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	u := auth.UserFromProfile(profile)
	return &u, nil
}

func (s *userServiceImpl) GetMe(ctx context.Context, userID string) (*model.Profile, error) {
	return s.Get(ctx, userID)
}

func (s *userServiceImpl) UpdateMe(ctx context.Context, userID string, req dto.UpdateMeRequest) (*model.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func (s *userServiceImpl) UploadAvatar(ctx context.Context, userID, filename string, size int64, r io.Reader) (*model.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	obj, err := s.uploader.Upload(ctx, storage.BucketProductImages, "avatars/"+userID, storage.ImageRule, filename, size, r)
	if err != nil {
		return nil, err
	}

	profile.AvatarURL = obj.URL
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		removeObject(ctx, s.uploader, s.logger, storage.BucketProductImages, obj.Key)
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	return profile, nil
}

func (s *userServiceImpl) List(ctx context.Context, search string, limit, offset int) (*dto.Page[*model.Profile], error) {
	limit, offset = pageBounds(limit, offset)

	profiles, total, err := s.profileRepo.List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return &dto.Page[*model.Profile]{
		Items:  profiles,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *userServiceImpl) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

func (s *userServiceImpl) UpdateRole(ctx context.Context, actorID, userID string, role model.Role) (*model.Profile, error) {
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	if actorID == userID && role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", ErrForbidden)
	}

	if err := s.profileRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.Info("user role updated", "user_id", userID, "role", role, "by", actorID)
	return s.Get(ctx, userID)
}

func (s *userServiceImpl) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrForbidden)
	}
	if err := s.profileRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	s.logger.Info("user deleted", "user_id", userID, "by", actorID)
	return nil
}
