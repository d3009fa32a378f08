package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"hirocks/internal/auth"
	"hirocks/internal/middleware"
	"hirocks/internal/repository"
	"hirocks/models"
)

// TokenRevoker revokes access tokens before they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type ProfileService struct {
	userRepo repository.UserRepository
	revoker  TokenRevoker
}

// Session is the state a client needs right after signing in.
type Session struct {
	Profile  *models.User `json:"profile"`
	Created  bool         `json:"created"`
	Complete bool         `json:"complete"`
}

type UpdateProfileInput struct {
	Nickname  string  `validate:"required,max=20,ne=익명"`
	Bio       *string `validate:"omitempty,max=200"`
	AvatarURL *string `validate:"omitempty,url"`
}

func NewProfileService(userRepo repository.UserRepository, revoker TokenRevoker) *ProfileService {
	return &ProfileService{userRepo: userRepo, revoker: revoker}
}

// StartSession loads the caller's profile, creating it on first sign-in.
func (s *ProfileService) StartSession(ctx context.Context) (*Session, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.CreateIfMissing(ctx, initialProfile(caller))
	if err != nil {
		return nil, upstream("프로필을 생성하지 못했습니다.", err)
	}

	profile, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, upstream("프로필을 불러오지 못했습니다.", err)
	}
	if created {
		middleware.Logger.InfoContext(ctx, "profile created", "user_id", caller.UserID)
	}
	return &Session{Profile: profile, Created: created, Complete: profile.IsComplete()}, nil
}

func initialProfile(caller *auth.Caller) *models.User {
	nickname := strings.TrimSpace(caller.Name)
	if nickname == "" {
		nickname = models.DefaultNickname
	}
	if utf8.RuneCountInString(nickname) > maxNicknameRunes {
		nickname = string([]rune(nickname)[:maxNicknameRunes])
	}
	user := &models.User{
		ID:       caller.UserID,
		Email:    caller.Email,
		Nickname: nickname,
	}
	if caller.AvatarURL != "" {
		avatar := caller.AvatarURL
		user.AvatarURL = &avatar
	}
	return user
}

// GetProfile returns the caller's profile.
func (s *ProfileService) GetProfile(ctx context.Context) (*models.User, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("프로필을 찾을 수 없습니다."), "프로필을 불러오지 못했습니다.")
	}
	return profile, nil
}

// UpdateProfile completes onboarding or edits the caller's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Bio = normalizeOptional(in.Bio)
	in.AvatarURL = normalizeOptional(in.AvatarURL)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	profile := &models.User{
		ID:        caller.UserID,
		Email:     caller.Email,
		Nickname:  in.Nickname,
		Bio:       in.Bio,
		AvatarURL: in.AvatarURL,
	}
	if err := s.userRepo.UpsertProfile(ctx, profile); err != nil {
		return nil, upstream("프로필을 저장하지 못했습니다.", err)
	}
	updated, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, upstream("프로필을 불러오지 못했습니다.", err)
	}
	return updated, nil
}

// EndSession revokes the caller's token so later requests carrying it are
// treated as anonymous.
func (s *ProfileService) EndSession(ctx context.Context) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return upstream("로그아웃을 처리하지 못했습니다.", err)
	}
	return nil
}
