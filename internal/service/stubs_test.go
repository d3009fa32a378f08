package service

import (
	"context"
	"time"

	"hirocks/internal/auth"
	"hirocks/internal/repository"
	"hirocks/models"

	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getPublishedFn    func(context.Context, uint) (*models.Post, error)
	listPublishedFn   func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	deleteOwnedFn     func(context.Context, uint, uint) (int64, error)
	isLikedFn         func(context.Context, uint, uint) (bool, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
	toggleLikeFn      func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetPublished(ctx context.Context, id uint) (*models.Post, error) {
	return s.getPublishedFn(ctx, id)
}
func (s *postRepoStub) ListPublished(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listPublishedFn(ctx, filter)
}
func (s *postRepoStub) DeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	return s.deleteOwnedFn(ctx, id, userID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleLikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 7, IsPublished: true}, nil
		},
		getPublishedFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 7, IsPublished: true}, nil
		},
		listPublishedFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		deleteOwnedFn:     func(_ context.Context, _, _ uint) (int64, error) { return 1, nil },
		isLikedFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getLikedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
		toggleLikeFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

// topicRepoStub is a stub for repository.TopicRepository.
type topicRepoStub struct {
	listActiveFn    func(context.Context) ([]models.Topic, error)
	getActiveByIDFn func(context.Context, uint) (*models.Topic, error)
}

func (s *topicRepoStub) ListActive(ctx context.Context) ([]models.Topic, error) {
	return s.listActiveFn(ctx)
}
func (s *topicRepoStub) GetActiveByID(ctx context.Context, id uint) (*models.Topic, error) {
	return s.getActiveByIDFn(ctx, id)
}

func noopTopicRepo() *topicRepoStub {
	return &topicRepoStub{
		listActiveFn: func(_ context.Context) ([]models.Topic, error) { return nil, nil },
		getActiveByIDFn: func(_ context.Context, id uint) (*models.Topic, error) {
			return &models.Topic{ID: id, Name: "타바타", IsActive: true}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn             func(context.Context, *models.Comment) error
	getByIDFn            func(context.Context, uint) (*models.Comment, error)
	listVisibleByPostFn  func(context.Context, uint) ([]*models.Comment, error)
	updateOwnedContentFn func(context.Context, uint, uint, string) (int64, error)
	softDeleteOwnedFn    func(context.Context, uint, uint) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListVisibleByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listVisibleByPostFn(ctx, postID)
}
func (s *commentRepoStub) UpdateOwnedContent(ctx context.Context, id, userID uint, content string) (int64, error) {
	return s.updateOwnedContentFn(ctx, id, userID, content)
}
func (s *commentRepoStub) SoftDeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	return s.softDeleteOwnedFn(ctx, id, userID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 100
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, UserID: 7, Content: "좋은 루틴이네요"}, nil
		},
		listVisibleByPostFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		updateOwnedContentFn: func(_ context.Context, _, _ uint, _ string) (int64, error) { return 1, nil },
		softDeleteOwnedFn:    func(_ context.Context, _, _ uint) (int64, error) { return 1, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	createIfMissingFn func(context.Context, *models.User) (bool, error)
	upsertProfileFn   func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) CreateIfMissing(ctx context.Context, user *models.User) (bool, error) {
	return s.createIfMissingFn(ctx, user)
}
func (s *userRepoStub) UpsertProfile(ctx context.Context, user *models.User) error {
	return s.upsertProfileFn(ctx, user)
}

// revokerStub records revocations.
type revokerStub struct {
	revoked map[string]time.Time
	err     error
}

func (s *revokerStub) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.revoked == nil {
		s.revoked = map[string]time.Time{}
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

func asUser(userID uint) context.Context {
	return auth.WithCaller(context.Background(), &auth.Caller{
		UserID:    userID,
		Email:     "athlete@hirocks.test",
		Name:      "버피왕",
		TokenID:   "jti-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }

var errNotFound = gorm.ErrRecordNotFound
