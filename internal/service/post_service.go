package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"hirocks/internal/cache"
	"hirocks/internal/middleware"
	"hirocks/internal/observability"
	"hirocks/internal/repository"
	"hirocks/internal/storage"
	"hirocks/models"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

const msgPostNotFound = "게시글을 찾을 수 없습니다."

type PostService struct {
	postRepo      repository.PostRepository
	topicRepo     repository.TopicRepository
	store         storage.ObjectStore
	cache         *cache.Query
	pageSize      int
	maxImageBytes int64
}

// PostServiceOptions carries the tunables of PostService.
type PostServiceOptions struct {
	PageSize      int
	MaxImageBytes int64
}

type ListPostsInput struct {
	TopicID  *uint
	Page     int
	PageSize int
}

// PostPage is one window of the published feed.
type PostPage struct {
	Posts      []*models.Post `json:"posts"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

type CreatePostInput struct {
	Title         string `validate:"required,max=50"`
	Content       string
	TopicID       *uint                 `validate:"required"`
	Difficulty    *string               `validate:"omitempty,oneof=초급 중급 고급"`
	Location      *string               `validate:"omitempty,max=100"`
	InstagramLink *string               `validate:"omitempty,url"`
	Images        []storage.ImageUpload `validate:"max=5"`
}

func NewPostService(
	postRepo repository.PostRepository,
	topicRepo repository.TopicRepository,
	store storage.ObjectStore,
	queryCache *cache.Query,
	opts PostServiceOptions,
) *PostService {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	return &PostService{
		postRepo:      postRepo,
		topicRepo:     topicRepo,
		store:         store,
		cache:         queryCache,
		pageSize:      opts.PageSize,
		maxImageBytes: opts.MaxImageBytes,
	}
}

func (s *PostService) normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.pageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	// keeps the offset representable; pages past the end come back empty
	if maxPage := math.MaxInt32 / size; page > maxPage {
		page = maxPage
	}
	return page, size
}

// ListPosts returns one page of published posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	page, size := s.normalizePage(in.Page, in.PageSize)

	key := cache.PostsKey(in.TopicID, page, size)
	result, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*PostPage, error) {
		posts, total, err := s.postRepo.ListPublished(ctx, repository.PostFilter{
			TopicID: in.TopicID,
			Limit:   size,
			Offset:  (page - 1) * size,
		})
		if err != nil {
			return nil, err
		}
		totalPages := int((total + int64(size) - 1) / int64(size))
		return &PostPage{
			Posts:      posts,
			TotalCount: total,
			Page:       page,
			PageSize:   size,
			TotalPages: totalPages,
		}, nil
	})
	if err != nil {
		return nil, upstream("게시글 목록을 불러오지 못했습니다.", err)
	}
	if result.Posts == nil {
		result.Posts = []*models.Post{}
	}

	if err := s.overlayLiked(ctx, result.Posts); err != nil {
		return nil, err
	}
	return result, nil
}

// overlayLiked marks the posts the caller has liked. Anonymous callers see
// every post as not liked.
func (s *PostService) overlayLiked(ctx context.Context, posts []*models.Post) error {
	for _, p := range posts {
		p.IsLiked = false
	}
	userID, ok := callerOf(ctx)
	if !ok || len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.postRepo.GetLikedPostIDs(ctx, userID, ids)
	if err != nil {
		return upstream("좋아요 정보를 불러오지 못했습니다.", err)
	}
	set := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for _, p := range posts {
		_, p.IsLiked = set[p.ID]
	}
	return nil
}

// GetPost returns a published post with fresh counts and the caller's like state.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := cache.Fetch(ctx, s.cache, cache.PostKey(id), func(ctx context.Context) (*models.Post, error) {
		return s.postRepo.GetPublished(ctx, id)
	})
	if err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError(msgPostNotFound), "게시글을 불러오지 못했습니다.")
	}

	post.IsLiked = false
	if userID, ok := callerOf(ctx); ok {
		liked, err := s.postRepo.IsLiked(ctx, userID, post.ID)
		if err != nil {
			return nil, upstream("좋아요 정보를 불러오지 못했습니다.", err)
		}
		post.IsLiked = liked
	}
	return post, nil
}

// CreatePost validates the input, uploads its images and stores a published
// post owned by the caller.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Difficulty = normalizeOptional(in.Difficulty)
	in.Location = normalizeOptional(in.Location)
	in.InstagramLink = normalizeOptional(in.InstagramLink)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := validateRichContent(in.Content); err != nil {
		return nil, err
	}

	if _, err := s.topicRepo.GetActiveByID(ctx, *in.TopicID); err != nil {
		return nil, notFoundOr(err, models.NewValidationError("존재하지 않는 주제입니다."), "주제를 확인하지 못했습니다.")
	}

	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	urls, err := storage.UploadAll(ctx, s.store, in.Images, s.maxImageBytes)
	if err != nil {
		span.End(err)
		return nil, imageError(err)
	}

	post := &models.Post{
		Title:         in.Title,
		Content:       in.Content,
		TopicID:       in.TopicID,
		Difficulty:    in.Difficulty,
		Location:      in.Location,
		InstagramLink: in.InstagramLink,
		Images:        urls,
		IsPublished:   true,
		UserID:        caller.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImages(ctx, urls)
		span.End(err)
		return nil, upstream("게시글을 저장하지 못했습니다.", err)
	}
	span.End(nil)

	s.cache.Apply(ctx, cache.PostCreated, post.ID)

	created, err := s.postRepo.GetPublished(ctx, post.ID)
	if err != nil {
		return nil, upstream("게시글을 불러오지 못했습니다.", err)
	}
	return created, nil
}

func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrEmptyImage):
		return models.NewValidationError("비어 있는 이미지 파일입니다.")
	case errors.Is(err, storage.ErrImageTooLarge):
		return models.NewValidationError("이미지 파일이 너무 큽니다.")
	case errors.Is(err, storage.ErrUnsupportedImage):
		return models.NewValidationError("지원하지 않는 이미지 형식입니다.")
	default:
		return upstream("이미지 업로드에 실패했습니다.", err)
	}
}

func (s *PostService) removeImages(ctx context.Context, urls []string) {
	keys := storage.KeysFromURLs(urls)
	if len(keys) == 0 {
		return
	}
	if err := s.store.Remove(context.WithoutCancel(ctx), keys); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post images", "keys", keys, "error", err)
	}
}

// DeletePost removes a post owned by the caller together with its images,
// comments and likes.
func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, models.NewNotFoundError(msgPostNotFound), "게시글을 불러오지 못했습니다.")
	}
	if post.UserID != caller.UserID {
		return models.NewForbiddenError("본인이 작성한 게시글만 삭제할 수 있습니다.")
	}

	s.removeImages(ctx, post.Images)

	removed, err := s.postRepo.DeleteOwned(ctx, id, caller.UserID)
	if err != nil {
		return upstream("게시글을 삭제하지 못했습니다.", err)
	}
	if removed == 0 {
		return models.NewNotFoundError(msgPostNotFound)
	}

	s.cache.Apply(ctx, cache.PostDeleted, id)
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", id, "images", len(post.Images))
	return nil
}

// ToggleLike flips the caller's like on a visible post and returns the new state.
func (s *PostService) ToggleLike(ctx context.Context, id uint) (bool, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return false, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return false, notFoundOr(err, models.NewNotFoundError(msgPostNotFound), "게시글을 불러오지 못했습니다.")
	}
	if !post.IsPublished {
		return false, models.NewNotFoundError(msgPostNotFound)
	}

	liked, err := s.postRepo.ToggleLike(ctx, caller.UserID, id)
	if err != nil {
		return false, upstream("좋아요를 처리하지 못했습니다.", err)
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	observability.LikeToggles.WithLabelValues(state).Inc()
	s.cache.Apply(ctx, cache.LikeToggled, id)
	return liked, nil
}
