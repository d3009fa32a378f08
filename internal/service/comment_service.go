package service

import (
	"context"
	"strings"

	"hirocks/internal/cache"
	"hirocks/internal/repository"
	"hirocks/models"
)

const msgCommentNotFound = "댓글을 찾을 수 없습니다."

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	cache       *cache.Query
}

type CreateCommentInput struct {
	Content  string `validate:"required,max=2000"`
	ParentID *uint
}

type updateCommentInput struct {
	Content string `validate:"required,max=2000"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	queryCache *cache.Query,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		cache:       queryCache,
	}
}

// ListComments returns the live top-level comments of a post, oldest first,
// each carrying its live replies.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments, err := cache.Fetch(ctx, s.cache, cache.CommentsKey(postID), func(ctx context.Context) ([]*models.Comment, error) {
		rows, err := s.commentRepo.ListVisibleByPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return buildThreads(rows), nil
	})
	if err != nil {
		return nil, upstream("댓글을 불러오지 못했습니다.", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	withReplies(comments)
	return comments, nil
}

// withReplies gives every comment in the tree a non-nil reply list. Lists
// decoded from an empty JSON array come back nil.
func withReplies(comments []*models.Comment) {
	for _, c := range comments {
		if c.Replies == nil {
			c.Replies = []*models.Comment{}
		}
		withReplies(c.Replies)
	}
}

// buildThreads attaches replies to their parents and returns the top-level
// comments in input order. Replies whose parent is not in rows are dropped.
func buildThreads(rows []*models.Comment) []*models.Comment {
	top := make([]*models.Comment, 0, len(rows))
	byID := make(map[uint]*models.Comment, len(rows))
	for _, c := range rows {
		if c.ParentID == nil {
			c.Replies = []*models.Comment{}
			top = append(top, c)
			byID[c.ID] = c
		}
	}
	for _, c := range rows {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
			parent.ReplyCount++
		}
	}
	return top
}

func (s *CommentService) CreateComment(ctx context.Context, postID uint, in CreateCommentInput) (*models.Comment, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError(msgPostNotFound), "게시글을 불러오지 못했습니다.")
	}
	if !post.IsPublished {
		return nil, models.NewNotFoundError(msgPostNotFound)
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, notFoundOr(err, models.NewNotFoundError(msgCommentNotFound), "댓글을 불러오지 못했습니다.")
		}
		if parent.PostID != postID || parent.IsDeleted {
			return nil, models.NewNotFoundError(msgCommentNotFound)
		}
		if parent.ParentID != nil {
			return nil, models.NewValidationError("답글에는 답글을 달 수 없습니다.")
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   caller.UserID,
		ParentID: in.ParentID,
		Content:  in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, upstream("댓글을 저장하지 못했습니다.", err)
	}

	s.cache.Apply(ctx, cache.CommentCreated, postID)
	return s.reload(ctx, comment.ID)
}

func (s *CommentService) UpdateComment(ctx context.Context, id uint, content string) (*models.Comment, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	in := updateCommentInput{Content: strings.TrimSpace(content)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	existing, err := s.ownedComment(ctx, id, caller.UserID, "본인이 작성한 댓글만 수정할 수 있습니다.")
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.UpdateOwnedContent(ctx, id, caller.UserID, in.Content)
	if err != nil {
		return nil, upstream("댓글을 수정하지 못했습니다.", err)
	}
	if updated == 0 {
		// deleted between the read and the write
		return nil, models.NewNotFoundError(msgCommentNotFound)
	}

	s.cache.Apply(ctx, cache.CommentUpdated, existing.PostID)
	return s.reload(ctx, id)
}

// DeleteComment soft-deletes a comment owned by the caller. The row stays but
// its content is replaced by a placeholder.
func (s *CommentService) DeleteComment(ctx context.Context, id uint) error {
	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	existing, err := s.ownedComment(ctx, id, caller.UserID, "본인이 작성한 댓글만 삭제할 수 있습니다.")
	if err != nil {
		return err
	}

	deleted, err := s.commentRepo.SoftDeleteOwned(ctx, id, caller.UserID)
	if err != nil {
		return upstream("댓글을 삭제하지 못했습니다.", err)
	}
	if deleted == 0 {
		return models.NewNotFoundError(msgCommentNotFound)
	}

	s.cache.Apply(ctx, cache.CommentDeleted, existing.PostID)
	return nil
}

// ownedComment loads a live comment that userID may change.
func (s *CommentService) ownedComment(ctx context.Context, id, userID uint, forbidden string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError(msgCommentNotFound), "댓글을 불러오지 못했습니다.")
	}
	if comment.IsDeleted {
		return nil, models.NewNotFoundError(msgCommentNotFound)
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError(forbidden)
	}
	return comment, nil
}

func (s *CommentService) reload(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, upstream("댓글을 불러오지 못했습니다.", err)
	}
	withReplies([]*models.Comment{comment})
	return comment, nil
}
