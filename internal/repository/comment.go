package repository

import (
	"context"

	"hirocks/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListVisibleByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	UpdateOwnedContent(ctx context.Context, id, userID uint, content string) (int64, error)
	SoftDeleteOwned(ctx context.Context, id, userID uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("User").Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User", authorSummary).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListVisibleByPost returns every non-deleted comment of a post, replies
// included, oldest first.
func (r *commentRepository) ListVisibleByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("User", authorSummary).
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) UpdateOwnedContent(ctx context.Context, id, userID uint, content string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
		})
	return res.RowsAffected, res.Error
}

func (r *commentRepository) SoftDeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Updates(map[string]interface{}{
			"content":    models.DeletedCommentContent,
			"is_deleted": true,
		})
	return res.RowsAffected, res.Error
}
