package repository

import (
	"context"

	"hirocks/models"

	"gorm.io/gorm"
)

// TopicRepository reads the topic catalog.
type TopicRepository interface {
	ListActive(ctx context.Context) ([]models.Topic, error)
	GetActiveByID(ctx context.Context, id uint) (*models.Topic, error)
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) ListActive(ctx context.Context) ([]models.Topic, error) {
	topics := []models.Topic{}
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&topics).Error
	return topics, err
}

func (r *topicRepository) GetActiveByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}
