package service

import (
	"context"

	"hirocks/internal/cache"
	"hirocks/internal/repository"
	"hirocks/models"
)

type TopicService struct {
	topicRepo repository.TopicRepository
	cache     *cache.Query
}

func NewTopicService(topicRepo repository.TopicRepository, queryCache *cache.Query) *TopicService {
	return &TopicService{topicRepo: topicRepo, cache: queryCache}
}

// ListTopics returns the active topics ordered by name.
func (s *TopicService) ListTopics(ctx context.Context) ([]models.Topic, error) {
	topics, err := cache.Fetch(ctx, s.cache, cache.TopicsKey(), func(ctx context.Context) ([]models.Topic, error) {
		return s.topicRepo.ListActive(ctx)
	})
	if err != nil {
		return nil, upstream("주제 목록을 불러오지 못했습니다.", err)
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	return topics, nil
}
