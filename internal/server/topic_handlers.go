package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetTopics handles GET /api/topics
func (s *Server) GetTopics(c *fiber.Ctx) error {
	topics, err := s.topicService.ListTopics(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topics)
}
