package server

import (
	"hirocks/internal/service"
	"hirocks/models"

	"github.com/gofiber/fiber/v2"
)

// StartSession handles POST /api/session
func (s *Server) StartSession(c *fiber.Ctx) error {
	session, err := s.profileService.StartSession(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if session.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(session)
}

// EndSession handles DELETE /api/session
func (s *Server) EndSession(c *fiber.Ctx) error {
	if err := s.profileService.EndSession(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetProfile handles GET /api/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Nickname  string  `json:"nickname"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 요청 형식입니다."))
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		Nickname:  req.Nickname,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
