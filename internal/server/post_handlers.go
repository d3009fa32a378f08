package server

import (
	"io"
	"mime/multipart"

	"hirocks/internal/service"
	"hirocks/internal/storage"
	"hirocks/models"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?topic_id=&page=&page_size=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	topicID, err := parseOptionalID(c.Query("topic_id"))
	if err != nil {
		return respondError(c, err)
	}

	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		TopicID:  topicID,
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts (multipart/form-data)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 요청 형식입니다."))
	}

	topicID, err := parseOptionalID(formValue(form, "topic_id"))
	if err != nil {
		return respondError(c, err)
	}

	files := append(form.File["images"], form.File["images[]"]...)
	if len(files) > storage.MaxPostImages {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("이미지는 최대 5개까지 업로드할 수 있습니다."))
	}
	images, err := readImages(files)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("업로드한 파일을 읽을 수 없습니다."))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:         formValue(form, "title"),
		Content:       formValue(form, "content"),
		TopicID:       topicID,
		Difficulty:    optionalFormValue(form, "difficulty"),
		Location:      optionalFormValue(form, "location"),
		InstagramLink: optionalFormValue(form, "instagram_link"),
		Images:        images,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func optionalFormValue(form *multipart.Form, key string) *string {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

func readImages(files []*multipart.FileHeader) ([]storage.ImageUpload, error) {
	images := make([]storage.ImageUpload, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, storage.ImageUpload{Filename: fh.Filename, Data: data})
	}
	return images, nil
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	liked, err := s.postService.ToggleLike(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}
