package service

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"hirocks/models"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleRunes    = 50
	minContentRunes  = 10
	maxContentRunes  = 5000
	maxCommentRunes  = 2000
	maxNicknameRunes = 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldMessages maps "Field.tag" to the message shown to the user.
var fieldMessages = map[string]string{
	"Title.required":    "제목을 입력해주세요.",
	"Title.max":         fmt.Sprintf("제목은 %d자 이하로 입력해주세요.", maxTitleRunes),
	"TopicID.required":  "주제를 선택해주세요.",
	"Difficulty.oneof":  "난이도는 초급, 중급, 고급 중 하나여야 합니다.",
	"Location.max":      "장소는 100자 이하로 입력해주세요.",
	"InstagramLink.url": "올바른 인스타그램 링크를 입력해주세요.",
	"Images.max":        "이미지는 최대 5개까지 업로드할 수 있습니다.",
	"Nickname.required": "닉네임을 입력해주세요.",
	"Nickname.max":      "닉네임은 20자 이하로 입력해주세요.",
	"Nickname.ne":       "다른 닉네임을 입력해주세요.",
	"Bio.max":           "자기소개는 200자 이하로 입력해주세요.",
	"AvatarURL.url":     "올바른 프로필 이미지 주소가 아닙니다.",
	"Content.required":  "내용을 입력해주세요.",
	"Content.max":       fmt.Sprintf("댓글은 %d자 이하로 입력해주세요.", maxCommentRunes),
}

// validateInput runs struct validation and converts the first failure into
// a validation AppError.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("입력값이 올바르지 않습니다.")
	}
	first := verrs[0]
	if msg, ok := fieldMessages[first.Field()+"."+first.Tag()]; ok {
		return models.NewValidationError(msg)
	}
	return models.NewValidationError("입력값이 올바르지 않습니다.")
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText strips markup from rich text and collapses it to the characters
// a reader sees.
func plainText(richText string) string {
	stripped := tagPattern.ReplaceAllString(richText, "")
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// validateRichContent checks the visible length of a post body.
func validateRichContent(content string) error {
	n := utf8.RuneCountInString(plainText(content))
	switch {
	case n < minContentRunes:
		return models.NewValidationError("내용은 최소 10자 이상 입력해주세요.")
	case n > maxContentRunes:
		return models.NewValidationError("내용은 5000자 이하로 입력해주세요.")
	}
	return nil
}

// normalizeOptional trims s and returns nil when nothing is left.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
