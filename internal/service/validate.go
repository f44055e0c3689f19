package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/inkpress/internal/db"
)

const (
	titleMaxLen     = 200
	contentMinLen   = 10
	excerptMaxLen   = 500
	commentMaxLen   = 2000
	passwordMinLen  = 8
	usernameMaxLen  = 40
	taxonomyNameMax = 100
)

func checkField(field string, value interface{}, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}

func checkTitle(title string) error {
	return checkField("title", title,
		validation.Required.Error("is required"),
		validation.RuneLength(1, titleMaxLen).Error("must be between 1 and 200 characters"),
	)
}

func checkContent(content string) error {
	return checkField("content", content,
		validation.Required.Error("is required"),
		validation.RuneLength(contentMinLen, 0).Error("must be at least 10 characters"),
	)
}

func checkExcerpt(excerpt string) error {
	return checkField("excerpt", excerpt,
		validation.RuneLength(0, excerptMaxLen).Error("must be at most 500 characters"),
	)
}

func checkCoverImage(coverImage string) error {
	if coverImage == "" {
		return nil
	}
	return checkField("cover_image", coverImage,
		is.URL.Error("must be a well-formed URL"),
	)
}

func checkStatus(status string) error {
	return checkField("status", status,
		validation.Required.Error("is required"),
		validation.In(db.StatusDraft, db.StatusPublished).Error("must be draft or published"),
	)
}

func checkUsername(username string) error {
	return checkField("username", username,
		validation.Required.Error("is required"),
		validation.RuneLength(1, usernameMaxLen).Error("must be between 1 and 40 characters"),
	)
}

func checkEmail(email string) error {
	return checkField("email", email,
		validation.Required.Error("is required"),
		is.Email.Error("must be a valid email address"),
	)
}

func checkPassword(password string) error {
	return checkField("password", password,
		validation.Required.Error("is required"),
		validation.RuneLength(passwordMinLen, 0).Error("must be at least 8 characters"),
	)
}

func checkAvatarURL(avatarURL string) error {
	if avatarURL == "" {
		return nil
	}
	return checkField("avatar_url", avatarURL,
		is.URL.Error("must be a well-formed URL"),
	)
}

func checkTaxonomyName(name string) error {
	return checkField("name", name,
		validation.Required.Error("is required"),
		validation.RuneLength(1, taxonomyNameMax).Error("must be between 1 and 100 characters"),
	)
}

func checkCommentContent(content string) error {
	return checkField("content", content,
		validation.Required.Error("is required"),
		validation.RuneLength(1, commentMaxLen).Error("must be at most 2000 characters"),
	)
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
