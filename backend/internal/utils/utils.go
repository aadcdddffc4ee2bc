package utils

import (
	"html"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxSubjectLength    = 255
	MaxAttachmentLength = 255

	maxDecodeRounds = 8
)

// PostValidator turns user input into plain text posts. Markup is stripped,
// entities are decoded and surrounding whitespace is trimmed before the
// length limits are checked.
type PostValidator struct {
	policy        *bluemonday.Policy
	maxBodyLength int
}

func NewPostValidator(maxBodyLength int) *PostValidator {
	return &PostValidator{policy: bluemonday.StrictPolicy(), maxBodyLength: maxBodyLength}
}

// plain sanitises and decodes until the text stops changing, so markup
// hidden behind entities is stripped as well. Input that keeps changing past
// maxDecodeRounds is stored in its escaped form.
func (v *PostValidator) plain(s string) string {
	for range maxDecodeRounds {
		next := html.UnescapeString(v.policy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return strings.TrimSpace(v.policy.Sanitize(s))
}

func (v *PostValidator) Content(subject, body string) (domain.PostSubject, domain.PostBody, error) {
	subject = v.plain(subject)
	body = v.plain(body)

	if utf8.RuneCountInString(subject) > MaxSubjectLength {
		return "", "", internal_errors.Validation("Subject is too long")
	}
	if body == "" {
		return "", "", internal_errors.Validation("Body is empty")
	}
	if utf8.RuneCountInString(body) > v.maxBodyLength {
		return "", "", internal_errors.Validation("Body is too long")
	}
	return domain.PostSubject(subject), domain.PostBody(body), nil
}

// Attachment accepts a bare file name stored by the attachment service.
func (v *PostValidator) Attachment(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxAttachmentLength {
		return nil, internal_errors.Validation("Attachment name is too long")
	}
	if filepath.Base(trimmed) != trimmed || trimmed == "." || trimmed == ".." {
		return nil, internal_errors.Validation("Attachment must be a file name")
	}
	return &trimmed, nil
}
