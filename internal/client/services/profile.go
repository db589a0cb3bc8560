package services

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/common"
)

// DisplayName is the name shown in greetings: the full name, else the
// local part of the email, else "User".
func DisplayName(u *models.User) string {
	if u == nil {
		return "User"
	}
	if name := u.FullName(); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(u.Email, "@"); local != "" {
		return local
	}
	return "User"
}

// Initials returns up to two upper-case initials of fullName, or the first
// letter of email when the name is empty.
func Initials(fullName, email string) string {
	if words := strings.Fields(fullName); len(words) > 0 {
		var b strings.Builder
		for _, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			b.WriteRune(unicode.ToUpper(r))
			if utf8.RuneCountInString(b.String()) == 2 {
				break
			}
		}
		return b.String()
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(email)
	return string(unicode.ToUpper(r))
}

// ProfileService edits the signed-in user's profile metadata.
type ProfileService struct {
	auth AuthService
}

func NewProfileService(auth AuthService) *ProfileService {
	return &ProfileService{auth: auth}
}

func (p *ProfileService) UpdateDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.ErrInvalidInput
	}
	return p.auth.UpdateUserMetadata(ctx, map[string]any{models.FullNameKey: name})
}
