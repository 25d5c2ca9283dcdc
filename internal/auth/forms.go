package auth

import (
	"math/rand/v2"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
)

// Avatars are the animals a new account can be given.
var Avatars = []string{"🦊", "🐻", "🐰", "🦉", "🐿️", "🦔", "🐸", "🦋", "🐝", "🦌"}

// RandomAvatar picks one of Avatars.
func RandomAvatar() string {
	return Avatars[rand.IntN(len(Avatars))]
}

// ValidAvatar reports whether a is one of Avatars.
func ValidAvatar(a string) bool {
	for _, v := range Avatars {
		if v == a {
			return true
		}
	}
	return false
}

type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Normalize trims the name and the email and lower-cases the email.
func (in *RegisterInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
}

// Validate checks the form in the order the fields are shown.
func (in RegisterInput) Validate() error {
	switch {
	case in.Name == "" || in.Email == "" || in.Password == "" || in.PasswordConfirm == "":
		return &ValidationError{Field: "form", Message: msgFillAll}
	case utf8.RuneCountInString(in.Name) < minNameLen:
		return &ValidationError{Field: "name", Message: msgNameTooShort}
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return &ValidationError{Field: "password", Message: msgShortPassword}
	case in.Password != in.PasswordConfirm:
		return &ValidationError{Field: "passwordConfirm", Message: msgMismatch}
	case !validEmail(in.Email):
		return &ValidationError{Field: "email", Message: msgInvalidEmail}
	}
	return nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Normalize() {
	in.Email = normalizeEmail(in.Email)
}

func (in LoginInput) Validate() error {
	if in.Email == "" || in.Password == "" {
		return &ValidationError{Field: "form", Message: msgFillAll}
	}
	if !validEmail(in.Email) {
		return &ValidationError{Field: "email", Message: msgInvalidEmail}
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// ProfileInput edits a profile. Nil fields are left unchanged.
type ProfileInput struct {
	DisplayName *string `json:"displayName,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

func (in *ProfileInput) Normalize() {
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &name
	}
}

func (in ProfileInput) Validate() error {
	if in.DisplayName != nil && utf8.RuneCountInString(*in.DisplayName) < minNameLen {
		return &ValidationError{Field: "displayName", Message: msgNameTooShort}
	}
	if in.Avatar != nil && !ValidAvatar(*in.Avatar) {
		return &ValidationError{Field: "avatar", Message: msgBadAvatar}
	}
	return nil
}
