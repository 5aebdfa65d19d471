package fields

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// User contains the authgate users table. It should be kept simple and only
// contain the fields the auth flow actually needs.
type User struct {
	gorm.Model
	Email     string `json:"email" gorm:"index:idx_email,unique;size:191;not null"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar_url"`
	Accounts  []AuthAccount
}

// PublicUser is the subset of User that is safe to embed in the session
// cookie and to return from the session endpoint.
type PublicUser struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Fullname  string `json:"name"`
	AvatarURL string `json:"image,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Fullname:  u.Fullname,
		AvatarURL: u.AvatarURL,
	}
}

// NormalizeEmail lowercases and trims an email so that uniqueness does not
// depend on the store's collation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUserByEmail retrieves a user by their (normalized) email.
func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User
	result := db.First(&user, "email = ?", NormalizeEmail(email))
	return user, result.Error
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(id uint, db *gorm.DB) (User, error) {
	var user User
	result := db.First(&user, id)
	return user, result.Error
}

// IsDuplicateErr reports whether err is a unique-constraint violation. gorm
// translates driver errors when TranslateError is on; the string check covers
// sqlite builds where translation is unavailable.
func IsDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
