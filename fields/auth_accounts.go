package fields

import (
	"time"

	"gorm.io/gorm"
)

// AuthAccount links a user to an external auth provider (e.g., Google).
// (provider, provider_user_id) identifies at most one row.
type AuthAccount struct {
	gorm.Model
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	Provider       string    `json:"provider" gorm:"size:32;not null;index:idx_provider_subject,unique"`
	ProviderUserID string    `json:"provider_user_id" gorm:"size:191;not null;index:idx_provider_subject,unique"`
	Email          string    `json:"email,omitempty" gorm:"size:191;index"`
	EmailVerified  bool      `json:"email_verified"`
	Name           string    `json:"name,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	LastLoginAt    time.Time `json:"last_login_at"`
}

// GetAccountBySubject retrieves the account for a provider identity.
func GetAccountBySubject(provider, providerUserID string, db *gorm.DB) (AuthAccount, error) {
	var account AuthAccount
	result := db.First(&account, "provider = ? AND provider_user_id = ?", provider, providerUserID)
	return account, result.Error
}
