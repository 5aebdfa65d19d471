package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/soluspay/authgate/apperr"
	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/session"
)

// OAuthCallback handles the provider's redirect: verify state, exchange the
// code, fetch the profile, resolve the user, write the session.
// GET /api/auth/callback/:provider
//
// The pipeline is strictly ordered and fail-fast: nothing is created or
// updated before state verification succeeds.
func (s *Service) OAuthCallback(c *fiber.Ctx) error {
	start := time.Now()
	name := strings.ToLower(c.Params("provider"))
	p, ok := s.Providers[name]
	if !ok {
		return respondError(c, apperr.ErrUnsupportedProvider)
	}
	sess := session.FromCtx(c)
	log := s.Logger.WithField("provider", name)

	if errCode := c.Query("error"); errCode != "" {
		// The user denied consent or the provider refused; nothing to verify.
		sess.TakePending(name)
		log.WithField("provider_error", errCode).Warn("provider returned error on callback")
		fields.ObserveCallback(name, "denied", time.Since(start))
		return s.redirectError(c, "provider_error")
	}

	code := c.Query("code")
	if code == "" {
		fields.ObserveCallback(name, "bad_request", time.Since(start))
		return respondError(c, apperr.Wrap(errors.New("code query parameter absent"), apperr.ErrBadRequest, "authorization code is missing"))
	}

	// 1. State verification. The pending entry is consumed either way: a
	// state value is single-use, and a failed attempt must not leave a
	// replayable verifier behind.
	verifier := ""
	if p.UsePKCE {
		pending, found := sess.TakePending(name)
		echoed := c.Query("state")
		if !found || echoed == "" ||
			subtle.ConstantTimeCompare([]byte(pending.State), []byte(echoed)) != 1 {
			log.Warn("oauth state mismatch, failing closed")
			fields.ObserveCallback(name, "invalid_state", time.Since(start))
			return respondError(c, apperr.ErrInvalidState)
		}
		verifier = pending.CodeVerifier
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.Config.UpstreamTimeout())
	defer cancel()

	// 2. Code for token.
	token, err := p.Exchange(ctx, code, verifier)
	if err != nil {
		aerr := classifyUpstream(err)
		log.WithError(err).Error("token exchange failed")
		fields.ObserveCallback(name, apperr.Code(aerr), time.Since(start))
		return s.redirectError(c, "provider_error")
	}

	// 3. Token for profile.
	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		aerr := classifyUpstream(err)
		log.WithError(err).Error("userinfo fetch failed")
		fields.ObserveCallback(name, apperr.Code(aerr), time.Since(start))
		return s.redirectError(c, "provider_error")
	}

	// 4. Profile for user.
	user, isNew, err := s.findOrCreateUser(name, profile)
	if err != nil {
		log.WithError(err).Error("user resolution failed")
		fields.ObserveCallback(name, "store_error", time.Since(start))
		return s.redirectError(c, "server_error")
	}

	sess.Authenticate(user.Public())
	fields.ObserveCallback(name, "success", time.Since(start))
	log.WithFields(map[string]interface{}{"user_id": user.ID, "new_user": isNew}).Info("oauth login successful")
	return s.redirectSuccess(c, name)
}

// findOrCreateUser resolves the provider identity to a local user. Precedence:
// AuthAccount by (provider, subject) first, then User by email with a new
// account linked, then a fresh user. Fullname/avatar follow the latest
// provider profile.
func (s *Service) findOrCreateUser(provider string, profile Profile) (fields.User, bool, error) {
	var user fields.User
	isNew := false

	email := fields.NormalizeEmail(profile.Email)
	if email == "" {
		// Stable placeholder for providers that withhold email (Twitter).
		email = fmt.Sprintf("%s:%s@placeholder.local", provider, profile.Sub)
	}

	err := s.Db.Transaction(func(tx *gorm.DB) error {
		var account fields.AuthAccount
		if err := tx.First(&account, "provider = ? AND provider_user_id = ?", provider, profile.Sub).Error; err == nil {
			if err := tx.First(&user, account.UserID).Error; err != nil {
				return err
			}
			return s.refreshOnLogin(tx, &user, &account, profile)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.First(&user, "email = ?", email).Error; err == nil {
			account = newAccount(user.ID, provider, email, profile)
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
			return s.refreshOnLogin(tx, &user, nil, profile)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		isNew = true
		user = fields.User{Email: email, Fullname: profile.Name, AvatarURL: profile.AvatarURL}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		account = newAccount(user.ID, provider, email, profile)
		return tx.Create(&account).Error
	})

	if err != nil && fields.IsDuplicateErr(err) {
		// Two first-logins raced on the unique constraint; the store picked a
		// winner. Adopt its row instead of surfacing the conflict.
		return s.adoptWinningRow(provider, email, profile)
	}
	return user, isNew, err
}

func (s *Service) adoptWinningRow(provider, email string, profile Profile) (fields.User, bool, error) {
	user, err := fields.GetUserByEmail(email, s.Db)
	if err != nil {
		return user, false, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	if _, err := fields.GetAccountBySubject(provider, profile.Sub, s.Db); errors.Is(err, gorm.ErrRecordNotFound) {
		account := newAccount(user.ID, provider, email, profile)
		if err := s.Db.Create(&account).Error; err != nil && !fields.IsDuplicateErr(err) {
			return user, false, apperr.Wrap(err, apperr.ErrDatabase, "")
		}
	}
	return user, false, nil
}

// refreshOnLogin applies the latest-profile-wins policy: display name and
// avatar track the provider, email never changes here.
func (s *Service) refreshOnLogin(tx *gorm.DB, user *fields.User, account *fields.AuthAccount, profile Profile) error {
	updates := map[string]interface{}{}
	if profile.Name != "" && profile.Name != user.Fullname {
		updates["fullname"] = profile.Name
		user.Fullname = profile.Name
	}
	if profile.AvatarURL != "" && profile.AvatarURL != user.AvatarURL {
		updates["avatar_url"] = profile.AvatarURL
		user.AvatarURL = profile.AvatarURL
	}
	if len(updates) > 0 {
		if err := tx.Model(&fields.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
	}
	if account != nil {
		return tx.Model(&fields.AuthAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
			"last_login_at": time.Now(),
			"name":          profile.Name,
			"avatar_url":    profile.AvatarURL,
		}).Error
	}
	return nil
}

func newAccount(userID uint, provider, email string, profile Profile) fields.AuthAccount {
	return fields.AuthAccount{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: profile.Sub,
		Email:          email,
		EmailVerified:  profile.EmailVerified,
		Name:           profile.Name,
		AvatarURL:      profile.AvatarURL,
		LastLoginAt:    time.Now(),
	}
}
