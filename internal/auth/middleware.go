package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HashAPIKey returns the stored form of an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Identify resolves the caller and stores the identity in the request
// context. It never rejects a request: callers without valid credentials
// continue as anonymous and the operations decide what that means.
func (h *AuthHandler) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := identity.Anonymous()

		// 1. Check for API Key Header
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" {
			if id, ok := h.identifyAPIKey(apiKey); ok {
				next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
				return
			}
		}

		// 2. Fallback to JWT Cookie
		if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
			if id, ok := h.identifySession(w, cookie.Value); ok {
				who = id
			}
		}

		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), who)))
	})
}

func (h *AuthHandler) identifyAPIKey(apiKey string) (identity.Identity, bool) {
	var keyModel models.APIKey
	err := h.db.Preload("User").Where("key_hash = ?", HashAPIKey(apiKey)).First(&keyModel).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error("api key lookup failed", zap.Error(err))
		}
		return identity.Anonymous(), false
	}
	now := time.Now()
	if keyModel.ExpiresAt != nil && now.After(*keyModel.ExpiresAt) {
		h.log.Debug("expired api key used", zap.Uint("key_id", keyModel.ID))
		return identity.Anonymous(), false
	}
	if keyModel.User.ID == 0 {
		return identity.Anonymous(), false
	}

	h.db.Model(&keyModel).Update("last_used_at", now)
	return identity.User(keyModel.UserID, keyModel.User.Role), true
}

// identifySession validates the session token and loads the current role.
// Tokens past half of their lifetime are re-issued.
func (h *AuthHandler) identifySession(w http.ResponseWriter, token string) (identity.Identity, bool) {
	userID, exp, err := h.ParseToken(token)
	if err != nil {
		return identity.Anonymous(), false
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error("session user lookup failed", zap.Error(err))
		}
		return identity.Anonymous(), false
	}

	// Sliding session: refresh token if it's more than halfway through its duration
	if time.Until(exp) < TokenDuration/2 {
		if newToken, err := h.GenerateToken(userID); err == nil {
			h.SetSessionCookie(w, newToken)
		}
	}
	return identity.User(user.ID, user.Role), true
}
