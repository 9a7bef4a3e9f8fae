package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gdg-garage/community-events/internal/auth"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIKeyHandler manages keys that let devices, such as a check-in scanner,
// act as their owner.
type APIKeyHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAPIKeyHandler(db *gorm.DB, log *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{db: db, log: log}
}

type CreateAPIKeyInput struct {
	Body struct {
		Name      string     `json:"name"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

// HandleCreate returns the plain key. It is the only time the key is shown.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	who := identity.FromContext(ctx)
	if err := who.Require(); err != nil {
		return nil, renderError(h.log, err)
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, renderError(h.log, err)
	}
	key := hex.EncodeToString(keyBytes)

	apiKey := models.APIKey{
		UserID:    who.UserID,
		KeyHash:   auth.HashAPIKey(key),
		Hint:      "..." + key[len(key)-4:],
		Name:      input.Body.Name,
		ExpiresAt: input.Body.ExpiresAt,
	}
	if err := h.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return nil, renderError(h.log, err)
	}

	return &CreateAPIKeyOutput{
		Body: APIKeyResponse{
			ID:         apiKey.ID,
			Name:       apiKey.Name,
			Key:        key,
			CreatedAt:  apiKey.CreatedAt,
			ExpiresAt:  apiKey.ExpiresAt,
			LastUsedAt: apiKey.LastUsedAt,
		},
	}, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *struct{}) (*ListAPIKeysOutput, error) {
	who := identity.FromContext(ctx)
	if err := who.Require(); err != nil {
		return nil, renderError(h.log, err)
	}

	var apiKeys []models.APIKey
	if err := h.db.WithContext(ctx).Where("user_id = ?", who.UserID).Find(&apiKeys).Error; err != nil {
		return nil, renderError(h.log, err)
	}

	response := make([]APIKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		response = append(response, APIKeyResponse{
			ID:         k.ID,
			Name:       k.Name,
			Key:        k.Hint,
			CreatedAt:  k.CreatedAt,
			ExpiresAt:  k.ExpiresAt,
			LastUsedAt: k.LastUsedAt,
		})
	}
	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	who := identity.FromContext(ctx)
	if err := who.Require(); err != nil {
		return nil, renderError(h.log, err)
	}

	if err := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", input.ID, who.UserID).Delete(&models.APIKey{}).Error; err != nil {
		return nil, renderError(h.log, err)
	}
	return nil, nil
}
