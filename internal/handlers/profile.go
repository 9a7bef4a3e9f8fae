package handlers

import (
	"context"

	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProfileHandler(db *gorm.DB, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{db: db, log: log}
}

type MeOutput struct {
	Body struct {
		ID    uint        `json:"id"`
		Name  string      `json:"name"`
		Email string      `json:"email"`
		Image string      `json:"image"`
		Role  models.Role `json:"role"`
	}
}

func (h *ProfileHandler) HandleMe(ctx context.Context, input *struct{}) (*MeOutput, error) {
	who := identity.FromContext(ctx)
	if err := who.Require(); err != nil {
		return nil, renderError(h.log, err)
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, who.UserID).Error; err != nil {
		return nil, renderError(h.log, err)
	}

	out := &MeOutput{}
	out.Body.ID = user.ID
	out.Body.Name = user.Name
	out.Body.Email = user.Email
	out.Body.Image = user.Image
	out.Body.Role = user.Role
	return out, nil
}
