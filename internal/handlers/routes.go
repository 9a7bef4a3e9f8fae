package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/community-events/internal/auth"
	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Auth         *auth.AuthHandler
	Events       *EventHandler
	Admin        *AdminHandler
	Registration *RegistrationHandler
	APIKeys      *APIKeyHandler
	Profile      *ProfileHandler
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, log *zap.Logger, h Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.CORSOrigin))
	}
	r.Use(h.Auth.Identify)

	huma.NewError = newHumaError

	// Initialize Huma API
	apiConfig := huma.DefaultConfig("Community Events API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, apiConfig)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/google/login", h.Auth.HandleLogin)
	r.Get("/auth/google/callback", h.Auth.HandleCallback)
	r.Post("/auth/logout", h.Auth.HandleLogout)

	huma.Get(api, "/events", h.Events.HandleList)
	huma.Get(api, "/events/{id}", h.Events.HandleGet)

	// Signed-in routes
	signedIn := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}
	huma.Get(api, "/me", h.Profile.HandleMe, signedIn)
	huma.Get(api, "/my-events", h.Events.HandleMyEvents, signedIn)
	huma.Post(api, "/events/{id}/registration", h.Registration.HandleRegister, signedIn)
	huma.Delete(api, "/events/{id}/registration", h.Registration.HandleCancel, signedIn)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, signedIn)
	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, signedIn)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, signedIn)

	// Admin routes
	huma.Get(api, "/admin/events", h.Admin.HandleList, signedIn)
	huma.Post(api, "/admin/events", h.Admin.HandleCreate, signedIn, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
	})
	huma.Put(api, "/admin/events/{id}", h.Admin.HandleUpdate, signedIn)
	huma.Post(api, "/admin/events/{id}/status", h.Admin.HandleSetStatus, signedIn, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusNoContent
	})
	huma.Get(api, "/admin/events/{id}/registrations", h.Admin.HandleRegistrations, signedIn)
	huma.Get(api, "/admin/events/{id}/history", h.Admin.HandleHistory, signedIn)
	huma.Post(api, "/admin/events/{id}/checkin", h.Registration.HandleCheckIn, signedIn)

	return api
}
