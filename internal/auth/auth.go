package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	CookieName         = "auth_token"
	stateCookieName    = "oauth_state"
	verifierCookieName = "oauth_verifier"

	TokenDuration = 24 * time.Hour
	loginDuration = 10 * time.Minute
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	db          *gorm.DB
	cfg         *config.Config
	log         *zap.Logger
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
		db:          db,
		cfg:         cfg,
		log:         log.Named("auth"),
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	h.setLoginCookie(w, stateCookieName, state, loginDuration)
	h.setLoginCookie(w, verifierCookieName, verifier, loginDuration)

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type googleUser struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid login state", http.StatusBadRequest)
		return
	}
	verifier, err := r.Cookie(verifierCookieName)
	if err != nil {
		http.Error(w, "Invalid login state", http.StatusBadRequest)
		return
	}
	h.setLoginCookie(w, stateCookieName, "", -1)
	h.setLoginCookie(w, verifierCookieName, "", -1)

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code, oauth2.VerifierOption(verifier.Value))
	if err != nil {
		h.log.Warn("token exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	profile, err := h.fetchUser(r, token)
	if err != nil {
		h.log.Warn("userinfo lookup failed", zap.Error(err))
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	user, err := h.upsertUser(profile)
	if err != nil {
		h.log.Error("saving user failed", zap.Error(err))
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	h.SetSessionCookie(w, jwtToken)
	h.log.Info("user signed in", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))

	if h.cfg.FrontendURL == "" {
		w.Write([]byte(fmt.Sprintf("Welcome %s! You are logged in.", user.Name)))
		return
	}
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*googleUser, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Sub == "" {
		return nil, errors.New("userinfo without subject")
	}
	return &u, nil
}

// upsertUser stores the Google profile. Listed admin emails are promoted;
// nobody is demoted here.
func (h *AuthHandler) upsertUser(profile *googleUser) (*models.User, error) {
	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{GoogleID: &profile.Sub}).Error; err != nil {
		return nil, err
	}
	user.Name = profile.Name
	user.Email = profile.Email
	user.Image = profile.Picture
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if h.cfg.IsAdminEmail(profile.Email) {
		user.Role = models.RoleAdmin
	}

	if err := h.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its user id and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, errors.New("token without expiry")
	}
	return uint(userIDFloat), exp.Time, nil
}

func (h *AuthHandler) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

func (h *AuthHandler) setLoginCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/auth",
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}
