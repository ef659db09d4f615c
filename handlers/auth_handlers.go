package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"moodping/api/middleware"
	"moodping/api/models"
	"moodping/api/services"
	"moodping/api/utils"
)

type AuthHandlers struct {
	Auth         *services.AuthService
	TokenTTL     time.Duration
	SecureCookie bool
}

func NewAuthHandlers(auth *services.AuthService, tokenTTL time.Duration, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{Auth: auth, TokenTTL: tokenTTL, SecureCookie: secureCookie}
}

// KakaoLogin sends the browser to Kakao with a fresh state value.
func (h *AuthHandlers) KakaoLogin(c *gin.Context) {
	state, err := utils.GenerateState()
	if err != nil {
		respondError(c, err, "Failed to start login")
		return
	}
	target, err := h.Auth.AuthorizeURL(state)
	if err != nil {
		if errors.Is(err, services.ErrKakaoNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err, "Failed to start login")
		return
	}

	c.SetCookie(utils.OAuthStateCookie, state, int((10 * time.Minute).Seconds()), "/", "", h.SecureCookie, true)
	c.Redirect(http.StatusFound, target)
}

// KakaoCallback finishes the login, sets the auth cookie and redirects to
// the app with the token in the query string.
func (h *AuthHandlers) KakaoCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}
	expected, _ := c.Cookie(utils.OAuthStateCookie)
	if !utils.StateMatches(expected, c.Query("state")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(utils.OAuthStateCookie, "", -1, "/", "", h.SecureCookie, true)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	token, _, err := h.Auth.Login(ctx, code)
	if err != nil {
		if errors.Is(err, services.ErrProviderResponse) {
			log.Warnf("Kakao login rejected: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Kakao login failed"})
			return
		}
		respondError(c, err, "Kakao login failed")
		return
	}

	c.SetCookie(middleware.AuthCookie, token, int(h.TokenTTL.Seconds()), "/", "", h.SecureCookie, true)
	c.Redirect(http.StatusFound, "/?token="+url.QueryEscape(token))
}

func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.Auth.CurrentUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{
		ID:           user.ID,
		KakaoID:      user.KakaoID,
		Nickname:     user.Nickname,
		ProfileImage: user.ProfileImage,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", h.SecureCookie, true)
	log.Debug("User logged out (JWT cookie cleared)")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
