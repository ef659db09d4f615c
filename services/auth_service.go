package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"moodping/api/config"
	"moodping/api/models"
	"moodping/api/utils"
)

var (
	ErrKakaoNotConfigured = errors.New("KAKAO_CLIENT_ID is not set")
	// ErrProviderResponse covers any unusable answer from Kakao.
	ErrProviderResponse = errors.New("unexpected response from kakao")
)

type UserRepository interface {
	UpsertKakaoUser(ctx context.Context, info models.KakaoUserInfo) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthService struct {
	cfg    config.KakaoConfig
	users  UserRepository
	tokens *utils.JWTManager
	client *http.Client
}

func NewAuthService(cfg config.KakaoConfig, users UserRepository, tokens *utils.JWTManager, client *http.Client) *AuthService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &AuthService{cfg: cfg, users: users, tokens: tokens, client: client}
}

// AuthorizeURL is where the browser is sent to log in with Kakao.
func (s *AuthService) AuthorizeURL(state string) (string, error) {
	if s.cfg.ClientID == "" {
		return "", ErrKakaoNotConfigured
	}
	q := url.Values{}
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	return s.cfg.AuthURL + "?" + q.Encode(), nil
}

// Login trades an authorization code for a Kakao profile, stores the user
// and issues our own JWT.
func (s *AuthService) Login(ctx context.Context, code string) (string, *models.User, error) {
	kakaoToken, err := s.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, err
	}
	info, err := s.FetchUser(ctx, kakaoToken)
	if err != nil {
		return "", nil, err
	}

	user, err := s.users.UpsertKakaoUser(ctx, info)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Generate(user.ID, user.KakaoID)
	if err != nil {
		return "", nil, err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "kakao_id": user.KakaoID}).Info("Kakao login succeeded")
	return token, user, nil
}

func (s *AuthService) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("redirect_uri", s.cfg.RedirectURI)
	form.Set("code", code)
	if s.cfg.ClientSecret != "" {
		form.Set("client_secret", s.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build kakao token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	body, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("kakao token request: %w", err)
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("%w: no access_token", ErrProviderResponse)
	}
	return token, nil
}

func (s *AuthService) FetchUser(ctx context.Context, accessToken string) (models.KakaoUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserInfoURL, nil)
	if err != nil {
		return models.KakaoUserInfo{}, fmt.Errorf("failed to build kakao user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := s.do(req)
	if err != nil {
		return models.KakaoUserInfo{}, fmt.Errorf("kakao user request: %w", err)
	}

	id := gjson.GetBytes(body, "id")
	if !id.Exists() || id.String() == "" {
		return models.KakaoUserInfo{}, fmt.Errorf("%w: profile has no id", ErrProviderResponse)
	}
	info := models.KakaoUserInfo{KakaoID: id.String()}
	if v := gjson.GetBytes(body, "properties.nickname"); v.Exists() && v.Type == gjson.String {
		info.Nickname = utils.StringPtr(v.String())
	}
	if v := gjson.GetBytes(body, "properties.profile_image"); v.Exists() && v.Type == gjson.String {
		info.ProfileImage = utils.StringPtr(v.String())
	}
	return info, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{"status": resp.StatusCode, "url": req.URL.Path}).Error("Kakao request failed")
		return nil, fmt.Errorf("%w: status %d", ErrProviderResponse, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrProviderResponse)
	}
	return body, nil
}
