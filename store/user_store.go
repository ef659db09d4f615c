package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"moodping/api/models"
)

type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertKakaoUser creates the user for info.KakaoID or refreshes its profile fields.
func (s *UserStore) UpsertKakaoUser(ctx context.Context, info models.KakaoUserInfo) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (kakao_id, nickname, profile_image)
		VALUES ($1, $2, $3)
		ON CONFLICT (kakao_id) DO UPDATE
		SET nickname = EXCLUDED.nickname, profile_image = EXCLUDED.profile_image, updated_at = NOW()
		RETURNING id, kakao_id, nickname, profile_image, created_at, updated_at;
	`
	var nickname, image sql.NullString
	err := s.db.QueryRowContext(ctx, query, info.KakaoID, info.Nickname, info.ProfileImage).Scan(
		&user.ID,
		&user.KakaoID,
		&nickname,
		&image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert kakao user: %w", err)
	}
	user.Nickname = nullStringPtr(nickname)
	user.ProfileImage = nullStringPtr(image)

	log.Printf("User upserted in DB: ID=%d, KakaoID=%s", user.ID, user.KakaoID)
	return user, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, kakao_id, nickname, profile_image, created_at, updated_at
		FROM users
		WHERE id = $1;
	`
	var nickname, image sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.KakaoID,
		&nickname,
		&image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	user.Nickname = nullStringPtr(nickname)
	user.ProfileImage = nullStringPtr(image)

	return user, nil
}
