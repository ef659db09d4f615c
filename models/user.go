package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	KakaoID      string    `json:"kakao_id"`
	Nickname     *string   `json:"nickname,omitempty"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// KakaoUserInfo is the subset of the Kakao profile the API keeps.
type KakaoUserInfo struct {
	KakaoID      string
	Nickname     *string
	ProfileImage *string
}

type UserResponse struct {
	ID           int64   `json:"id"`
	KakaoID      string  `json:"kakao_id"`
	Nickname     *string `json:"nickname"`
	ProfileImage *string `json:"profile_image"`
}
