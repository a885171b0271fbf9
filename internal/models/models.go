package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	AvatarURL          *string    `json:"avatar_url"`
	HashedPassword     string     `json:"-"`
	HashedRefreshToken *string    `json:"-"`
	IsActive           bool       `json:"is_active"`
	IsAdmin            bool       `json:"is_admin"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"-"`
}

// TokenUser is the public slice of a user embedded into token claims.
// Password and refresh-token hashes never go here.
type TokenUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	IsAdmin   bool      `json:"is_admin"`
}

func (u User) Public() TokenUser {
	return TokenUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		IsAdmin:   u.IsAdmin,
	}
}
