package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email" gorm:"uniqueIndex"`
	Description string         `json:"description"`
	IsPrivate   bool           `json:"is_private" gorm:"default:false"`
	Role        string         `json:"role" gorm:"size:20;default:'User'"`
	Password    string         `json:"-"`                                         // bcrypt hash
	FirebaseUID *string        `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserCompact is the public projection of a user embedded in other payloads
type UserCompact struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	IsPrivate   bool   `json:"is_private"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, DisplayName: u.DisplayName, IsPrivate: u.IsPrivate}
}

type CreateLocalUserRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	IsPrivate   bool   `json:"is_private"`
}

func (r *CreateLocalUserRequest) Normalize() {
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest uses pointers so a false privacy flag can be sent explicitly
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.DisplayName != nil {
		trimmed := strings.TrimSpace(*r.DisplayName)
		r.DisplayName = &trimmed
	}
}

// ProfileView is what GET /users/:id returns to a viewer
type ProfileView struct {
	User           UserCompact `json:"user"`
	Description    string      `json:"description,omitempty"`
	IsMe           bool        `json:"is_me"`
	FollowStatus   string      `json:"follow_status"`
	FollowersCount int64       `json:"followers_count"`
	FollowingCount int64       `json:"following_count"`
	CanViewContent bool        `json:"can_view_content"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
