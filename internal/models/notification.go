package models

import "time"

const (
	NotificationFollowRequest  = "follow_request"
	NotificationNewFollower    = "new_follower"
	NotificationFollowAccepted = "follow_accepted"
	NotificationComment        = "comment"
)

// Notification is a user-facing alert (PostgreSQL)
type Notification struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RecipientID   uint      `json:"recipient_id" gorm:"not null;index"`
	Type          string    `json:"type" gorm:"size:30;index"`
	Title         string    `json:"title" gorm:"size:200"`
	Body          string    `json:"body"`
	Link          string    `json:"link"`
	RelatedUserID *uint     `json:"related_user_id,omitempty" gorm:"index"`
	IsRead        bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
}
