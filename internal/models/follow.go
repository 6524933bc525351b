package models

import "time"

// FollowStatus is the lifecycle state of a follow edge
type FollowStatus string

const (
	FollowPending  FollowStatus = "Pending"
	FollowAccepted FollowStatus = "Accepted"
	FollowRejected FollowStatus = "Rejected"
)

// FollowStatusNone is reported for a pair that has no edge at all
const FollowStatusNone = "None"

// Follow is a directed follow edge. At most one row exists per
// (FollowerID, FollowedID); only Accepted rows count as a relationship.
type Follow struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	FollowerID  uint         `json:"follower_id" gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowedID  uint         `json:"followed_id" gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	Status      FollowStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	RequestDate time.Time    `json:"request_date" gorm:"not null;index"`
}

// FollowRequestView is a pending request enriched with the requester
type FollowRequestView struct {
	Follow
	Requester UserCompact `json:"requester"`
}
