package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxFollowAttempts bounds how often SendFollowRequest re-reads an edge
// after losing a race to a concurrent writer.
const maxFollowAttempts = 3

// FollowService owns the lifecycle of follow edges:
//
//	(none)   --request--> Accepted (public target) | Pending (private target)
//	Pending  --accept-->  Accepted
//	Pending  --reject-->  Rejected
//	Pending  --cancel-->  (none)
//	Accepted --unfollow-> (none)
//	Rejected --request--> Accepted | Pending, by the target's current privacy
//
// Repeated requests on a Pending or Accepted edge change nothing.
type FollowService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	notifier NotificationSink
	now      func() time.Time
	log      *logrus.Entry
}

func NewFollowService(users repositories.UserRepository, follows repositories.FollowRepository, notifier NotificationSink) *FollowService {
	return &FollowService{
		users:    users,
		follows:  follows,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithComponent("follow-service"),
	}
}

// SendFollowRequest creates or revives the follower's edge towards targetID
// and returns it. Pending and Accepted edges are returned untouched.
func (s *FollowService) SendFollowRequest(ctx context.Context, followerID, targetID uint) (*models.Follow, error) {
	if followerID == 0 || targetID == 0 || followerID == targetID {
		return nil, ErrInvalidTarget
	}
	// a token can outlive its account
	if err := s.requireUser(ctx, followerID); err != nil {
		return nil, err
	}

	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	status := models.FollowAccepted
	if target.IsPrivate {
		status = models.FollowPending
	}

	for attempt := 0; attempt < maxFollowAttempts; attempt++ {
		edge, err := s.follows.GetFollowByPair(ctx, followerID, targetID)
		if err != nil {
			return nil, err
		}

		switch {
		case edge == nil:
			edge = &models.Follow{
				FollowerID:  followerID,
				FollowedID:  targetID,
				Status:      status,
				RequestDate: s.now(),
			}
			if err := s.follows.CreateFollow(ctx, edge); err != nil {
				if errors.Is(err, repositories.ErrFollowExists) {
					s.log.WithFields(pairFields(followerID, targetID)).Debug("follow created concurrently, retrying as update")
					continue
				}
				return nil, err
			}

		case edge.Status == models.FollowRejected:
			at := s.now()
			moved, err := s.follows.TransitionStatus(ctx, edge.ID, targetID, models.FollowRejected, status, at)
			if err != nil {
				return nil, err
			}
			if !moved {
				continue
			}
			edge.Status = status
			edge.RequestDate = at

		default:
			return edge, nil
		}

		s.notifyTarget(ctx, edge)
		return edge, nil
	}

	s.log.WithFields(pairFields(followerID, targetID)).Warn("follow request kept losing to concurrent writers")
	return nil, ErrConflict
}

// ListPendingRequests returns the requests awaiting targetID's decision, newest first
func (s *FollowService) ListPendingRequests(ctx context.Context, targetID uint) ([]models.Follow, error) {
	return s.follows.ListByFollowed(ctx, targetID, models.FollowPending)
}

// Accept approves a pending request addressed to targetID and tells the follower
func (s *FollowService) Accept(ctx context.Context, requestID, targetID uint) error {
	edge, err := s.decide(ctx, requestID, targetID, models.FollowAccepted)
	if err != nil {
		return err
	}

	name := s.displayName(ctx, targetID)
	s.notify(ctx, NotificationInput{
		RecipientID:   edge.FollowerID,
		Type:          models.NotificationFollowAccepted,
		Title:         "Follow request accepted",
		Body:          fmt.Sprintf("%s accepted your follow request", name),
		Link:          fmt.Sprintf("/users/%d", targetID),
		RelatedUserID: targetID,
	})
	return nil
}

// Reject declines a pending request addressed to targetID. The follower is not told.
func (s *FollowService) Reject(ctx context.Context, requestID, targetID uint) error {
	_, err := s.decide(ctx, requestID, targetID, models.FollowRejected)
	return err
}

func (s *FollowService) decide(ctx context.Context, requestID, targetID uint, to models.FollowStatus) (*models.Follow, error) {
	edge, err := s.follows.GetFollowByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge == nil || edge.FollowedID != targetID || edge.Status != models.FollowPending {
		return nil, ErrFollowRequestNotFound
	}

	at := s.now()
	moved, err := s.follows.TransitionStatus(ctx, requestID, targetID, models.FollowPending, to, at)
	if err != nil {
		return nil, err
	}
	if !moved {
		// cancelled or decided since we read it
		return nil, ErrFollowRequestNotFound
	}
	edge.Status = to
	edge.RequestDate = at
	return edge, nil
}

// Unfollow removes an Accepted edge. Anything else is left as is.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.remove(ctx, followerID, targetID, models.FollowAccepted)
}

// CancelRequest withdraws a Pending edge. Anything else is left as is.
func (s *FollowService) CancelRequest(ctx context.Context, followerID, targetID uint) error {
	return s.remove(ctx, followerID, targetID, models.FollowPending)
}

func (s *FollowService) remove(ctx context.Context, followerID, targetID uint, status models.FollowStatus) error {
	if followerID == 0 || targetID == 0 {
		return ErrInvalidTarget
	}
	removed, err := s.follows.DeleteFollow(ctx, followerID, targetID, status)
	if err != nil {
		return err
	}
	if !removed {
		s.log.WithFields(pairFields(followerID, targetID)).WithField("status", status).Debug("nothing to remove")
	}
	return nil
}

// IsAccepted reports whether a follows b with an Accepted edge
func (s *FollowService) IsAccepted(ctx context.Context, a, b uint) (bool, error) {
	edge, err := s.follows.GetFollowByPair(ctx, a, b)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.Status == models.FollowAccepted, nil
}

// FollowStatus is the viewer's edge status towards target, or "None"
func (s *FollowService) FollowStatus(ctx context.Context, viewerID, targetID uint) (string, error) {
	edge, err := s.follows.GetFollowByPair(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if edge == nil {
		return models.FollowStatusNone, nil
	}
	return string(edge.Status), nil
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return s.follows.CountByFollowed(ctx, userID, models.FollowAccepted)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.follows.CountByFollower(ctx, userID, models.FollowAccepted)
}

// CanViewContent: the target themself, anyone for a public target, and
// accepted followers for a private one. viewerID 0 is an anonymous viewer.
func (s *FollowService) CanViewContent(ctx context.Context, viewerID, targetID uint) (bool, error) {
	if viewerID != 0 && viewerID == targetID {
		return true, nil
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, ErrUserNotFound
	}
	if !target.IsPrivate {
		return true, nil
	}
	if viewerID == 0 {
		return false, nil
	}
	return s.IsAccepted(ctx, viewerID, targetID)
}

// ListFollowers returns userID's accepted followers, most recent first
func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.GetFollowers(ctx, userID)
}

// ListFollowing returns the accounts userID follows, most recent first
func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.GetFollowing(ctx, userID)
}

// FollowingIDs returns the ids of accounts userID follows with an Accepted edge
func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.follows.GetFollowingIDs(ctx, userID)
}

func (s *FollowService) requireUser(ctx context.Context, userID uint) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

func (s *FollowService) notifyTarget(ctx context.Context, edge *models.Follow) {
	name := s.displayName(ctx, edge.FollowerID)
	in := NotificationInput{
		RecipientID:   edge.FollowedID,
		RelatedUserID: edge.FollowerID,
	}
	switch edge.Status {
	case models.FollowPending:
		in.Type = models.NotificationFollowRequest
		in.Title = "New follow request"
		in.Body = fmt.Sprintf("%s wants to follow you", name)
		in.Link = "/follow-requests"
	case models.FollowAccepted:
		in.Type = models.NotificationNewFollower
		in.Title = "New follower"
		in.Body = fmt.Sprintf("%s started following you", name)
		in.Link = fmt.Sprintf("/users/%d", edge.FollowerID)
	default:
		return
	}
	s.notify(ctx, in)
}

// notify never fails the caller: the edge write has already happened
func (s *FollowService) notify(ctx context.Context, in NotificationInput) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Create(ctx, in); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"recipient_id": in.RecipientID,
			"type":         in.Type,
		}).Warn("notification dropped")
	}
}

func (s *FollowService) displayName(ctx context.Context, userID uint) string {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user == nil || user.DisplayName == "" {
		return "Someone"
	}
	return user.DisplayName
}

func pairFields(followerID, targetID uint) logrus.Fields {
	return logrus.Fields{"follower_id": followerID, "followed_id": targetID}
}
