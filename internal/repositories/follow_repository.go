package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrFollowExists is returned by CreateFollow when the ordered pair already has an edge
var ErrFollowExists = errors.New("follow edge already exists for this pair")

// FollowRepository defines the storage operations on follow edges.
// Every mutation is a single conditional statement; the boolean results
// report whether a row matched.
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	GetFollowByPair(ctx context.Context, followerID, followedID uint) (*models.Follow, error)
	GetFollowByID(ctx context.Context, id uint) (*models.Follow, error)
	TransitionStatus(ctx context.Context, id, followedID uint, from, to models.FollowStatus, at time.Time) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followedID uint, status models.FollowStatus) (bool, error)
	ListByFollowed(ctx context.Context, followedID uint, status models.FollowStatus) ([]models.Follow, error)
	CountByFollowed(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error)
	CountByFollower(ctx context.Context, followerID uint, status models.FollowStatus) (int64, error)
	GetFollowers(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowing(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts a new edge. A unique-pair violation is reported as ErrFollowExists.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrFollowExists
		}
		return errors.Wrap(err, "create follow")
	}
	return nil
}

// GetFollowByPair returns the edge for the ordered pair, or nil if there is none
func (r *PostgresFollowRepository) GetFollowByPair(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get follow by pair")
	}
	return &follow, nil
}

// GetFollowByID returns the edge with the given id, or nil if there is none
func (r *PostgresFollowRepository) GetFollowByID(ctx context.Context, id uint) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).First(&follow, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get follow by id")
	}
	return &follow, nil
}

// TransitionStatus moves edge id from one status to another, only if it is
// still addressed to followedID and still in the expected status.
func (r *PostgresFollowRepository) TransitionStatus(ctx context.Context, id, followedID uint, from, to models.FollowStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("id = ? AND followed_id = ? AND status = ?", id, followedID, from).
		Updates(map[string]interface{}{"status": to, "request_date": at})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "transition follow status")
	}
	return res.RowsAffected > 0, nil
}

// DeleteFollow removes the pair's edge if it is in the given status
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followedID uint, status models.FollowStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ? AND status = ?", followerID, followedID, status).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "delete follow")
	}
	return res.RowsAffected > 0, nil
}

// ListByFollowed returns edges addressed to followedID in the given status, newest first
func (r *PostgresFollowRepository) ListByFollowed(ctx context.Context, followedID uint, status models.FollowStatus) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Where("followed_id = ? AND status = ?", followedID, status).
		Order("request_date DESC").
		Order("id DESC").
		Find(&follows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list follows by followed")
	}
	return follows, nil
}

func (r *PostgresFollowRepository) CountByFollowed(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ? AND status = ?", followedID, status).
		Count(&count).Error
	return count, errors.Wrap(err, "count followers")
}

func (r *PostgresFollowRepository) CountByFollower(ctx context.Context, followerID uint, status models.FollowStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND status = ?", followerID, status).
		Count(&count).Error
	return count, errors.Wrap(err, "count following")
}

// GetFollowers returns the users with an Accepted edge towards userID, most recent first
func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ? AND follows.status = ?", userID, models.FollowAccepted).
		Order("follows.request_date DESC").
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "get followers")
	}
	return users, nil
}

// GetFollowing returns the users userID has an Accepted edge towards, most recent first
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ? AND follows.status = ?", userID, models.FollowAccepted).
		Order("follows.request_date DESC").
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "get following")
	}
	return users, nil
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND status = ?", userID, models.FollowAccepted).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "get following ids")
	}
	return ids, nil
}

// isUniqueViolation recognises unique-constraint failures from drivers that
// do not translate them to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
