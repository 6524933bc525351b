package services

import (
	"context"
	"encoding/json"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NotificationInput describes a user-facing alert to create
type NotificationInput struct {
	RecipientID   uint
	Type          string
	Title         string
	Body          string
	Link          string
	RelatedUserID uint // 0 when no user is involved
}

// NotificationSink accepts notifications to deliver
type NotificationSink interface {
	Create(ctx context.Context, in NotificationInput) error
}

// Publisher pushes an encoded notification to real-time subscribers
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Notifier persists notifications and publishes them for live delivery
type Notifier struct {
	repo      repositories.NotificationRepository
	publisher Publisher
	channel   string
	log       *logrus.Entry
}

// NewNotifier builds a Notifier. publisher may be nil, in which case
// notifications are only persisted.
func NewNotifier(repo repositories.NotificationRepository, publisher Publisher, channel string) *Notifier {
	return &Notifier{
		repo:      repo,
		publisher: publisher,
		channel:   channel,
		log:       logger.WithComponent("notifier"),
	}
}

func (n *Notifier) Create(ctx context.Context, in NotificationInput) error {
	notification := &models.Notification{
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Title:       in.Title,
		Body:        in.Body,
		Link:        in.Link,
	}
	if in.RelatedUserID != 0 {
		related := in.RelatedUserID
		notification.RelatedUserID = &related
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return err
	}

	if n.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		n.log.WithError(err).Warn("encode notification for publish")
		return nil
	}
	if err := n.publisher.Publish(ctx, n.channel, payload); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"recipient_id": in.RecipientID,
			"type":         in.Type,
		}).Warn("publish notification")
	}
	return nil
}

// RedisPublisher publishes on a Redis pub/sub channel
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return errors.Wrap(p.client.Publish(ctx, channel, payload).Err(), "redis publish")
}
