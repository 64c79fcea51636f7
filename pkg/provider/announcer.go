package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/queue"
	"github.com/ava-labs/token-catalog/pkg/tokens"
	"go.uber.org/zap"
)

// AnnouncementKey is the message key of every catalog announcement, so that all
// announcements land on the same partition in order.
const AnnouncementKey = "catalog"

// Announcer is told about every catalog that becomes current.
type Announcer interface {
	Announce(ctx context.Context, s Snapshot) error
}

// Announcement is the payload published for a ready catalog.
type Announcement struct {
	MountID string          `json:"mountId"`
	ReadyAt time.Time       `json:"readyAt"`
	Tokens  *tokens.Catalog `json:"tokens"`
}

// QueueAnnouncer publishes catalog snapshots to a queue topic.
type QueueAnnouncer struct {
	publisher queue.QueuePublisher
	topic     string
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

func NewQueueAnnouncer(
	publisher queue.QueuePublisher,
	topic string,
	log *zap.SugaredLogger,
	m *metrics.Metrics,
) *QueueAnnouncer {
	return &QueueAnnouncer{
		publisher: publisher,
		topic:     topic,
		log:       log,
		metrics:   m,
	}
}

// Announce publishes s. Only ready snapshots are published.
func (a *QueueAnnouncer) Announce(ctx context.Context, s Snapshot) (err error) {
	if s.State != StateReady {
		return fmt.Errorf("cannot announce %s catalog %s", s.State, s.ID)
	}

	start := time.Now()
	defer func() {
		a.metrics.RecordAnnouncement(err, time.Since(start).Seconds())
	}()

	value, err := json.Marshal(Announcement{
		MountID: s.ID,
		ReadyAt: s.ReadyAt.UTC(),
		Tokens:  s.Catalog,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal announcement: %w", err)
	}

	err = a.publisher.Publish(ctx, queue.Msg{
		Topic: a.topic,
		Key:   []byte(AnnouncementKey),
		Value: value,
		Headers: map[string]string{
			"mountId": s.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}

	a.log.Debugw("announced token catalog",
		"mountId", s.ID,
		"topic", a.topic,
		"tokens", s.Catalog.Len(),
	)
	return nil
}
