package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const metadataTimeout = 10 * time.Second

// TopicConfig describes the announcement topic.
//
// Announcements are keyed by a constant, so consumers only need the latest record and
// the topic is created log-compacted.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
}

// Validate checks that the topic can be created.
func (tc TopicConfig) Validate() error {
	if tc.Name == "" {
		return errors.New("topic name cannot be empty")
	}
	if tc.NumPartitions <= 0 {
		return fmt.Errorf("number of partitions must be > 0, got %d", tc.NumPartitions)
	}
	if tc.ReplicationFactor <= 0 {
		return fmt.Errorf("replication factor must be > 0, got %d", tc.ReplicationFactor)
	}
	return nil
}

// EnsureTopic creates the announcement topic when it does not exist.
//
// An existing topic is left untouched. Layout differences are logged because adding
// partitions would move the announcement key to a different partition.
func EnsureTopic(ctx context.Context, admin *kafka.AdminClient, tc TopicConfig, log *zap.SugaredLogger) error {
	if err := tc.Validate(); err != nil {
		return fmt.Errorf("invalid topic config: %w", err)
	}

	md, err := admin.GetMetadata(&tc.Name, false, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to get metadata for topic %q: %w", tc.Name, err)
	}

	topic, ok := md.Topics[tc.Name]
	switch {
	case !ok || topic.Error.Code() == kafka.ErrUnknownTopicOrPart:
		return createTopic(ctx, admin, tc, log)
	case topic.Error.Code() != kafka.ErrNoError:
		return fmt.Errorf("topic %q has error: %w", tc.Name, topic.Error)
	}

	partitions, rf := len(topic.Partitions), replicationFactor(topic)
	if partitions != tc.NumPartitions || rf != tc.ReplicationFactor {
		log.Warnw("announcement topic layout differs from config",
			"topic", tc.Name,
			"partitions", partitions,
			"wantPartitions", tc.NumPartitions,
			"replicationFactor", rf,
			"wantReplicationFactor", tc.ReplicationFactor,
		)
		return nil
	}
	log.Debugw("announcement topic exists", "topic", tc.Name, "partitions", partitions)
	return nil
}

func createTopic(ctx context.Context, admin *kafka.AdminClient, tc TopicConfig, log *zap.SugaredLogger) error {
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             tc.Name,
		NumPartitions:     tc.NumPartitions,
		ReplicationFactor: tc.ReplicationFactor,
		Config:            map[string]string{"cleanup.policy": "compact"},
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic %q: %w", tc.Name, err)
	}

	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError:
			log.Infow("created announcement topic",
				"topic", r.Topic,
				"partitions", tc.NumPartitions,
				"replicationFactor", tc.ReplicationFactor,
			)
		case kafka.ErrTopicAlreadyExists:
			// Another instance won the race.
			log.Debugw("announcement topic already exists", "topic", r.Topic)
		default:
			return fmt.Errorf("failed to create topic %q: %w", r.Topic, r.Error)
		}
	}
	return nil
}

func replicationFactor(md kafka.TopicMetadata) int {
	if len(md.Partitions) == 0 {
		return 0
	}
	return len(md.Partitions[0].Replicas)
}
