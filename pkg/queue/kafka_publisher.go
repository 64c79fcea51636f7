package queue

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	flushTimeoutMs   = 10000
	queueFullBackoff = time.Second
)

// KafkaPublisher is a synchronous Kafka producer implementation of QueuePublisher.
//
// Publish blocks until a delivery confirmation is received from Kafka.
// Background goroutines process producer events and, when enabled, librdkafka logs.
//
// Close MUST be called to stop background goroutines and flush in-flight messages.
type KafkaPublisher struct {
	producer   *kafka.Producer
	log        *zap.SugaredLogger
	errCh      chan error
	eventsDone chan struct{}
	logsDone   chan struct{}
	closedCh   chan struct{}
	once       sync.Once
}

// NewKafkaPublisher creates a Kafka-backed QueuePublisher.
//
// The provided context controls the lifetime of background goroutines.
// Callers must call Close to flush messages and release resources.
func NewKafkaPublisher(ctx context.Context, conf *kafka.ConfigMap, log *zap.SugaredLogger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logsChEnabled, err := conf.Get("go.logs.channel.enable", false)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to get go.logs.channel.enable: %w", err)
	}

	kq := KafkaPublisher{
		producer:   p,
		log:        log,
		eventsDone: make(chan struct{}),
		logsDone:   make(chan struct{}),
		errCh:      make(chan error, 1),
		closedCh:   make(chan struct{}),
	}

	if enabled, _ := logsChEnabled.(bool); enabled {
		go kq.printKafkaLogs(ctx)
	} else {
		close(kq.logsDone)
	}

	go kq.monitorProducerEvents(ctx)

	return &kq, nil
}

// Publish synchronously publishes a message to Kafka.
//
// Publish blocks until either a delivery receipt is received or ctx is done. A full
// producer queue is retried after a short backoff.
//
// If ctx is canceled before delivery confirmation, Publish returns ctx.Err(). The message
// MAY still be delivered after Publish returns, so consumers of announcements must
// tolerate duplicates.
func (q *KafkaPublisher) Publish(ctx context.Context, msg Msg) error {
	select {
	case <-q.closedCh:
		return fmt.Errorf("kafka publisher closed")
	default:
	}

	// Buffered so a late delivery report after ctx cancellation does not block librdkafka.
	deliveryCh := make(chan kafka.Event, 1)

	kMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &msg.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: toKafkaHeaders(msg.Headers),
	}

	if err := q.produceWithRetry(ctx, kMsg, deliveryCh); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryCh:
		return handleDeliveryEvent(q.log, kMsg, e)
	}
}

// Close stops background goroutines and flushes all pending messages.
//
// If ctx is canceled while flushing, Close gives up and closes the producer, which may
// lose messages. Calling Close more than once does nothing.
func (q *KafkaPublisher) Close(ctx context.Context) {
	q.once.Do(func() {
		q.log.Info("closing kafka publisher")
		defer close(q.errCh)

		close(q.closedCh)
		<-q.eventsDone
		<-q.logsDone

		for q.producer.Flush(flushTimeoutMs) > 0 {
			q.log.Warn("producer queue not flushed, retrying")
			select {
			case <-ctx.Done():
				q.log.Info("context done, stopping producer flush")
				q.producer.Close()
				return
			default:
			}
		}

		q.producer.Close()
		q.log.Info("kafka publisher closed")
	})
}

// Errors returns a channel that receives at most one fatal error.
// The channel is closed when the publisher shuts down.
//
// After receiving an error, the publisher is no longer usable.
func (q *KafkaPublisher) Errors() <-chan error {
	return q.errCh
}

func (q *KafkaPublisher) printKafkaLogs(ctx context.Context) {
	defer close(q.logsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case log, ok := <-q.producer.Logs():
			if !ok {
				return
			}
			q.log.Debugw("librdkafka", "level", log.Level, "tag", log.Tag, "message", log.Message)
		}
	}
}

// produceWithRetry enqueues msg, retrying while the local producer queue is full.
// Any other produce error is returned.
func (q *KafkaPublisher) produceWithRetry(
	ctx context.Context,
	msg *kafka.Message,
	deliveryCh chan kafka.Event,
) error {
	for {
		err := q.producer.Produce(msg, deliveryCh)
		if err == nil {
			return nil
		}

		kafkaErr, ok := err.(kafka.Error)
		if !ok {
			return fmt.Errorf("failed to produce: %w", err)
		}

		switch kafkaErr.Code() {
		case kafka.ErrQueueFull:
			q.log.Warn("producer queue full, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(queueFullBackoff):
			}
		case kafka.ErrBrokerNotAvailable:
			return fmt.Errorf("broker not available: %w", err)
		case kafka.ErrMsgSizeTooLarge, kafka.ErrInvalidMsgSize:
			return fmt.Errorf("invalid message size (%d bytes): %w", len(msg.Value), err)
		case kafka.ErrUnknownTopicOrPart:
			return fmt.Errorf("unknown topic or partition %q: %w", *msg.TopicPartition.Topic, err)
		case kafka.ErrAuthentication:
			return fmt.Errorf("authentication error: %w", err)
		default:
			return fmt.Errorf("failed to produce: %w", err)
		}
	}
}

func (q *KafkaPublisher) monitorProducerEvents(ctx context.Context) {
	defer close(q.eventsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case ev, ok := <-q.producer.Events():
			if !ok {
				q.reportFatal(fmt.Errorf("kafka producer event channel closed"))
				return
			}

			switch e := ev.(type) {
			case *kafka.Message:
				// Delivery reports go to the per-message channel; anything here is unexpected.
				q.log.Warnw("unsolicited delivery report", "topicPartition", e.TopicPartition)
			case kafka.Error:
				if e.IsFatal() || e.Code() == kafka.ErrAllBrokersDown {
					q.reportFatal(fmt.Errorf("fatal kafka error %#x: %w", e.Code(), e))
					return
				}
				q.log.Warnw("ignoring kafka error", "code", e.Code(), "error", e)
			default:
				q.log.Debugw("ignoring kafka event", "event", e.String())
			}
		}
	}
}

func (q *KafkaPublisher) reportFatal(err error) {
	select {
	case q.errCh <- err:
	default:
		q.log.Warnw("error channel is full, dropping error", "error", err)
	}
}

// toKafkaHeaders converts headers in key order so that identical messages carry
// identical header lists.
func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}

func handleDeliveryEvent(log *zap.SugaredLogger, msg *kafka.Message, ev kafka.Event) error {
	switch e := ev.(type) {
	case *kafka.Message:
		if err := e.TopicPartition.Error; err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}

		if !slices.Equal(e.Value, msg.Value) {
			return fmt.Errorf("delivery receipt did not match the published value")
		}

		log.Debugw("message delivered",
			"topic", *msg.TopicPartition.Topic,
			"partition", e.TopicPartition.Partition,
			"offset", e.TopicPartition.Offset,
		)
		return nil

	case kafka.Error:
		return fmt.Errorf("kafka error: code=%d fatal=%t: %w", e.Code(), e.IsFatal(), e)

	default:
		return fmt.Errorf("unexpected delivery event: %T", ev)
	}
}
