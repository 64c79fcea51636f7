// Package queue publishes catalog announcements to durable queues.
//
// QueuePublisher is the abstraction the catalog host depends on; KafkaPublisher is the
// Kafka-backed implementation. Publishers require Close to be called to release
// resources and flush in-flight messages.
package queue
