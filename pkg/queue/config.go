package queue

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaConfig holds the producer settings for catalog announcements.
// Announcements are disabled when BootstrapServers is empty.
type KafkaConfig struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`                            // Kafka broker addresses
	Topic            string `env:"KAFKA_TOPIC"             envDefault:"token-catalog"` // Topic announcements are published to
	ClientID         string `env:"KAFKA_CLIENT_ID"         envDefault:"token-catalog"`
	Acks             string `env:"KAFKA_ACKS"              envDefault:"all"`   // Producer acks: "0", "1" or "all"
	EnableLogs       bool   `env:"KAFKA_ENABLE_LOGS"       envDefault:"false"` // Enable librdkafka client logs

	EnsureTopic            bool `env:"KAFKA_ENSURE_TOPIC"             envDefault:"true"` // Create the topic at startup when missing
	TopicPartitions        int  `env:"KAFKA_TOPIC_PARTITIONS"         envDefault:"1"`
	TopicReplicationFactor int  `env:"KAFKA_TOPIC_REPLICATION_FACTOR" envDefault:"1"`
}

// LoadKafkaConfig loads the producer configuration from environment variables.
func LoadKafkaConfig() (KafkaConfig, error) {
	var cfg KafkaConfig
	if err := env.Parse(&cfg); err != nil {
		return KafkaConfig{}, fmt.Errorf("failed to parse kafka config: %w", err)
	}
	return cfg, nil
}

// Enabled reports whether brokers are configured.
func (c KafkaConfig) Enabled() bool {
	return c.BootstrapServers != ""
}

// TopicConfig returns the layout used when creating the announcement topic.
func (c KafkaConfig) TopicConfig() TopicConfig {
	return TopicConfig{
		Name:              c.Topic,
		NumPartitions:     c.TopicPartitions,
		ReplicationFactor: c.TopicReplicationFactor,
	}
}

// AdminConfigMap builds the configuration for an admin client on the same brokers.
func (c KafkaConfig) AdminConfigMap() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
		"client.id":         c.ClientID + "-admin",
	}
}

// ConfigMap builds the librdkafka configuration for an idempotent producer.
func (c KafkaConfig) ConfigMap() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":      c.BootstrapServers,
		"client.id":              c.ClientID,
		"acks":                   c.Acks,
		"enable.idempotence":     c.Acks == "all",
		"go.logs.channel.enable": c.EnableLogs,
	}
}
