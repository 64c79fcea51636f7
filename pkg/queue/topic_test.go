package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     TopicConfig
		wantErr string
	}{
		{name: "valid", cfg: TopicConfig{Name: "token-catalog", NumPartitions: 1, ReplicationFactor: 3}},
		{name: "empty name", cfg: TopicConfig{NumPartitions: 1, ReplicationFactor: 1}, wantErr: "topic name cannot be empty"},
		{name: "zero partitions", cfg: TopicConfig{Name: "t", ReplicationFactor: 1}, wantErr: "number of partitions"},
		{name: "zero replication", cfg: TopicConfig{Name: "t", NumPartitions: 1}, wantErr: "replication factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestKafkaConfig_TopicConfig(t *testing.T) {
	t.Setenv("KAFKA_TOPIC", "catalogs")
	t.Setenv("KAFKA_TOPIC_REPLICATION_FACTOR", "3")

	cfg, err := LoadKafkaConfig()
	require.NoError(t, err)
	require.True(t, cfg.EnsureTopic)
	require.Equal(t, TopicConfig{Name: "catalogs", NumPartitions: 1, ReplicationFactor: 3}, cfg.TopicConfig())

	clientID, err := cfg.AdminConfigMap().Get("client.id", "")
	require.NoError(t, err)
	require.Equal(t, "token-catalog-admin", clientID)
}
