package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
)

// Ping succeeds if any configured broker accepts a connection.
func Ping(ctx context.Context, cfg config.KafkaConfig) error {
	var lastErr error
	for _, broker := range cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("no kafka brokers configured")
	}
	return fmt.Errorf("dialing kafka: %w", lastErr)
}
