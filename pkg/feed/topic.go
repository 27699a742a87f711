package feed

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type TopicCreator struct {
	logger *zap.Logger
	dialer KafkaDialer
	clock  Clock
}

func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer, clock Clock) *TopicCreator {
	return &TopicCreator{
		logger: logger,
		dialer: dialer,
		clock:  clock,
	}
}

// Create makes sure topicName exists. Failures are logged, not returned:
// the writer still works against brokers with auto topic creation.
func (tc *TopicCreator) Create(ctx context.Context, brokers []string, topicName string) {
	var conn KafkaConn
	var err error

	for _, addr := range brokers {
		conn, err = tc.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
	}
	if conn == nil {
		tc.logger.Warn("Failed to dial brokers", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		tc.logger.Warn("Failed to get controller", zap.Error(err))
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := tc.dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		tc.logger.Warn("Failed to dial controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     4,
		ReplicationFactor: 1,
	})

	if err != nil {
		tc.logger.Info("Topic creation finished (might already exist)", zap.Error(err))
	} else {
		tc.logger.Info("Topic creation request sent", zap.String("topic", topicName))
	}

	tc.waitForTopic(conn, topicName)
}

func (tc *TopicCreator) waitForTopic(conn KafkaConn, topicName string) {
	for i := 0; i < 5; i++ {
		tc.clock.Sleep(200 * time.Millisecond)
		partitions, err := conn.ReadPartitions(topicName)
		if err == nil && len(partitions) > 0 {
			tc.logger.Info("Topic is ready", zap.String("topic", topicName), zap.Int("partitions", len(partitions)))
			return
		}
	}
	tc.logger.Warn("Timed out waiting for topic", zap.String("topic", topicName))
}
