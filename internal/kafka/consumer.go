package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/ingest"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
)

// Consumer reads log-pipeline alert payloads from a broker topic and feeds
// them through the same ingestion path as the HTTP webhook.
type Consumer struct {
	reader *kafka.Reader
	svc    *ingest.Service
	logger *logging.Logger
}

func NewConsumer(brokers []string, topic, groupID string, svc *ingest.Service, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: reader, svc: svc, logger: logger}
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.reader.Config().Topic)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var payload map[string]any
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				c.logger.Errorf("Unmarshal message failed: %v", err)
				continue
			}

			res := c.svc.IngestLog(payload)
			c.logger.Debugf("Broker alert processed: %s", res.Status)
		}
	}()
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}
