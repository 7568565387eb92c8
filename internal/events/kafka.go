package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher sends events through a synchronous producer keyed by user
// name, so one colleague's events stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	log      *logrus.Entry
}

// NewSaramaConfig is the producer configuration: every in-sync replica must
// acknowledge, with five retries.
func NewSaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second
	return saramaConfig
}

func NewKafkaPublisher(cfg models.KafkaConfig, log *logrus.Entry) (*KafkaPublisher, error) {
	brokerList := strings.Split(cfg.BrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	log.WithField("brokers", brokerList).Info("kafka producer ready")
	return NewKafkaPublisherWithProducer(producer, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, log *logrus.Entry) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (k *KafkaPublisher) Publish(ctx context.Context, topic string, event models.LedgerEvent) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("eventType"), Value: []byte(event.Type)},
		},
	}
	if event.UserName != "" {
		msg.Key = sarama.StringEncoder(event.UserName)
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", event.Type, topic, err)
	}
	k.log.WithFields(logrus.Fields{
		"topic":     topic,
		"type":      event.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("event published")
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
