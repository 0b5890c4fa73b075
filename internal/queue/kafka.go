package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

const documentChangeTopic = "document.changes"

var _ DocumentQueue = (*KafkaQueue)(nil)

// KafkaQueue publishes document changes to a Kafka topic keyed by document id.
type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaQueue(brokers string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	q := &KafkaQueue{producer: producer, topic: documentChangeTopic}

	go func() {
		for e := range producer.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				logrus.Errorf("document change delivery failed: %v", m.TopicPartition.Error)
			}
		}
	}()

	return q, nil
}

func (q *KafkaQueue) PublishChange(ctx context.Context, change *DocumentChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return q.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(change.DocumentID),
		Value:          payload,
	}, nil)
}

func (q *KafkaQueue) Close() error {
	q.producer.Flush(5000)
	q.producer.Close()
	return nil
}
