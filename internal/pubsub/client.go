package pubsub

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const publishTimeout = 10 * time.Second

func New(projectID string) PubSubClient {
	ctx := context.Background()
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	teardown := func() {
		pubSubC.Close()
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}
}

func (c *client) SendMessage(ctx context.Context, topic EventType, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}

	// Publishing must outlive a client that hung up right after the commit.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := c.client.Topic(string(topic)).Publish(ctx, &pubsub.Message{Data: msgpackData})
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return err
	}
	log.Info("SendMessage", "topic", topic, "serverID", serverID)
	return nil
}

func (c *client) Close() {
	c.teardown()
}

// NewLoopback returns a client that encodes messages like the Pub/Sub client
// but hands them straight to deliver instead of a topic.
func NewLoopback(deliver func(ctx context.Context, topic EventType, data []byte) error) PubSubClient {
	return &loopback{deliver: deliver}
}

func (l *loopback) SendMessage(ctx context.Context, topic EventType, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	log.Debug("Delivering message in-process", "topic", topic)
	if l.deliver == nil {
		return nil
	}
	return l.deliver(context.WithoutCancel(ctx), topic, msgpackData)
}

func (l *loopback) Close() {}

// DecodeEvent unpacks a LadderEvent from a message body written by SendMessage.
func DecodeEvent(data []byte) (*LadderEvent, error) {
	var ev LadderEvent
	if err := msgpack.Unmarshal(data, &ev); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return nil, err
	}
	return &ev, nil
}
