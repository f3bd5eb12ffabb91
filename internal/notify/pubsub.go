package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/arborhaus/arborhaus-backend/pkg/config"
)

// publisher is the slice of the Pub/Sub v2 publisher the dispatcher uses.
type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

// PubSubDispatcher publishes notification events to a Pub/Sub topic where the
// delivery worker picks them up.
type PubSubDispatcher struct {
	pub     publisher
	timeout time.Duration
}

// NewPubSubDispatcher connects to Pub/Sub and binds the configured topic.
func NewPubSubDispatcher(ctx context.Context, cfg config.NotifyConfig) (*PubSubDispatcher, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("gcp project id is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("notification topic is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	topic := cfg.Topic
	if !strings.HasPrefix(topic, "projects/") {
		topic = fmt.Sprintf("projects/%s/topics/%s", cfg.ProjectID, topic)
	}

	return &PubSubDispatcher{
		pub:     gcpPublisher{Publisher: client.Publisher(topic)},
		timeout: cfg.PublishTimeout,
	}, nil
}

// Dispatch implements Dispatcher by publishing the notification as JSON and
// waiting for server acknowledgement within the configured timeout.
func (d *PubSubDispatcher) Dispatch(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result := d.pub.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"template":  n.Template.String(),
			"recipient": n.Recipient,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
