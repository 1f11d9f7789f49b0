package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notesapi/config"
	"notesapi/log"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSubClient builds a client from the Google Cloud section of cfg.
func NewPubSubClient(ctx context.Context, cfg config.GoogleCloudConfig) (*pubsub.Client, error) {
	var opts []option.ClientOption
	if cfg.ServiceAccountFilename != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountFilename))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating pubsub client, %w", err)
	}
	return client, nil
}

// PubSubQueue publishes tasks to a topic and processes them from a
// subscription. Outstanding messages are capped at the worker count.
type PubSubQueue struct {
	client       *pubsub.Client
	topic        *pubsub.Topic
	subscription *pubsub.Subscription
	processor    Processor
	timeout      time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewPubSubQueue(client *pubsub.Client, topicID, subscriptionID string, processor Processor, workers int, publishTimeout time.Duration) *PubSubQueue {
	if workers < 1 {
		workers = 1
	}
	subscription := client.Subscription(subscriptionID)
	subscription.ReceiveSettings.MaxOutstandingMessages = workers
	subscription.ReceiveSettings.NumGoroutines = 1

	return &PubSubQueue{
		client:       client,
		topic:        client.Topic(topicID),
		subscription: subscription,
		processor:    processor,
		timeout:      publishTimeout,
	}
}

func (q *PubSubQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := task.Serialize()
	if err != nil {
		return fmt.Errorf("error serializing task, %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	id, err := q.topic.Publish(ctx, &pubsub.Message{Data: data}).Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	log.Logger().Debugf(nil, "published task %s: %s", id, string(data))
	return nil
}

func (q *PubSubQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.done = make(chan struct{})

	go func() {
		defer close(q.done)
		logger := log.Logger()

		err := q.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			task, err := DeserializeTask(msg.Data)
			if err != nil {
				logger.Errorf(nil, "error deserializing task, %s", err)
				msg.Ack()
				return
			}
			q.processor.Process(ctx, task)
			msg.Ack()
		})
		if err != nil {
			logger.Errorf(nil, "pubsub receive stopped: %v", err)
		}
	}()
}

func (q *PubSubQueue) Close() error {
	var err error
	q.once.Do(func() {
		q.topic.Stop()
		if q.cancel != nil {
			q.cancel()
			<-q.done
		}
		err = q.client.Close()
	})
	return err
}
