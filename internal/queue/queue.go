package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TopicLeadEnrollments carries LeadEnrolledEvent payloads from the admin
// surface to the immediate-enrollment worker.
const TopicLeadEnrollments = "lead_enrollments"

// LeadEnrolledEvent is published when leads are added to an active campaign.
type LeadEnrolledEvent struct {
	CampaignID int   `json:"campaign_id"`
	LeadIDs    []int `json:"lead_ids"`
}

// Queue is the pub/sub transport. Payloads cross it as JSON so the
// in-memory and AMQP implementations are interchangeable.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(body []byte) error) error
}

// InMemoryQueue delivers messages to subscribers in-process, with retries.
// Used for local runs and tests; production uses AMQPQueue.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
	log      zerolog.Logger
}

func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(body []byte) error),
		log:      log,
	}
}

const maxRetries = 3

func (q *InMemoryQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, body)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler func(body []byte) error, body []byte) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := handler(body)
		if err == nil {
			return
		}

		q.log.Warn().
			Str("topic", topic).
			Int("attempt", attempt+1).
			Err(err).
			Msg("queue job failed")

		if attempt == maxRetries {
			q.log.Error().Str("topic", topic).Msg("queue job permanently failed")
			return
		}

		// Backoff grows with each attempt.
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
