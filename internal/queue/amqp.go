package queue

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// AMQPQueue is the production transport: durable queues, manual acks,
// one nack-with-requeue before a failing message is dropped.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

func DialAMQP(url string, log zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (q *AMQPQueue) Subscribe(topic string, handler func(body []byte) error) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(topic, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				q.log.Warn().Str("topic", topic).Bool("redelivered", d.Redelivered).Err(err).Msg("message handling failed")
				// One requeue per message; a second failure drops it so a
				// poison message can't spin the consumer.
				if !d.Redelivered {
					d.Nack(false, true)
					continue
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

var _ Queue = (*AMQPQueue)(nil)
