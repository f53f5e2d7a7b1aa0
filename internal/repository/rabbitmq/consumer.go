package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one delivered message body. A non-nil error NACKs
// the delivery with requeue, so the broker redelivers it until the queue's
// delivery limit quarantines it.
type HandlerFunc func(ctx context.Context, body []byte) error

type Consumer struct {
	channel     *amqp.Channel
	queue       string
	handler     HandlerFunc
	prefetchCnt int
	log         *logrus.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, handler HandlerFunc, log *logrus.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &Consumer{
		channel:     ch,
		queue:       queue,
		handler:     handler,
		prefetchCnt: 1,
		log:         log,
	}

	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

// Start pulls deliveries until ctx is cancelled or the channel closes. Each
// delivery is handled in its own goroutine; acknowledgement follows the
// handler outcome, never precedes it, so a crash mid-handler redelivers.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			c.log.WithField("queue", c.queue).Info("consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.log.WithField("queue", c.queue).Warn("delivery channel closed")
				return nil
			}

			go func(msg amqp.Delivery) {
				if err := c.handler(ctx, msg.Body); err != nil {
					c.log.WithFields(logrus.Fields{
						"queue":       c.queue,
						"redelivered": msg.Redelivered,
					}).WithError(err).Error("message handling failed")
					// Requeue; the delivery limit dead-letters repeat offenders.
					if nackErr := msg.Nack(false, true); nackErr != nil {
						c.log.WithError(nackErr).Error("nack failed")
					}
					return
				}
				if ackErr := msg.Ack(false); ackErr != nil {
					c.log.WithError(ackErr).Error("ack failed")
				}
			}(msg)
		}
	}
}
