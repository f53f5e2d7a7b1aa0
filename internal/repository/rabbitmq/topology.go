// Package rabbitmq binds the pipeline to its durable transport. Queues are
// quorum queues with a delivery limit and a dead-letter exchange, so a
// message that keeps failing is quarantined instead of retrying forever.
package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange       = "jobs.exchange"
	PoisonExchange = "jobs.exchange.poison"

	StartQueue = "image.start"
	TaskQueue  = "image.process"

	// maxDeliveries is the attempt count after which the broker dead-letters
	// a message into its poison queue.
	maxDeliveries = 5
)

func poisonQueue(queue string) string {
	return queue + ".poison"
}

// EnsureTopology declares the exchanges, the start/task quorum queues and
// their poison counterparts. Every binary runs this on startup so queue
// consumers and publishers never race a missing queue.
func EnsureTopology(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	for _, exchange := range []string{Exchange, PoisonExchange} {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	for _, queue := range []string{StartQueue, TaskQueue} {
		args := amqp.Table{
			"x-queue-type":           "quorum",
			"x-delivery-limit":       int32(maxDeliveries),
			"x-dead-letter-exchange": PoisonExchange,
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, queue, Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}

		pq := poisonQueue(queue)
		if _, err := ch.QueueDeclare(pq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", pq, err)
		}
		if err := ch.QueueBind(pq, queue, PoisonExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", pq, err)
		}
	}

	return nil
}
