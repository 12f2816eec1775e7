package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publish sends msg through the confirming publish channel and waits for the
// broker's confirm. An empty exchange addresses the queue named routingKey.
func (client *Client) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	// quick fail if no channel
	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false /* immediate */, msg); err != nil {
		return err
	}

	select {
	case c, ok := <-confirms:
		if !ok {
			return errors.New("rabbitmq: confirm stream closed")
		}
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
	case <-ctx.Done():
		// keep the confirm stream aligned: consume exactly one confirm even if we return a timeout to the caller
		select {
		case c, ok := <-confirms:
			if ok && !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(2 * time.Second):
		}
		return ctx.Err()
	}

	return nil
}
