package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/rpc"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Message headers of the AMQP transport.
const (
	HeaderMethod = "rpc-method"
	HeaderStatus = "rpc-status"

	directReplyTo = "amq.rabbitmq.reply-to"
)

// Dispatcher runs one decoded call, see rpc.Server.Dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, service, method string, body []byte) ([]byte, error)
}

// ServeRPC answers calls addressed to service until ctx is done. Consumption is
// restarted after channel loss so a broker reconnect does not end it.
func (client *Client) ServeRPC(ctx context.Context, service string, prefetch int, d Dispatcher) {
	queue := contracts.RPCQueue(service)
	tag := "rpc-server-" + service

	for {
		err := client.Consume(ctx, queue, tag, prefetch, func(ctx context.Context, msg amqp.Delivery) error {
			return client.reply(ctx, service, msg, d)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			client.logger.Warn(client.logCtx, "rpc_consume_stopped", "RPC consumer stopped; retrying", err,
				map[string]any{"queue": queue})
		}

		select {
		case <-ctx.Done():
			return
		case <-client.closed:
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (client *Client) reply(ctx context.Context, service string, msg amqp.Delivery, d Dispatcher) error {
	method, _ := msg.Headers[HeaderMethod].(string)
	if msg.ReplyTo == "" {
		// nobody to answer; drop instead of requeueing forever
		client.logger.Warn(ctx, "rpc_no_reply_to", "RPC request without reply-to dropped", nil,
			map[string]any{"service": service, "method": method})
		return nil
	}

	out, err := d.Dispatch(ctx, service, method, msg.Body)

	pub := amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.CorrelationId,
		DeliveryMode:  amqp.Transient,
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{HeaderStatus: string(errstatus.RPCOK)},
		Body:          out,
	}
	if err != nil {
		st := rpc.StatusFor(err)
		pub.Headers[HeaderStatus] = string(st.RPCCode())
		pub.Headers[errstatus.HeaderAMQP] = errstatus.Marshal(st)
		pub.Body, _ = json.Marshal(map[string]string{"error": st.Message})
	}

	if perr := client.Publish(ctx, "", msg.ReplyTo, pub); perr != nil {
		client.logger.Error(ctx, "rpc_reply_failed", "Failed to publish RPC reply", perr,
			map[string]any{"service": service, "method": method})
		return errors.Join(errors.New("rabbitmq: reply not published"), perr)
	}
	return nil
}
