package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/rpc"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var errReplyStreamClosed = errors.New("rabbitmq: reply stream closed")

type pendingCall struct {
	gen   uint64
	reply chan amqp.Delivery
}

// RPCClient calls stages over RabbitMQ using direct reply-to. One channel
// carries both the requests and their replies.
type RPCClient struct {
	client *Client
	logger *logger.Logger

	mu      sync.Mutex
	ch      *amqp.Channel
	gen     uint64
	pending map[string]pendingCall

	pubMu sync.Mutex
}

// NewRPCClient builds a caller on top of an established Client.
func NewRPCClient(client *Client, logger *logger.Logger) *RPCClient {
	return &RPCClient{client: client, logger: logger, pending: make(map[string]pendingCall)}
}

// Invoke publishes req to the service queue and waits for the correlated reply.
func (c *RPCClient) Invoke(ctx context.Context, service, method string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc %s/%s: encode request: %w", service, method, err)
	}

	ch, gen, err := c.channel()
	if err != nil {
		return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCUnavailable,
			Description: err.Error(), Cause: err}
	}

	id := uuid.NewString()
	reply := make(chan amqp.Delivery, 1)
	c.mu.Lock()
	c.pending[id] = pendingCall{gen: gen, reply: reply}
	c.mu.Unlock()
	defer c.forget(id)

	msg := amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: id,
		ReplyTo:       directReplyTo,
		DeliveryMode:  amqp.Transient,
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{HeaderMethod: method},
		Body:          body,
	}
	if dl, ok := ctx.Deadline(); ok {
		ms := time.Until(dl).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		msg.Expiration = strconv.FormatInt(ms, 10)
	}

	c.pubMu.Lock()
	err = ch.PublishWithContext(ctx, "", contracts.RPCQueue(service), false, false, msg)
	c.pubMu.Unlock()
	if err != nil {
		return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCUnavailable,
			Description: err.Error(), Cause: err}
	}

	select {
	case <-ctx.Done():
		return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCDeadlineExceeded,
			Description: ctx.Err().Error(), Cause: ctx.Err()}
	case d, ok := <-reply:
		if !ok {
			return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCUnavailable,
				Description: errReplyStreamClosed.Error(), Cause: errReplyStreamClosed}
		}
		return decodeReply(service, method, d, resp)
	}
}

// decodeReply turns a reply delivery into the caller's result.
func decodeReply(service, method string, d amqp.Delivery, resp any) error {
	code := errstatus.RPCUnknown
	if v, ok := d.Headers[HeaderStatus].(string); ok {
		if parsed, ok := errstatus.ParseRPCCode(v); ok {
			code = parsed
		}
	}

	if code == errstatus.RPCOK {
		if resp == nil {
			return nil
		}
		if err := json.Unmarshal(d.Body, resp); err != nil {
			return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCInternal,
				Description: "undecodable response", Cause: err}
		}
		return nil
	}

	ce := &rpc.CallError{Service: service, Method: method, Code: code}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(d.Body, &body) == nil {
		ce.Description = body.Error
	}
	if raw, ok := d.Headers[errstatus.HeaderAMQP].([]byte); ok {
		st, err := errstatus.Unmarshal(raw)
		if err != nil {
			ce.DetailErr = err
		} else {
			ce.Status = st
		}
	}
	return ce
}

func (c *RPCClient) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// channel returns the reply-consuming channel, opening a new one after loss.
func (c *RPCClient) channel() (*amqp.Channel, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil && !c.ch.IsClosed() {
		return c.ch, c.gen, nil
	}

	conn, err := c.client.connection()
	if err != nil {
		return nil, 0, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, 0, fmt.Errorf("rabbitmq: open rpc channel: %w", err)
	}
	// direct reply-to requires no-ack consumption on the publishing channel
	deliveries, err := ch.Consume(directReplyTo, "", true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, 0, fmt.Errorf("rabbitmq: consume %s: %w", directReplyTo, err)
	}

	c.gen++
	c.ch = ch
	go c.route(c.gen, deliveries)
	return ch, c.gen, nil
}

// route hands replies to waiting calls until the stream of generation gen ends.
func (c *RPCClient) route(gen uint64, deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.mu.Lock()
		p, ok := c.pending[d.CorrelationId]
		if ok {
			delete(c.pending, d.CorrelationId)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug(c.client.logCtx, "rpc_late_reply", "Dropped reply for unknown or abandoned call",
				map[string]any{"correlation_id": d.CorrelationId})
			continue
		}
		p.reply <- d
	}

	c.mu.Lock()
	for id, p := range c.pending {
		if p.gen == gen {
			close(p.reply)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()
}

// Close releases the reply channel.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
}
