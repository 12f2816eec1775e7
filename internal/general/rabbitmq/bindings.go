package rabbitmq

import (
	"fmt"

	"nearest-departures/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// rpcServices are the stages reachable over the AMQP transport. Requests go
// through the default exchange, so each queue is addressed by its own name.
var rpcServices = []string{
	contracts.ServiceGateway,
	contracts.ServiceDisplay,
	contracts.ServiceLocation,
	contracts.ServiceTransit,
}

func declareTopology(ch *amqp.Channel) error {
	for _, svc := range rpcServices {
		q := contracts.RPCQueue(svc)
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}
	return nil
}
