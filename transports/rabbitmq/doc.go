// Package rabbitmq adapts an AMQP 0-9-1 broker to the messaging.QueueTransport
// contract: the broker plays the role of the opaque durable queue primitive.
//
// Mapping onto AMQP:
//   - a native path is a queue name published to via the default exchange
//   - channel transactions (tx.select/tx.commit) implement the Single and
//     Automatic transaction types
//   - passive queue declaration is the existence probe
//   - bounded-wait peek and receive poll basic.get on a configurable interval;
//     peek requeues what it saw
//   - the intent tag travels in the x-app-tag header, the encoded header blob
//     in x-extension
//
// Broker faults are classified into the contracts error taxonomy: 404 becomes
// QueueNotFoundError, 403 becomes AccessDeniedError, everything else
// propagates unchanged.
package rabbitmq
