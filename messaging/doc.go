// Package messaging implements the message transfer protocol and the
// queue-session state machine on top of an opaque transactional queue
// primitive.
//
// The package provides:
//   - QueueSession: lifecycle of a bound queue handle (Init, Send, HasMessage,
//     Receive) with bounded-wait polling and transaction-type selection
//   - MessageTranslator: mapping between contracts.TransportMessage and the
//     native contracts.QueueEntry representation
//   - QueueTransport, BoundQueue, SendQueue: the contracts a native queue
//     adapter implements (see transports/rabbitmq)
//   - AddressResolver: the queue naming and provisioning boundary
//   - FatalPolicy: the host-side fail-fast handling of access-denied outcomes
//
// A session owns exactly one receive handle and is driven by a single polling
// loop; sends open short-lived call-scoped handles, so one goroutine may poll
// while others send. The session itself is not safe for concurrent use from
// multiple goroutines.
package messaging
