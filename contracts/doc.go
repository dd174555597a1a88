// Package contracts provides the core types exchanged through the transitq transport:
//   - TransportMessage: the logical message a caller sends or receives
//   - QueueEntry: the native queue record a transport adapter produces and consumes
//   - MessageIntent: the enumerated purpose tag carried out-of-band on the wire
//   - Typed errors for configuration, missing-queue and access-denied outcomes
//
// The types here carry no behavior beyond field access and classification;
// translation between TransportMessage and QueueEntry lives in the messaging
// package.
package contracts
