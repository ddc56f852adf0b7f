// Package queue defines message payloads exchanged over the message broker
// and the consumer that keeps the conduction audit log.
package queue

// ConductionQueueName is the durable queue conduction events are routed to.
const ConductionQueueName = "conduction.confirmed"

// ConductionConfirmedEvent is published when the system of record accepted a
// conduction.  It carries enough context for downstream consumers to log or
// notify without calling back into the board.
type ConductionConfirmedEvent struct {
    ItemID        string `json:"item_id"`
    VenueID       string `json:"venue_id"`
    Date          string `json:"date"`
    GuestListID   string `json:"guest_list_id,omitempty"`
    ReservationID string `json:"reservation_id,omitempty"`
    ConfirmedAt   string `json:"confirmed_at"`
}
