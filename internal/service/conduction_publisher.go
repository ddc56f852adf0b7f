// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/venue-conduction-board/internal/model"
    q "github.com/iliyamo/venue-conduction-board/internal/queue"
)

// ConductionPublisher publishes conduction events, dialing the broker per
// message.
type ConductionPublisher struct {
    URL string
}

// NewConductionPublisher returns a publisher for the broker at url.
func NewConductionPublisher(url string) *ConductionPublisher {
    return &ConductionPublisher{URL: url}
}

// NewEvent builds the event announced for a confirmed conduction.
func NewEvent(req model.ConductionRequest, at time.Time) q.ConductionConfirmedEvent {
    return q.ConductionConfirmedEvent{
        ItemID:        req.ItemID,
        VenueID:       req.VenueID,
        Date:          req.DateKey,
        GuestListID:   req.GuestListID,
        ReservationID: req.ReservationID,
        ConfirmedAt:   at.UTC().Format(time.RFC3339),
    }
}

// PublishConductionConfirmed publishes an event to the conduction.confirmed
// queue.  Messages are marked as persistent.
func (p *ConductionPublisher) PublishConductionConfirmed(ctx context.Context, req model.ConductionRequest, at time.Time) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.ConductionQueueName, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(NewEvent(req, at))
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    at.UTC(),
        MessageId:    req.VenueID + ":" + req.DateKey + ":" + req.ItemID,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.ConductionQueueName, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
