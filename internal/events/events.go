package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types
const (
	TypeTripCreated         = "trip.created"
	TypeTripStarted         = "trip.started"
	TypeRideRequestAccepted = "ride_request.accepted"
	TypeRideRequestRefused  = "ride_request.refused"
	TypeTripFinished        = "trip.finished"
)

// Event is an audit record of a committed lifecycle transition.
type Event struct {
	Type       string    `json:"type"`
	TripID     string    `json:"trip_id"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Key() []byte {
	return []byte(e.TripID)
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers lifecycle events. Delivery is best-effort; callers
// log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NopPublisher) Close() error { return nil }
