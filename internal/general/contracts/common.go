package contracts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Envelope adds cross-cutting headers every inter-stage call carries.
type Envelope struct {
	CorrelationID string    `json:"correlation_id"`    // one id per pipeline traversal
	Caller        string    `json:"caller"`            // calling component, e.g. "Transportplan"
	SentAt        time.Time `json:"sent_at,omitempty"` // send time (UTC)
}

// NewEnvelope builds an envelope for caller, generating a correlation id when none is given.
func NewEnvelope(correlationID, caller string) Envelope {
	id := strings.TrimSpace(correlationID)
	if id == "" {
		id = uuid.NewString()
	}
	return Envelope{CorrelationID: id, Caller: caller, SentAt: time.Now().UTC()}
}

// Forward returns a copy of the envelope stamped by the next caller.
// The correlation id is carried over unchanged.
func (e Envelope) Forward(caller string) Envelope {
	if strings.TrimSpace(e.CorrelationID) == "" {
		return NewEnvelope("", caller)
	}
	return Envelope{CorrelationID: e.CorrelationID, Caller: caller, SentAt: time.Now().UTC()}
}

// Address is a structured street address.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Coordinates are WGS84 degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Departure is one upcoming departure of a line.
type Departure struct {
	LineName      string    `json:"line_name"`
	DepartureTime time.Time `json:"departure_time"`
}

// Station is a stop with its provider-reported distance.
// Departures keep provider order.
type Station struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	DistanceMeters float64     `json:"distance_meters"`
	Departures     []Departure `json:"departures,omitempty"`
}

// Ack is the synchronous receipt an ingress returns before any work is done.
type Ack struct {
	AcceptedAt time.Time `json:"accepted_at"`
}

// NewAck stamps an Ack with the current time.
func NewAck() *Ack {
	return &Ack{AcceptedAt: time.Now().UTC()}
}

// ResultMeta describes where provider data came from.
type ResultMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
}
