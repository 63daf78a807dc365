package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserUpdated    EventType = "user_updated"
	EventProductCreated EventType = "product_created"
	EventProductUpdated EventType = "product_updated"
	EventProductDeleted EventType = "product_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	PasswordChanged bool   `json:"password_changed"`
}

// ProductChangedPayload payload for catalog create/update events.
type ProductChangedPayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
