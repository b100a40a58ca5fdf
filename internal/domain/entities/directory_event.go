package entities

import (
	"time"

	"github.com/google/uuid"
)

// DirectoryEventType represents which collection changed
type DirectoryEventType string

const (
	DirectoryEventDoctorsUpdated     DirectoryEventType = "doctors_updated"
	DirectoryEventClinicsUpdated     DirectoryEventType = "clinics_updated"
	DirectoryEventSpecialtiesUpdated DirectoryEventType = "specialties_updated"
	DirectoryEventCitiesUpdated      DirectoryEventType = "cities_updated"
)

// DirectoryEvent announces that a source collection changed and cached copies are stale.
type DirectoryEvent struct {
	ID        string             `json:"id"`
	EventType DirectoryEventType `json:"event_type"`
	Timestamp time.Time          `json:"timestamp"`
	Source    string             `json:"source,omitempty"`
}

// NewDirectoryEvent creates a new directory event
func NewDirectoryEvent(eventType DirectoryEventType, source string) *DirectoryEvent {
	return &DirectoryEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}
