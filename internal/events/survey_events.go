package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of survey events
type EventType string

const (
	EventSurveySubmitted EventType = "survey.submitted"
)

const (
	eventSource  = "survey-service"
	eventVersion = "1.0"
)

// SurveyEvent is the envelope of every event the service publishes
type SurveyEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SurveySubmittedEvent is published once per stored response
type SurveySubmittedEvent struct {
	ResponseID          string    `json:"response_id"`
	PurchaseType        string    `json:"purchase_type"`
	City                string    `json:"city"`
	Brand               string    `json:"brand,omitempty"`
	VehicleModel        string    `json:"vehicle_model,omitempty"`
	RecommendLikelihood *int      `json:"recommend_likelihood,omitempty"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// NewSurveyEvent wraps a payload in an envelope with a fresh id.
func NewSurveyEvent(eventType EventType, data interface{}, now time.Time) *SurveyEvent {
	return &SurveyEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: now.UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
