package config

import (
	"log/slog"
	"strings"

	"github.com/mintsurvey/survey-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka, memory or noop
	KafkaBrokers string
	SurveyTopic  string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled")
		return events.NoopEventPublisher{}, nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.SurveyTopic)

		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.SurveyTopic,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "memory":
		logger.Info("Using in-memory event publisher", "topic", c.SurveyTopic)
		return events.NewChannelEventPublisher(events.PublisherConfig{
			TopicName: c.SurveyTopic,
			Logger:    logger,
		}), nil
	case "noop":
		return events.NoopEventPublisher{}, nil
	default:
		logger.Warn("Unknown event publisher type, falling back to noop", "publisher", c.Publisher)
		return events.NoopEventPublisher{}, nil
	}
}
