// Package notification delivers signal alerts to external channels
// (Telegram, generic webhooks) when an instrument's ensemble suggestion
// flips direction.
package notification

import (
	"context"
	"log"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one notification to be delivered.
type Alert struct {
	Level      AlertLevel       `json:"level"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Symbol     string           `json:"symbol,omitempty"`
	Suggestion model.Suggestion `json:"suggestion,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
}

// Notifier is the interface for all delivery backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them. Useful when no
// external channel is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans one alert out to several notifiers. Delivery failures are
// logged per backend and do not stop the others.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend delivery failed: %v", err)
		}
	}
	return nil
}
