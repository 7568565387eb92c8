// Package events publishes ledger changes to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, event models.LedgerEvent) error
	Close() error
}

// NewEvent stamps an event of the given type with a fresh id and time.
func NewEvent(eventType string, at time.Time) models.LedgerEvent {
	return models.LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at.UnixMilli(),
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, models.LedgerEvent) error { return nil }
func (NopPublisher) Close() error                                               { return nil }

// ConsolePublisher writes one "[topic] json" line per event.
type ConsolePublisher struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsolePublisher(out io.Writer) *ConsolePublisher {
	return &ConsolePublisher{out: out}
}

func (c *ConsolePublisher) Publish(ctx context.Context, topic string, event models.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = fmt.Fprintf(c.out, "[%s] %s\n", topic, body)
	return err
}

func (c *ConsolePublisher) Close() error { return nil }
