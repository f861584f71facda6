// Package events distributes session change notifications to SSE
// subscribers. The broadcaster is in-process: subscribers register a channel
// per session, and slow subscribers drop events rather than block a turn.
package events

import (
	"encoding/base64"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeStateUpdated  EventType = "state.updated"
	EventTypeImageReady    EventType = "image.ready"
	EventTypeSignalMemory  EventType = "signal.memory"
	EventTypeSignalHarvest EventType = "signal.harvest"
)

// Event is one session notification
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

const subscriberBuffer = 16

// Broadcaster fans session events out to subscribers
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for one session's events. The returned
// channel is closed by Unsubscribe.
func (b *Broadcaster) Subscribe(sessionID uuid.UUID) chan Event {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[chan Event]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(sessionID uuid.UUID, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[sessionID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}
	close(ch)
}

func (b *Broadcaster) publish(sessionID uuid.UUID, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				"session_id", sessionID, "type", event.Type)
		}
	}
}

// PublishStateUpdated publishes a state.updated event after a merge
func (b *Broadcaster) PublishStateUpdated(sessionID uuid.UUID, turn int, status string) {
	b.publish(sessionID, Event{
		Type:      EventTypeStateUpdated,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"turn":   turn,
			"status": status,
		},
	})
}

// PublishImageReady publishes an image.ready event with the rendered scene
func (b *Broadcaster) PublishImageReady(sessionID uuid.UUID, turn int, image []byte) {
	b.publish(sessionID, Event{
		Type:      EventTypeImageReady,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"turn":  turn,
			"image": base64.StdEncoding.EncodeToString(image),
		},
	})
}

// PublishSignalMemory publishes the memory-recalled signal, or its clear
// when memory is empty
func (b *Broadcaster) PublishSignalMemory(sessionID uuid.UUID, memory string) {
	b.publish(sessionID, Event{
		Type:      EventTypeSignalMemory,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"memory": memory,
			"active": memory != "",
		},
	})
}

// PublishSignalHarvest publishes the harvest signal, or its clear when
// results is nil
func (b *Broadcaster) PublishSignalHarvest(sessionID uuid.UUID, results interface{}) {
	b.publish(sessionID, Event{
		Type:      EventTypeSignalHarvest,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"results": results,
			"active":  results != nil,
		},
	})
}
